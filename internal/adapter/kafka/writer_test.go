package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasight/groundwater-prediction-service/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	generatedAt := time.Date(2026, 8, 23, 12, 30, 0, 0, time.UTC)
	record := domain.FeedRecord{
		StationID:   "station-1",
		GeneratedAt: generatedAt,
		Report: &domain.PredictionReport{
			WaterLevel:    domain.LevelForecast{NextDayLevel: 15.62},
			AquiferVolume: domain.AquiferVolumeChange{Process: domain.ProcessRecharge},
		},
	}

	msg, err := serializeToMessage(record)
	require.NoError(t, err)

	t.Run("keyed by station id", func(t *testing.T) {
		assert.Equal(t, []byte("station-1"), msg.Key)
	})

	t.Run("headers carry station and timestamp", func(t *testing.T) {
		headers := map[string]string{}
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, "station-1", headers["station_id"])
		assert.Equal(t, "2026-08-23T12:30:00Z", headers["generated_at"])
	})

	t.Run("value round-trips the record", func(t *testing.T) {
		var decoded domain.FeedRecord
		require.NoError(t, json.Unmarshal(msg.Value, &decoded))
		assert.Equal(t, record.StationID, decoded.StationID)
		assert.True(t, record.GeneratedAt.Equal(decoded.GeneratedAt))
		require.NotNil(t, decoded.Report)
		assert.Equal(t, 15.62, decoded.Report.WaterLevel.NextDayLevel)
		assert.Equal(t, domain.ProcessRecharge, decoded.Report.AquiferVolume.Process)
	})
}
