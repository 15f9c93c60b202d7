package predict

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aquasight/groundwater-prediction-service/internal/domain"
	"github.com/aquasight/groundwater-prediction-service/internal/ensemble"
)

func TestAssembleReportRounding(t *testing.T) {
	input := domain.ObservedStation{}

	t.Run("display precision per section", func(t *testing.T) {
		out := ensemble.Outputs{
			NextDayLevel:       15.123456,
			RechargeEstimate:   -0.987654,
			ExtractionRate:     3.14159,
			DroughtProbability: 0.66666,
			AnomalyScore:       -0.123456,
			Anomalous:          true,
		}
		report := assembleReport(input, out, domain.AquiferVolumeChange{})

		assert.Equal(t, 15.12, report.WaterLevel.NextDayLevel)
		assert.Equal(t, -0.99, report.Recharge.NetChange30Day)
		assert.Equal(t, 3.14, report.Extraction.Rate)
		assert.Equal(t, 0.67, report.DroughtRisk.ProbabilityCriticalDrop)
		assert.Equal(t, -0.1235, report.Anomaly.Score)
		assert.Equal(t, "Yes", report.Anomaly.IsAnomaly)
	})

	t.Run("label follows the rounded volume", func(t *testing.T) {
		// A tiny negative volume rounds to -0.00; the label must agree with
		// the number the caller actually sees, not the pre-rounding sign.
		volume := domain.AquiferVolumeChange{
			VolumeChangeM3: -0.004,
			Process:        domain.ProcessNetDrain,
			SyUsed:         0.18,
			AUsedSqM:       domain.MonitoredAreaSqM,
		}
		report := assembleReport(input, ensemble.Outputs{}, volume)

		assert.Equal(t, 0.0, report.AquiferVolume.VolumeChangeM3)
		assert.Equal(t, domain.ProcessRecharge, report.AquiferVolume.Process)
	})

	t.Run("negative volume keeps the drain label", func(t *testing.T) {
		volume := domain.AquiferVolumeChange{VolumeChangeM3: -90000, Process: domain.ProcessNetDrain}
		report := assembleReport(input, ensemble.Outputs{}, volume)

		assert.Equal(t, -90000.0, report.AquiferVolume.VolumeChangeM3)
		assert.Equal(t, domain.ProcessNetDrain, report.AquiferVolume.Process)
	})
}
