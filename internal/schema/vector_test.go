package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVector(t *testing.T) {
	t.Run("preserves insertion order", func(t *testing.T) {
		v := NewVector()
		v.Set("c", 3)
		v.Set("a", 1)
		v.Set("b", 2)
		assert.Equal(t, []string{"c", "a", "b"}, v.Names())
		assert.Equal(t, 3, v.Len())
	})

	t.Run("overwrite keeps the original position", func(t *testing.T) {
		v := NewVector()
		v.Set("a", 1)
		v.Set("b", 2)
		v.Set("a", 10)

		assert.Equal(t, []string{"a", "b"}, v.Names())
		got, ok := v.Get("a")
		require.True(t, ok)
		assert.Equal(t, 10.0, got)
	})

	t.Run("get reports absence", func(t *testing.T) {
		v := NewVector()
		_, ok := v.Get("missing")
		assert.False(t, ok)
	})
}

func TestVectorSelect(t *testing.T) {
	v := NewVector()
	v.Set(WaterLevel, 15)
	v.Set(RainfallMM, 5)
	v.Set(PETMM, 3.5)
	v.Set(AvgTempC, 25)

	t.Run("selects in the requested order, ignoring extras", func(t *testing.T) {
		got, err := v.Select("m", []string{PETMM, WaterLevel})
		require.NoError(t, err)
		assert.Equal(t, []float64{3.5, 15}, got)
	})

	t.Run("missing column is a typed schema mismatch", func(t *testing.T) {
		_, err := v.Select("recharge_estimator", []string{WaterLevel, Rainfall30Days})
		require.Error(t, err)

		var mismatch *MissingFeatureError
		require.True(t, errors.As(err, &mismatch))
		assert.Equal(t, "recharge_estimator", mismatch.Model)
		assert.Equal(t, Rainfall30Days, mismatch.Feature)
		assert.Contains(t, err.Error(), "recharge_estimator")
		assert.Contains(t, err.Error(), Rainfall30Days)
	})
}

func TestFeatureLists(t *testing.T) {
	t.Run("model inputs are drawn from the producible columns", func(t *testing.T) {
		base := map[string]bool{}
		for _, name := range BaseColumns() {
			base[name] = true
		}
		for _, name := range ForecastFeatures() {
			assert.True(t, base[name], "forecast feature %s not in base columns", name)
		}
		for _, name := range AnomalyFeatures() {
			assert.True(t, base[name], "anomaly feature %s not in base columns", name)
		}
		// All risk features except the substituted target come from base.
		for _, name := range RiskFeatures() {
			if name == TargetRecharge {
				continue
			}
			assert.True(t, base[name], "risk feature %s not in base columns", name)
		}
	})

	t.Run("risk features include the substituted target", func(t *testing.T) {
		assert.Contains(t, RiskFeatures(), TargetRecharge)
	})
}
