package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasight/groundwater-prediction-service/internal/schema"
)

// writeValidBundle saves a complete, schema-valid set of eight artifacts
// into dir and returns the in-memory originals.
func writeValidBundle(t *testing.T, dir string) *Bundle {
	t.Helper()

	encoder := testEncoder()

	forecastScaler, err := NewMinMaxScaler(schema.ForecastFeatures(),
		[]float64{0, 0, 0, 0, 0}, []float64{20, 70, 10, 50, 20})
	require.NoError(t, err)
	forecaster, err := NewSequenceLinear(schema.ForecastFeatures(),
		[]float64{20, 0.1, -0.2, 0.05, 1}, 0.3)
	require.NoError(t, err)

	riskScaler, err := NewMinMaxScaler(schema.RiskFeatures(),
		[]float64{0, 0, 0, -5}, []float64{20, 300, 150, 5})
	require.NoError(t, err)
	risk, err := NewLogistic(schema.RiskFeatures(),
		[]float64{-1, 0.5, 0.25, -2}, 0.1, -0.42)
	require.NoError(t, err)

	recharge := NewBoostedTrees(
		[]string{schema.WaterLevel, schema.Rainfall30Days, "Soil_Type_Loam"},
		1.25,
		[]RegressionTree{splitTree(15, -0.5, 0.5)},
	)
	extraction := NewRandomForest(
		[]string{schema.WaterLevel, schema.RainfallMM, schema.PETMM},
		[]RegressionTree{splitTree(15, 2, 8), leafTree(4)},
	)

	anomaly, err := NewIsolationForest(schema.AnomalyFeatures(), []IsoTree{{
		Nodes: []IsoNode{
			{Feature: 0, Threshold: 100, Left: 1, Right: 2},
			{Left: -1, Right: -1, Size: 128},
			{Left: -1, Right: -1, Size: 1},
		},
	}}, 256)
	require.NoError(t, err)

	saves := map[string]Artifact{
		FileEncoder:        encoder,
		FileForecastScaler: forecastScaler,
		FileForecaster:     forecaster,
		FileRiskScaler:     riskScaler,
		FileRiskClassifier: risk,
		FileRecharge:       recharge,
		FileExtraction:     extraction,
		FileAnomaly:        anomaly,
	}
	for file, a := range saves {
		require.NoError(t, Save(filepath.Join(dir, file), file, a))
	}

	return &Bundle{
		Forecaster:     forecaster,
		ForecastScaler: forecastScaler,
		Recharge:       recharge,
		Extraction:     extraction,
		Risk:           risk,
		RiskScaler:     riskScaler,
		Anomaly:        anomaly,
		Encoder:        encoder,
	}
}

func TestLoadBundleRoundTrip(t *testing.T) {
	dir := t.TempDir()
	original := writeValidBundle(t, dir)

	loaded, err := LoadBundle(dir)
	require.NoError(t, err)

	t.Run("feature schemas survive the round trip", func(t *testing.T) {
		assert.Equal(t, original.Forecaster.Features(), loaded.Forecaster.Features())
		assert.Equal(t, original.Recharge.Features(), loaded.Recharge.Features())
		assert.Equal(t, original.Encoder.FeatureNames(), loaded.Encoder.FeatureNames())
	})

	t.Run("loaded models predict identically", func(t *testing.T) {
		scaled, err := loaded.ForecastScaler.Transform([]float64{15, 35, 3.5, 25, 15})
		require.NoError(t, err)
		wantScaled, err := original.ForecastScaler.Transform([]float64{15, 35, 3.5, 25, 15})
		require.NoError(t, err)
		assert.Equal(t, wantScaled, scaled)

		got, err := loaded.Forecaster.Predict(scaled)
		require.NoError(t, err)
		want, err := original.Forecaster.Predict(wantScaled)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		gotR, err := loaded.Recharge.Predict([]float64{14, 120, 1})
		require.NoError(t, err)
		wantR, err := original.Recharge.Predict([]float64{14, 120, 1})
		require.NoError(t, err)
		assert.Equal(t, wantR, gotR)

		gotA, err := loaded.Anomaly.Score([]float64{500, 0, 5})
		require.NoError(t, err)
		wantA, err := original.Anomaly.Score([]float64{500, 0, 5})
		require.NoError(t, err)
		assert.Equal(t, wantA, gotA)
	})

	t.Run("classifier threshold survives as audit metadata", func(t *testing.T) {
		assert.Equal(t, original.Risk.RiskThreshold(), loaded.Risk.RiskThreshold())
	})
}

func TestLoadBundleFailsLoudly(t *testing.T) {
	t.Run("missing artifact file", func(t *testing.T) {
		dir := t.TempDir()
		writeValidBundle(t, dir)
		require.NoError(t, os.Remove(filepath.Join(dir, FileAnomaly)))

		_, err := LoadBundle(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), FileAnomaly)
	})

	t.Run("corrupt envelope", func(t *testing.T) {
		dir := t.TempDir()
		writeValidBundle(t, dir)
		require.NoError(t, os.WriteFile(filepath.Join(dir, FileForecaster), []byte("{not json"), 0o600))

		_, err := LoadBundle(dir)
		assert.Error(t, err)
	})

	t.Run("schema version drift", func(t *testing.T) {
		dir := t.TempDir()
		writeValidBundle(t, dir)

		path := filepath.Join(dir, FileForecaster)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var env map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &env))
		env["schema_version"] = json.RawMessage("999")
		data, err = json.Marshal(env)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, data, 0o600))

		_, err = LoadBundle(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schema version")
	})

	t.Run("kind mismatch", func(t *testing.T) {
		dir := t.TempDir()
		bundle := writeValidBundle(t, dir)
		// A scaler where the forecaster should be.
		require.NoError(t, Save(filepath.Join(dir, FileForecaster), "oops", bundle.ForecastScaler))

		_, err := LoadBundle(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "kind")
	})

	t.Run("fixed-input model with drifted features", func(t *testing.T) {
		dir := t.TempDir()
		writeValidBundle(t, dir)

		drifted, err := NewSequenceLinear(
			[]string{schema.WaterLevel, schema.Rainfall7Day, schema.PETMM, schema.AvgTempC, "Renamed_Column"},
			[]float64{1, 1, 1, 1, 1}, 0)
		require.NoError(t, err)
		require.NoError(t, Save(filepath.Join(dir, FileForecaster), "water_level_forecaster", drifted))

		_, err = LoadBundle(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "feature schema mismatch")
	})

	t.Run("tabular model declaring an unproducible column", func(t *testing.T) {
		dir := t.TempDir()
		writeValidBundle(t, dir)

		bad := NewBoostedTrees([]string{schema.WaterLevel, "Humidity_Pct"}, 0, nil)
		require.NoError(t, Save(filepath.Join(dir, FileRecharge), "recharge_estimator", bad))

		_, err := LoadBundle(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Humidity_Pct")
	})
}
