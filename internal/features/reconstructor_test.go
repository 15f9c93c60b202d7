package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasight/groundwater-prediction-service/internal/domain"
	"github.com/aquasight/groundwater-prediction-service/internal/model"
	"github.com/aquasight/groundwater-prediction-service/internal/schema"
)

func testEncoder() *model.OneHotEncoder {
	return model.NewOneHotEncoder([]model.EncoderColumn{
		{Name: schema.SoilType, Categories: []string{"Clay", "Loam", "Sand"}},
		{Name: schema.LULC, Categories: []string{"Agri", "Forest", "Urban"}},
	})
}

func TestReconstruct(t *testing.T) {
	r := NewReconstructor(testEncoder())

	profile := domain.StationProfile{
		ID: "station-1", Lat: 23.0, Lon: 77.0, Elevation: 300,
		SoilType: "Loam", LULC: "Agri",
	}
	obs := domain.RawObservation{
		WaterLevel: 15.5, RainfallMM: 4.2, AvgTempC: 26.1, PETMM: 3.8,
	}

	vec := r.Reconstruct(profile, obs)

	get := func(name string) float64 {
		t.Helper()
		v, ok := vec.Get(name)
		require.True(t, ok, "feature %s missing", name)
		return v
	}

	t.Run("base columns carry the raw reading and profile", func(t *testing.T) {
		assert.Equal(t, 15.5, get(schema.WaterLevel))
		assert.Equal(t, 4.2, get(schema.RainfallMM))
		assert.Equal(t, 26.1, get(schema.AvgTempC))
		assert.Equal(t, 3.8, get(schema.PETMM))
		assert.Equal(t, 23.0, get(schema.Lat))
		assert.Equal(t, 77.0, get(schema.Lon))
		assert.Equal(t, 300.0, get(schema.Elevation))
	})

	t.Run("window features follow the single-point approximations", func(t *testing.T) {
		assert.Equal(t, obs.WaterLevel, get(schema.PrevLevel))
		assert.InDelta(t, obs.RainfallMM*7, get(schema.Rainfall7Day), 1e-12)
		assert.InDelta(t, obs.RainfallMM*30, get(schema.Rainfall30Days), 1e-12)
		assert.InDelta(t, obs.PETMM*30, get(schema.PET30Days), 1e-12)
		assert.Equal(t, 0.0, get(schema.LevelChangeRate))
	})

	t.Run("one-hot block encodes the station categories", func(t *testing.T) {
		assert.Equal(t, 1.0, get("Soil_Type_Loam"))
		assert.Equal(t, 0.0, get("Soil_Type_Clay"))
		assert.Equal(t, 0.0, get("Soil_Type_Sand"))
		assert.Equal(t, 1.0, get("LULC_Agri"))
		assert.Equal(t, 0.0, get("LULC_Forest"))
		assert.Equal(t, 0.0, get("LULC_Urban"))
	})

	t.Run("column order is base columns then the one-hot block", func(t *testing.T) {
		want := append(schema.BaseColumns(), testEncoder().FeatureNames()...)
		assert.Equal(t, want, vec.Names())
	})
}

func TestReconstructUnknownCategories(t *testing.T) {
	r := NewReconstructor(testEncoder())

	profile := domain.StationProfile{ID: "station-x", SoilType: "Peat", LULC: "Wetland"}
	vec := r.Reconstruct(profile, domain.RawObservation{WaterLevel: 12})

	for _, name := range testEncoder().FeatureNames() {
		v, ok := vec.Get(name)
		require.True(t, ok, "feature %s missing", name)
		assert.Equal(t, 0.0, v, "unknown category must encode %s as zero", name)
	}
}
