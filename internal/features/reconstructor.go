// Package features rebuilds, at serving time, the feature vector the models
// were fit on offline. Training computed rolling and lag statistics over a
// historical window; a live request carries exactly one observation, so the
// window features are approximated from that single point. The
// approximations are deliberate policy, reproduced exactly from the feature
// contract:
//
//	Prev_Level        = Water_Level      (zero first-difference assumption)
//	Rainfall_7day     = Rainfall_mm × 7  (flat extrapolation of the rate)
//	Rainfall_30days   = Rainfall_mm × 30
//	PET_30days        = PET_mm × 30
//	Level_Change_Rate = 0.0              (training filled the first row with 0)
package features

import (
	"github.com/aquasight/groundwater-prediction-service/internal/domain"
	"github.com/aquasight/groundwater-prediction-service/internal/model"
	"github.com/aquasight/groundwater-prediction-service/internal/schema"
)

// Rolling-window lengths baked into the offline feature engineering.
const (
	rainShortWindow = 7
	rainLongWindow  = 30
	petLongWindow   = 30
)

// Reconstructor synthesizes the complete feature vector for one request
// from a station profile and one raw observation. It holds only the fitted
// categorical encoder and is safe for concurrent use.
type Reconstructor struct {
	encoder *model.OneHotEncoder
}

// NewReconstructor wraps the fitted one-hot encoder artifact.
func NewReconstructor(encoder *model.OneHotEncoder) *Reconstructor {
	return &Reconstructor{encoder: encoder}
}

// Reconstruct builds the full feature vector in canonical column order:
// base numeric columns, single-point window approximations, then the
// one-hot block. Unknown soil or land-use categories encode as all zeros;
// that tolerance is the encoder's fit-time policy, not an error.
func (r *Reconstructor) Reconstruct(profile domain.StationProfile, obs domain.RawObservation) *schema.Vector {
	vec := schema.NewVector()

	vec.Set(schema.WaterLevel, obs.WaterLevel)
	vec.Set(schema.RainfallMM, obs.RainfallMM)
	vec.Set(schema.AvgTempC, obs.AvgTempC)
	vec.Set(schema.PETMM, obs.PETMM)
	vec.Set(schema.Lat, profile.Lat)
	vec.Set(schema.Lon, profile.Lon)
	vec.Set(schema.Elevation, profile.Elevation)

	vec.Set(schema.PrevLevel, obs.WaterLevel)
	vec.Set(schema.Rainfall7Day, obs.RainfallMM*rainShortWindow)
	vec.Set(schema.Rainfall30Days, obs.RainfallMM*rainLongWindow)
	vec.Set(schema.PET30Days, obs.PETMM*petLongWindow)
	vec.Set(schema.LevelChangeRate, 0.0)

	block := r.encoder.Transform(map[string]string{
		schema.SoilType: profile.SoilType,
		schema.LULC:     profile.LULC,
	})
	for i, name := range r.encoder.FeatureNames() {
		vec.Set(name, block[i])
	}

	return vec
}
