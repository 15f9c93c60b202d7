// Package schema is the shared feature contract between offline feature
// engineering and the serving-time reconstructor. Every derived column a
// model can be fit on is named here, and each model family exposes its
// required ordered feature list. Training writes these names into the
// artifact envelopes; serving validates against them at load time, so a
// drift between the two fails at startup instead of corrupting the first
// prediction.
package schema

// Version identifies the feature schema generation. Bumped whenever a
// column is added, removed, or renamed. Artifacts carry the version they
// were fit under.
const Version = 1

// Raw observation columns.
const (
	WaterLevel = "Water_Level"
	RainfallMM = "Rainfall_mm"
	AvgTempC   = "Avg_Temp_C"
	PETMM      = "PET_mm"
)

// Static station columns.
const (
	Lat       = "Lat"
	Lon       = "Lon"
	Elevation = "Elevation"
)

// Derived columns. Offline these are true rolling/lag statistics over the
// historical window; at serving time they are single-point approximations
// (see the features package).
const (
	PrevLevel       = "Prev_Level"
	Rainfall7Day    = "Rainfall_7day"
	Rainfall30Days  = "Rainfall_30days"
	PET30Days       = "PET_30days"
	LevelChangeRate = "Level_Change_Rate"
)

// TargetRecharge is the 30-day net level change. Offline it is a training
// target; at serving time it is produced by the recharge estimator and fed
// into the drought classifier as a feature.
const TargetRecharge = "Target_Recharge"

// Categorical source columns, one-hot expanded by the fitted encoder. The
// encoder artifact's output names are authoritative; these are only the
// input column names.
const (
	SoilType = "Soil_Type"
	LULC     = "LULC"
)

// ForecastFeatures is the ordered input of the water-level forecaster and
// its dedicated scaler.
func ForecastFeatures() []string {
	return []string{WaterLevel, Rainfall7Day, PETMM, AvgTempC, PrevLevel}
}

// RiskFeatures is the ordered input of the drought-risk classifier and its
// dedicated scaler. TargetRecharge is filled with the recharge estimator's
// output at serving time.
func RiskFeatures() []string {
	return []string{WaterLevel, Rainfall30Days, PET30Days, TargetRecharge}
}

// AnomalyFeatures is the ordered input of the anomaly detector.
func AnomalyFeatures() []string {
	return []string{WaterLevel, LevelChangeRate, RainfallMM}
}

// BaseColumns lists every non-categorical column the reconstructor
// produces, in canonical order. Together with the encoder's output names
// this is the complete set of columns a tabular model may declare.
func BaseColumns() []string {
	return []string{
		WaterLevel, RainfallMM, AvgTempC, PETMM,
		Lat, Lon, Elevation,
		PrevLevel, Rainfall7Day, Rainfall30Days, PET30Days,
		LevelChangeRate,
	}
}
