package domain

// Known soil categories. The set is open: station metadata may carry soil
// types outside this list and they must degrade gracefully, never error.
const (
	SoilClay = "Clay"
	SoilSand = "Sand"
	SoilLoam = "Loam"
)

// Known land-use/land-cover categories. Open set, same policy as soil.
const (
	LULCAgri   = "Agri"
	LULCUrban  = "Urban"
	LULCForest = "Forest"
)

// StationProfile holds the immutable attributes of a monitoring station.
// Profiles are loaded once at startup and never mutated.
type StationProfile struct {
	ID        string  `yaml:"id" json:"-"`
	Lat       float64 `yaml:"lat" json:"lat"`
	Lon       float64 `yaml:"lon" json:"lon"`
	Elevation float64 `yaml:"elevation" json:"elevation"`
	SoilType  string  `yaml:"soil_type" json:"soil_type"`
	LULC      string  `yaml:"lulc" json:"lulc"`
}

// RawObservation is one fresh sensor reading, produced per request by the
// observation source and never persisted.
type RawObservation struct {
	WaterLevel float64 `json:"water_level"`
	RainfallMM float64 `json:"rainfall_mm"`
	AvgTempC   float64 `json:"avg_temp_c"`
	PETMM      float64 `json:"pet_mm"`
}

// ObservedStation is the typed composition of a station profile and one raw
// observation: the complete per-request input record. Its JSON form is the
// flat merge of both parts, echoed back in the report.
type ObservedStation struct {
	StationProfile
	RawObservation
}

// NewObservedStation combines static and dynamic inputs into one record.
func NewObservedStation(profile StationProfile, obs RawObservation) ObservedStation {
	return ObservedStation{StationProfile: profile, RawObservation: obs}
}
