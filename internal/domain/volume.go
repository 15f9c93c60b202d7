package domain

// MonitoredAreaSqM is the assumed monitored area per station: 1 km². A
// simplifying assumption, not a measured quantity, and identical for every
// station.
const MonitoredAreaSqM = 1_000_000.0

// DefaultSpecificYield is used when a station's soil type has no entry in
// the lookup table. Echoed in the report so the fallback is auditable.
const DefaultSpecificYield = 0.15

// Process labels for the sign of the volume change. Zero counts as recharge.
const (
	ProcessRecharge = "Potential Recharge"
	ProcessNetDrain = "Potential Net Drain"
)

// specificYieldBySoil holds typical specific yield values per soil type.
var specificYieldBySoil = map[string]float64{
	SoilClay: 0.05,
	SoilSand: 0.25,
	SoilLoam: 0.18,
}

// SpecificYield looks up the specific yield for a soil type. The second
// return reports whether the soil type was in the table; callers log the
// fallback as a warning, never an error.
func SpecificYield(soilType string) (float64, bool) {
	if sy, ok := specificYieldBySoil[soilType]; ok {
		return sy, true
	}
	return DefaultSpecificYield, false
}

// AquiferVolumeChange is the composite estimate derived from the level
// forecast and the station's soil type. It carries the constants actually
// used so the derivation can be audited from the report alone.
type AquiferVolumeChange struct {
	VolumeChangeM3 float64 `json:"volume_change_m3"`
	Process        string  `json:"process"`
	SyUsed         float64 `json:"Sy_Used"`
	AUsedSqM       float64 `json:"A_Used_sq_m"`
}

// EstimateVolumeChange derives the aquifer volume change from the current
// and forecast water levels: Volume = Sy × A × Δh. The boolean reports
// whether the soil type had a calibrated specific yield or fell back to the
// default.
func EstimateVolumeChange(currentLevel, forecastLevel float64, soilType string) (AquiferVolumeChange, bool) {
	sy, known := SpecificYield(soilType)
	deltaH := forecastLevel - currentLevel
	volume := sy * MonitoredAreaSqM * deltaH

	process := ProcessRecharge
	if volume < 0 {
		process = ProcessNetDrain
	}

	return AquiferVolumeChange{
		VolumeChangeM3: volume,
		Process:        process,
		SyUsed:         sy,
		AUsedSqM:       MonitoredAreaSqM,
	}, known
}
