// Package domain models groundwater monitoring stations, their live sensor
// readings, and the composite report produced by the prediction service.
//
// # Data Source
//
// Water levels come from DWLR (Digital Water Level Recorder) field stations;
// rainfall, temperature, and potential evapotranspiration (PET) come from a
// weather provider. At serving time both are fetched fresh per request by an
// observation source adapter. The service itself never persists readings.
//
// # Units and conventions
//
// Water level:        metres below ground surface datum, reported as metres.
// Rainfall:           millimetres per day.
// Temperature:        degrees Celsius (daily average).
// PET:                millimetres per day (potential evapotranspiration).
// Soil types:         Clay, Sand, Loam (open set; unknown values tolerated).
// Land use (LULC):    Agri, Urban, Forest (open set; unknown values tolerated).
//
// # Aquifer volume change
//
// The composite estimate converts a forecast head change into a stored-water
// volume:
//
//	Δh     = forecast next-period level − current level (metres, signed)
//	Sy     = specific yield for the station's soil type (dimensionless)
//	A      = monitored area, fixed at 1 km² (1,000,000 m²)
//	Volume = Sy × A × Δh   (cubic metres)
//
// Specific yield is the fraction of aquifer volume that drains under gravity
// per unit drop in water level. The lookup table carries typical literature
// values per soil type:
//
//	Clay 0.05 | Loam 0.18 | Sand 0.25
//
// A soil type outside the table falls back to 0.15 rather than failing: new
// soil categories are plausible in station metadata and a missing calibration
// constant should not block the report. The constant actually used is echoed
// in the report for auditability.
//
// The fixed 1 km² monitored area is a simplifying assumption, not a measured
// quantity; the sign of the volume change classifies the process as
// "Potential Recharge" (≥ 0) or "Potential Net Drain" (< 0).
package domain
