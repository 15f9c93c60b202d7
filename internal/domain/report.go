package domain

import "time"

// PredictionReport is the complete response for one prediction request.
// It is assembled once, returned to the caller, and never persisted. The
// JSON keys are the authoritative field names of the serving contract and
// are consumed verbatim by the dashboard.
type PredictionReport struct {
	RealTimeInput ObservedStation     `json:"Real_Time_Input"`
	WaterLevel    LevelForecast       `json:"Water_Level_Prediction"`
	Recharge      RechargeEstimate    `json:"Estimated_Recharge"`
	DroughtRisk   DroughtRiskIndex    `json:"Drought_Risk_Index"`
	Extraction    ExtractionEstimate  `json:"Simulated_Extraction"`
	Anomaly       AnomalyCheck        `json:"Anomaly_Check"`
	AquiferVolume AquiferVolumeChange `json:"Aquifer_Volume_Change"`
}

// LevelForecast is the next-period water level from the sequence forecaster.
type LevelForecast struct {
	NextDayLevel float64 `json:"Next_Day_Level"`
}

// RechargeEstimate is the 30-day net level change from the recharge model.
type RechargeEstimate struct {
	NetChange30Day float64 `json:"30_Day_Net_Change"`
}

// DroughtRiskIndex is the probability that the 30-day recharge falls below
// the critical threshold baked into the classifier at fit time.
type DroughtRiskIndex struct {
	ProbabilityCriticalDrop float64 `json:"Probability_Critical_Drop"`
}

// ExtractionEstimate is the simulated extraction rate from the budget model.
type ExtractionEstimate struct {
	Rate float64 `json:"Rate"`
}

// AnomalyCheck carries the detector's native-scale score and the thresholded
// yes/no flag.
type AnomalyCheck struct {
	IsAnomaly string  `json:"Is_Anomaly"`
	Score     float64 `json:"Score"`
}

// FeedRecord wraps a report for the live feed topic consumed by the
// dashboard.
type FeedRecord struct {
	StationID   string            `json:"station_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Report      *PredictionReport `json:"report"`
}
