package predict

import (
	"math"

	"github.com/aquasight/groundwater-prediction-service/internal/domain"
	"github.com/aquasight/groundwater-prediction-service/internal/ensemble"
)

// assembleReport merges the echoed input, the five raw model outputs, and
// the composite estimate into the immutable response. No computation
// happens here beyond rounding to the contract's display precision.
func assembleReport(input domain.ObservedStation, out ensemble.Outputs, volume domain.AquiferVolumeChange) *domain.PredictionReport {
	anomalyFlag := "No"
	if out.Anomalous {
		anomalyFlag = "Yes"
	}

	// Re-derive the process label from the rounded value so the reported
	// number and label always satisfy the sign law together.
	volume.VolumeChangeM3 = roundTo(volume.VolumeChangeM3, 2)
	volume.Process = domain.ProcessRecharge
	if volume.VolumeChangeM3 < 0 {
		volume.Process = domain.ProcessNetDrain
	}

	return &domain.PredictionReport{
		RealTimeInput: input,
		WaterLevel: domain.LevelForecast{
			NextDayLevel: roundTo(out.NextDayLevel, 2),
		},
		Recharge: domain.RechargeEstimate{
			NetChange30Day: roundTo(out.RechargeEstimate, 2),
		},
		DroughtRisk: domain.DroughtRiskIndex{
			ProbabilityCriticalDrop: roundTo(out.DroughtProbability, 2),
		},
		Extraction: domain.ExtractionEstimate{
			Rate: roundTo(out.ExtractionRate, 2),
		},
		Anomaly: domain.AnomalyCheck{
			IsAnomaly: anomalyFlag,
			Score:     roundTo(out.AnomalyScore, 4),
		},
		AquiferVolume: volume,
	}
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
