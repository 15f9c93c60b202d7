// Package ensemble routes a reconstructed feature vector through the five
// trained predictors and collects their raw outputs. Each model family is a
// distinct variant in the artifact bundle and is invoked through its own
// wrapper; dispatch is by explicit model identity, never by structural
// similarity of the underlying artifacts.
package ensemble

import (
	"fmt"

	"github.com/aquasight/groundwater-prediction-service/internal/model"
	"github.com/aquasight/groundwater-prediction-service/internal/observability"
	"github.com/aquasight/groundwater-prediction-service/internal/schema"
)

// Model identities, used in error messages and metrics labels.
const (
	ModelForecaster = "water_level_forecaster"
	ModelRecharge   = "recharge_estimator"
	ModelExtraction = "extraction_estimator"
	ModelRisk       = "drought_risk_classifier"
	ModelAnomaly    = "anomaly_detector"
)

// Outputs holds the five raw model outputs for one request.
type Outputs struct {
	NextDayLevel       float64
	RechargeEstimate   float64
	ExtractionRate     float64
	DroughtProbability float64
	AnomalyScore       float64
	Anomalous          bool
}

// Runner invokes the ensemble against a feature vector. The bundle is
// read-only; a Runner is safe for concurrent use.
type Runner struct {
	bundle           *model.Bundle
	anomalyThreshold float64
	metrics          *observability.Metrics
}

// NewRunner wraps a loaded artifact bundle. anomalyThreshold is the
// serving-time decision boundary on the detector's native score scale.
func NewRunner(bundle *model.Bundle, anomalyThreshold float64, metrics *observability.Metrics) *Runner {
	return &Runner{bundle: bundle, anomalyThreshold: anomalyThreshold, metrics: metrics}
}

// Run produces all five outputs or fails the request as a whole; partial
// results are never returned. The recharge estimate is computed before the
// drought classifier because the classifier consumes it as a feature.
func (r *Runner) Run(vec *schema.Vector) (Outputs, error) {
	var out Outputs

	score, err := r.anomalyScore(vec)
	if err != nil {
		return Outputs{}, err
	}
	out.AnomalyScore = score
	out.Anomalous = score < r.anomalyThreshold

	if out.NextDayLevel, err = r.forecastLevel(vec); err != nil {
		return Outputs{}, err
	}
	if out.RechargeEstimate, err = r.estimateRecharge(vec); err != nil {
		return Outputs{}, err
	}
	if out.ExtractionRate, err = r.estimateExtraction(vec); err != nil {
		return Outputs{}, err
	}
	if out.DroughtProbability, err = r.classifyRisk(vec, out.RechargeEstimate); err != nil {
		return Outputs{}, err
	}

	return out, nil
}

// forecastLevel scales the ordered forecast features with the dedicated
// fitted scaler and runs the sequence forecaster on the single timestep.
func (r *Runner) forecastLevel(vec *schema.Vector) (float64, error) {
	r.metrics.ModelInvocations.WithLabelValues(ModelForecaster).Inc()

	x, err := vec.Select(ModelForecaster, r.bundle.Forecaster.Features())
	if err != nil {
		return 0, err
	}
	scaled, err := r.bundle.ForecastScaler.Transform(x)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ModelForecaster, err)
	}
	level, err := r.bundle.Forecaster.Predict(scaled)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ModelForecaster, err)
	}
	return level, nil
}

// estimateRecharge selects exactly the columns the fitted model declares,
// order-preserving. A declared column missing from the vector is a hard
// schema-mismatch failure, never padded.
func (r *Runner) estimateRecharge(vec *schema.Vector) (float64, error) {
	r.metrics.ModelInvocations.WithLabelValues(ModelRecharge).Inc()

	x, err := vec.Select(ModelRecharge, r.bundle.Recharge.Features())
	if err != nil {
		return 0, err
	}
	est, err := r.bundle.Recharge.Predict(x)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ModelRecharge, err)
	}
	return est, nil
}

// estimateExtraction applies the same column discipline as the recharge
// estimator. The training target was clipped at zero; the output is clipped
// again so a numerically negative rate is never presented.
func (r *Runner) estimateExtraction(vec *schema.Vector) (float64, error) {
	r.metrics.ModelInvocations.WithLabelValues(ModelExtraction).Inc()

	x, err := vec.Select(ModelExtraction, r.bundle.Extraction.Features())
	if err != nil {
		return 0, err
	}
	rate, err := r.bundle.Extraction.Predict(x)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ModelExtraction, err)
	}
	if rate < 0 {
		rate = 0
	}
	return rate, nil
}

// classifyRisk feeds the classifier's fixed feature set, substituting the
// recharge estimator's output for the training-time target column, scaled
// by the dedicated fitted scaler. The critical-drop threshold is baked into
// the classifier at fit time and never recomputed here.
func (r *Runner) classifyRisk(vec *schema.Vector, recharge float64) (float64, error) {
	r.metrics.ModelInvocations.WithLabelValues(ModelRisk).Inc()

	features := r.bundle.Risk.Features()
	x := make([]float64, len(features))
	for i, name := range features {
		if name == schema.TargetRecharge {
			x[i] = recharge
			continue
		}
		val, ok := vec.Get(name)
		if !ok {
			return 0, &schema.MissingFeatureError{Model: ModelRisk, Feature: name}
		}
		x[i] = val
	}

	scaled, err := r.bundle.RiskScaler.Transform(x)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ModelRisk, err)
	}
	proba, err := r.bundle.Risk.PredictProba(scaled)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ModelRisk, err)
	}
	return proba, nil
}

func (r *Runner) anomalyScore(vec *schema.Vector) (float64, error) {
	r.metrics.ModelInvocations.WithLabelValues(ModelAnomaly).Inc()

	x, err := vec.Select(ModelAnomaly, r.bundle.Anomaly.Features())
	if err != nil {
		return 0, err
	}
	score, err := r.bundle.Anomaly.Score(x)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ModelAnomaly, err)
	}
	return score, nil
}
