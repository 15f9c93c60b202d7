package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// prediction service.
type Metrics struct {
	PredictionsTotal   prometheus.Counter
	PredictionErrors   *prometheus.CounterVec // labels: reason={not_found,observe,schema,model}
	PredictionDuration prometheus.Histogram
	ModelInvocations   *prometheus.CounterVec // labels: model
	ArtifactsLoaded    prometheus.Gauge

	// Live feed metrics.
	FeedPublished prometheus.Counter
	FeedErrors    prometheus.Counter
	FeedRunning   prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.PredictionsTotal,
		m.PredictionErrors,
		m.PredictionDuration,
		m.ModelInvocations,
		m.ArtifactsLoaded,
		m.FeedPublished,
		m.FeedErrors,
		m.FeedRunning,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PredictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "groundwater",
			Name:      "predictions_total",
			Help:      "Total prediction requests that returned a complete report.",
		}),
		PredictionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groundwater",
			Name:      "prediction_errors_total",
			Help:      "Prediction request failures by reason.",
		}, []string{"reason"}),
		PredictionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "groundwater",
			Name:      "prediction_duration_seconds",
			Help:      "Duration of a complete reconstruct-predict-compose cycle.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		ModelInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "groundwater",
			Name:      "model_invocations_total",
			Help:      "Ensemble member invocations by model.",
		}, []string{"model"}),
		ArtifactsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "groundwater",
			Name:      "artifacts_loaded",
			Help:      "Number of model artifacts loaded at startup.",
		}),
		FeedPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "groundwater",
			Name:      "feed_published_total",
			Help:      "Total reports published to the live feed topic.",
		}),
		FeedErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "groundwater",
			Name:      "feed_errors_total",
			Help:      "Total live feed publish failures.",
		}),
		FeedRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "groundwater",
			Name:      "feed_running",
			Help:      "1 when the live feed loop is active, 0 when shut down.",
		}),
	}
}
