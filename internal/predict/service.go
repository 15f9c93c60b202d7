// Package predict is the prediction entry point: one synchronous
// request→response pipeline per invocation, with no state retained across
// requests beyond the read-only artifacts loaded at startup.
package predict

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aquasight/groundwater-prediction-service/internal/domain"
	"github.com/aquasight/groundwater-prediction-service/internal/ensemble"
	"github.com/aquasight/groundwater-prediction-service/internal/features"
	"github.com/aquasight/groundwater-prediction-service/internal/observability"
	"github.com/aquasight/groundwater-prediction-service/internal/schema"
)

// StationLookup resolves a station id to its immutable profile.
type StationLookup interface {
	Lookup(id string) (domain.StationProfile, error)
}

// ObservationSource produces one fresh raw reading per request.
type ObservationSource interface {
	Observe(ctx context.Context, profile domain.StationProfile) (domain.RawObservation, error)
}

// Service wires the stages of the prediction pipeline. All dependencies are
// injected at construction; there is no hidden global state.
type Service struct {
	stations      StationLookup
	source        ObservationSource
	reconstructor *features.Reconstructor
	runner        *ensemble.Runner
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// NewService constructs the prediction pipeline.
func NewService(
	stations StationLookup,
	source ObservationSource,
	reconstructor *features.Reconstructor,
	runner *ensemble.Runner,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Service {
	return &Service{
		stations:      stations,
		source:        source,
		reconstructor: reconstructor,
		runner:        runner,
		logger:        logger,
		metrics:       metrics,
	}
}

// CheckReadiness reports ready: the artifacts and registry were loaded
// before the service was constructed, and startup fails fatally otherwise.
func (s *Service) CheckReadiness(_ context.Context) error { return nil }

// Predict runs the full pipeline for one station: lookup, fresh
// observation, feature reconstruction, ensemble, composite estimate, report
// assembly. It either returns a complete report or a single error; partial
// reports are never produced.
func (s *Service) Predict(ctx context.Context, stationID string) (*domain.PredictionReport, error) {
	start := time.Now()

	profile, err := s.stations.Lookup(stationID)
	if err != nil {
		s.metrics.PredictionErrors.WithLabelValues("not_found").Inc()
		return nil, err
	}

	obs, err := s.source.Observe(ctx, profile)
	if err != nil {
		s.metrics.PredictionErrors.WithLabelValues("observe").Inc()
		return nil, fmt.Errorf("observe station %q: %w", stationID, err)
	}

	vec := s.reconstructor.Reconstruct(profile, obs)

	outputs, err := s.runner.Run(vec)
	if err != nil {
		var mismatch *schema.MissingFeatureError
		if errors.As(err, &mismatch) {
			s.metrics.PredictionErrors.WithLabelValues("schema").Inc()
		} else {
			s.metrics.PredictionErrors.WithLabelValues("model").Inc()
		}
		return nil, err
	}

	volume, syKnown := domain.EstimateVolumeChange(obs.WaterLevel, outputs.NextDayLevel, profile.SoilType)
	if !syKnown {
		s.logger.Warn("soil type has no calibrated specific yield, using default",
			"station_id", stationID,
			"soil_type", profile.SoilType,
			"sy_used", volume.SyUsed,
		)
	}

	report := assembleReport(domain.NewObservedStation(profile, obs), outputs, volume)

	s.metrics.PredictionsTotal.Inc()
	s.metrics.PredictionDuration.Observe(time.Since(start).Seconds())

	s.logger.Debug("prediction complete",
		"station_id", stationID,
		"next_day_level", outputs.NextDayLevel,
		"volume_change_m3", volume.VolumeChangeM3,
		"process", volume.Process,
	)
	return report, nil
}
