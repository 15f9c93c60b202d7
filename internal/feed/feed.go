// Package feed drives the simulated live feed: on a fixed interval it runs
// a prediction for every registered station and publishes the reports to
// the feed topic for the dashboard to consume.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/aquasight/groundwater-prediction-service/internal/domain"
	"github.com/aquasight/groundwater-prediction-service/internal/observability"
)

// Predictor produces a complete report for one station.
type Predictor interface {
	Predict(ctx context.Context, stationID string) (*domain.PredictionReport, error)
}

// Publisher writes one feed cycle's records to the destination.
type Publisher interface {
	PublishBatch(ctx context.Context, records []domain.FeedRecord) error
}

// StationLister enumerates the registered stations.
type StationLister interface {
	All() []domain.StationProfile
}

// Loop runs the predict-and-publish cycle until its context is cancelled.
type Loop struct {
	stations  StationLister
	predictor Predictor
	publisher Publisher
	interval  time.Duration
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a feed loop with the given stages and observability.
func New(
	stations StationLister,
	predictor Predictor,
	publisher Publisher,
	interval time.Duration,
	clock clockwork.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Loop {
	return &Loop{
		stations:  stations,
		predictor: predictor,
		publisher: publisher,
		interval:  interval,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once at least one cycle has published, or an
// error describing why the feed is not yet ready.
func (l *Loop) CheckReadiness(_ context.Context) error {
	if !l.ready.Load() {
		return errors.New("feed has not published any reports yet")
	}
	return nil
}

// Run executes one cycle per interval until the context is cancelled. A
// failed publish backs off exponentially (200ms doubling to 5s) before the
// next cycle so Kafka outages do not turn into tight retry loops.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("feed loop started", "interval", l.interval, "stations", len(l.stations.All()))
	l.metrics.FeedRunning.Set(1)
	defer l.metrics.FeedRunning.Set(0)

	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	ticker := l.clock.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		if err := l.cycle(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			l.logger.Error("feed cycle failed", "error", err)
			if !l.sleep(ctx, backoff) {
				break
			}
			backoff = min(backoff*2, maxBackoff)
		} else {
			backoff = 200 * time.Millisecond
		}

		select {
		case <-ctx.Done():
			l.logger.Info("feed loop stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}

	l.logger.Info("feed loop stopping", "reason", ctx.Err())
	return nil
}

// cycle predicts every station and publishes the successes as one batch.
// A single station failing is logged and skipped; a publish failure fails
// the whole cycle.
func (l *Loop) cycle(ctx context.Context) error {
	stations := l.stations.All()
	records := make([]domain.FeedRecord, 0, len(stations))

	for _, station := range stations {
		report, err := l.predictor.Predict(ctx, station.ID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.Warn("feed prediction failed, skipping station",
				"station_id", station.ID,
				"error", err,
			)
			continue
		}
		records = append(records, domain.FeedRecord{
			StationID:   station.ID,
			GeneratedAt: l.clock.Now().UTC(),
			Report:      report,
		})
	}

	if len(records) == 0 {
		return nil
	}

	if err := l.publisher.PublishBatch(ctx, records); err != nil {
		l.metrics.FeedErrors.Inc()
		return err
	}

	l.metrics.FeedPublished.Add(float64(len(records)))
	l.ready.Store(true)
	return nil
}

// sleep waits for d using the injected clock. Returns false if the context
// was cancelled first.
func (l *Loop) sleep(ctx context.Context, d time.Duration) bool {
	timer := l.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
