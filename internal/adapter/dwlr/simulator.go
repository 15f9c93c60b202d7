// Package dwlr simulates the live observation source: the DWLR cloud for
// water levels and the official weather API for rainfall, temperature, and
// PET. Values follow slow sinusoids over the wall-clock hour of day with a
// small elevation-dependent bias, so every request sees a fresh, plausible
// reading without any external dependency.
package dwlr

import (
	"context"
	"log/slog"
	"math"

	"github.com/jonboulle/clockwork"

	"github.com/aquasight/groundwater-prediction-service/internal/domain"
)

// Simulator produces one raw observation per call. The time source is
// injected so tests can freeze the feed.
type Simulator struct {
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewSimulator creates a simulated observation source.
func NewSimulator(clock clockwork.Clock, logger *slog.Logger) *Simulator {
	return &Simulator{clock: clock, logger: logger}
}

// Observe returns a fresh simulated reading for the station. The sinusoid
// periods differ per signal so the values drift against each other across
// the day; physical plausibility of the result is not validated here.
func (s *Simulator) Observe(_ context.Context, profile domain.StationProfile) (domain.RawObservation, error) {
	hourOfDay := math.Mod(float64(s.clock.Now().UnixMilli())/1000/3600, 24)

	// Water level cycles between 14.0m and 16.0m, lowered slightly for
	// high-elevation stations.
	waterLevel := 15.0 + 1.0*math.Sin(hourOfDay/4)
	waterLevel -= profile.Elevation / 1000.0 * 0.5

	rainfall := math.Max(0, 5.0+3.0*math.Cos(hourOfDay/12))
	avgTemp := 25.0 + 5.0*math.Sin(hourOfDay/8)
	pet := 3.5 + 1.5*math.Sin(hourOfDay/10)

	obs := domain.RawObservation{
		WaterLevel: round2(waterLevel),
		RainfallMM: round2(rainfall),
		AvgTempC:   round2(avgTemp),
		PETMM:      round2(pet),
	}

	s.logger.Debug("simulated observation",
		"station_id", profile.ID,
		"water_level", obs.WaterLevel,
		"rainfall_mm", obs.RainfallMM,
	)
	return obs, nil
}

// round2 mimics the two-decimal formatting of the upstream feeds.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
