package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/aquasight/groundwater-prediction-service/internal/adapter/dwlr"
	"github.com/aquasight/groundwater-prediction-service/internal/adapter/httpapi"
	kafkaadapter "github.com/aquasight/groundwater-prediction-service/internal/adapter/kafka"
	"github.com/aquasight/groundwater-prediction-service/internal/config"
	"github.com/aquasight/groundwater-prediction-service/internal/ensemble"
	"github.com/aquasight/groundwater-prediction-service/internal/feed"
	"github.com/aquasight/groundwater-prediction-service/internal/features"
	"github.com/aquasight/groundwater-prediction-service/internal/model"
	"github.com/aquasight/groundwater-prediction-service/internal/observability"
	"github.com/aquasight/groundwater-prediction-service/internal/predict"
	"github.com/aquasight/groundwater-prediction-service/internal/registry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// Startup loads are fatal: the service must not serve any request
	// unless all eight artifacts and the station registry are usable.
	stations, err := registry.Load(cfg.StationFile)
	if err != nil {
		logger.Error("failed to load station registry", "error", err)
		os.Exit(1)
	}
	bundle, err := model.LoadBundle(cfg.ArtifactDir)
	if err != nil {
		logger.Error("failed to load model artifacts", "error", err)
		os.Exit(1)
	}
	metrics.ArtifactsLoaded.Set(8)
	logger.Info("artifacts loaded", "dir", cfg.ArtifactDir, "stations", stations.Len())

	source := dwlr.NewSimulator(clock, logger)
	reconstructor := features.NewReconstructor(bundle.Encoder)
	runner := ensemble.NewRunner(bundle, cfg.AnomalyThreshold, metrics)
	service := predict.NewService(stations, source, reconstructor, runner, logger, metrics)

	srv := httpapi.NewServer(cfg.HTTPAddr, cfg.CORSOrigins, service, service, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start the live feed loop (feature-flagged via FEED_ENABLED).
	var feedWriter *kafkaadapter.Writer
	if cfg.FeedEnabled {
		feedWriter = kafkaadapter.NewWriter(cfg, logger)
		loop := feed.New(stations, service, feedWriter, cfg.FeedInterval, clock, logger, metrics)
		go func() {
			if err := loop.Run(ctx); err != nil {
				logger.Error("feed loop error", "error", err)
			}
		}()
		logger.Info("live feed enabled", "topic", cfg.KafkaFeedTopic, "interval", cfg.FeedInterval)
	} else {
		logger.Info("live feed disabled")
	}

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if feedWriter != nil {
		if err := feedWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
