package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Model artifacts and station registry, both loaded once at startup.
	ArtifactDir string
	StationFile string

	// AnomalyThreshold is the serving-time decision boundary on the anomaly
	// detector's native score scale. An empirical calibration parameter, not
	// a property of the fitted model; revisit when the detector is refit.
	AnomalyThreshold float64

	CORSOrigins []string

	// Live feed configuration (Kafka topic consumed by the dashboard).
	FeedEnabled    bool
	FeedInterval   time.Duration
	KafkaBrokers   []string
	KafkaFeedTopic string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	feedInterval, err := parseDuration("FEED_INTERVAL", "15s")
	if err != nil {
		return nil, err
	}

	anomalyThreshold, err := parseFloat("ANOMALY_THRESHOLD", "-0.1")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ArtifactDir: envOrDefault("ARTIFACT_DIR", "artifacts"),
		StationFile: envOrDefault("STATION_FILE", "stations.yaml"),

		AnomalyThreshold: anomalyThreshold,
		CORSOrigins:      splitAndTrim(envOrDefault("CORS_ORIGINS", "*")),

		FeedEnabled:    envOrDefault("FEED_ENABLED", "false") == "true",
		FeedInterval:   feedInterval,
		KafkaBrokers:   splitAndTrim(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaFeedTopic: envOrDefault("KAFKA_FEED_TOPIC", "groundwater-prediction-feed"),
	}

	if cfg.ArtifactDir == "" {
		return nil, errors.New("ARTIFACT_DIR is required")
	}
	if cfg.StationFile == "" {
		return nil, errors.New("STATION_FILE is required")
	}
	if cfg.FeedEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("FEED_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaFeedTopic == "" {
			return nil, errors.New("FEED_ENABLED is true but KAFKA_FEED_TOPIC is empty")
		}
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseFloat(key, def string) (float64, error) {
	s := envOrDefault(key, def)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return f, nil
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
