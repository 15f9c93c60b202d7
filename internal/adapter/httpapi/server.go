// Package httpapi exposes the prediction endpoint plus health, readiness,
// and metrics routes over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aquasight/groundwater-prediction-service/internal/domain"
	"github.com/aquasight/groundwater-prediction-service/internal/registry"
	"github.com/aquasight/groundwater-prediction-service/internal/schema"
)

// Predictor produces a complete report for a registered station.
type Predictor interface {
	Predict(ctx context.Context, stationID string) (*domain.PredictionReport, error)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the prediction API.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer builds the router: POST /v1/predict and GET /v1/predict/{stationID}
// for predictions, plus /healthz, /readyz, and /metrics.
func NewServer(addr string, corsOrigins []string, predictor Predictor, ready ReadinessChecker, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", handleReady(ready))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/predict", s.handlePredictBody(predictor))
		r.Get("/predict/{stationID}", s.handlePredictPath(predictor))
	})

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type predictRequest struct {
	StationID string `json:"station_id"`
}

func (s *Server) handlePredictBody(predictor Predictor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req predictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StationID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body must be JSON with a non-empty station_id"})
			return
		}
		s.predict(w, r, predictor, req.StationID)
	}
}

func (s *Server) handlePredictPath(predictor Predictor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.predict(w, r, predictor, chi.URLParam(r, "stationID"))
	}
}

// predict maps pipeline errors onto the response contract: unknown station
// is the caller's problem (404), a schema mismatch or model failure is a
// service misconfiguration (500). A request either yields a complete report
// or one structured error.
func (s *Server) predict(w http.ResponseWriter, r *http.Request, predictor Predictor, stationID string) {
	report, err := predictor.Predict(r.Context(), stationID)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrStationNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		default:
			var mismatch *schema.MissingFeatureError
			if errors.As(err, &mismatch) {
				s.logger.Error("schema mismatch serving prediction", "station_id", stationID, "error", err)
			} else {
				s.logger.Error("prediction failed", "station_id", stationID, "error", err)
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
