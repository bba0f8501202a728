// Package web exposes the JSON API consumed by the single-page explorer,
// plus health, readiness, and metrics endpoints.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/basinview/inflow-explorer/internal/domain"
	"github.com/basinview/inflow-explorer/internal/pipeline"
)

// Pipeline is the loader surface the server reads from.
type Pipeline interface {
	CheckReadiness(ctx context.Context) error
	Snapshot() (*pipeline.Snapshot, bool)
	Forecast(ctx context.Context, input domain.ForecastInput) (domain.ForecastResult, error)
}

// Server exposes the explorer API over HTTP.
type Server struct {
	httpServer *http.Server
	pipeline   Pipeline
	logger     *slog.Logger
}

// NewServer creates an HTTP server with health, metrics, and API routes.
func NewServer(addr string, p Pipeline, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		pipeline: p,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/dataset", s.handleDataset)
	mux.HandleFunc("GET /api/histograms", s.handleHistograms)
	mux.HandleFunc("GET /api/model", s.handleModel)
	mux.HandleFunc("GET /api/forecast", s.handleForecast)

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

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.pipeline.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleDataset(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.pipeline.Snapshot()
	if !ok {
		writeNotLoaded(w)
		return
	}
	writeJSON(w, http.StatusOK, snap.Dataset)
}

func (s *Server) handleHistograms(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.pipeline.Snapshot()
	if !ok {
		writeNotLoaded(w)
		return
	}
	writeJSON(w, http.StatusOK, snap.Histograms)
}

func (s *Server) handleModel(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.pipeline.Snapshot()
	if !ok {
		writeNotLoaded(w)
		return
	}
	writeJSON(w, http.StatusOK, snap.Model)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	input, err := forecastInputFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := s.pipeline.Forecast(r.Context(), input)
	if err != nil {
		writeNotLoaded(w)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func forecastInputFromQuery(r *http.Request) (domain.ForecastInput, error) {
	swe, err := queryPct(r, "swe_pct")
	if err != nil {
		return domain.ForecastInput{}, err
	}
	fallSM, err := queryPct(r, "fall_sm_pct")
	if err != nil {
		return domain.ForecastInput{}, err
	}
	spring, err := queryPct(r, "spring_precip_pct")
	if err != nil {
		return domain.ForecastInput{}, err
	}
	return domain.ForecastInput{
		SWEPct:              swe,
		FallSoilMoisturePct: fallSM,
		SpringPrecipPct:     spring,
	}, nil
}

func queryPct(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("missing query parameter %q", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid query parameter %q: %q", name, raw)
	}
	return v, nil
}

func writeNotLoaded(w http.ResponseWriter) {
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "dataset not loaded yet"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}
