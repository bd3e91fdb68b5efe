// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/okian/mcreate/internal/domain/crash"
	"github.com/okian/mcreate/internal/domain/vehicle"
	"github.com/okian/mcreate/pkg/logger"
	"github.com/okian/mcreate/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Vehicles(ctx context.Context, q vehicle.Query) (vehicle.List, error)
	VehiclesWithRatings(ctx context.Context, q vehicle.Query) (crash.List, error)
}

// Fallback is the body every vehicle endpoint answers with when it cannot
// produce a real result. It is always sent with status 200.
var Fallback = json.RawMessage(`{"Count":0,"Results":[]}`)

// Fallback reasons, used as a metric label.
const (
	reasonUpstream    = "upstream"
	reasonMissingBody = "missing_fields"
	reasonMalformed   = "malformed_body"
)

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	vehiclesHandler *VehiclesHandler
	createHandler   *CreateHandler

	fallbacks atomic.Int64
	logger    logger.Logger
	deadline  time.Duration
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithResponseDeadline caps how long a vehicle request may spend on
// upstream calls. Crash lookups still running at the deadline are dropped
// and the ratings gathered so far are returned. Zero disables the cap.
func WithResponseDeadline(d time.Duration) ServerOption {
	return func(s *Server) {
		if d >= 0 {
			s.deadline = d
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{logger: logger.Named("api")}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider, s.fallbacks.Load)
	s.vehiclesHandler = NewVehiclesHandler(deps, s.respondBestEffort)
	s.createHandler = NewCreateHandler(deps, s.respondBestEffort)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /vehicles/{modelYear}/{manufacturer}/{model}",
		MetricsMiddleware(RequestIDMiddleware(DeadlineMiddleware(s.vehiclesHandler.HandleGetVehicles, s.deadline)), "vehicles"))
	mux.HandleFunc("POST /vehicles",
		MetricsMiddleware(RequestIDMiddleware(DeadlineMiddleware(s.createHandler.HandlePostVehicles, s.deadline)), "vehicles_create"))
}

// respondBestEffort answers with Fallback and records why.
func (s *Server) respondBestEffort(w http.ResponseWriter, r *http.Request, endpoint, reason string, err error) {
	s.fallbacks.Add(1)
	metrics.RecordFallback(endpoint, reason)
	requestLogger(r.Context(), s.logger).Warn(r.Context(), "answering with empty result",
		logger.String("endpoint", endpoint),
		logger.String("reason", reason),
		logger.Error(err),
	)
	writeJSON(w, http.StatusOK, Fallback)
}

type bestEffortFunc func(w http.ResponseWriter, r *http.Request, endpoint, reason string, err error)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
