package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"collider-lab/internal/batch"
	"collider-lab/internal/domain"
	"collider-lab/internal/feed"
	"collider-lab/internal/observability"
	"collider-lab/internal/orchestrator"
	"collider-lab/internal/registry"
)

// maxRequestBody bounds the JSON body accepted by /v1/collide.
const maxRequestBody = 1 << 20

// Server exposes the generator over HTTP.
type Server struct {
	orch    *orchestrator.Orchestrator
	hub     *feed.Hub
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time

	startedAt time.Time

	// State
	mu            sync.Mutex
	requests      int
	failures      int
	lastRequest   time.Time
	statsRecorded bool
}

// ServerOptions for creating Server.
type ServerOptions struct {
	Orchestrator *orchestrator.Orchestrator
	Hub          *feed.Hub
	Metrics      *observability.Metrics
	Logger       *zap.Logger
	Now          func() time.Time
}

// NewServer creates a new Server.
func NewServer(opts ServerOptions) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Server{
		orch:      opts.Orchestrator,
		hub:       opts.Hub,
		metrics:   opts.Metrics,
		logger:    logger,
		now:       now,
		startedAt: now(),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("GET /metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("GET /status", s.handleStatus)

	// Event display feed
	if s.hub != nil {
		mux.Handle("GET /feed", s.hub)
	}

	mux.HandleFunc("POST /v1/collide", s.handleCollide)

	return mux
}

// collideInput is one element of the /v1/collide request array.
type collideInput struct {
	ID1    *int     `json:"id_1"`
	ID2    *int     `json:"id_2"`
	Energy *float64 `json:"Energy"`
}

// errorResponse is the JSON body of every non-2xx reply.
type errorResponse struct {
	Error string       `json:"error"`
	Stage domain.Stage `json:"stage,omitempty"`
}

// handleCollide runs one generation for the first element of the request
// array and returns the three-part payload.
func (s *Server) handleCollide(w http.ResponseWriter, r *http.Request) {
	var inputs []collideInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&inputs); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid JSON: %v", err)})
		return
	}
	if len(inputs) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "payload must be a non-empty list"})
		return
	}

	in := inputs[0]
	if in.ID1 == nil || in.ID2 == nil || in.Energy == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing required parameters: id_1, id_2, Energy"})
		return
	}

	ctx := r.Context()
	req := orchestrator.Request{ID1: *in.ID1, ID2: *in.ID2, BeamEnergy: *in.Energy}
	ev, err := s.orch.GenerateEvent(ctx, req)
	s.recordRegistryStats(ctx)

	createdAt := s.now().UnixMilli()
	if err != nil {
		s.track(false)
		s.publish(ctx, batch.FailedRecord(req, err, createdAt))

		stage := orchestrator.StageOf(err)
		status := http.StatusInternalServerError
		switch stage {
		case "":
			s.logger.Error("generation aborted", zap.Error(err))
			status = http.StatusServiceUnavailable
		case domain.StageInput:
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorResponse{Error: err.Error(), Stage: stage})
		return
	}

	s.track(true)
	s.publish(ctx, domain.RecordFromEvent("", ev, createdAt))
	writeJSON(w, http.StatusOK, ev.Legacy())
}

func (s *Server) track(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++
	if !ok {
		s.failures++
	}
	s.lastRequest = s.now()
}

func (s *Server) publish(ctx context.Context, rec *domain.EventRecord) {
	if s.hub == nil {
		return
	}
	if err := s.hub.Publish(ctx, rec); err != nil && !errors.Is(err, feed.ErrClosed) {
		s.logger.Debug("feed publish skipped", zap.String("event_id", rec.EventID), zap.Error(err))
	}
}

// recordRegistryStats exports the registry gauges once, after the first load.
func (s *Server) recordRegistryStats(ctx context.Context) {
	if s.metrics == nil || !s.orch.RegistryLoaded() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statsRecorded {
		return
	}
	reg, err := s.orch.Registry(ctx)
	if err != nil {
		return
	}
	s.metrics.SetRegistryStats(reg.Stats())
	s.statsRecorded = true
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status         string          `json:"status"`
	Uptime         string          `json:"uptime"`
	StartedAt      time.Time       `json:"started_at"`
	LastRequest    time.Time       `json:"last_request,omitempty"`
	Requests       int             `json:"requests"`
	Failures       int             `json:"failures"`
	Subscribers    int             `json:"subscribers"`
	RegistryLoaded bool            `json:"registry_loaded"`
	Registry       *registry.Stats `json:"registry,omitempty"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:         "running",
		StartedAt:      s.startedAt,
		RegistryLoaded: s.orch.RegistryLoaded(),
	}
	if resp.RegistryLoaded {
		if reg, err := s.orch.Registry(r.Context()); err == nil {
			stats := reg.Stats()
			resp.Registry = &stats
		}
	}
	if s.hub != nil {
		resp.Subscribers = s.hub.Len()
	}

	s.mu.Lock()
	resp.Uptime = s.now().Sub(s.startedAt).String()
	resp.LastRequest = s.lastRequest
	resp.Requests = s.requests
	resp.Failures = s.failures
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
