package stub

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/cosci-dev/cosci/internal/backend"
	"github.com/cosci-dev/cosci/internal/domain"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const defaultStepDelay = 400 * time.Millisecond

// Server is a stand-in research service for local development and
// integration tests: it speaks the same REST and channel protocol as the
// real orchestrator but plays back scripted sessions.
type Server struct {
	logger    *zap.Logger
	hub       *Hub
	router    *chi.Mux
	stepDelay time.Duration

	mu   sync.Mutex
	runs map[string]*sessionRun
}

type sessionRun struct {
	cancel     context.CancelFunc
	goal       string
	status     string
	iteration  int
	hypotheses []domain.Hypothesis
}

func NewServer(logger *zap.Logger) *Server {
	s := &Server{
		logger:    logger,
		hub:       NewHub(logger),
		stepDelay: defaultStepDelay,
		runs:      make(map[string]*sessionRun),
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogging(logger))
	r.Use(chimw.Recoverer)

	r.Get("/api/system/health", s.handleHealth)
	r.Post("/api/research/detect-domain", s.handleDetectDomain)
	r.Post("/api/research/start", s.handleStart)
	r.Route("/api/research/{sessionID}", func(r chi.Router) {
		r.Get("/", s.handleGetSession)
		r.Post("/cancel", s.handleCancel)
	})
	r.Get("/ws", s.hub.ServeChannel)

	s.router = r
	return s
}

// SetStepDelay overrides the pause between playback steps. Tests use a
// very small value.
func (s *Server) SetStepDelay(d time.Duration) {
	s.stepDelay = d
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Close cancels every active playback and drops all channel clients.
func (s *Server) Close() {
	s.mu.Lock()
	for _, run := range s.runs {
		run.cancel()
	}
	s.mu.Unlock()
	s.hub.CloseAll()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

func (s *Server) handleDetectDomain(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ResearchQuestion string `json:"research_question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ResearchQuestion == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Research question is required"})
		return
	}
	writeJSON(w, http.StatusOK, DetectDomain(req.ResearchQuestion))
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req backend.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid request body"})
		return
	}
	if req.ResearchGoal == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Research goal is required"})
		return
	}
	if req.SessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Session ID is required"})
		return
	}
	if req.MaxIterations <= 0 {
		req.MaxIterations = 2
	}
	if req.HypothesesPerIteration <= 0 {
		req.HypothesesPerIteration = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	run := &sessionRun{cancel: cancel, goal: req.ResearchGoal, status: "running"}

	s.mu.Lock()
	s.runs[req.SessionID] = run
	s.mu.Unlock()

	s.logger.Info("starting scripted session",
		zap.String("session_id", req.SessionID),
		zap.Int("max_iterations", req.MaxIterations),
		zap.Int("hypotheses_per_iteration", req.HypothesesPerIteration))

	go s.playSession(ctx, req, run)

	writeJSON(w, http.StatusOK, backend.StartResponse{
		SessionID:     req.SessionID,
		Status:        "started",
		ResearchGoal:  req.ResearchGoal,
		MaxIterations: req.MaxIterations,
		Message:       "Research session started. Check WebSocket for real-time updates.",
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	s.mu.Lock()
	run, ok := s.runs[sessionID]
	var snap backend.SessionSnapshot
	if ok {
		snap = backend.SessionSnapshot{
			SessionID:  sessionID,
			Goal:       run.goal,
			Status:     run.status,
			Iteration:  run.iteration,
			Hypotheses: append([]domain.Hypothesis(nil), run.hypotheses...),
		}
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Session not found"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	s.mu.Lock()
	run, ok := s.runs[sessionID]
	if ok {
		run.cancel()
		run.status = "cancelled"
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Session not found or not active"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Session cancelled successfully"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
