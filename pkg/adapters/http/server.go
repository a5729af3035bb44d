// Package http exposes the session engine over a small JSON REST surface.
// The presentation layer is a pure reader of GET /sessions/{id}: on any
// conflict it re-renders from that authoritative projection instead of
// trusting local optimistic state.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/moot/internal/logging"
	"github.com/aretw0/moot/pkg/domain"
	"github.com/aretw0/moot/pkg/ports"
)

// Engine defines the interface for the session state machine core.
type Engine interface {
	CreateSession(ctx context.Context, scenarioID, ownerID string) (*domain.Session, error)
	SubmitDecision(ctx context.Context, sessionID string, step int, input string) (*domain.Session, error)
	CompleteSession(ctx context.Context, sessionID string) (*domain.Session, error)
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
}

// Server holds the handlers' collaborators.
type Server struct {
	engine  Engine
	catalog ports.ScenarioCatalog
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures request logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, catalog ports.ScenarioCatalog, opts ...Option) http.Handler {
	server := &Server{
		engine:  engine,
		catalog: catalog,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()
	r.Get("/healthz", server.health)
	r.Get("/scenarios", server.listScenarios)
	r.Post("/scenarios/{scenarioID}/sessions", server.createSession)
	r.Get("/sessions/{sessionID}", server.getSession)
	r.Post("/sessions/{sessionID}/decisions", server.submitDecision)
	r.Post("/sessions/{sessionID}/complete", server.completeSession)

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Owner-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type createSessionRequest struct {
	OwnerID string `json:"ownerId"`
}

type createSessionResponse struct {
	SessionID   string        `json:"sessionId"`
	TotalSteps  int           `json:"totalSteps"`
	CurrentStep int           `json:"currentStep"`
	Status      domain.Status `json:"status"`
}

type decisionRequest struct {
	Step  int    `json:"step"`
	Input string `json:"input"`
}

type decisionResponse struct {
	Response     string        `json:"response"`
	Consequences string        `json:"consequences"`
	NextOptions  []string      `json:"nextOptions"`
	Score        int           `json:"score"`
	CurrentStep  int           `json:"currentStep"`
	Status       domain.Status `json:"status"`
}

type completeResponse struct {
	FinalScore int           `json:"finalScore"`
	Feedback   string        `json:"feedback"`
	Status     domain.Status `json:"status"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios, err := s.catalog.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scenarios)
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	scenarioID := chi.URLParam(r, "scenarioID")

	var body createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		// An absent body is fine: the owner may arrive via header instead.
		s.badRequest(w, "invalid request body")
		return
	}
	ownerID := strings.TrimSpace(body.OwnerID)
	if ownerID == "" {
		ownerID = strings.TrimSpace(r.Header.Get("X-Owner-ID"))
	}
	if ownerID == "" {
		s.badRequest(w, "ownerId is required")
		return
	}

	sess, err := s.engine.CreateSession(r.Context(), scenarioID, ownerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID:   sess.ID,
		TotalSteps:  sess.TotalSteps,
		CurrentStep: sess.CurrentStep,
		Status:      sess.Status,
	})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) submitDecision(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var body decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if body.Step < 1 {
		s.badRequest(w, "step must be a positive integer")
		return
	}
	if strings.TrimSpace(body.Input) == "" {
		s.badRequest(w, "input is required")
		return
	}

	sess, err := s.engine.SubmitDecision(r.Context(), sessionID, body.Step, body.Input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	last := sess.LastDecision()
	writeJSON(w, http.StatusOK, decisionResponse{
		Response:     last.Response,
		Consequences: last.Consequences,
		NextOptions:  last.NextOptions,
		Score:        last.Score,
		CurrentStep:  sess.CurrentStep,
		Status:       sess.Status,
	})
}

func (s *Server) completeSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.CompleteSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, completeResponse{
		FinalScore: sess.FinalScore,
		Feedback:   sess.Feedback,
		Status:     sess.Status,
	})
}

func (s *Server) badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: message})
}

// writeError maps domain sentinels onto the REST contract: 404 for unknown
// resources, 409 for ordering/terminal conflicts, 502 for evaluator
// exhaustion, 500 for everything else.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var code string

	switch {
	case errors.Is(err, domain.ErrScenarioNotFound):
		status, code = http.StatusNotFound, "scenario_not_found"
	case errors.Is(err, domain.ErrSessionNotFound):
		status, code = http.StatusNotFound, "session_not_found"
	case errors.Is(err, domain.ErrStepMismatch):
		status, code = http.StatusConflict, "step_mismatch"
	case errors.Is(err, domain.ErrSessionTerminal):
		status, code = http.StatusConflict, "session_terminal"
	case errors.Is(err, domain.ErrStepsRemaining):
		status, code = http.StatusConflict, "steps_remaining"
	case errors.Is(err, domain.ErrSessionConflict):
		status, code = http.StatusConflict, "session_conflict"
	case errors.Is(err, domain.ErrEvaluatorUnavailable):
		status, code = http.StatusBadGateway, "evaluator_unavailable"
	default:
		status, code = http.StatusInternalServerError, "internal_error"
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}

	if status < http.StatusInternalServerError {
		s.logger.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "code", code, "err", err)
	}
	writeJSON(w, status, errorResponse{Error: code, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}
