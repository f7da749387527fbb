// Package server exposes the turn coordinator over HTTP: start a
// session, chat, answer data requests, inspect session state.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/clearline-ai/kycflow/agent/contract"
	"github.com/clearline-ai/kycflow/agent/coordinator"
	statex "github.com/clearline-ai/kycflow/agent/state"
)

type Config struct {
	Addr            string        `envconfig:"ADDR" split_words:"true" default:":8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" split_words:"true" default:"10s"`
}

type Server struct {
	coord *coordinator.Coordinator
	store statex.Store
	http  *http.Server
	cfg   Config
}

func New(coord *coordinator.Coordinator, store statex.Store, cfg Config) *Server {
	s := &Server{
		coord: coord,
		store: store,
		cfg:   cfg,
	}
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Post("/start-session", s.handleStartSession)
	r.Post("/chat", s.handleChat)
	r.Post("/continue", s.handleContinue)
	r.Get("/sessions/{sessionID}", s.handleGetSession)

	return r
}

func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}

type startSessionResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, startSessionResponse{
		SessionID: uuid.NewString(),
		Message:   "KYC session started. Send your first message to begin.",
	})
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string            `json:"session_id"`
	Events    []json.RawMessage `json:"events"`
}

// handleChat routes the message to Start, or to Resume when the session
// is waiting on a data request; the chat surface does not make the
// caller track request ids.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	pendingID := ""
	if existing, err := s.store.Load(r.Context(), sessionID); err == nil && existing.PendingRequest != nil {
		pendingID = existing.PendingRequest.RequestID
	}

	var (
		events []contractx.Event
		err    error
	)
	if pendingID != "" {
		events, err = s.coord.Resume(r.Context(), sessionID, pendingID, req.Message)
	} else {
		events, err = s.coord.Start(r.Context(), sessionID, req.Message)
	}
	if err != nil {
		writeCoordinatorError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID: sessionID,
		Events:    marshalEvents(events),
	})
}

type continueRequest struct {
	SessionID string            `json:"session_id"`
	Responses map[string]string `json:"responses"`
}

func (s *Server) handleContinue(w http.ResponseWriter, r *http.Request) {
	var req continueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.SessionID) == "" || len(req.Responses) == 0 {
		writeError(w, http.StatusBadRequest, "session_id and responses are required")
		return
	}

	// A session holds at most one outstanding request, so the batch is
	// delivered one reply at a time in arbitrary map order.
	var all []contractx.Event
	for requestID, reply := range req.Responses {
		events, err := s.coord.Resume(r.Context(), req.SessionID, requestID, reply)
		if err != nil {
			writeCoordinatorError(w, err)
			return
		}
		all = append(all, events...)
	}

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID: req.SessionID,
		Events:    marshalEvents(all),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session, err := s.store.Load(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, statex.ErrStateNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func writeCoordinatorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, contractx.ErrUsage):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, contractx.ErrDispatch):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
