package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/SteveDakota/xfory/internal/pitch"
	"github.com/SteveDakota/xfory/internal/ratelimit"
)

// errorResponse is the body of every non-200 answer.
type errorResponse struct {
	Error string `json:"error"`
}

// handlePitch serves the generation route. POST generates, OPTIONS
// answers preflight with headers only, anything else is 405.
func (s *Server) handlePitch(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.sendError(w, http.StatusNotFound, "not found")
		return
	}

	s.setCORS(w)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
		// fall through
	default:
		s.sendError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}

	var req pitch.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	identity := ratelimit.Identity(r)
	result, err := s.svc.Generate(r.Context(), identity, req)
	if err != nil {
		s.writeGenerateError(w, r, identity, err)
		return
	}

	s.sendJSON(w, http.StatusOK, result)
}

// writeGenerateError maps the service error taxonomy onto statuses:
// 400 validation and backend failure, 429 admission denied. Backend
// detail stays in the log; the client gets a generic message.
func (s *Server) writeGenerateError(w http.ResponseWriter, r *http.Request, identity string, err error) {
	var verr *pitch.ValidationError
	var berr *pitch.BackendError

	switch {
	case errors.As(err, &verr):
		s.sendError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, pitch.ErrRateLimited):
		s.sendError(w, http.StatusTooManyRequests, pitch.ErrRateLimited.Error())
	case errors.Is(err, context.Canceled):
		// The client is gone; there is nobody to answer.
	case errors.As(err, &berr):
		s.sendError(w, http.StatusBadRequest, "generation failed, try again")
	default:
		s.logger.Error("unclassified generation error",
			zap.String("identity", identity), zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "internal error")
	}
}

// debugResponse is the read-only introspection payload. Structured,
// non-sensitive fields only.
type debugResponse struct {
	Service   string         `json:"service"`
	Version   string         `json:"version,omitempty"`
	Backend   debugBackend   `json:"backend"`
	Store     string         `json:"store"`
	RateLimit debugRateLimit `json:"rate_limit"`
}

type debugBackend struct {
	Configured bool   `json:"configured"`
	Provider   string `json:"provider,omitempty"`
	Model      string `json:"model,omitempty"`
}

type debugRateLimit struct {
	WindowSeconds int `json:"window_seconds"`
	MaxRequests   int `json:"max_requests"`
}

// handleDebug reports backend availability and bound resource names.
// It never reads a request body and never touches the rate limiter.
func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, http.StatusMethodNotAllowed, "use GET")
		return
	}

	s.sendJSON(w, http.StatusOK, debugResponse{
		Service: "xfory",
		Version: s.opts.Version,
		Backend: debugBackend{
			Configured: s.opts.Provider != "",
			Provider:   s.opts.Provider,
			Model:      s.opts.Model,
		},
		Store: s.opts.StoreKind,
		RateLimit: debugRateLimit{
			WindowSeconds: int(s.opts.Window.Seconds()),
			MaxRequests:   s.opts.Limit,
		},
	})
}

// setCORS stamps the generation route's CORS contract.
func (s *Server) setCORS(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", s.opts.AllowedOrigin)
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

func (s *Server) sendJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("failed to write response", zap.Error(err))
	}
}

func (s *Server) sendError(w http.ResponseWriter, statusCode int, message string) {
	s.sendJSON(w, statusCode, errorResponse{Error: message})
}
