// Package api is the read-only HTTP surface: health and session inspection.
// All mutation flows through the WebSocket transport; these endpoints only
// snapshot state, so they never touch the event hub.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"promate/internal/store"
	"promate/pkg/types"
)

// SessionReader is the slice of the event router the API needs.
type SessionReader interface {
	Snapshot(code string) (*types.SessionSnapshot, error)
	SessionCodes() []string
	SessionCount() int
}

// ConnectionStats reports live connection counts for the health endpoint.
type ConnectionStats interface {
	GetStats() map[string]int
}

// Server serves the HTTP API. It holds no state of its own.
type Server struct {
	sessions SessionReader
	stats    ConnectionStats
	router   chi.Router
}

// NewServer wires the routes.
func NewServer(sessions SessionReader, stats ConnectionStats) *Server {
	s := &Server{
		sessions: sessions,
		stats:    stats,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)
	r.Use(jsonMiddleware)

	r.Get("/health", s.healthCheck)
	r.Get("/api/sessions", s.listSessions)
	r.Get("/api/sessions/{code}", s.getSession)

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response types for JSON serialization

type HealthResponse struct {
	Status      string         `json:"status"`
	Timestamp   time.Time      `json:"timestamp"`
	Connections map[string]int `json:"connections"`
	Sessions    int            `json:"sessions"`
}

type SessionSummary struct {
	ID               string `json:"id"`
	ParticipantCount int    `json:"participantCount"`
	TimerMode        string `json:"timerMode"`
	TimerStatus      string `json:"timerStatus"`
}

type ListSessionsResponse struct {
	Sessions []SessionSummary `json:"sessions"`
}

type SessionResponse struct {
	Session *types.SessionSnapshot `json:"session"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// GET /health
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:      "healthy",
		Timestamp:   time.Now(),
		Connections: s.stats.GetStats(),
		Sessions:    s.sessions.SessionCount(),
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// GET /api/sessions
func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	codes := s.sessions.SessionCodes()

	summaries := make([]SessionSummary, 0, len(codes))
	for _, code := range codes {
		snap, err := s.sessions.Snapshot(code)
		if err != nil {
			// Session destroyed between listing and snapshot.
			continue
		}
		summaries = append(summaries, SessionSummary{
			ID:               snap.Code,
			ParticipantCount: len(snap.Participants),
			TimerMode:        string(snap.Timer.Mode),
			TimerStatus:      string(snap.Timer.Status),
		})
	}

	json.NewEncoder(w).Encode(ListSessionsResponse{Sessions: summaries})
}

// GET /api/sessions/{code}
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if !types.IsValidSessionCode(code) {
		s.sendError(w, "Invalid session code", http.StatusBadRequest)
		return
	}

	snap, err := s.sessions.Snapshot(code)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			s.sendError(w, "Session not found", http.StatusNotFound)
		} else {
			s.sendError(w, "Failed to get session", http.StatusInternalServerError)
		}
		return
	}

	json.NewEncoder(w).Encode(SessionResponse{Session: snap})
}

func (s *Server) sendError(w http.ResponseWriter, message string, code int) {
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(code),
		Code:    code,
		Message: message,
	})
}

// corsMiddleware allows web clients on other origins to poll the API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
