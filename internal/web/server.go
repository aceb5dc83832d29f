// Package web exposes the review scheduler over HTTP for the note app's
// frontend. User identity arrives in the X-User-ID header, set by the
// application's authentication layer; this server trusts it as-is.
package web

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/recallhq/recall/internal/session"
	"github.com/recallhq/recall/internal/storage"
)

const userHeader = "X-User-ID"

// Server holds the dependencies for the HTTP server.
type Server struct {
	db       *storage.DB
	builder  *session.Builder
	runner   *session.Runner
	router   chi.Router
	validate *validator.Validate

	// now is swappable in tests; everything date-sensitive goes through it.
	now func() time.Time

	mu     sync.Mutex
	active map[string]*session.Session // one in-flight session per user
	byID   map[string]*session.Session
}

// NewServer creates and configures a new server.
func NewServer(db *storage.DB, catalog session.Catalog) *Server {
	s := &Server{
		db:       db,
		builder:  session.NewBuilder(db, catalog),
		runner:   session.NewRunner(db),
		validate: validator.New(),
		now:      time.Now,
		active:   make(map[string]*session.Session),
		byID:     make(map[string]*session.Session),
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/review", func(r chi.Router) {
			r.Get("/overview", s.handleOverview)
			r.Post("/schedules", s.handleEnroll)
			r.Post("/sessions", s.handleStartSession)
			r.Get("/sessions/{sessionID}", s.handleGetSession)
			r.Post("/sessions/{sessionID}/reveal", s.handleReveal)
			r.Post("/sessions/{sessionID}/grade", s.handleGrade)
			r.Post("/sessions/{sessionID}/abandon", s.handleAbandon)
			r.Delete("/schedules/{noteID}", s.handleDeleteSchedule)
		})
	})

	s.router = r
}

// userID extracts the caller identity, writing a 400 when absent.
func (s *Server) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(userHeader)
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing "+userHeader+" header")
		return "", false
	}
	return id, true
}

// lookup finds a session by ID, enforcing that it belongs to the caller.
func (s *Server) lookup(sessionID, userID string) (*session.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[sessionID]
	if !ok || sess.UserID != userID {
		return nil, false
	}
	return sess, true
}

// register makes sess the user's single active session, dropping any
// previous one. The dropped session was never committed, so abandoning it
// has no persisted effect.
func (s *Server) register(sess *session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.active[sess.UserID]; ok {
		delete(s.byID, old.ID)
	}
	s.active[sess.UserID] = sess
	s.byID[sess.ID] = sess
}

func (s *Server) unregister(sess *session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, sess.ID)
	if s.active[sess.UserID] == sess {
		delete(s.active, sess.UserID)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
