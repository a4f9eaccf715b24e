package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/threadbare"
	"github.com/aretw0/threadbare/pkg/domain"
	"github.com/aretw0/threadbare/pkg/host"
	"github.com/aretw0/threadbare/pkg/script"
	"github.com/aretw0/threadbare/pkg/session"
)

// Server exposes story sessions over HTTP.
type Server struct {
	Sessions *session.Manager
	Start    string
	Streams  *StreamManager

	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics serves the gatherer's metrics on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates a new HTTP handler for the sessions of one story.
// start is the node new sessions begin at unless the request names another.
func NewHandler(sessions *session.Manager, start string, opts ...Option) http.Handler {
	server := &Server{
		Sessions: sessions,
		Start:    start,
		Streams:  NewStreamManager(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(server)
	}
	server.Streams.logger = server.logger

	r := chi.NewRouter()
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	if server.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(server.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", server.ListSessions)
		r.Post("/", server.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", server.GetSession)
			r.Delete("/", server.DeleteSession)
			r.Post("/execute", server.Execute)
			r.Post("/choose", server.Choose)
			r.Post("/skip", server.Skip)
			r.Post("/tick", server.Tick)
			r.Post("/resume", server.Resume)
			r.Get("/snapshot", server.GetSnapshot)
			r.Get("/events", server.SubscribeEvents)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CreateRequest is the body of POST /sessions. Both fields are optional.
type CreateRequest struct {
	ID   string `json:"id,omitempty"`
	Node string `json:"node,omitempty"`
}

// ChooseRequest is the body of POST /sessions/{id}/choose.
type ChooseRequest struct {
	Index int `json:"index"`
}

// TickRequest is the body of POST /sessions/{id}/tick. Count defaults to 1.
type TickRequest struct {
	Count int `json:"count"`
}

// ErrWrongState is returned when an operation does not apply to the session's state.
var ErrWrongState = errors.New("operation not valid in current state")

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body CreateRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			s.logger.Warn("CreateSession: invalid request body", "err", err)
			return
		}
	}
	if body.ID == "" {
		body.ID = uuid.NewString()
	}
	if body.Node == "" {
		body.Node = s.Start
	}

	view, err := s.Sessions.Start(r.Context(), body.ID, body.Node)
	if err != nil {
		s.fail(w, "CreateSession", err)
		return
	}
	s.publish(view)
	s.respond(w, http.StatusCreated, view)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, "ListSessions", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.respond(w, http.StatusOK, ids)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetSession", err)
		return
	}
	s.respond(w, http.StatusOK, view)
}

// GetSnapshot handles GET /sessions/{id}/snapshot, returning the stored save.
func (s *Server) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Sessions.Store().Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetSnapshot", err)
		return
	}
	s.respond(w, http.StatusOK, snap)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, "DeleteSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Execute handles POST /sessions/{id}/execute, which acknowledges a line.
func (s *Server) Execute(w http.ResponseWriter, r *http.Request) {
	s.operate(w, r, "Execute", func(rn *script.Runner) error {
		if rn.State() != domain.StateLine && rn.State() != domain.StateWorking {
			return fmt.Errorf("%w: %s", ErrWrongState, rn.State())
		}
		rn.Execute()
		return nil
	})
}

// Choose handles POST /sessions/{id}/choose.
func (s *Server) Choose(w http.ResponseWriter, r *http.Request) {
	var body ChooseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Choose: invalid request body", "err", err)
		return
	}
	s.operate(w, r, "Choose", func(rn *script.Runner) error {
		if rn.State() != domain.StateOptions {
			return fmt.Errorf("%w: %s", ErrWrongState, rn.State())
		}
		if !host.ValidChoice(host.Choices(rn), body.Index) {
			return fmt.Errorf("%w: %d", host.ErrInvalidChoice, body.Index)
		}
		rn.ChooseOption(body.Index)
		rn.Execute()
		return nil
	})
}

// Skip handles POST /sessions/{id}/skip, leaving a round with no enabled option.
func (s *Server) Skip(w http.ResponseWriter, r *http.Request) {
	s.operate(w, r, "Skip", func(rn *script.Runner) error {
		if rn.State() != domain.StateOptions {
			return fmt.Errorf("%w: %s", ErrWrongState, rn.State())
		}
		if len(rn.Options().Enabled()) > 0 {
			return fmt.Errorf("%w: an option is enabled", host.ErrInvalidChoice)
		}
		rn.SkipOptions()
		rn.Execute()
		return nil
	})
}

// Tick handles POST /sessions/{id}/tick. The story continues once the timer is spent.
func (s *Server) Tick(w http.ResponseWriter, r *http.Request) {
	body := TickRequest{Count: 1}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Count < 1 {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			s.logger.Warn("Tick: invalid request body", "err", err, "count", body.Count)
			return
		}
	}
	s.operate(w, r, "Tick", func(rn *script.Runner) error {
		if rn.State() != domain.StateTimer {
			return fmt.Errorf("%w: %s", ErrWrongState, rn.State())
		}
		for i := 0; i < body.Count && rn.State() == domain.StateTimer; i++ {
			rn.WaitTick()
		}
		if rn.State() == domain.StateWorking {
			rn.Execute()
		}
		return nil
	})
}

// Resume handles POST /sessions/{id}/resume.
func (s *Server) Resume(w http.ResponseWriter, r *http.Request) {
	s.operate(w, r, "Resume", func(rn *script.Runner) error {
		if rn.State() != domain.StatePaused {
			return fmt.Errorf("%w: %s", ErrWrongState, rn.State())
		}
		rn.Resume()
		rn.Execute()
		return nil
	})
}

// operate runs fn under the session lock. An error from fn leaves the runner
// untouched and is reported with the current view.
func (s *Server) operate(w http.ResponseWriter, r *http.Request, op string, fn func(*script.Runner) error) {
	var opErr error
	view, err := s.Sessions.Do(r.Context(), chi.URLParam(r, "id"), func(rn *script.Runner) {
		opErr = fn(rn)
	})
	if err == nil {
		err = opErr
	}
	if err != nil {
		s.fail(w, op, err)
		return
	}
	s.publish(view)
	s.respond(w, http.StatusOK, view)
}

func (s *Server) publish(view session.View) {
	bytes, err := json.Marshal(view)
	if err != nil {
		s.logger.Error("failed to encode view", "err", err)
		return
	}
	s.Streams.Broadcast(view.ID, string(bytes))
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	var cv *domain.ContractViolation
	switch {
	case errors.Is(err, domain.ErrSaveNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrSessionExists), errors.Is(err, ErrWrongState):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUnknownNode), errors.Is(err, host.ErrInvalidChoice):
		status = http.StatusBadRequest
	case errors.As(err, &cv):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	} else {
		s.logger.Warn(op+" rejected", "err", err)
	}
	http.Error(w, err.Error(), status)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{
		"app":     "threadbare-http",
		"version": strings.TrimSpace(threadbare.Version),
		"start":   s.Start,
	})
}

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      slog.Default(),
	}
}

func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE). Every view produced
// by an operation on the session is sent as one event.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: streaming not supported")
		return
	}

	sessionID := chi.URLParam(r, "id")
	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	s.logger.Info("SSE: subscribing to session updates", "session_id", sessionID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE client disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
