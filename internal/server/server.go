// Package server exposes blackjack environments over JSON websocket
// sessions. Each connection gets its own Env.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lox/blackjackgym/internal/game"
	"github.com/lox/blackjackgym/internal/randutil"
	"github.com/rs/zerolog"
)

// Server manages websocket sessions
type Server struct {
	config    Config
	logger    zerolog.Logger
	validator *Validator
	upgrader  websocket.Upgrader
	router    chi.Router

	mu       sync.RWMutex
	sessions map[string]*Session
	reserved int // slots taken by sessions being opened
	opened   int // sessions ever opened, numbers the seed stream
}

// SessionInfo is the /sessions listing entry
type SessionInfo struct {
	ID      string    `json:"id"`
	Started time.Time `json:"started"`
	Rounds  int       `json:"rounds"`
	Money   int       `json:"money"`
	Reward  float64   `json:"reward"`
}

// NewServer validates the environment options and builds the router
func NewServer(cfg Config) (*Server, error) {
	cfg.applyDefaults()

	// A probe env rejects bad options before anyone connects.
	if _, err := game.NewEnv(randutil.New(cfg.Seed), cfg.EnvOptions...); err != nil {
		return nil, fmt.Errorf("invalid environment options: %w", err)
	}

	validator, err := NewValidator()
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:    cfg,
		logger:    cfg.Logger.With().Str("component", "server").Logger(),
		validator: validator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		sessions: make(map[string]*Session),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/ws", s.handleWebSocket)
	r.Get("/health", s.handleHealth)
	r.Get("/sessions", s.handleSessions)
	s.router = r

	return s, nil
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then closes every session
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("address", s.config.Address).Msg("Server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Close()
		return srv.Shutdown(shutdownCtx)
	}
}

// Close ends every open session
func (s *Server) Close() {
	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	for _, sess := range sessions {
		sess.closeWith(websocket.CloseGoingAway, "server shutting down")
	}
}

// SessionCount returns the number of open sessions
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sessions lists open sessions, oldest first
func (s *Server) Sessions() []SessionInfo {
	s.mu.RLock()
	infos := make([]SessionInfo, 0, len(s.sessions))
	for _, sess := range s.sessions {
		infos = append(infos, sess.Info())
	}
	s.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Started.Before(infos[j].Started)
	})
	return infos
}

// reserve takes a session slot and returns the session number
func (s *Server) reserve() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions)+s.reserved >= s.config.MaxSessions {
		return 0, false
	}
	s.reserved++
	n := s.opened
	s.opened++
	return n, true
}

func (s *Server) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reserved--
}

func (s *Server) register(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reserved--
	s.sessions[sess.id] = sess
}

func (s *Server) unregister(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sess.id)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	n, ok := s.reserve()
	if !ok {
		s.logger.Warn().Int("max_sessions", s.config.MaxSessions).Msg("Session limit reached")
		http.Error(w, "too many sessions", http.StatusServiceUnavailable)
		return
	}

	seed := randutil.Derive(s.config.Seed, n)
	env, err := game.NewEnv(randutil.New(seed), s.config.EnvOptions...)
	if err != nil {
		s.release()
		s.logger.Error().Err(err).Msg("Failed to create environment")
		http.Error(w, "failed to create environment", http.StatusInternalServerError)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.release()
		s.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	sess := newSession(uuid.NewString(), s, conn, env)
	s.register(sess)
	s.logger.Info().
		Str("session", sess.id).
		Int64("seed", seed).
		Str("remote", r.RemoteAddr).
		Msg("Session opened")

	sess.Start()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Sessions()); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode sessions")
	}
}
