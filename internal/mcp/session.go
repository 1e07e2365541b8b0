package mcp

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"pulsegraph/internal/store"
	"pulsegraph/pkg/nodegraph"
)

// Signal is one entry in the session activity log.
type Signal struct {
	Timestamp string            `json:"ts"`
	Event     string            `json:"event"`
	SessionID string            `json:"session_id,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// SignalBus is a thread-safe, append-only activity log.
type SignalBus struct {
	mu      sync.Mutex
	signals []Signal
}

// Emit appends a signal stamped with the current time.
func (b *SignalBus) Emit(event, sessionID string, meta map[string]string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.signals = append(b.signals, Signal{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Event:     event,
		SessionID: sessionID,
		Meta:      meta,
	})
}

// Since returns the signals from idx on. A negative idx is treated as 0.
func (b *SignalBus) Since(idx int) []Signal {
	b.mu.Lock()
	defer b.mu.Unlock()
	if idx < 0 {
		idx = 0
	}
	if idx >= len(b.signals) {
		return nil
	}
	out := make([]Signal, len(b.signals)-idx)
	copy(out, b.signals[idx:])
	return out
}

// Len returns the number of signals emitted so far.
func (b *SignalBus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.signals)
}

// Sessions serialises evaluations per session id. Counter state lives in
// the store; a session is locked for the whole load-evaluate-save cycle so
// two calls on the same session never interleave.
type Sessions struct {
	store  store.Store
	bus    *SignalBus
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSessions returns a session table backed by st.
func NewSessions(st store.Store) *Sessions {
	return newSessions(st, slog.Default().With(slog.String("component", "sessions")))
}

func newSessions(st store.Store, logger *slog.Logger) *Sessions {
	return &Sessions{
		store:  st,
		bus:    &SignalBus{},
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Bus returns the activity log.
func (s *Sessions) Bus() *SignalBus { return s.bus }

func (s *Sessions) lock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// Open creates a session with empty counter state and returns its id.
func (s *Sessions) Open() (string, error) {
	id := uuid.NewString()
	if err := s.store.SaveState(id, nodegraph.State{}); err != nil {
		return "", fmt.Errorf("open session: %w", err)
	}
	s.bus.Emit("session_opened", id, nil)
	return id, nil
}

// With runs fn with the session's counter state and saves the state when
// fn succeeds. An unknown id starts from empty state.
func (s *Sessions) With(id string, fn func(nodegraph.State) error) error {
	if id == "" {
		return errors.New("session id is required")
	}
	l := s.lock(id)
	l.Lock()
	defer l.Unlock()

	state, err := store.LoadOrNew(s.store, id)
	if err != nil {
		return fmt.Errorf("load session %s: %w", id, err)
	}
	if state == nil {
		state = nodegraph.State{}
	}
	if err := fn(state); err != nil {
		s.bus.Emit("evaluate_failed", id, map[string]string{"error": err.Error()})
		return err
	}
	if err := s.store.SaveState(id, state); err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}
	s.bus.Emit("evaluated", id, map[string]string{"counters": fmt.Sprint(len(state))})
	return nil
}

// Reset clears a session's counter state. It fails for unknown ids.
func (s *Sessions) Reset(id string) error {
	l := s.lock(id)
	l.Lock()
	defer l.Unlock()

	if _, err := s.store.LoadState(id); err != nil {
		return fmt.Errorf("reset session %s: %w", id, err)
	}
	if err := s.store.SaveState(id, nodegraph.State{}); err != nil {
		return fmt.Errorf("reset session %s: %w", id, err)
	}
	s.logger.Info("session reset", "session_id", id)
	s.bus.Emit("session_reset", id, nil)
	return nil
}
