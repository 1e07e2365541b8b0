package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"pulsegraph/pkg/features"
	"pulsegraph/pkg/nodegraph"
)

// MemStore is an in-memory Store for tests and throwaway MCP sessions.
type MemStore struct {
	mu        sync.Mutex
	sessions  map[string]*memSession
	snapshots map[string]*memSnapshot
}

type memSession struct {
	state            nodegraph.State
	created, updated time.Time
}

type memSnapshot struct {
	snap    features.Snapshot
	created time.Time
}

// NewMemStore returns a new in-memory Store.
func NewMemStore() *MemStore {
	return &MemStore{
		sessions:  make(map[string]*memSession),
		snapshots: make(map[string]*memSnapshot),
	}
}

// SaveState implements Store.
func (s *MemStore) SaveState(sessionID string, state nodegraph.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &memSession{created: now}
		s.sessions[sessionID] = sess
	}
	sess.state = state.Clone()
	if sess.state == nil {
		sess.state = nodegraph.State{}
	}
	sess.updated = now
	return nil
}

// LoadState implements Store.
func (s *MemStore) LoadState(sessionID string) (nodegraph.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", sessionID, ErrNotFound)
	}
	return sess.state.Clone(), nil
}

// ListSessions implements Store.
func (s *MemStore) ListSessions() ([]Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		out = append(out, Session{ID: id, Counters: len(sess.state), CreatedAt: sess.created, UpdatedAt: sess.updated})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteSession implements Store.
func (s *MemStore) DeleteSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return fmt.Errorf("session %q: %w", sessionID, ErrNotFound)
	}
	delete(s.sessions, sessionID)
	return nil
}

// SaveSnapshot implements Store.
func (s *MemStore) SaveSnapshot(id string, snap *features.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("save snapshot %q: nil snapshot", id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	created := time.Now().UTC()
	if prev, ok := s.snapshots[id]; ok {
		created = prev.created
	}
	s.snapshots[id] = &memSnapshot{snap: copySnapshot(snap), created: created}
	return nil
}

// GetSnapshot implements Store.
func (s *MemStore) GetSnapshot(id string) (*features.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.snapshots[id]
	if !ok {
		return nil, fmt.Errorf("snapshot %q: %w", id, ErrNotFound)
	}
	snap := copySnapshot(&m.snap)
	return &snap, nil
}

// ListSnapshots implements Store.
func (s *MemStore) ListSnapshots() ([]SnapshotInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SnapshotInfo, 0, len(s.snapshots))
	for id, m := range s.snapshots {
		out = append(out, SnapshotInfo{
			ID:         id,
			SampleRate: m.snap.SampleRate,
			Beats:      len(m.snap.BeatTimestamps),
			Tempo:      m.snap.TempoEstimate,
			CreatedAt:  m.created,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Close implements Store.
func (s *MemStore) Close() error { return nil }

func copySnapshot(in *features.Snapshot) features.Snapshot {
	out := *in
	out.BeatTimestamps = cloneFloats(in.BeatTimestamps)
	out.TransientTimestamps = cloneFloats(in.TransientTimestamps)
	out.LoudnessContour = cloneFloats(in.LoudnessContour)
	out.FrequencyBands = cloneFloats(in.FrequencyBands)
	return out
}

func cloneFloats(in []float64) []float64 {
	if in == nil {
		return nil
	}
	return append(make([]float64, 0, len(in)), in...)
}
