package store

import (
	"errors"
	"time"

	"pulsegraph/pkg/features"
	"pulsegraph/pkg/nodegraph"
)

// MemoryPath selects the in-process store in OpenStore.
const MemoryPath = ":memory:"

// ErrNotFound is returned when a session or snapshot id is unknown.
var ErrNotFound = errors.New("store: not found")

// Session summarises one persisted evaluation session.
type Session struct {
	ID        string
	Counters  int // number of counter nodes with saved state
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SnapshotInfo describes a stored snapshot without its payload.
type SnapshotInfo struct {
	ID         string
	SampleRate int
	Beats      int
	Tempo      float64
	CreatedAt  time.Time
}

// Store persists counter state per session and extracted snapshots so
// evaluation can resume across CLI runs and MCP calls.
// Implementations: SqlStore (SQLite) and MemStore.
type Store interface {
	// Sessions
	SaveState(sessionID string, state nodegraph.State) error
	LoadState(sessionID string) (nodegraph.State, error)
	ListSessions() ([]Session, error)
	DeleteSession(sessionID string) error
	// Snapshots
	SaveSnapshot(id string, snap *features.Snapshot) error
	GetSnapshot(id string) (*features.Snapshot, error)
	ListSnapshots() ([]SnapshotInfo, error)

	Close() error
}

// OpenStore returns a MemStore for MemoryPath or "" and a SqlStore otherwise.
func OpenStore(path string) (Store, error) {
	if path == "" || path == MemoryPath {
		return NewMemStore(), nil
	}
	return Open(path)
}

// LoadOrNew returns the saved state for sessionID, or an empty state when
// the session does not exist yet.
func LoadOrNew(s Store, sessionID string) (nodegraph.State, error) {
	st, err := s.LoadState(sessionID)
	if errors.Is(err, ErrNotFound) {
		return nodegraph.State{}, nil
	}
	return st, err
}
