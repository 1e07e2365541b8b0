package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pulsegraph/pkg/features"
	"pulsegraph/pkg/nodegraph"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func nowUTC() string { return time.Now().UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

// SqlStore implements Store with SQLite.
type SqlStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and runs migrations.
// Creates the parent directory (e.g. .pulsegraph) if it does not exist.
func Open(path string) (*SqlStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	var tableCount int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableCount == 0 {
		return s.freshInstall()
	}

	var v int
	err = s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return s.freshInstall()
	}
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if v != currentSchemaVersion {
		return fmt.Errorf("unknown schema version %d", v)
	}
	return nil
}

func (s *SqlStore) freshInstall() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(schemaV1); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO schema_version(version) VALUES(?)", currentSchemaVersion); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *SqlStore) Close() error {
	return s.db.Close()
}

// SaveState replaces the counter state of a session, creating the session
// on first save.
func (s *SqlStore) SaveState(sessionID string, state nodegraph.State) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save state: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := nowUTC()
	if _, err := tx.Exec(
		`INSERT INTO sessions(id, created_at, updated_at) VALUES(?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
		sessionID, now, now,
	); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM counter_state WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("clear counter state: %w", err)
	}
	for nodeID, c := range state {
		if _, err := tx.Exec(
			"INSERT INTO counter_state(session_id, node_id, count, trigger_high) VALUES(?, ?, ?, ?)",
			sessionID, nodeID, c.Count, c.TriggerHigh,
		); err != nil {
			return fmt.Errorf("insert counter state %s: %w", nodeID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save state: %w", err)
	}
	return nil
}

// LoadState returns the counter state of a session.
func (s *SqlStore) LoadState(sessionID string) (nodegraph.State, error) {
	var exists int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM sessions WHERE id = ?", sessionID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("session %q: %w", sessionID, ErrNotFound)
	}

	rows, err := s.db.Query("SELECT node_id, count, trigger_high FROM counter_state WHERE session_id = ?", sessionID)
	if err != nil {
		return nil, fmt.Errorf("query counter state: %w", err)
	}
	defer rows.Close()

	state := nodegraph.State{}
	for rows.Next() {
		var nodeID string
		var c nodegraph.CounterState
		if err := rows.Scan(&nodeID, &c.Count, &c.TriggerHigh); err != nil {
			return nil, fmt.Errorf("scan counter state: %w", err)
		}
		state[nodeID] = c
	}
	return state, rows.Err()
}

// ListSessions returns all sessions, most recently updated first.
func (s *SqlStore) ListSessions() ([]Session, error) {
	rows, err := s.db.Query(
		`SELECT s.id, s.created_at, s.updated_at, COUNT(c.node_id)
		 FROM sessions s LEFT JOIN counter_state c ON c.session_id = s.id
		 GROUP BY s.id ORDER BY s.updated_at DESC, s.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := make([]Session, 0)
	for rows.Next() {
		var sess Session
		var created, updated string
		if err := rows.Scan(&sess.ID, &created, &updated, &sess.Counters); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.CreatedAt, sess.UpdatedAt = parseTime(created), parseTime(updated)
		out = append(out, sess)
	}
	return out, rows.Err()
}

// DeleteSession removes a session and its counter state.
func (s *SqlStore) DeleteSession(sessionID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete session: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec("DELETE FROM sessions WHERE id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %q: %w", sessionID, ErrNotFound)
	}
	if _, err := tx.Exec("DELETE FROM counter_state WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("delete counter state: %w", err)
	}
	return tx.Commit()
}

// SaveSnapshot stores snap under id, replacing any previous snapshot with
// the same id.
func (s *SqlStore) SaveSnapshot(id string, snap *features.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("save snapshot %q: nil snapshot", id)
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO snapshots(id, sample_rate, beats, tempo, payload, created_at) VALUES(?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET sample_rate = excluded.sample_rate, beats = excluded.beats,
		   tempo = excluded.tempo, payload = excluded.payload`,
		id, snap.SampleRate, len(snap.BeatTimestamps), snap.TempoEstimate, payload, nowUTC(),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// GetSnapshot loads the snapshot stored under id.
func (s *SqlStore) GetSnapshot(id string) (*features.Snapshot, error) {
	var payload []byte
	err := s.db.QueryRow("SELECT payload FROM snapshots WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return features.ParseSnapshot(payload)
}

// ListSnapshots returns stored snapshot metadata ordered by id.
func (s *SqlStore) ListSnapshots() ([]SnapshotInfo, error) {
	rows, err := s.db.Query("SELECT id, sample_rate, beats, tempo, created_at FROM snapshots ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]SnapshotInfo, 0)
	for rows.Next() {
		var info SnapshotInfo
		var created string
		if err := rows.Scan(&info.ID, &info.SampleRate, &info.Beats, &info.Tempo, &created); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		info.CreatedAt = parseTime(created)
		out = append(out, info)
	}
	return out, rows.Err()
}
