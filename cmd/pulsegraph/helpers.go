package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"pulsegraph/internal/store"
	"pulsegraph/pkg/features"
	"pulsegraph/pkg/nodegraph"
)

// openStore opens the configured store, creating the parent directory of
// a SQLite file when needed.
func openStore() (store.Store, error) {
	path := cfg.Store.Path
	if path != "" && path != store.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	st, err := store.OpenStore(path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// loadSnapshotFile reads a snapshot written by extract. YAML is accepted
// for hand-written fixtures.
func loadSnapshotFile(path string) (*features.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var s features.Snapshot
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parse snapshot yaml: %w", err)
		}
		return &s, nil
	default:
		return features.ParseSnapshot(data)
	}
}

// snapshotIDFromPath derives a store id from a file name: "mix/song.wav" -> "song".
func snapshotIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeOutput writes data to path, or to w when path is empty or "-".
func writeOutput(w io.Writer, path string, v any) error {
	if path == "" || path == "-" {
		return writeJSON(w, v)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := writeJSON(f, v); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// evalConfig applies an --order override to the configured evaluator settings.
func evalConfig(order string) (nodegraph.Config, error) {
	c := cfg.Eval
	if order != "" {
		o, err := nodegraph.ParseOrder(order)
		if err != nil {
			return c, err
		}
		c.Order = o
	}
	return c, nil
}
