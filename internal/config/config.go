// Package config loads pulsegraph settings from a YAML or JSON file, an
// optional .env file and PULSEGRAPH_* environment variables, in that order
// of increasing precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"pulsegraph/internal/logging"
	"pulsegraph/pkg/features"
	"pulsegraph/pkg/nodegraph"
)

// Environment variables that override file settings.
const (
	EnvLogLevel  = "PULSEGRAPH_LOG_LEVEL"
	EnvLogFormat = "PULSEGRAPH_LOG_FORMAT"
	EnvDB        = "PULSEGRAPH_DB"
)

// DefaultDBPath is the SQLite file used when nothing else is configured,
// relative to the working directory.
const DefaultDBPath = ".pulsegraph/pulsegraph.db"

// Config is the full runtime configuration.
type Config struct {
	Log      LogConfig        `json:"log" yaml:"log"`
	Store    StoreConfig      `json:"store" yaml:"store"`
	Features features.Config  `json:"features" yaml:"features"`
	Eval     nodegraph.Config `json:"eval" yaml:"eval"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// StoreConfig selects the session store. Path ":memory:" keeps everything
// in process.
type StoreConfig struct {
	Path string `json:"path" yaml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log:      LogConfig{Level: "info", Format: logging.FormatText},
		Store:    StoreConfig{Path: DefaultDBPath},
		Features: features.DefaultConfig(),
		Eval:     nodegraph.DefaultConfig(),
	}
}

// LoadFromPath reads a config file (YAML or JSON) on top of Default.
// Format is detected by extension or, failing that, by content.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Load(data, filepath.Ext(path))
}

// Load parses config bytes on top of Default. Keys absent from data keep
// their default values. ext is a format hint; empty means detect.
func Load(data []byte, ext string) (*Config, error) {
	cfg := Default()
	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}
	if ext != ".yaml" && ext != ".json" {
		ext = ".yaml"
		if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
			ext = ".json"
		}
	}

	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config json: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that cannot be applied.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	if _, err := nodegraph.ParseOrder(string(c.Eval.Order)); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from PULSEGRAPH_* variables found by lookup
// (os.LookupEnv in production).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		c.Log.Format = v
	}
	if v, ok := lookup(EnvDB); ok && v != "" {
		c.Store.Path = v
	}
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding ones already set. Missing files are
// skipped.
func LoadDotEnv(files ...string) error {
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", f, err)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Resolve builds the effective configuration: defaults, then the file at
// path when non-empty, then ./.env, then the environment.
func Resolve(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFromPath(path); err != nil {
			return nil, err
		}
	}
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
