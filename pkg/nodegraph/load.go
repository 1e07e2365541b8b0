package nodegraph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that every node has an id and a type and that every edge
// names an id, a source and a target. Dangling references are allowed.
func (g *Graph) Validate() error {
	if g == nil {
		return fmt.Errorf("%w: nil graph", ErrInvalidGraph)
	}
	if err := validate.Struct(g); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidGraph, err)
	}
	return nil
}

// ParseGraph decodes and validates a JSON graph.
func ParseGraph(data []byte) (*Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parse graph json: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// LoadGraph decodes a graph from JSON or YAML. ext is a file extension
// hint (".json", ".yaml", ".yml"); when empty the format is detected from
// the first non-blank byte.
func LoadGraph(data []byte, ext string) (*Graph, error) {
	switch strings.ToLower(ext) {
	case ".json":
		return ParseGraph(data)
	case ".yaml", ".yml":
		return parseGraphYAML(data)
	case "":
		if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
			return ParseGraph(data)
		}
		return parseGraphYAML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// LoadGraphFile reads a graph file, picking the format by extension.
func LoadGraphFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph: %w", err)
	}
	ext := filepath.Ext(path)
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		ext = ""
	}
	return LoadGraph(data, ext)
}

func parseGraphYAML(data []byte) (*Graph, error) {
	var g Graph
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parse graph yaml: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// ToYAML renders the graph as YAML with the canonical field names.
func (g *Graph) ToYAML() ([]byte, error) {
	return yaml.Marshal(g)
}
