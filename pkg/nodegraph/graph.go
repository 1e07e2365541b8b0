// Package nodegraph evaluates audio-reactive node graphs.
//
// A Graph is an ordered list of typed nodes wired together by edges that
// name a source handle and a target handle. Evaluation reads a features
// Snapshot at a playback instant, propagates values along edges and
// returns the actions emitted by output nodes.
//
// Edges that point at missing nodes or handles are not errors: the
// consuming node sees "no value" and falls back to its default.
package nodegraph

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Graph is the authored rule network. Declaration order of Nodes and Edges
// is significant: it breaks ties in evaluation order and decides which
// edge wins when several feed the same input handle.
type Graph struct {
	Nodes []Node `json:"nodes" yaml:"nodes" validate:"dive"`
	Edges []Edge `json:"edges" yaml:"edges" validate:"dive"`
}

// Node is one typed processing step.
type Node struct {
	ID       string   `json:"id" yaml:"id" validate:"required"`
	Type     NodeType `json:"type" yaml:"type" validate:"required"`
	Position Position `json:"position" yaml:"position"`
	Data     NodeData `json:"data" yaml:"data"`
}

// Position is editor layout only; evaluation never reads it.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// NodeData carries the label, display-only handle declarations and the
// node parameters.
type NodeData struct {
	Label      string         `json:"label" yaml:"label"`
	Inputs     map[string]any `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs    map[string]any `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Parameters Params         `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Edge wires a source node handle to a target node handle. An empty
// handle is treated as absent.
type Edge struct {
	ID           string `json:"id" yaml:"id" validate:"required"`
	Source       string `json:"source" yaml:"source" validate:"required"`
	Target       string `json:"target" yaml:"target" validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty" yaml:"targetHandle,omitempty"`
}

// nodeWire accepts both the editor spelling (type) and the engine
// spelling (node_type) of the type tag.
type nodeWire struct {
	ID       string   `json:"id" yaml:"id"`
	Type     NodeType `json:"type" yaml:"type"`
	NodeType NodeType `json:"node_type" yaml:"node_type"`
	Position Position `json:"position" yaml:"position"`
	Data     NodeData `json:"data" yaml:"data"`
}

func (w nodeWire) node() Node {
	typ := w.Type
	if typ == "" {
		typ = w.NodeType
	}
	return Node{ID: w.ID, Type: typ, Position: w.Position, Data: w.Data}
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var w nodeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*n = w.node()
	return nil
}

func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	var w nodeWire
	if err := value.Decode(&w); err != nil {
		return err
	}
	*n = w.node()
	return nil
}

// edgeWire accepts camelCase and snake_case handle names.
type edgeWire struct {
	ID                string `json:"id" yaml:"id"`
	Source            string `json:"source" yaml:"source"`
	Target            string `json:"target" yaml:"target"`
	SourceHandle      string `json:"sourceHandle" yaml:"sourceHandle"`
	TargetHandle      string `json:"targetHandle" yaml:"targetHandle"`
	SourceHandleSnake string `json:"source_handle" yaml:"source_handle"`
	TargetHandleSnake string `json:"target_handle" yaml:"target_handle"`
}

func (w edgeWire) edge() Edge {
	e := Edge{ID: w.ID, Source: w.Source, Target: w.Target, SourceHandle: w.SourceHandle, TargetHandle: w.TargetHandle}
	if e.SourceHandle == "" {
		e.SourceHandle = w.SourceHandleSnake
	}
	if e.TargetHandle == "" {
		e.TargetHandle = w.TargetHandleSnake
	}
	return e
}

func (e *Edge) UnmarshalJSON(data []byte) error {
	var w edgeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = w.edge()
	return nil
}

func (e *Edge) UnmarshalYAML(value *yaml.Node) error {
	var w edgeWire
	if err := value.Decode(&w); err != nil {
		return err
	}
	*e = w.edge()
	return nil
}

// NodeByID returns the first node declared with id.
func (g *Graph) NodeByID(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// handleKey addresses one handle on one node.
type handleKey struct {
	node   string
	handle string
}

// index is the per-evaluation lookup structure: node positions by id and
// the first edge feeding each target handle, in declaration order.
type index struct {
	positions map[string][]int
	inbound   map[handleKey]*Edge
}

func newIndex(g *Graph) *index {
	idx := &index{
		positions: make(map[string][]int, len(g.Nodes)),
		inbound:   make(map[handleKey]*Edge, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		idx.positions[n.ID] = append(idx.positions[n.ID], i)
	}
	for i := range g.Edges {
		e := &g.Edges[i]
		if e.TargetHandle == "" {
			continue
		}
		k := handleKey{e.Target, e.TargetHandle}
		if _, taken := idx.inbound[k]; !taken {
			idx.inbound[k] = e
		}
	}
	return idx
}
