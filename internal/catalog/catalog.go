// Package catalog documents the built-in node types: what each one reads
// and writes, which parameters it takes and their defaults. It backs the
// "nodes" command and the describe_nodes MCP tool, and stamps out palette
// templates for new graphs.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"pulsegraph/internal/display"
	"pulsegraph/pkg/nodegraph"
)

// ErrUnknownType is returned by Template for a type the registry lacks.
var ErrUnknownType = errors.New("catalog: unknown node type")

// Port is one input or output handle.
type Port struct {
	Handle  string  `json:"handle" yaml:"handle"`
	Kind    string  `json:"kind" yaml:"kind"` // "trigger" or "number"
	Default float64 `json:"default" yaml:"default"`
}

// Param is one node parameter with its default.
type Param struct {
	Name    string `json:"name" yaml:"name"`
	Default any    `json:"default" yaml:"default"`
	Summary string `json:"summary" yaml:"summary"`
}

// Entry documents one node type.
type Entry struct {
	Type    nodegraph.NodeType `json:"type" yaml:"type"`
	Label   string             `json:"label" yaml:"label"`
	Phase   string             `json:"phase" yaml:"phase"`
	Summary string             `json:"summary" yaml:"summary"`
	Inputs  []Port             `json:"inputs" yaml:"inputs"`
	Outputs []Port             `json:"outputs" yaml:"outputs"`
	Params  []Param            `json:"params" yaml:"params"`
	Tags    []string           `json:"tags,omitempty" yaml:"tags,omitempty"` // extra search terms
}

// Registry holds node documentation in palette order.
type Registry struct {
	Entries []Entry
}

// NewRegistry creates a Registry from the given entries.
func NewRegistry(entries []Entry) *Registry {
	return &Registry{Entries: entries}
}

// Get returns the entry for t.
func (r *Registry) Get(t nodegraph.NodeType) (Entry, bool) {
	for _, e := range r.Entries {
		if e.Type == t {
			return e, true
		}
	}
	return Entry{}, false
}

// Lookup returns the entries matching any of terms, in palette order.
// A term matches case-insensitively against the type tag, the label, the
// phase, any handle name or any tag. No terms returns every entry.
func (r *Registry) Lookup(terms ...string) []Entry {
	wanted := buildSearchTerms(terms)
	out := make([]Entry, 0, len(r.Entries))
	for _, e := range r.Entries {
		if len(wanted) == 0 || matchesAny(e, wanted) {
			out = append(out, e)
		}
	}
	return out
}

// Template returns a new node of type t with id, its label, handle
// declarations and default parameters filled in.
func (r *Registry) Template(t nodegraph.NodeType, id string) (nodegraph.Node, error) {
	e, ok := r.Get(t)
	if !ok {
		return nodegraph.Node{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	n := nodegraph.Node{
		ID:   id,
		Type: t,
		Data: nodegraph.NodeData{Label: e.Label},
	}
	if len(e.Inputs) > 0 {
		n.Data.Inputs = make(map[string]any, len(e.Inputs))
		for _, p := range e.Inputs {
			n.Data.Inputs[p.Handle] = p.Kind
		}
	}
	if len(e.Outputs) > 0 {
		n.Data.Outputs = make(map[string]any, len(e.Outputs))
		for _, p := range e.Outputs {
			n.Data.Outputs[p.Handle] = p.Kind
		}
	}
	if len(e.Params) > 0 {
		n.Data.Parameters = make(nodegraph.Params, len(e.Params))
		for _, p := range e.Params {
			n.Data.Parameters[p.Name] = p.Default
		}
	}
	return n, nil
}

func buildSearchTerms(terms []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range terms {
		lower := strings.ToLower(strings.TrimSpace(t))
		if lower != "" && !seen[lower] {
			seen[lower] = true
			out = append(out, lower)
		}
	}
	return out
}

func matchesAny(e Entry, terms []string) bool {
	candidates := []string{string(e.Type), e.Label, e.Phase}
	candidates = append(candidates, e.Tags...)
	for _, p := range e.Inputs {
		candidates = append(candidates, p.Handle)
	}
	for _, p := range e.Outputs {
		candidates = append(candidates, p.Handle)
	}
	for _, c := range candidates {
		lower := strings.ToLower(c)
		for _, term := range terms {
			if lower == term {
				return true
			}
		}
	}
	return false
}

func trigger(handle string) Port { return Port{Handle: handle, Kind: "trigger"} }

func number(handle string, def float64) Port { return Port{Handle: handle, Kind: "number", Default: def} }

// entry builds an Entry. Nil slices become empty so JSON shows [] not null.
func entry(t nodegraph.NodeType, summary string, in, out []Port, params []Param, tags ...string) Entry {
	if in == nil {
		in = []Port{}
	}
	if out == nil {
		out = []Port{}
	}
	if params == nil {
		params = []Param{}
	}
	return Entry{
		Type:    t,
		Label:   display.NodeType(string(t)),
		Phase:   display.Phase(string(t)),
		Summary: summary,
		Inputs:  in,
		Outputs: out,
		Params:  params,
		Tags:    tags,
	}
}

// Default returns the registry of the node types the evaluator understands,
// with defaults taken from cfg where the evaluator reads them from config.
func Default(cfg nodegraph.Config) *Registry {
	cfg = withConfigDefaults(cfg)
	return NewRegistry([]Entry{
		entry(nodegraph.TypeBeatMarkers,
			fmt.Sprintf("1 when a beat lies within %gs of the playback time, else 0.", cfg.BeatTolerance),
			nil, []Port{trigger(nodegraph.HandleBeats)}, nil, "beat", "rhythm"),
		entry(nodegraph.TypeTransientMarkers,
			fmt.Sprintf("1 when a transient lies within %gs of the playback time, else 0.", cfg.TransientTolerance),
			nil, []Port{trigger(nodegraph.HandleTransients)}, nil, "transient", "onset", "hit"),
		entry(nodegraph.TypeAudioLoudness,
			"The loudness contour value at the playback time, 0 outside the contour.",
			nil, []Port{number(nodegraph.HandleLoudness, 0)}, nil, "rms", "volume"),

		entry(nodegraph.TypeAnd,
			fmt.Sprintf("1 when both inputs exceed %g, else 0.", cfg.TriggerThreshold),
			[]Port{trigger(nodegraph.HandleInputA), trigger(nodegraph.HandleInputB)},
			[]Port{trigger(nodegraph.HandleOutput)}, nil, "gate"),
		entry(nodegraph.TypeCounter,
			"Counts rising edges of trigger modulo maxCount; reset returns to 0. Without session state the count is floor(time × trigger) mod maxCount.",
			[]Port{trigger(nodegraph.HandleTrigger), trigger(nodegraph.HandleReset)},
			[]Port{number(nodegraph.HandleCount, 0)},
			[]Param{{Name: "maxCount", Default: 10.0, Summary: "count wraps to 0 at this value"}}),
		entry(nodegraph.TypeMapRange,
			"Linearly remaps input from [inputMin, inputMax] to [outputMin, outputMax] and clamps. A zero-width input range gives outputMin.",
			[]Port{number(nodegraph.HandleInput, 0)},
			[]Port{number(nodegraph.HandleOutput, 0)},
			[]Param{
				{Name: "inputMin", Default: 0.0, Summary: "input lower bound"},
				{Name: "inputMax", Default: 1.0, Summary: "input upper bound"},
				{Name: "outputMin", Default: 0.0, Summary: "output lower bound"},
				{Name: "outputMax", Default: 100.0, Summary: "output upper bound"},
			}, "scale", "remap"),
		entry(nodegraph.TypeRandomGate,
			"Passes a high trigger with the given probability. The draw is fixed by node id and playback time.",
			[]Port{trigger(nodegraph.HandleTrigger)},
			[]Port{trigger(nodegraph.HandleOutput)},
			[]Param{{Name: "probability", Default: 0.5, Summary: "chance in [0, 1] that a trigger passes"}}, "chance"),

		entry(nodegraph.TypeCutVideo,
			"Emits cut_video on video_track while trigger is high; the value is intensity.",
			[]Port{trigger(nodegraph.HandleTrigger), number(nodegraph.HandleIntensity, 0.5)},
			nil, nil, nodegraph.ActionCutVideo, "cut"),
		entry(nodegraph.TypeSetEffect,
			"Emits set_effect on effectName.parameterName while trigger is high; the value is value.",
			[]Port{trigger(nodegraph.HandleTrigger), number(nodegraph.HandleValue, 0)},
			nil,
			[]Param{
				{Name: "effectName", Default: "glitch", Summary: "effect to drive"},
				{Name: "parameterName", Default: "intensity", Summary: "effect parameter to set"},
			}, nodegraph.ActionSetEffect, "effect"),
		entry(nodegraph.TypeSelectClip,
			"Emits select_clip on clip_library while trigger is high; the value is clipIndex.",
			[]Port{trigger(nodegraph.HandleTrigger), number(nodegraph.HandleClipIndex, 0)},
			nil, nil, nodegraph.ActionSelectClip, "clip"),
	})
}

func withConfigDefaults(c nodegraph.Config) nodegraph.Config {
	d := nodegraph.DefaultConfig()
	if c.BeatTolerance <= 0 {
		c.BeatTolerance = d.BeatTolerance
	}
	if c.TransientTolerance <= 0 {
		c.TransientTolerance = d.TransientTolerance
	}
	if c.TriggerThreshold <= 0 {
		c.TriggerThreshold = d.TriggerThreshold
	}
	return c
}
