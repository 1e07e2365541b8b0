package format

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"pulsegraph/internal/catalog"
	"pulsegraph/internal/display"
	"pulsegraph/internal/store"
	"pulsegraph/internal/timeline"
	"pulsegraph/pkg/features"
	"pulsegraph/pkg/nodegraph"
)

// Actions renders the actions of each frame, one row per action.
func Actions(frames []timeline.Frame, m Mode) string {
	tb := NewTable(m)
	tb.Header("Time", "Action", "Target", "Value")
	tb.Columns(
		ColumnConfig{Number: 1, Align: AlignRight},
		ColumnConfig{Number: 3, MaxWidth: 40},
		ColumnConfig{Number: 4, Align: AlignRight},
	)
	var total int
	for _, f := range frames {
		for _, a := range f.Actions {
			tb.Row(Seconds(f.Time), display.ActionWithCode(a.ActionType), a.Target, Number(a.Value))
			total++
		}
	}
	tb.Footer("", "", "ACTIONS", total)
	return tb.String()
}

// ActionList renders a flat list of actions using their own timestamps.
func ActionList(actions []nodegraph.Action, m Mode) string {
	frames := make([]timeline.Frame, 0, len(actions))
	for _, a := range actions {
		frames = append(frames, timeline.Frame{Time: a.Timestamp, Actions: []nodegraph.Action{a}})
	}
	return Actions(frames, m)
}

// Plan lists nodes in evaluation order with their type and phase. Ids
// missing from g are listed with an empty type.
func Plan(g *nodegraph.Graph, order []string, m Mode) string {
	tb := NewTable(m)
	tb.Header("#", "Node", "Type", "Phase")
	tb.Columns(ColumnConfig{Number: 1, Align: AlignRight})
	for i, id := range order {
		var typ string
		if n, ok := g.NodeByID(id); ok {
			typ = string(n.Type)
		}
		tb.Row(i+1, id, display.NodeTypeWithCode(typ), display.Phase(typ))
	}
	tb.Footer("", display.Path(order), "", "")
	return tb.String()
}

// Nodes renders node type documentation, one row per type.
func Nodes(entries []catalog.Entry, m Mode) string {
	tb := NewTable(m)
	tb.Header("Type", "Phase", "Inputs", "Outputs", "Parameters", "Summary")
	tb.Columns(ColumnConfig{Number: 6, MaxWidth: 60})
	for _, e := range entries {
		tb.Row(display.NodeTypeWithCode(string(e.Type)), e.Phase, ports(e.Inputs), ports(e.Outputs), params(e.Params), e.Summary)
	}
	return tb.String()
}

func ports(ps []catalog.Port) string {
	parts := make([]string, 0, len(ps))
	for _, p := range ps {
		parts = append(parts, p.Handle+":"+p.Kind)
	}
	return strings.Join(parts, " ")
}

func params(ps []catalog.Param) string {
	parts := make([]string, 0, len(ps))
	for _, p := range ps {
		parts = append(parts, fmt.Sprintf("%s=%v", p.Name, p.Default))
	}
	return strings.Join(parts, " ")
}

// Snapshot summarises an extracted snapshot.
func Snapshot(name string, s *features.Snapshot, m Mode) string {
	tb := NewTable(m)
	if name != "" {
		tb.Title(name)
	}
	tb.Header("Feature", "Count", "Values")
	tb.Columns(ColumnConfig{Number: 3, MaxWidth: 60})
	tb.Row("beats", len(s.BeatTimestamps), List(s.BeatTimestamps, 8))
	tb.Row("transients", len(s.TransientTimestamps), List(s.TransientTimestamps, 8))
	tb.Row("loudness", len(s.LoudnessContour), List(s.LoudnessContour, 8))
	tb.Row("spectrum", len(s.FrequencyBands), "")
	tb.Row("tempo (bpm)", "", BPM(s.TempoEstimate))
	if s.SampleRate > 0 {
		tb.Row("sample rate", "", s.SampleRate)
	}
	if d := s.Duration(); d > 0 {
		tb.Row("duration", "", Seconds(d))
	}
	return tb.String()
}

// Sessions lists persisted evaluation sessions.
func Sessions(sessions []store.Session, m Mode) string {
	tb := NewTable(m)
	tb.Header("Session", "Counters", "Created", "Updated")
	for _, s := range sessions {
		tb.Row(Truncate(s.ID, 40), s.Counters, stamp(s.CreatedAt), stamp(s.UpdatedAt))
	}
	tb.Footer("TOTAL", len(sessions), "", "")
	return tb.String()
}

// Snapshots lists stored snapshots.
func Snapshots(infos []store.SnapshotInfo, m Mode) string {
	tb := NewTable(m)
	tb.Header("Snapshot", "Rate", "Beats", "Tempo", "Created")
	for _, s := range infos {
		tb.Row(Truncate(s.ID, 40), s.SampleRate, s.Beats, BPM(s.Tempo), stamp(s.CreatedAt))
	}
	return tb.String()
}

// State renders one session's counter values.
func State(st nodegraph.State, m Mode) string {
	tb := NewTable(m)
	tb.Header("Node", "Count", "Trigger")
	for _, id := range sortedKeys(st) {
		c := st[id]
		high := "low"
		if c.TriggerHigh {
			high = "high"
		}
		tb.Row(id, Number(c.Count), high)
	}
	return tb.String()
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func sortedKeys(st nodegraph.State) []string {
	keys := make([]string, 0, len(st))
	for k := range st {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
