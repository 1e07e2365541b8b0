package nodegraph

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"pulsegraph/pkg/features"
)

func TestEvaluate_BeatCutsVideo(t *testing.T) {
	g := &Graph{
		Nodes: []Node{
			node("beat1", TypeBeatMarkers, nil),
			node("cut1", TypeCutVideo, nil),
		},
		Edges: []Edge{edge("edge1", "beat1", HandleBeats, "cut1", HandleTrigger)},
	}
	snap := &features.Snapshot{
		BeatTimestamps:  []float64{1.0, 2.0, 3.0},
		LoudnessContour: []float64{0.5, 0.7, 0.3},
		CurrentTime:     1.0,
	}

	got, err := Evaluate(g, snap, 1.0)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	want := []Action{{ActionType: ActionCutVideo, Target: TargetVideoTrack, Value: 0.5, Timestamp: 1.0}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("actions mismatch (-want +got):\n%s", diff)
	}

	got, err = Evaluate(g, snap, 1.5)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no actions between beats, got %v", got)
	}
}

func TestEvaluate_MarkerTolerance(t *testing.T) {
	snap := &features.Snapshot{BeatTimestamps: []float64{1.0}, TransientTimestamps: []float64{1.0}}
	g := &Graph{Nodes: []Node{
		node("beat", TypeBeatMarkers, nil),
		node("hit", TypeTransientMarkers, nil),
	}}

	tests := []struct {
		time          float64
		beat, transit float64
	}{
		{1.0, 1, 1},
		{1.04, 1, 1},
		{0.95, 1, 0},
		{1.09, 1, 0},
		{1.1, 0, 0},
		{0.5, 0, 0},
	}
	for _, tt := range tests {
		tc := &TraceCollector{}
		if _, err := NewEvaluator(WithObserver(tc)).Evaluate(g, snap, tt.time, nil); err != nil {
			t.Fatalf("Evaluate(%v): %v", tt.time, err)
		}
		if v, _ := produced(tc, "beat", HandleBeats); v != tt.beat {
			t.Errorf("t=%v beats = %v, want %v", tt.time, v, tt.beat)
		}
		if v, _ := produced(tc, "hit", HandleTransients); v != tt.transit {
			t.Errorf("t=%v transients = %v, want %v", tt.time, v, tt.transit)
		}
	}
}

func TestEvaluate_Loudness(t *testing.T) {
	g := &Graph{Nodes: []Node{node("loud", TypeAudioLoudness, nil)}}
	contour := []float64{0.5, 0.7, 0.3}

	tests := []struct {
		name  string
		hop   float64
		fixed bool
		time  float64
		want  float64
	}{
		{"fixed constants index 1", 0, false, 0.03, 0.7},
		{"fixed constants index 0", 0, false, 0, 0.5},
		{"fixed constants past end", 0, false, 1.0, 0},
		{"negative time", 0, false, -0.5, 0},
		{"snapshot hop", 0.5, false, 1.2, 0.3},
		{"snapshot hop past end", 0.5, false, 1.5, 0},
		{"fixed hop ignores snapshot hop", 0.5, true, 0.03, 0.7},
		{"fixed hop past end", 0.5, true, 1.2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &features.Snapshot{LoudnessContour: contour, LoudnessHopSeconds: tt.hop}
			tc := &TraceCollector{}
			cfg := DefaultConfig()
			cfg.LoudnessFixedHop = tt.fixed
			if _, err := NewEvaluator(WithConfig(cfg), WithObserver(tc)).Evaluate(g, snap, tt.time, nil); err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if v, _ := produced(tc, "loud", HandleLoudness); v != tt.want {
				t.Errorf("loudness = %v, want %v", v, tt.want)
			}
		})
	}
}

func TestEvaluate_LogicAnd(t *testing.T) {
	tests := []struct {
		name string
		a, b *float64
		want float64
	}{
		{"both high", ptr(1), ptr(0.9), 1},
		{"a low", ptr(0.5), ptr(1), 0},
		{"b low", ptr(1), ptr(0.2), 0},
		{"a unresolved", nil, ptr(1), 0},
		{"both unresolved", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Graph{Nodes: []Node{node("and", TypeAnd, nil)}}
			if tt.a != nil {
				g.Nodes = append(g.Nodes, constant("a", *tt.a))
				g.Edges = append(g.Edges, edge("ea", "a", HandleOutput, "and", HandleInputA))
			}
			if tt.b != nil {
				g.Nodes = append(g.Nodes, constant("b", *tt.b))
				g.Edges = append(g.Edges, edge("eb", "b", HandleOutput, "and", HandleInputB))
			}
			tc := &TraceCollector{}
			if _, err := NewEvaluator(WithObserver(tc)).Evaluate(g, nil, 0, nil); err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if v, _ := produced(tc, "and", HandleOutput); v != tt.want {
				t.Errorf("and = %v, want %v", v, tt.want)
			}
		})
	}
}

func ptr(v float64) *float64 { return &v }

func TestMapRange(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		input  float64
		want   float64
	}{
		{"defaults at inputMin", nil, 0, 0},
		{"defaults at inputMax", nil, 1, 100},
		{"defaults midpoint", nil, 0.25, 25},
		{"clamped above", nil, 3, 100},
		{"clamped below", nil, -1, 0},
		{"custom at inputMax", Params{"inputMin": 0.1, "inputMax": 0.7, "outputMin": 0.3, "outputMax": 0.9}, 0.7, 0.9},
		{"custom at inputMin", Params{"inputMin": 0.1, "inputMax": 0.7, "outputMin": 0.3, "outputMax": 0.9}, 0.1, 0.3},
		{"zero-width input range", Params{"inputMin": 2, "inputMax": 2, "outputMin": 5, "outputMax": 10}, 7, 5},
		{"reversed output range", Params{"outputMin": 100, "outputMax": 0}, 0.25, 75},
		{"reversed output clamps", Params{"outputMin": 100, "outputMax": 0}, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := node("m", TypeMapRange, tt.params)
			if got := mapRange(&n, tt.input); got != tt.want {
				t.Errorf("mapRange(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func counterGraph(params Params) *Graph {
	return &Graph{
		Nodes: []Node{
			node("beat", TypeBeatMarkers, nil),
			node("hit", TypeTransientMarkers, nil),
			node("count", TypeCounter, params),
		},
		Edges: []Edge{
			edge("e1", "beat", HandleBeats, "count", HandleTrigger),
			edge("e2", "hit", HandleTransients, "count", HandleReset),
		},
	}
}

func TestEvaluate_CounterStateless(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		time   float64
		want   float64
	}{
		{"floor of time", nil, 2.5, 2},
		{"wraps at maxCount", Params{"maxCount": 2}, 2.5, 0},
		{"untriggered", nil, 7.3, 0},
		{"non-positive maxCount uses default", Params{"maxCount": 0}, 12.0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := beatSnapshot(2.5, 12.0)
			tc := &TraceCollector{}
			if _, err := NewEvaluator(WithObserver(tc)).Evaluate(counterGraph(tt.params), snap, tt.time, nil); err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if v, _ := produced(tc, "count", HandleCount); v != tt.want {
				t.Errorf("count = %v, want %v", v, tt.want)
			}
		})
	}
}

func TestEvaluate_CounterStateful(t *testing.T) {
	snap := &features.Snapshot{
		BeatTimestamps:      []float64{1.0, 3.0, 5.0, 7.0},
		TransientTimestamps: []float64{6.0},
	}
	g := counterGraph(Params{"maxCount": 3})
	state := State{}

	steps := []struct {
		time float64
		want float64
	}{
		{0.0, 0},  // idle
		{1.0, 1},  // rising edge
		{1.05, 1}, // still high, no new edge
		{2.0, 1},  // low
		{3.0, 2},  // rising edge
		{5.0, 0},  // third edge wraps at maxCount
		{6.0, 0},  // reset
		{7.0, 1},  // counts again after reset
	}
	for _, step := range steps {
		tc := &TraceCollector{}
		if _, err := NewEvaluator(WithObserver(tc)).Evaluate(g, snap, step.time, state); err != nil {
			t.Fatalf("Evaluate(%v): %v", step.time, err)
		}
		if v, _ := produced(tc, "count", HandleCount); v != step.want {
			t.Errorf("t=%v count = %v, want %v", step.time, v, step.want)
		}
		if state["count"].Count != step.want {
			t.Errorf("t=%v state count = %v, want %v", step.time, state["count"].Count, step.want)
		}
	}
}

func TestEvaluate_DependencyOrderFixesForwardReference(t *testing.T) {
	// "late" is declared before the node it reads from.
	g := &Graph{
		Nodes: []Node{
			node("beat", TypeBeatMarkers, nil),
			node("late", TypeMapRange, Params{"outputMin": 0, "outputMax": 1}),
			node("early", TypeMapRange, Params{"outputMin": 0, "outputMax": 0.8}),
			node("cut", TypeCutVideo, nil),
		},
		Edges: []Edge{
			edge("e1", "beat", HandleBeats, "early", HandleInput),
			edge("e2", "early", HandleOutput, "late", HandleInput),
			edge("e3", "beat", HandleBeats, "cut", HandleTrigger),
			edge("e4", "late", HandleOutput, "cut", HandleIntensity),
		},
	}
	snap := beatSnapshot(2.0)

	dep, err := NewEvaluator().Evaluate(g, snap, 2.0, nil)
	if err != nil {
		t.Fatalf("dependency Evaluate: %v", err)
	}
	if len(dep) != 1 || dep[0].Value != 0.8 {
		t.Errorf("dependency order actions = %v, want one cut with value 0.8", dep)
	}

	phased, err := NewEvaluator(WithConfig(Config{Order: OrderPhased})).Evaluate(g, snap, 2.0, nil)
	if err != nil {
		t.Fatalf("phased Evaluate: %v", err)
	}
	if len(phased) != 1 || phased[0].Value != 0 {
		t.Errorf("phased order actions = %v, want one cut with stale value 0", phased)
	}
}

func TestEvaluate_CycleIsAnError(t *testing.T) {
	tests := []struct {
		name  string
		edges []Edge
	}{
		{"two nodes", []Edge{
			edge("e1", "a", HandleOutput, "b", HandleInputA),
			edge("e2", "b", HandleOutput, "a", HandleInputA),
		}},
		{"self loop", []Edge{edge("e1", "a", HandleOutput, "a", HandleInputA)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Graph{
				Nodes: []Node{node("a", TypeAnd, nil), node("b", TypeAnd, nil)},
				Edges: tt.edges,
			}
			tc := &TraceCollector{}
			_, err := NewEvaluator(WithObserver(tc)).Evaluate(g, nil, 0, nil)
			if !errors.Is(err, ErrCycle) {
				t.Fatalf("err = %v, want ErrCycle", err)
			}
			if len(tc.EventsOfType(EventEvalError)) != 1 {
				t.Errorf("expected one eval_error event")
			}

			// The legacy phased order does not look at dependencies.
			if _, err := NewEvaluator(WithConfig(Config{Order: OrderPhased})).Evaluate(g, nil, 0, nil); err != nil {
				t.Errorf("phased Evaluate: %v", err)
			}
		})
	}
}

func TestEvaluate_UnknownTypesAreIgnored(t *testing.T) {
	g := &Graph{
		Nodes: []Node{
			node("motion", "input-video-motion", nil),
			node("cut", TypeCutVideo, nil),
			node("mystery", "output-fireworks", nil),
		},
		Edges: []Edge{
			edge("e1", "motion", "motion", "cut", HandleTrigger),
			edge("e2", "motion", "motion", "mystery", HandleTrigger),
		},
	}
	got, err := Evaluate(g, beatSnapshot(0), 0)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("actions = %v, want none", got)
	}
}

func TestEvaluate_DanglingEdgesResolveToDefaults(t *testing.T) {
	g := &Graph{
		Nodes: []Node{
			node("beat", TypeBeatMarkers, nil),
			node("cut", TypeCutVideo, nil),
		},
		Edges: []Edge{
			edge("e1", "beat", HandleBeats, "cut", HandleTrigger),
			edge("e2", "ghost", HandleOutput, "cut", HandleIntensity),
			edge("e3", "beat", HandleBeats, "nowhere", HandleInput),
			edge("e4", "beat", "no-such-handle", "cut", "no-such-input"),
			// Points back upstream on handles neither node uses.
			edge("e5", "cut", "nope", "beat", "missing"),
		},
	}
	got, err := Evaluate(g, beatSnapshot(4), 4)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	want := []Action{{ActionType: ActionCutVideo, Target: TargetVideoTrack, Value: 0.5, Timestamp: 4}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("actions mismatch (-want +got):\n%s", diff)
	}

	plan, err := Plan(g, OrderDependency)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if diff := cmp.Diff([]string{"beat", "cut"}, plan); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluate_EdgesThatCarryNoValueAddNoDependency(t *testing.T) {
	tests := []struct {
		name string
		back Edge
	}{
		{"unread target handle", edge("back", "cut", HandleTrigger, "beat", "missing")},
		{"unwritten source handle", edge("back", "clip", "nope", "count", HandleReset)},
		{"no source handle", edge("back", "clip", "", "count", HandleReset)},
		{"no target handle", edge("back", "clip", HandleCount, "count", "")},
		{"self edge into a label", edge("back", "count", HandleCount, "count", "label")},
		{"losing duplicate", edge("back", "count", HandleCount, "count", HandleTrigger)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Graph{
				Nodes: []Node{
					node("beat", TypeBeatMarkers, nil),
					node("count", TypeCounter, Params{"maxCount": 4}),
					node("clip", TypeSelectClip, nil),
					node("cut", TypeCutVideo, nil),
				},
				Edges: []Edge{
					edge("e1", "beat", HandleBeats, "count", HandleTrigger),
					edge("e2", "beat", HandleBeats, "clip", HandleTrigger),
					edge("e3", "count", HandleCount, "clip", HandleClipIndex),
					edge("e4", "beat", HandleBeats, "cut", HandleTrigger),
					tt.back,
				},
			}
			plan, err := Plan(g, OrderDependency)
			if err != nil {
				t.Fatalf("Plan: %v", err)
			}
			if diff := cmp.Diff([]string{"beat", "count", "clip", "cut"}, plan); diff != "" {
				t.Errorf("plan mismatch (-want +got):\n%s", diff)
			}

			state := State{}
			got, err := NewEvaluator().Evaluate(g, beatSnapshot(1), 1, state)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			want := []Action{
				{ActionType: ActionSelectClip, Target: TargetClipLibrary, Value: 1, Timestamp: 1},
				{ActionType: ActionCutVideo, Target: TargetVideoTrack, Value: 0.5, Timestamp: 1},
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("actions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEvaluate_FirstMatchingEdgeWins(t *testing.T) {
	// e1 has no source handle, so the trigger resolves to no value even
	// though e2 would supply one.
	g := &Graph{
		Nodes: []Node{
			node("beat", TypeBeatMarkers, nil),
			node("cut", TypeCutVideo, nil),
		},
		Edges: []Edge{
			edge("e1", "beat", "", "cut", HandleTrigger),
			edge("e2", "beat", HandleBeats, "cut", HandleTrigger),
		},
	}
	got, err := Evaluate(g, beatSnapshot(1), 1)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("actions = %v, want none", got)
	}

	values := Values{}
	values.Set("beat", HandleBeats, 1)
	if _, ok := Resolve(g, values, "cut", HandleTrigger); ok {
		t.Error("Resolve: expected no value from first edge without source handle")
	}
	g.Edges[0].SourceHandle = HandleBeats
	if v, ok := Resolve(g, values, "cut", HandleTrigger); !ok || v != 1 {
		t.Errorf("Resolve = (%v, %v), want (1, true)", v, ok)
	}
}

func TestEvaluate_OutputNodes(t *testing.T) {
	tests := []struct {
		name string
		out  Node
		want Action
	}{
		{
			name: "set effect defaults",
			out:  node("fx", TypeSetEffect, nil),
			want: Action{ActionType: ActionSetEffect, Target: "glitch.intensity", Value: 0, Timestamp: 3},
		},
		{
			name: "set effect named",
			out:  node("fx", TypeSetEffect, Params{"effectName": "blur", "parameterName": "radius"}),
			want: Action{ActionType: ActionSetEffect, Target: "blur.radius", Value: 0, Timestamp: 3},
		},
		{
			name: "set effect numeric name",
			out:  node("fx", TypeSetEffect, Params{"effectName": 3.0}),
			want: Action{ActionType: ActionSetEffect, Target: "3.intensity", Value: 0, Timestamp: 3},
		},
		{
			name: "select clip",
			out:  node("fx", TypeSelectClip, nil),
			want: Action{ActionType: ActionSelectClip, Target: TargetClipLibrary, Value: 0, Timestamp: 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Graph{
				Nodes: []Node{node("beat", TypeBeatMarkers, nil), tt.out},
				Edges: []Edge{edge("e1", "beat", HandleBeats, "fx", HandleTrigger)},
			}
			got, err := Evaluate(g, beatSnapshot(3), 3)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if diff := cmp.Diff([]Action{tt.want}, got); diff != "" {
				t.Errorf("actions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEvaluate_SetEffectValueFromLoudness(t *testing.T) {
	g := &Graph{
		Nodes: []Node{
			node("beat", TypeBeatMarkers, nil),
			node("loud", TypeAudioLoudness, nil),
			node("scale", TypeMapRange, nil),
			node("fx", TypeSetEffect, Params{"effectName": "rgb", "parameterName": "shift"}),
		},
		Edges: []Edge{
			edge("e1", "beat", HandleBeats, "fx", HandleTrigger),
			edge("e2", "loud", HandleLoudness, "scale", HandleInput),
			edge("e3", "scale", HandleOutput, "fx", HandleValue),
		},
	}
	snap := &features.Snapshot{
		BeatTimestamps:     []float64{0.25, 0.5},
		LoudnessContour:    []float64{0.25, 0.5},
		LoudnessHopSeconds: 0.25,
	}

	got, err := Evaluate(g, snap, 0.25)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	want := []Action{{ActionType: ActionSetEffect, Target: "rgb.shift", Value: 50, Timestamp: 0.25}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("actions mismatch (-want +got):\n%s", diff)
	}

	// Past the end of the contour loudness reads as silence.
	got, err = Evaluate(g, snap, 0.5)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	want = []Action{{ActionType: ActionSetEffect, Target: "rgb.shift", Value: 0, Timestamp: 0.5}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("actions mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluate_ActionsFollowDeclarationOrder(t *testing.T) {
	// "cut" becomes ready before "fx" because fx waits on the gate, yet fx
	// is declared first and its action must come first.
	g := &Graph{
		Nodes: []Node{
			node("fx", TypeSetEffect, nil),
			node("beat", TypeBeatMarkers, nil),
			node("cut", TypeCutVideo, nil),
			node("gate", TypeAnd, nil),
		},
		Edges: []Edge{
			edge("e1", "beat", HandleBeats, "gate", HandleInputA),
			edge("e2", "beat", HandleBeats, "gate", HandleInputB),
			edge("e3", "gate", HandleOutput, "fx", HandleTrigger),
			edge("e4", "beat", HandleBeats, "cut", HandleTrigger),
		},
	}

	plan, err := Plan(g, OrderDependency)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if diff := cmp.Diff([]string{"beat", "cut", "gate", "fx"}, plan); diff != "" {
		t.Fatalf("plan mismatch (-want +got):\n%s", diff)
	}

	got, err := Evaluate(g, beatSnapshot(1), 1)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	var types []string
	for _, a := range got {
		types = append(types, a.ActionType)
	}
	if diff := cmp.Diff([]string{ActionSetEffect, ActionCutVideo}, types); diff != "" {
		t.Errorf("action order mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluate_RandomGate(t *testing.T) {
	gate := func(p float64) *Graph {
		return &Graph{
			Nodes: []Node{
				node("beat", TypeBeatMarkers, nil),
				node("gate", TypeRandomGate, Params{"probability": p}),
				node("cut", TypeCutVideo, nil),
			},
			Edges: []Edge{
				edge("e1", "beat", HandleBeats, "gate", HandleTrigger),
				edge("e2", "gate", HandleOutput, "cut", HandleTrigger),
			},
		}
	}
	snap := beatSnapshot(1, 2, 3, 4, 5, 6, 7, 8)

	for _, tm := range []float64{1, 2, 3, 4, 5, 6, 7, 8} {
		always, err := Evaluate(gate(1), snap, tm)
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if len(always) != 1 {
			t.Errorf("t=%v probability 1: actions = %v, want one", tm, always)
		}
		never, _ := Evaluate(gate(0), snap, tm)
		if len(never) != 0 {
			t.Errorf("t=%v probability 0: actions = %v, want none", tm, never)
		}
		a, _ := Evaluate(gate(0.5), snap, tm)
		b, _ := Evaluate(gate(0.5), snap, tm)
		if diff := cmp.Diff(a, b); diff != "" {
			t.Errorf("t=%v random gate not deterministic:\n%s", tm, diff)
		}
	}

	untriggered, _ := Evaluate(gate(1), snap, 1.5)
	if len(untriggered) != 0 {
		t.Errorf("gate fired without trigger: %v", untriggered)
	}
}

func TestEvaluate_NilGraph(t *testing.T) {
	if _, err := Evaluate(nil, nil, 0); !errors.Is(err, ErrInvalidGraph) {
		t.Errorf("err = %v, want ErrInvalidGraph", err)
	}
}

func TestEvaluate_CompleteEvent(t *testing.T) {
	g := &Graph{
		Nodes: []Node{node("beat1", TypeBeatMarkers, nil), node("cut1", TypeCutVideo, nil)},
		Edges: []Edge{edge("edge1", "beat1", HandleBeats, "cut1", HandleTrigger)},
	}
	tc := &TraceCollector{}
	if _, err := NewEvaluator(WithObserver(tc)).Evaluate(g, beatSnapshot(1), 1, nil); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	done := tc.EventsOfType(EventEvalComplete)
	if len(done) != 1 {
		t.Fatalf("eval_complete events = %d, want 1", len(done))
	}
	if done[0].Metadata["actions"] != 1 || done[0].Metadata["nodes"] != 2 {
		t.Errorf("metadata = %v", done[0].Metadata)
	}
	if emitted := tc.EventsOfType(EventActionEmitted); len(emitted) != 1 || emitted[0].Node != "cut1" {
		t.Errorf("action_emitted events = %+v", emitted)
	}
}

func TestPlan(t *testing.T) {
	g := &Graph{
		Nodes: []Node{
			node("cut", TypeCutVideo, nil),
			node("and", TypeAnd, nil),
			node("beat", TypeBeatMarkers, nil),
			node("odd", "custom-thing", nil),
		},
		Edges: []Edge{
			edge("e1", "beat", HandleBeats, "and", HandleInputA),
			edge("e2", "and", HandleOutput, "cut", HandleTrigger),
		},
	}

	dep, err := Plan(g, OrderDependency)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if diff := cmp.Diff([]string{"beat", "and", "cut", "odd"}, dep); diff != "" {
		t.Errorf("dependency plan mismatch (-want +got):\n%s", diff)
	}

	phased, err := Plan(g, OrderPhased)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if diff := cmp.Diff([]string{"beat", "and", "cut"}, phased); diff != "" {
		t.Errorf("phased plan mismatch (-want +got):\n%s", diff)
	}
}

func TestParseOrder(t *testing.T) {
	for in, want := range map[string]Order{"": OrderDependency, "Dependency": OrderDependency, " phased ": OrderPhased} {
		got, err := ParseOrder(in)
		if err != nil || got != want {
			t.Errorf("ParseOrder(%q) = (%q, %v), want %q", in, got, err, want)
		}
	}
	if _, err := ParseOrder("random"); err == nil {
		t.Error("expected error for unknown order")
	}
}

func TestState_Clone(t *testing.T) {
	s := State{"c": {Count: 2, TriggerHigh: true}}
	c := s.Clone()
	c["c"] = CounterState{Count: 5}
	if s["c"].Count != 2 {
		t.Error("Clone shares storage with the original")
	}
	if State(nil).Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}
