package nodegraph

import "pulsegraph/pkg/features"

// --- test helpers ---

func node(id string, typ NodeType, params Params) Node {
	return Node{ID: id, Type: typ, Data: NodeData{Label: id, Parameters: params}}
}

func edge(id, source, sourceHandle, target, targetHandle string) Edge {
	return Edge{ID: id, Source: source, SourceHandle: sourceHandle, Target: target, TargetHandle: targetHandle}
}

// constant is a map-range node whose output is always v: with nothing
// wired its input defaults to inputMin, which maps to outputMin.
func constant(id string, v float64) Node {
	return node(id, TypeMapRange, Params{"outputMin": v, "outputMax": v})
}

func beatSnapshot(beats ...float64) *features.Snapshot {
	return &features.Snapshot{BeatTimestamps: beats}
}

// produced returns the value a node wrote on handle during the traced evaluation.
func produced(tc *TraceCollector, nodeID, handle string) (float64, bool) {
	for _, e := range tc.EventsOfType(EventNodeEvaluated) {
		if e.Node == nodeID && e.Handle == handle {
			return e.Value, true
		}
	}
	return 0, false
}
