package nodegraph

// Values is the evaluation-scoped store of produced handle values. It is
// created empty for each Evaluate call and never shared between calls.
type Values map[handleKey]float64

// Set records the value node produced on handle.
func (v Values) Set(node, handle string, x float64) {
	v[handleKey{node, handle}] = x
}

// Get returns the value node produced on handle, if any.
func (v Values) Get(node, handle string) (float64, bool) {
	x, ok := v[handleKey{node, handle}]
	return x, ok
}

// Resolve finds the value feeding nodeID's input handle: the first edge in
// declaration order whose target and target handle match decides. It
// reports false when no edge matches, the edge has no source handle, or
// the source has not produced a value. Callers supply their own default.
//
// Resolve indexes g on every call; the evaluator keeps one index per
// evaluation and goes through the same lookup.
func Resolve(g *Graph, values Values, nodeID, handle string) (float64, bool) {
	return newIndex(g).resolve(values, nodeID, handle)
}

// resolve looks up the winning inbound edge of (nodeID, handle) and the
// value its source produced.
func (idx *index) resolve(values Values, nodeID, handle string) (float64, bool) {
	e, ok := idx.inbound[handleKey{nodeID, handle}]
	if !ok || e.SourceHandle == "" {
		return 0, false
	}
	return values.Get(e.Source, e.SourceHandle)
}
