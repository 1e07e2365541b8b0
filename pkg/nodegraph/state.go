package nodegraph

// CounterState is what a logic-counter remembers between evaluations.
type CounterState struct {
	Count       float64 `json:"count" yaml:"count"`
	TriggerHigh bool    `json:"trigger_high" yaml:"trigger_high"`
}

// State is caller-owned memory for stateful nodes, keyed by node id.
// Passing a non-nil State turns evaluation into a state transition:
// entries are read and written in place. A nil State keeps evaluation
// a pure function of (graph, snapshot, time).
//
// State is not safe for concurrent use.
type State map[string]CounterState

// Clone returns an independent copy.
func (s State) Clone() State {
	if s == nil {
		return nil
	}
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
