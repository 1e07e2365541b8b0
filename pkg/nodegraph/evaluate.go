package nodegraph

import (
	"fmt"

	"pulsegraph/pkg/features"
)

// Evaluator runs graphs against snapshots. It holds configuration only and
// is safe for concurrent use as long as callers do not share a State.
type Evaluator struct {
	cfg      Config
	observer Observer
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithConfig replaces the evaluator constants. Zero fields take defaults.
func WithConfig(cfg Config) Option {
	return func(e *Evaluator) {
		e.cfg = cfg.withDefaults()
	}
}

// WithObserver attaches an observer that sees every evaluation event.
func WithObserver(obs Observer) Option {
	return func(e *Evaluator) {
		e.observer = obs
	}
}

// NewEvaluator returns an Evaluator with DefaultConfig unless overridden.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the effective configuration.
func (e *Evaluator) Config() Config { return e.cfg }

// Evaluate runs g against snap at playback time t and returns the emitted
// actions, ordered by the declaration order of the output nodes that
// produced them.
//
// state may be nil. When it is not, stateful nodes read and update their
// entry in place (see State).
func (e *Evaluator) Evaluate(g *Graph, snap *features.Snapshot, t float64, state State) ([]Action, error) {
	if g == nil {
		err := fmt.Errorf("%w: nil graph", ErrInvalidGraph)
		emit(e.observer, EvalEvent{Type: EventEvalError, Time: t, Error: err})
		return nil, err
	}
	if snap == nil {
		snap = &features.Snapshot{}
	}

	idx := newIndex(g)
	var order []int
	switch e.cfg.Order {
	case OrderPhased:
		order = phasedOrder(g)
	default:
		var err error
		order, err = dependencyOrder(g, idx)
		if err != nil {
			emit(e.observer, EvalEvent{Type: EventEvalError, Time: t, Error: err})
			return nil, err
		}
	}

	run := &evaluation{
		cfg:      e.cfg,
		observer: e.observer,
		graph:    g,
		idx:      idx,
		snap:     snap,
		time:     t,
		state:    state,
		values:   make(Values),
		emitted:  make(map[int]Action),
	}
	for _, pos := range order {
		run.visit(pos)
	}

	actions := make([]Action, 0, len(run.emitted))
	for pos := range g.Nodes {
		if a, ok := run.emitted[pos]; ok {
			actions = append(actions, a)
		}
	}

	emit(e.observer, EvalEvent{
		Type:     EventEvalComplete,
		Time:     t,
		Metadata: map[string]any{"nodes": len(order), "actions": len(actions)},
	})
	return actions, nil
}

// Evaluate runs g with a default Evaluator and no state.
func Evaluate(g *Graph, snap *features.Snapshot, t float64) ([]Action, error) {
	return NewEvaluator().Evaluate(g, snap, t, nil)
}

// evaluation is the working set of a single Evaluate call.
type evaluation struct {
	cfg      Config
	observer Observer
	graph    *Graph
	idx      *index
	snap     *features.Snapshot
	time     float64
	state    State
	values   Values
	emitted  map[int]Action
}

// input resolves a node input through the first matching edge, falling
// back to def when nothing is wired or the producer has no value.
func (r *evaluation) input(n *Node, handle string, def float64) float64 {
	v, ok := r.idx.resolve(r.values, n.ID, handle)
	if !ok {
		return def
	}
	return v
}

func (r *evaluation) high(v float64) bool { return v > r.cfg.TriggerThreshold }

func (r *evaluation) set(n *Node, handle string, v float64) {
	r.values.Set(n.ID, handle, v)
	emit(r.observer, EvalEvent{
		Type:     EventNodeEvaluated,
		Time:     r.time,
		Node:     n.ID,
		NodeType: n.Type,
		Handle:   handle,
		Value:    v,
	})
}

func (r *evaluation) act(pos int, n *Node, a Action) {
	r.emitted[pos] = a
	emit(r.observer, EvalEvent{
		Type:     EventActionEmitted,
		Time:     r.time,
		Node:     n.ID,
		NodeType: n.Type,
		Action:   &a,
	})
}
