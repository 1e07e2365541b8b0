package nodegraph

import (
	"context"
	"log/slog"
	"sync"
)

// EvalEventType classifies evaluation events.
type EvalEventType string

const (
	EventNodeEvaluated EvalEventType = "node_evaluated"
	EventActionEmitted EvalEventType = "action_emitted"
	EventEvalComplete  EvalEventType = "eval_complete"
	EventEvalError     EvalEventType = "eval_error"
)

// EvalEvent is one observation from an evaluation.
type EvalEvent struct {
	Type     EvalEventType
	Time     float64
	Node     string
	NodeType NodeType
	Handle   string
	Value    float64
	Action   *Action
	Error    error
	Metadata map[string]any
}

// Observer receives events while a graph is evaluated.
type Observer interface {
	OnEvent(EvalEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(EvalEvent)

func (f ObserverFunc) OnEvent(e EvalEvent) { f(e) }

// MultiObserver fans events out in order.
type MultiObserver []Observer

func (m MultiObserver) OnEvent(e EvalEvent) {
	for _, obs := range m {
		if obs != nil {
			obs.OnEvent(e)
		}
	}
}

// LogObserver writes events as structured debug lines; errors go out at warn.
type LogObserver struct {
	Logger *slog.Logger
}

func (o *LogObserver) OnEvent(e EvalEvent) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []slog.Attr{
		slog.String("event", string(e.Type)),
		slog.Float64("time", e.Time),
	}
	if e.Node != "" {
		attrs = append(attrs, slog.String("node", e.Node), slog.String("type", string(e.NodeType)))
	}
	if e.Handle != "" {
		attrs = append(attrs, slog.String("handle", e.Handle), slog.Float64("value", e.Value))
	}
	if e.Action != nil {
		attrs = append(attrs,
			slog.String("action", e.Action.ActionType),
			slog.String("target", e.Action.Target),
			slog.Float64("value", e.Action.Value))
	}
	for k, v := range e.Metadata {
		attrs = append(attrs, slog.Any(k, v))
	}

	level := slog.LevelDebug
	if e.Error != nil {
		attrs = append(attrs, slog.String("error", e.Error.Error()))
		level = slog.LevelWarn
	}
	logger.LogAttrs(context.Background(), level, "eval", attrs...)
}

// TraceCollector keeps every event in memory. Safe for concurrent use.
type TraceCollector struct {
	mu     sync.Mutex
	events []EvalEvent
}

func (t *TraceCollector) OnEvent(e EvalEvent) {
	t.mu.Lock()
	t.events = append(t.events, e)
	t.mu.Unlock()
}

// Events returns a copy of the collected events.
func (t *TraceCollector) Events() []EvalEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]EvalEvent, len(t.events))
	copy(out, t.events)
	return out
}

// EventsOfType filters the collected events.
func (t *TraceCollector) EventsOfType(typ EvalEventType) []EvalEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []EvalEvent
	for _, e := range t.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// Reset drops collected events.
func (t *TraceCollector) Reset() {
	t.mu.Lock()
	t.events = nil
	t.mu.Unlock()
}

func emit(obs Observer, e EvalEvent) {
	if obs != nil {
		obs.OnEvent(e)
	}
}
