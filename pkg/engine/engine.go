// Package engine is the byte-level boundary around feature extraction and
// graph evaluation. It takes and returns JSON so hosts in other runtimes
// can call it without sharing Go types, and it never fails loudly: a bad
// graph or snapshot yields an empty action list and an error log line.
package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"pulsegraph/pkg/features"
	"pulsegraph/pkg/nodegraph"
)

var emptyActions = []byte("[]")

// Engine bundles an extractor and an evaluator behind JSON entry points.
type Engine struct {
	featureCfg features.Config
	evalCfg    nodegraph.Config
	logger     *slog.Logger
	observer   nodegraph.Observer

	extractor *features.Extractor
	evaluator *nodegraph.Evaluator
}

// Option configures an Engine.
type Option func(*Engine)

// WithFeatureConfig sets the detector constants.
func WithFeatureConfig(cfg features.Config) Option {
	return func(e *Engine) { e.featureCfg = cfg }
}

// WithEvalConfig sets the evaluator constants.
func WithEvalConfig(cfg nodegraph.Config) Option {
	return func(e *Engine) { e.evalCfg = cfg }
}

// WithLogger sets the logger failures are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithObserver forwards evaluation events to obs.
func WithObserver(obs nodegraph.Observer) Option {
	return func(e *Engine) { e.observer = obs }
}

// New builds an Engine. Without options it uses the stock constants and
// the default slog logger tagged component=engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		featureCfg: features.DefaultConfig(),
		evalCfg:    nodegraph.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default().With(slog.String("component", "engine"))
	}
	e.extractor = features.NewExtractor(e.featureCfg)
	evalOpts := []nodegraph.Option{nodegraph.WithConfig(e.evalCfg)}
	if e.observer != nil {
		evalOpts = append(evalOpts, nodegraph.WithObserver(e.observer))
	}
	e.evaluator = nodegraph.NewEvaluator(evalOpts...)
	return e
}

// ExtractFeatures analyses a mono buffer and returns the snapshot as JSON.
func (e *Engine) ExtractFeatures(samples []float64, sampleRate int) []byte {
	snap := e.extractor.Extract(samples, sampleRate)
	out, err := json.Marshal(snap)
	if err != nil {
		e.logger.Error("encode snapshot", "error", err)
		return []byte("{}")
	}
	e.logger.Debug("features extracted",
		"samples", len(samples),
		"sample_rate", sampleRate,
		"beats", len(snap.BeatTimestamps),
		"transients", len(snap.TransientTimestamps),
		"tempo", snap.TempoEstimate)
	return out
}

// EvaluateGraph decodes graph and snapshot JSON, evaluates at t and returns
// the actions as a JSON array. Any failure returns "[]".
func (e *Engine) EvaluateGraph(graphJSON, snapshotJSON []byte, t float64) []byte {
	return e.EvaluateGraphWithState(graphJSON, snapshotJSON, t, nil)
}

// EvaluateGraphWithState is EvaluateGraph with counter state carried in
// state. state is updated in place only when evaluation succeeds.
func (e *Engine) EvaluateGraphWithState(graphJSON, snapshotJSON []byte, t float64, state nodegraph.State) (out []byte) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("evaluate graph panicked", "panic", fmt.Sprint(r), "time", t)
			out = emptyActions
		}
	}()

	actions, err := e.evaluate(graphJSON, snapshotJSON, t, state)
	if err != nil {
		e.logger.Error("evaluate graph", "error", err, "time", t)
		return emptyActions
	}
	out, err = json.Marshal(actions)
	if err != nil {
		e.logger.Error("encode actions", "error", err, "time", t)
		return emptyActions
	}
	return out
}

// Evaluate is the typed form of EvaluateGraphWithState: it returns the
// failure instead of swallowing it.
func (e *Engine) Evaluate(graphJSON, snapshotJSON []byte, t float64, state nodegraph.State) ([]nodegraph.Action, error) {
	return e.evaluate(graphJSON, snapshotJSON, t, state)
}

func (e *Engine) evaluate(graphJSON, snapshotJSON []byte, t float64, state nodegraph.State) ([]nodegraph.Action, error) {
	g, err := nodegraph.ParseGraph(graphJSON)
	if err != nil {
		return nil, err
	}
	snap, err := features.ParseSnapshot(snapshotJSON)
	if err != nil {
		return nil, err
	}

	// Work on a copy so a failed evaluation leaves the caller's state as it was.
	var scratch nodegraph.State
	if state != nil {
		scratch = state.Clone()
	}
	actions, err := e.evaluator.Evaluate(g, snap, t, scratch)
	if err != nil {
		return nil, err
	}
	for k, v := range scratch {
		state[k] = v
	}
	return actions, nil
}
