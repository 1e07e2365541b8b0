// Package timeline evaluates a graph over a range of playback times.
package timeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"pulsegraph/pkg/features"
	"pulsegraph/pkg/nodegraph"
)

// MaxSteps bounds the number of instants Times will generate.
const MaxSteps = 1_000_000

// Frame is the result of evaluating one instant.
type Frame struct {
	Time    float64            `json:"time"`
	Actions []nodegraph.Action `json:"actions"`
}

// Times returns from, from+step, ... up to and including to (within half a
// step of floating point drift).
func Times(from, to, step float64) ([]float64, error) {
	if step <= 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("timeline: step must be positive, got %v", step)
	}
	if math.IsNaN(from) || math.IsNaN(to) || math.IsInf(from, 0) || math.IsInf(to, 0) {
		return nil, fmt.Errorf("timeline: range must be finite, got [%v, %v]", from, to)
	}
	if to < from {
		return nil, fmt.Errorf("timeline: to (%v) is before from (%v)", to, from)
	}
	n := int(math.Floor((to-from)/step+1e-9)) + 1
	if n > MaxSteps {
		return nil, fmt.Errorf("timeline: %d steps exceeds limit of %d", n, MaxSteps)
	}
	out := make([]float64, n)
	for i := range out {
		// Multiply instead of accumulating so drift does not compound.
		out[i] = from + float64(i)*step
	}
	return out, nil
}

// Runner evaluates one graph at many instants.
type Runner struct {
	eval     *nodegraph.Evaluator
	parallel int
	logger   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithParallel caps concurrent evaluations for stateless runs. Values
// below one mean runtime.NumCPU().
func WithParallel(n int) Option {
	return func(r *Runner) { r.parallel = n }
}

// WithLogger sets the runner logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner wraps eval. A nil eval uses nodegraph defaults.
func NewRunner(eval *nodegraph.Evaluator, opts ...Option) *Runner {
	if eval == nil {
		eval = nodegraph.NewEvaluator()
	}
	r := &Runner{eval: eval}
	for _, opt := range opts {
		opt(r)
	}
	if r.parallel < 1 {
		r.parallel = runtime.NumCPU()
	}
	if r.logger == nil {
		r.logger = slog.Default().With(slog.String("component", "timeline"))
	}
	return r
}

// Run evaluates g at every instant in times and returns one frame per
// instant, in the order given.
//
// With a nil state every instant is independent and they are evaluated
// concurrently. With a state the instants are visited one at a time in
// ascending time order so counters see their triggers in sequence.
func (r *Runner) Run(ctx context.Context, g *nodegraph.Graph, snap *features.Snapshot, times []float64, state nodegraph.State) ([]Frame, error) {
	frames := make([]Frame, len(times))
	if state != nil {
		if err := r.runSequential(ctx, g, snap, times, state, frames); err != nil {
			return nil, err
		}
	} else {
		if err := r.runParallel(ctx, g, snap, times, frames); err != nil {
			return nil, err
		}
	}

	var total int
	for _, f := range frames {
		total += len(f.Actions)
	}
	r.logger.Debug("timeline evaluated", "instants", len(times), "actions", total, "stateful", state != nil)
	return frames, nil
}

func (r *Runner) runParallel(ctx context.Context, g *nodegraph.Graph, snap *features.Snapshot, times []float64, frames []Frame) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.parallel)
	for i, t := range times {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			actions, err := r.eval.Evaluate(g, snap, t, nil)
			if err != nil {
				return fmt.Errorf("evaluate at %v: %w", t, err)
			}
			frames[i] = Frame{Time: t, Actions: actions}
			return nil
		})
	}
	return eg.Wait()
}

func (r *Runner) runSequential(ctx context.Context, g *nodegraph.Graph, snap *features.Snapshot, times []float64, state nodegraph.State, frames []Frame) error {
	order := make([]int, len(times))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return times[order[a]] < times[order[b]] })

	for _, i := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := times[i]
		actions, err := r.eval.Evaluate(g, snap, t, state)
		if err != nil {
			return fmt.Errorf("evaluate at %v: %w", t, err)
		}
		frames[i] = Frame{Time: t, Actions: actions}
	}
	return nil
}

// Flatten concatenates the actions of all frames in frame order.
func Flatten(frames []Frame) []nodegraph.Action {
	out := make([]nodegraph.Action, 0)
	for _, f := range frames {
		out = append(out, f.Actions...)
	}
	return out
}
