package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"pulsegraph/internal/format"
	"pulsegraph/internal/logging"
	"pulsegraph/internal/store"
	"pulsegraph/internal/timeline"
	"pulsegraph/pkg/features"
	"pulsegraph/pkg/nodegraph"
)

var evaluateFlags struct {
	graph      string
	snapshot   string
	snapshotID string
	time       float64
	from       float64
	to         float64
	step       float64
	session    string
	order      string
	table      string
	trace      bool
	parallel   int
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a node graph against a snapshot",
	Long: `Evaluates a graph (JSON or YAML) against a feature snapshot and prints the
emitted actions as JSON.

--time evaluates one instant and prints an action list. --from/--to/--step
evaluates a timeline and prints one frame per instant.

--session keeps counter state in the store between runs, so successive
invocations continue counting where the last one stopped.`,
	RunE: runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVar(&evaluateFlags.graph, "graph", "", "Graph file, JSON or YAML (required)")
	f.StringVar(&evaluateFlags.snapshot, "snapshot", "", "Snapshot file written by extract")
	f.StringVar(&evaluateFlags.snapshotID, "snapshot-id", "", "Id of a stored snapshot")
	f.Float64Var(&evaluateFlags.time, "time", 0, "Playback time in seconds")
	f.Float64Var(&evaluateFlags.from, "from", 0, "Timeline start in seconds")
	f.Float64Var(&evaluateFlags.to, "to", 0, "Timeline end in seconds (inclusive)")
	f.Float64Var(&evaluateFlags.step, "step", 0.5, "Timeline step in seconds")
	f.StringVar(&evaluateFlags.session, "session", "", "Session name for persisted counter state")
	f.StringVar(&evaluateFlags.order, "order", "", "Evaluation order: dependency or phased")
	f.StringVar(&evaluateFlags.table, "table", "", "Print actions as a table: ascii, markdown, csv")
	f.BoolVar(&evaluateFlags.trace, "trace", false, "Log every node value at debug level")
	f.IntVar(&evaluateFlags.parallel, "parallel", 0, "Concurrent instants for stateless timelines (default: number of CPUs)")

	_ = evaluateCmd.MarkFlagRequired("graph")
	evaluateCmd.MarkFlagsMutuallyExclusive("snapshot", "snapshot-id")
	evaluateCmd.MarkFlagsOneRequired("snapshot", "snapshot-id")
	evaluateCmd.MarkFlagsMutuallyExclusive("time", "from")
	evaluateCmd.MarkFlagsMutuallyExclusive("time", "to")
	evaluateCmd.MarkFlagsRequiredTogether("from", "to")
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	logger := logging.New("evaluate")

	g, err := nodegraph.LoadGraphFile(evaluateFlags.graph)
	if err != nil {
		return err
	}
	ecfg, err := evalConfig(evaluateFlags.order)
	if err != nil {
		return err
	}

	var st store.Store
	if evaluateFlags.snapshotID != "" || evaluateFlags.session != "" {
		if st, err = openStore(); err != nil {
			return err
		}
		defer st.Close()
	}

	snap, err := resolveSnapshot(st)
	if err != nil {
		return err
	}

	timelineMode := cmd.Flags().Changed("from")
	times := []float64{evaluateFlags.time}
	if timelineMode {
		if times, err = timeline.Times(evaluateFlags.from, evaluateFlags.to, evaluateFlags.step); err != nil {
			return err
		}
	}

	evalOpts := []nodegraph.Option{nodegraph.WithConfig(ecfg)}
	if evaluateFlags.trace {
		evalOpts = append(evalOpts, nodegraph.WithObserver(&nodegraph.LogObserver{Logger: logger}))
	}
	runner := timeline.NewRunner(nodegraph.NewEvaluator(evalOpts...),
		timeline.WithParallel(evaluateFlags.parallel),
		timeline.WithLogger(logging.New("timeline")))

	var state nodegraph.State
	if evaluateFlags.session != "" {
		if state, err = store.LoadOrNew(st, evaluateFlags.session); err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		if state == nil {
			state = nodegraph.State{}
		}
	}

	frames, err := runner.Run(cmd.Context(), g, snap, times, state)
	if err != nil {
		return err
	}

	if evaluateFlags.session != "" {
		if err := st.SaveState(evaluateFlags.session, state); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		logger.Info("session saved", "session", evaluateFlags.session, "counters", len(state))
	}

	out := cmd.OutOrStdout()
	if evaluateFlags.table != "" {
		mode, err := format.ParseMode(evaluateFlags.table)
		if err != nil {
			return err
		}
		fmt.Fprint(out, format.Actions(frames, mode))
		return nil
	}
	if timelineMode {
		return writeJSON(out, frames)
	}
	return writeJSON(out, frames[0].Actions)
}

// resolveSnapshot loads the snapshot named by --snapshot or --snapshot-id.
func resolveSnapshot(st store.Store) (*features.Snapshot, error) {
	switch {
	case evaluateFlags.snapshot != "":
		return loadSnapshotFile(evaluateFlags.snapshot)
	case evaluateFlags.snapshotID != "":
		snap, err := st.GetSnapshot(evaluateFlags.snapshotID)
		if err != nil {
			return nil, fmt.Errorf("snapshot %q: %w", evaluateFlags.snapshotID, err)
		}
		return snap, nil
	default:
		return nil, errors.New("one of --snapshot or --snapshot-id is required")
	}
}
