package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"pulsegraph/internal/format"
	"pulsegraph/internal/logging"
	"pulsegraph/internal/wavio"
	"pulsegraph/pkg/features"
)

var extractFlags struct {
	output   string
	summary  bool
	save     bool
	id       string
	table    string
	parallel int
}

var extractCmd = &cobra.Command{
	Use:   "extract <file.wav>...",
	Short: "Extract a feature snapshot from WAV files",
	Long: `Decodes each WAV file, downmixes it to mono and writes the feature snapshot
as JSON. With one input, -o names the output file (stdout by default). With
several inputs, each snapshot is written as <name>.json into the -o directory,
or next to its input when -o is not set.

--save also stores each snapshot under its file name (or --id) so evaluate and
the MCP server can refer to it by id.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.StringVarP(&extractFlags.output, "output", "o", "", "Output file (one input) or directory (several inputs)")
	f.BoolVar(&extractFlags.summary, "summary", false, "Print a summary table instead of JSON on stdout")
	f.BoolVar(&extractFlags.save, "save", false, "Store snapshots in the store")
	f.StringVar(&extractFlags.id, "id", "", "Store id for a single input (default: file name without extension)")
	f.StringVar(&extractFlags.table, "format", "ascii", "Summary table format: ascii, markdown, csv")
	f.IntVar(&extractFlags.parallel, "parallel", 0, "Files decoded concurrently (default: number of CPUs)")
}

type extracted struct {
	path string
	id   string
	snap *features.Snapshot
}

func runExtract(cmd *cobra.Command, args []string) error {
	if extractFlags.id != "" && len(args) > 1 {
		return errors.New("--id applies to a single input")
	}
	mode, err := format.ParseMode(extractFlags.table)
	if err != nil {
		return err
	}

	results, err := extractAll(cmd, args)
	if err != nil {
		return err
	}

	if extractFlags.save {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		for _, r := range results {
			if err := st.SaveSnapshot(r.id, r.snap); err != nil {
				return fmt.Errorf("save snapshot %s: %w", r.id, err)
			}
			logging.New("extract").Info("snapshot saved", "id", r.id, "path", r.path)
		}
	}

	out := cmd.OutOrStdout()
	if len(results) == 1 {
		r := results[0]
		if extractFlags.output != "" || !extractFlags.summary {
			if err := writeOutput(out, extractFlags.output, r.snap); err != nil {
				return err
			}
		}
		if extractFlags.summary {
			fmt.Fprint(out, format.Snapshot(r.id, r.snap, mode))
		}
		return nil
	}

	for _, r := range results {
		dir := extractFlags.output
		if dir == "" {
			dir = filepath.Dir(r.path)
		}
		dest := filepath.Join(dir, r.id+".json")
		if err := writeOutput(out, dest, r.snap); err != nil {
			return err
		}
		if extractFlags.summary {
			fmt.Fprint(out, format.Snapshot(r.id, r.snap, mode))
		} else {
			fmt.Fprintf(out, "%s -> %s\n", r.path, dest)
		}
	}
	return nil
}

// extractAll decodes and analyses every path concurrently. Results keep
// the order of paths.
func extractAll(cmd *cobra.Command, paths []string) ([]extracted, error) {
	limit := extractFlags.parallel
	if limit < 1 {
		limit = runtime.NumCPU()
	}
	extractor := features.NewExtractor(cfg.Features)
	logger := logging.New("extract")

	results := make([]extracted, len(paths))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(limit)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			a, err := wavio.ReadFile(path)
			if err != nil {
				return err
			}
			snap := extractor.Extract(a.Samples, a.SampleRate)
			logger.Info("extracted",
				"path", path,
				"duration", a.Duration(),
				"beats", len(snap.BeatTimestamps),
				"transients", len(snap.TransientTimestamps),
				"tempo", snap.TempoEstimate)
			id := extractFlags.id
			if id == "" {
				id = snapshotIDFromPath(path)
			}
			results[i] = extracted{path: path, id: id, snap: snap}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
