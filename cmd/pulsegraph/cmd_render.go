package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"pulsegraph/internal/format"
	"pulsegraph/pkg/nodegraph"
)

var renderFlags struct {
	graph  string
	output string
	plan   bool
	order  string
	table  string
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a graph as a Mermaid flowchart",
	RunE:  runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVar(&renderFlags.graph, "graph", "", "Graph file, JSON or YAML (required)")
	f.StringVarP(&renderFlags.output, "output", "o", "", "Write the diagram to a file instead of stdout")
	f.BoolVar(&renderFlags.plan, "plan", false, "Print the evaluation order instead of the diagram")
	f.StringVar(&renderFlags.order, "order", "", "Evaluation order for --plan: dependency or phased")
	f.StringVar(&renderFlags.table, "table", "", "Print --plan as a table: ascii, markdown, csv")

	_ = renderCmd.MarkFlagRequired("graph")
}

func runRender(cmd *cobra.Command, _ []string) error {
	g, err := nodegraph.LoadGraphFile(renderFlags.graph)
	if err != nil {
		return err
	}

	var text string
	if renderFlags.plan {
		ecfg, err := evalConfig(renderFlags.order)
		if err != nil {
			return err
		}
		order, err := nodegraph.Plan(g, ecfg.Order)
		if err != nil {
			return err
		}
		if renderFlags.table != "" {
			mode, err := format.ParseMode(renderFlags.table)
			if err != nil {
				return err
			}
			text = format.Plan(g, order, mode)
		} else {
			text = strings.Join(order, "\n") + "\n"
		}
	} else {
		text = nodegraph.Render(g)
	}

	if renderFlags.output == "" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), text)
		return err
	}
	if err := os.WriteFile(renderFlags.output, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", renderFlags.output, err)
	}
	return nil
}
