package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pulsegraph/internal/catalog"
	"pulsegraph/internal/format"
	"pulsegraph/pkg/nodegraph"
)

var nodesFlags struct {
	table    string
	template string
	id       string
}

var nodesCmd = &cobra.Command{
	Use:   "nodes [term...]",
	Short: "Describe the built-in node types",
	Long: `Lists the node types the evaluator understands with their handles and
parameters. Terms filter by type, label, phase, handle or tag.

--template prints a ready-to-edit YAML node of the given type.`,
	RunE: runNodes,
}

func init() {
	f := nodesCmd.Flags()
	f.StringVar(&nodesFlags.table, "format", "ascii", "Table format: ascii, markdown, csv")
	f.StringVar(&nodesFlags.template, "template", "", "Print a YAML template node of this type")
	f.StringVar(&nodesFlags.id, "id", "", "Node id for --template (default: the type tag)")
}

func runNodes(cmd *cobra.Command, args []string) error {
	reg := catalog.Default(cfg.Eval)
	out := cmd.OutOrStdout()

	if nodesFlags.template != "" {
		id := nodesFlags.id
		if id == "" {
			id = nodesFlags.template
		}
		n, err := reg.Template(nodegraph.NodeType(nodesFlags.template), id)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal([]nodegraph.Node{n})
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}

	mode, err := format.ParseMode(nodesFlags.table)
	if err != nil {
		return err
	}
	entries := reg.Lookup(args...)
	if len(entries) == 0 {
		return fmt.Errorf("no node type matches %s", strings.Join(args, ", "))
	}
	fmt.Fprint(out, format.Nodes(entries, mode))
	return nil
}
