// pulsegraph analyses audio and evaluates effect graphs against the result.
//
// Usage:
//
//	pulsegraph extract song.wav -o song.json
//	pulsegraph evaluate --graph graph.yaml --snapshot song.json --time 1.0
//	pulsegraph evaluate --graph graph.yaml --snapshot-id song --from 0 --to 10 --step 0.5 --session live
//	pulsegraph render --graph graph.yaml
//	pulsegraph session list
//	pulsegraph serve
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pulsegraph/internal/config"
	"pulsegraph/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var globalFlags struct {
	configPath string
	dbPath     string
	logLevel   string
	logFormat  string
}

// cfg is the effective configuration, resolved before any subcommand runs.
var cfg = config.Default()

var rootCmd = &cobra.Command{
	Use:   "pulsegraph",
	Short: "Audio-reactive effect graphs",
	Long: "pulsegraph extracts beats, transients, loudness and tempo from audio\n" +
		"and evaluates node graphs against them to emit video effect actions.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&globalFlags.configPath, "config", "", "Config file (YAML or JSON)")
	pf.StringVar(&globalFlags.dbPath, "db", "", "Store path; \":memory:\" keeps state in process (default "+config.DefaultDBPath+")")
	pf.StringVar(&globalFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&globalFlags.logFormat, "log-format", "", "Log format: text or json")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(nodesCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}

// setup resolves configuration (file, .env, environment, then flags) and
// installs the process logger.
func setup(cmd *cobra.Command, _ []string) error {
	c, err := config.Resolve(globalFlags.configPath)
	if err != nil {
		return err
	}
	if globalFlags.dbPath != "" {
		c.Store.Path = globalFlags.dbPath
	}
	if globalFlags.logLevel != "" {
		c.Log.Level = globalFlags.logLevel
	}
	if globalFlags.logFormat != "" {
		c.Log.Format = globalFlags.logFormat
	}
	if err := c.Validate(); err != nil {
		return err
	}
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return err
	}
	logging.Init(level, c.Log.Format, cmd.ErrOrStderr())
	cfg = c
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
