package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pulsegraph/internal/format"
)

var snapshotFlags struct {
	table  string
	output string
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect stored snapshots",
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots",
	Args:  cobra.NoArgs,
	RunE:  runSnapshotList,
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Summarise a stored snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotShow,
}

var snapshotExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Write a stored snapshot as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnapshotExport,
}

func init() {
	snapshotCmd.PersistentFlags().StringVar(&snapshotFlags.table, "format", "ascii", "Table format: ascii, markdown, csv")
	snapshotExportCmd.Flags().StringVarP(&snapshotFlags.output, "output", "o", "", "Output file (default stdout)")
	snapshotCmd.AddCommand(snapshotListCmd, snapshotShowCmd, snapshotExportCmd)
}

func runSnapshotList(cmd *cobra.Command, _ []string) error {
	mode, err := format.ParseMode(snapshotFlags.table)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	infos, err := st.ListSnapshots()
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), format.Snapshots(infos, mode))
	return nil
}

func runSnapshotShow(cmd *cobra.Command, args []string) error {
	mode, err := format.ParseMode(snapshotFlags.table)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	snap, err := st.GetSnapshot(args[0])
	if err != nil {
		return fmt.Errorf("snapshot %q: %w", args[0], err)
	}
	fmt.Fprint(cmd.OutOrStdout(), format.Snapshot(args[0], snap, mode))
	return nil
}

func runSnapshotExport(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	snap, err := st.GetSnapshot(args[0])
	if err != nil {
		return fmt.Errorf("snapshot %q: %w", args[0], err)
	}
	return writeOutput(cmd.OutOrStdout(), snapshotFlags.output, snap)
}
