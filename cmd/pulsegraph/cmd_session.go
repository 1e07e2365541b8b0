package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pulsegraph/internal/format"
	"pulsegraph/pkg/nodegraph"
)

var sessionFlags struct {
	table string
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and clear persisted counter state",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessionList,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show the counter state of a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionShow,
}

var sessionResetCmd = &cobra.Command{
	Use:   "reset <name>",
	Short: "Clear the counter state of a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionReset,
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionDelete,
}

func init() {
	sessionCmd.PersistentFlags().StringVar(&sessionFlags.table, "format", "ascii", "Table format: ascii, markdown, csv")
	sessionCmd.AddCommand(sessionListCmd, sessionShowCmd, sessionResetCmd, sessionDeleteCmd)
}

func runSessionList(cmd *cobra.Command, _ []string) error {
	mode, err := format.ParseMode(sessionFlags.table)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	sessions, err := st.ListSessions()
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), format.Sessions(sessions, mode))
	return nil
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	mode, err := format.ParseMode(sessionFlags.table)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	state, err := st.LoadState(args[0])
	if err != nil {
		return fmt.Errorf("session %q: %w", args[0], err)
	}
	fmt.Fprint(cmd.OutOrStdout(), format.State(state, mode))
	return nil
}

func runSessionReset(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if _, err := st.LoadState(args[0]); err != nil {
		return fmt.Errorf("session %q: %w", args[0], err)
	}
	if err := st.SaveState(args[0], nodegraph.State{}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Session %s reset\n", args[0])
	return nil
}

func runSessionDelete(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.DeleteSession(args[0]); err != nil {
		return fmt.Errorf("session %q: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Session %s deleted\n", args[0])
	return nil
}
