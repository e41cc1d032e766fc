package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jask/palette/internal/history"
)

const msgNoHistoryRecorded = "No history recorded yet."

func newHistoryCommand(a *app) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and edit command usage history",
	}
	historyCmd.AddCommand(
		newHistoryListCommand(a),
		newHistoryClearCommand(a),
		newHistoryRecordCommand(a),
	)
	return historyCmd
}

func newHistoryListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List history entries, most used first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.store.Load(cmd.Context())
			writeHistory(cmd.OutOrStdout(), a.store)
			return nil
		},
	}
}

func newHistoryClearCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget all recorded usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.store.Clear(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return nil
		},
	}
}

func newHistoryRecordCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "record <command-id>",
		Short: "Record one use of a catalog command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if _, ok := a.commands().ByID(id); !ok {
				return fmt.Errorf("unknown command %q", id)
			}
			a.store.RecordUsage(cmd.Context(), id)
			entry, _ := a.store.Lookup(id)
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s (uses: %d)\n", id, entry.UseCount)
			return nil
		},
	}
}

func writeHistory(w io.Writer, store *history.Store) {
	entries := store.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(w, msgNoHistoryRecorded)
		return
	}
	fmt.Fprintf(w, "%-24s %5s  %s\n", "COMMAND", "USES", "LAST USED")
	for _, e := range entries {
		line := fmt.Sprintf("%-24s %5d  %s", e.CommandID, e.UseCount, e.LastUsedAt.UTC().Format(time.RFC3339))
		if store.IsRecent(e.CommandID) {
			line += "  recent"
		}
		fmt.Fprintln(w, line)
	}
}
