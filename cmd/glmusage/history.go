package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/janekbaraniewski/glmusage/internal/core"
	"github.com/janekbaraniewski/glmusage/internal/poller"
	"github.com/janekbaraniewski/glmusage/internal/statusbar"
)

func newHistoryCommand(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect or clear the persisted usage history",
	}

	var window time.Duration
	show := &cobra.Command{
		Use:   "show",
		Short: "Print persisted history entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(*cfgPath, false)
			if err != nil {
				return err
			}
			defer a.Close()
			entries, err := loadPersistedHistory(cmd.Context(), a.store)
			if err != nil {
				return err
			}
			if window > 0 {
				entries = poller.NewHistory(len(entries)+1, entries).Since(time.Now().Add(-window))
			}
			printHistory(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	show.Flags().DurationVar(&window, "window", 24*time.Hour, "only entries recorded within this window (0 = all)")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the persisted history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(*cfgPath, false)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.store.Set(commandContext(cmd), poller.HistoryKey, []byte("[]")); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return nil
		},
	}

	cmd.AddCommand(show, clearCmd)
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func loadPersistedHistory(ctx context.Context, st poller.Store) ([]core.HistoryEntry, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	raw, err := st.Get(ctx, poller.HistoryKey, []byte("[]"))
	if err != nil {
		return nil, err
	}
	var entries []core.HistoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decoding persisted history: %w", err)
	}
	return entries, nil
}

func printHistory(out io.Writer, entries []core.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No history recorded.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RECORDED\tPLATFORM\tTOKENS\tQUOTAS")
	for _, e := range entries {
		tokens := "-"
		if entry, ok := e.Snapshot.QuotaLimit.TokenEntry(); ok {
			tokens = statusbar.FormatPercent(entry.Percentage) + "%"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n",
			e.RecordedAt.Local().Format("2006-01-02 15:04:05"),
			e.Snapshot.Platform,
			tokens,
			len(e.Snapshot.QuotaLimit.Limits),
		)
	}
	_ = tw.Flush()
}
