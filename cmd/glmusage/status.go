package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/janekbaraniewski/glmusage/internal/core"
	"github.com/janekbaraniewski/glmusage/internal/notify"
	"github.com/janekbaraniewski/glmusage/internal/poller"
	"github.com/janekbaraniewski/glmusage/internal/statusbar"
)

func newStatusCommand(cfgPath *string) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Poll once and print current usage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), *cfgPath, asJSON, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw snapshot as JSON")
	return cmd
}

func runStatus(ctx context.Context, cfgPath string, asJSON bool, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := loadApp(cfgPath, false)
	if err != nil {
		return err
	}
	defer a.Close()

	indicator := statusbar.New(statusbar.Thresholds{Warn: a.cfg.UI.WarnPercent, Crit: a.cfg.UI.CritPercent}, nil)
	p, err := a.newPoller(ctx, []poller.Display{indicator}, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Dispose(context.Background()); err != nil {
			a.log.Warn("persisting history", zap.Error(err))
		}
	}()

	if err := p.Poll(ctx); err != nil {
		fmt.Fprintln(out, indicator.Text())
		fmt.Fprintln(out, notify.Message(err))
		return err
	}
	snap, _ := p.Snapshot()
	if asJSON {
		return writeSnapshotJSON(out, snap)
	}
	printStatus(out, indicator)
	return nil
}

func printStatus(out io.Writer, indicator *statusbar.Indicator) {
	fmt.Fprintln(out, indicator.Text())
	for _, line := range indicator.Detail() {
		fmt.Fprintln(out, "  "+line)
	}
}

func writeSnapshotJSON(out io.Writer, snap core.UsageSnapshot) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return nil
}
