package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/janekbaraniewski/glmusage/internal/metrics"
	"github.com/janekbaraniewski/glmusage/internal/notify"
	"github.com/janekbaraniewski/glmusage/internal/poller"
	"github.com/janekbaraniewski/glmusage/internal/server"
	"github.com/janekbaraniewski/glmusage/internal/statusbar"
	"github.com/janekbaraniewski/glmusage/internal/tui"
)

func newWatchCommand(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Open the live detail view (default command)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd.Context(), *cfgPath)
		},
	}
}

func runWatch(parent context.Context, cfgPath string) error {
	if parent == nil {
		parent = context.Background()
	}
	a, err := loadApp(cfgPath, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	metrics.Register()

	var forward *tui.ProgramDisplay
	indicator := statusbar.New(
		statusbar.Thresholds{Warn: a.cfg.UI.WarnPercent, Crit: a.cfg.UI.CritPercent},
		func(line string) {
			if forward != nil {
				forward.Indicator(line)
			}
		},
	)
	reporter := notify.New(a.cfg.Notifications, a.log.Named("notify"))

	p, err := a.newPoller(ctx, []poller.Display{indicator}, reporter.Handle)
	if err != nil {
		return err
	}

	model := tui.NewModel(p, tui.Options{
		WarnPercent: a.cfg.UI.WarnPercent,
		CritPercent: a.cfg.UI.CritPercent,
		Indicator:   indicator.Render(),
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithReportFocus(), tea.WithContext(ctx))
	forward = tui.NewProgramDisplay(program)
	p.AddDisplay(forward)

	if a.cfg.HTTPAddr != "" {
		srv := server.New(p, a.cfg.History.Window(), a.log.Named("http"))
		p.AddDisplay(srv)
		go func() {
			if err := srv.ListenAndServe(ctx, a.cfg.HTTPAddr); err != nil {
				a.log.Error("HTTP server failed", zap.Error(err))
			}
		}()
	}

	a.watchConfig(ctx, p)
	p.Start()
	go func() { _ = p.Poll(ctx) }()

	_, runErr := program.Run()
	cancel()
	if err := p.Dispose(context.Background()); err != nil {
		a.log.Warn("persisting history on exit", zap.Error(err))
	}
	if runErr != nil && ctx.Err() == nil {
		return runErr
	}
	return nil
}
