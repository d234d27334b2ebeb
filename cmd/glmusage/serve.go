package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/janekbaraniewski/glmusage/internal/core"
	"github.com/janekbaraniewski/glmusage/internal/metrics"
	"github.com/janekbaraniewski/glmusage/internal/notify"
	"github.com/janekbaraniewski/glmusage/internal/poller"
	"github.com/janekbaraniewski/glmusage/internal/server"
	"github.com/janekbaraniewski/glmusage/internal/statusbar"
)

func newServeCommand(cfgPath *string) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Poll headlessly, printing indicator lines and optionally serving HTTP",
		Long: "serve runs the poller without the detail view. Every indicator change is printed\n" +
			"as one line on stdout, which suits status bars such as tmux or polybar.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *cfgPath, addr, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides http_addr)")
	return cmd
}

// lineWriter prints indicator lines, skipping repeats.
type lineWriter struct {
	mu   sync.Mutex
	out  io.Writer
	last string
}

func (w *lineWriter) Write(line string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if line == w.last {
		return
	}
	w.last = line
	fmt.Fprintln(w.out, line)
}

func runServe(parent context.Context, cfgPath, addr string, out io.Writer) error {
	if parent == nil {
		parent = context.Background()
	}
	a, err := loadApp(cfgPath, false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	metrics.Register()

	lines := &lineWriter{out: out}
	indicator := statusbar.New(
		statusbar.Thresholds{Warn: a.cfg.UI.WarnPercent, Crit: a.cfg.UI.CritPercent},
		nil,
	)
	display := poller.DisplayFuncs{
		Update: func(snap core.UsageSnapshot, history []core.HistoryEntry, nextReset *time.Time) {
			indicator.OnUpdate(snap, history, nextReset)
			lines.Write(indicator.Text())
		},
		Error: func(message string) {
			indicator.OnError(message)
			lines.Write(indicator.Text())
		},
	}
	reporter := notify.New(a.cfg.Notifications, a.log.Named("notify"))

	p, err := a.newPoller(ctx, []poller.Display{display}, reporter.Handle)
	if err != nil {
		return err
	}

	if addr == "" {
		addr = a.cfg.HTTPAddr
	}
	var wg sync.WaitGroup
	if addr != "" {
		srv := server.New(p, a.cfg.History.Window(), a.log.Named("http"))
		p.AddDisplay(srv)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.ListenAndServe(ctx, addr); err != nil {
				a.log.Error("HTTP server failed", zap.Error(err))
				cancel()
			}
		}()
	}

	a.watchConfig(ctx, p)
	p.Start()
	go func() { _ = p.Poll(ctx) }()

	<-ctx.Done()
	wg.Wait()
	if err := p.Dispose(context.Background()); err != nil {
		a.log.Warn("persisting history on exit", zap.Error(err))
	}
	a.log.Info("stopped")
	return nil
}
