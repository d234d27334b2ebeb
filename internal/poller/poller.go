package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/janekbaraniewski/glmusage/internal/core"
	"github.com/janekbaraniewski/glmusage/internal/logging"
	"github.com/janekbaraniewski/glmusage/internal/metrics"
	"github.com/janekbaraniewski/glmusage/internal/providers/zai"
)

// ErrDisposed is returned by Restart once the poller has been disposed.
var ErrDisposed = errors.New("poller: disposed")

// Fetcher produces one usage snapshot per call.
type Fetcher interface {
	FetchUsage(ctx context.Context) (core.UsageSnapshot, error)
}

// FetcherFactory builds a fresh Fetcher from current configuration. It is
// called on construction and on every Restart.
type FetcherFactory func() (Fetcher, error)

// Store is the durable key-value store history is persisted to.
type Store interface {
	Get(ctx context.Context, key string, def []byte) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

type HistoryOptions struct {
	Capacity     int
	PersistLimit int
	PersistEvery int
	Window       time.Duration
}

func (h HistoryOptions) withDefaults() HistoryOptions {
	if h.Capacity <= 0 {
		h.Capacity = DefaultHistoryCapacity
	}
	if h.PersistLimit <= 0 {
		h.PersistLimit = DefaultPersistLimit
	}
	if h.PersistEvery <= 0 {
		h.PersistEvery = DefaultPersistEvery
	}
	if h.Window <= 0 {
		h.Window = DefaultHistoryWindow
	}
	return h
}

type Options struct {
	NewFetcher FetcherFactory
	Store      Store // optional; nil disables persistence
	Displays   []Display
	// OnError is the host error hook, called once per failed poll.
	OnError   func(error)
	Logger    *zap.Logger
	Intervals Intervals
	History   HistoryOptions
	Now       func() time.Time
}

// Poller drives the fetch-compare-update cycle on an adaptive schedule.
//
// One scheduled poll is in flight at a time: the timer is single-shot and
// only re-armed after the cycle it fired finishes. Manual Poll calls may
// overlap a scheduled cycle; the last one to finish wins.
type Poller struct {
	newFetcher FetcherFactory
	store      Store
	displays   []Display
	onError    func(error)
	log        *zap.Logger
	intervals  Intervals
	histOpts   HistoryOptions
	now        func() time.Time

	mu           sync.Mutex
	fetcher      Fetcher
	running      bool
	disposed     bool
	gen          uint64
	timer        *time.Timer
	interval     time.Duration
	lastActivity time.Time
	last         *core.UsageSnapshot
	nextReset    *time.Time
	lastErr      error
	history      *History
	appends      int
}

// New builds a Poller in the Stopped state and seeds its history from the
// store. It fails only when the fetcher cannot be built.
func New(ctx context.Context, opts Options) (*Poller, error) {
	if opts.NewFetcher == nil {
		return nil, errors.New("poller: fetcher factory is required")
	}
	fetcher, err := opts.NewFetcher()
	if err != nil {
		return nil, fmt.Errorf("poller: building client: %w", err)
	}

	p := &Poller{
		newFetcher: opts.NewFetcher,
		store:      opts.Store,
		displays:   append([]Display(nil), opts.Displays...),
		onError:    opts.OnError,
		log:        logging.OrNop(opts.Logger),
		intervals:  opts.Intervals.withDefaults(),
		histOpts:   opts.History.withDefaults(),
		now:        opts.Now,
		fetcher:    fetcher,
	}
	if p.now == nil {
		p.now = time.Now
	}
	p.lastActivity = p.now()
	p.history = NewHistory(p.histOpts.Capacity, p.loadHistory(ctx))
	metrics.HistoryEntries.Set(float64(p.history.Len()))
	return p, nil
}

func (p *Poller) loadHistory(ctx context.Context) []core.HistoryEntry {
	if p.store == nil {
		return nil
	}
	raw, err := p.store.Get(ctx, HistoryKey, []byte("[]"))
	if err != nil {
		p.log.Warn("loading persisted history", zap.Error(err))
		return nil
	}
	var entries []core.HistoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		p.log.Warn("decoding persisted history", zap.Error(err))
		return nil
	}
	p.log.Debug("seeded history", zap.Int("entries", len(entries)))
	return entries
}

// AddDisplay registers d for future updates.
func (p *Poller) AddDisplay(d Display) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.displays = append(p.displays, d)
}

// Start arms the first cycle. Calling Start while running, or after
// Dispose, is a no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.startLocked()
}

func (p *Poller) startLocked() {
	if p.running || p.disposed {
		return
	}
	p.running = true
	p.gen++
	p.armLocked(p.gen)
	p.log.Info("polling started", zap.Duration("interval", p.interval))
}

// Stop cancels any pending cycle. Calling Stop while stopped is a no-op.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// stopLocked always bumps the generation so an in-flight Restart can tell
// that the state was changed under it.
func (p *Poller) stopLocked() {
	p.gen++
	if !p.running {
		return
	}
	p.running = false
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.log.Info("polling stopped")
}

// Restart stops, rebuilds the fetcher from current configuration and starts
// again. If the fetcher cannot be built the poller stays stopped. When Stop,
// Start or Dispose run while the fetcher is being built, their outcome wins
// and Restart only swaps the fetcher in, or drops it after Dispose.
func (p *Poller) Restart() error {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return ErrDisposed
	}
	p.stopLocked()
	gen := p.gen
	p.mu.Unlock()

	fetcher, err := p.newFetcher()
	if err != nil {
		p.log.Warn("rebuilding client failed, polling stays stopped", zap.Error(err))
		return fmt.Errorf("poller: rebuilding client: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		p.log.Debug("restart superseded by dispose")
		return ErrDisposed
	}
	p.fetcher = fetcher
	if gen != p.gen {
		p.log.Debug("restart superseded, keeping current state", zap.Bool("running", p.running))
		return nil
	}
	p.startLocked()
	return nil
}

// Dispose stops polling for good and persists the history tail.
func (p *Poller) Dispose(ctx context.Context) error {
	p.mu.Lock()
	p.stopLocked()
	p.disposed = true
	tail := p.history.Tail(p.histOpts.PersistLimit)
	p.mu.Unlock()
	return p.persist(ctx, tail)
}

// RecordActivity marks the user as active. It affects the interval chosen at
// the next arm.
func (p *Poller) RecordActivity() {
	p.mu.Lock()
	p.lastActivity = p.now()
	p.mu.Unlock()
}

func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Interval is the interval of the currently armed cycle.
func (p *Poller) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// NextInterval is the interval that would be armed now.
func (p *Poller) NextInterval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.intervals.Next(p.now().Sub(p.lastActivity))
}

func (p *Poller) armLocked(gen uint64) {
	p.interval = p.intervals.Next(p.now().Sub(p.lastActivity))
	metrics.PollInterval.Set(p.interval.Seconds())
	p.timer = time.AfterFunc(p.interval, func() { p.cycle(gen) })
}

func (p *Poller) cycle(gen uint64) {
	p.mu.Lock()
	if !p.running || gen != p.gen {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	// Errors are already reported to displays and the hook.
	_ = p.Poll(context.Background())

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running && gen == p.gen {
		p.armLocked(gen)
	}
}

// Poll runs exactly one fetch-compare-update cycle. It works in either state
// and returns the fetch error, if any, after reporting it. A poll abandoned
// through ctx is returned but not reported.
func (p *Poller) Poll(ctx context.Context) error {
	p.mu.Lock()
	fetcher := p.fetcher
	p.mu.Unlock()

	start := time.Now()
	snap, err := fetcher.FetchUsage(ctx)
	metrics.PollDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if zai.IsCanceled(err) || ctx.Err() != nil {
			metrics.PollsTotal.WithLabelValues("canceled").Inc()
			p.log.Debug("poll canceled", zap.Error(err))
			return err
		}
		p.fail(err)
		return err
	}

	p.mu.Lock()
	changed := core.HasChanged(p.last, snap)
	p.last = &snap
	p.lastErr = nil
	if !changed {
		p.mu.Unlock()
		metrics.PollsTotal.WithLabelValues("unchanged").Inc()
		p.log.Debug("usage unchanged")
		return nil
	}

	now := p.now()
	p.history.Append(core.HistoryEntry{Snapshot: snap, RecordedAt: now})
	p.appends++
	var tail []core.HistoryEntry
	if p.appends%p.histOpts.PersistEvery == 0 {
		tail = p.history.Tail(p.histOpts.PersistLimit)
	}
	p.nextReset = nil
	if reset, ok := NextTokenReset(snap); ok {
		p.nextReset = &reset
	}
	recent := p.history.Since(now.Add(-p.histOpts.Window))
	nextReset := copyTime(p.nextReset)
	displays := append([]Display(nil), p.displays...)
	entries := p.history.Len()
	p.mu.Unlock()

	metrics.PollsTotal.WithLabelValues("changed").Inc()
	metrics.HistoryEntries.Set(float64(entries))
	for _, e := range snap.QuotaLimit.Limits {
		metrics.QuotaPercentage.WithLabelValues(e.Type).Set(e.Percentage)
	}

	if tail != nil {
		if err := p.persist(ctx, tail); err != nil {
			p.log.Warn("persisting history", zap.Error(err))
		}
	}

	for _, d := range displays {
		d.OnUpdate(snap, recent, copyTime(nextReset))
	}
	p.log.Debug("usage changed",
		zap.Int("history", entries),
		zap.Timep("next_reset", nextReset),
	)
	return nil
}

func (p *Poller) fail(err error) {
	kind := zai.Classify(err)
	metrics.PollsTotal.WithLabelValues("error").Inc()
	metrics.PollErrorsTotal.WithLabelValues(string(kind)).Inc()

	switch kind {
	case zai.KindTimeout:
		p.log.Warn("poll timed out", zap.Error(err))
	case zai.KindConnectivity:
		p.log.Warn("poll failed: network unreachable", zap.Error(err))
	case zai.KindAuth:
		p.log.Error("poll failed: authentication rejected", zap.Error(err))
	default:
		p.log.Error("poll failed", zap.Error(err))
	}

	p.mu.Lock()
	p.lastErr = err
	displays := append([]Display(nil), p.displays...)
	p.mu.Unlock()

	for _, d := range displays {
		d.OnError(err.Error())
	}
	if p.onError != nil {
		p.onError(err)
	}
}

func (p *Poller) persist(ctx context.Context, tail []core.HistoryEntry) error {
	if p.store == nil {
		return nil
	}
	if tail == nil {
		tail = []core.HistoryEntry{}
	}
	raw, err := json.Marshal(tail)
	if err != nil {
		return fmt.Errorf("poller: encoding history: %w", err)
	}
	if err := p.store.Set(ctx, HistoryKey, raw); err != nil {
		return fmt.Errorf("poller: saving history: %w", err)
	}
	return nil
}

// Snapshot returns the most recent successful snapshot.
func (p *Poller) Snapshot() (core.UsageSnapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return core.UsageSnapshot{}, false
	}
	return *p.last, true
}

// LastError is the error of the latest poll, nil after a success.
func (p *Poller) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *Poller) NextResetTime() (time.Time, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.nextReset == nil {
		return time.Time{}, false
	}
	return *p.nextReset, true
}

// Recent returns the history entries recorded within window of now.
func (p *Poller) Recent(window time.Duration) []core.HistoryEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.history.Since(p.now().Add(-window))
}

// History returns every buffered entry, oldest first.
func (p *Poller) History() []core.HistoryEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.history.All()
}

// ClearHistory empties the buffer and the persisted copy.
func (p *Poller) ClearHistory(ctx context.Context) error {
	p.mu.Lock()
	p.history.Clear()
	p.appends = 0
	p.mu.Unlock()
	metrics.HistoryEntries.Set(0)
	return p.persist(ctx, nil)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
