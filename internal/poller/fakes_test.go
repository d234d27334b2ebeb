package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/janekbaraniewski/glmusage/internal/core"
)

type fetchResult struct {
	snap core.UsageSnapshot
	err  error
}

// stubFetcher replays results in order and repeats the last one.
type stubFetcher struct {
	mu      sync.Mutex
	results []fetchResult
	calls   int
}

func (f *stubFetcher) FetchUsage(context.Context) (core.UsageSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	f.calls++
	r := f.results[i]
	return r.snap, r.err
}

func (f *stubFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type update struct {
	snap      core.UsageSnapshot
	history   []core.HistoryEntry
	nextReset *time.Time
}

type recordingDisplay struct {
	mu      sync.Mutex
	updates []update
	errors  []string
}

func (d *recordingDisplay) OnUpdate(snap core.UsageSnapshot, history []core.HistoryEntry, nextReset *time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updates = append(d.updates, update{snap: snap, history: history, nextReset: nextReset})
}

func (d *recordingDisplay) OnError(message string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errors = append(d.errors, message)
}

func (d *recordingDisplay) counts() (updates, errs int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.updates), len(d.errors)
}

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
	fail bool
}

func newMemStore() *memStore { return &memStore{data: make(map[string][]byte)} }

func (s *memStore) Get(_ context.Context, key string, def []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, errors.New("store unavailable")
	}
	if v, ok := s.data[key]; ok {
		return v, nil
	}
	return def, nil
}

func (s *memStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("store unavailable")
	}
	s.data[key] = append([]byte(nil), value...)
	s.sets++
	return nil
}

func (s *memStore) Sets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func tokenSnapshot(ts time.Time, pct float64) core.UsageSnapshot {
	return core.UsageSnapshot{
		Platform: core.PlatformZAI,
		QuotaLimit: core.QuotaLimit{Limits: []core.QuotaEntry{
			{Type: "Token usage (5h)", Kind: core.QuotaKindTokens, Percentage: pct},
		}},
		Timestamp: ts,
	}
}

func factoryFor(f Fetcher) FetcherFactory {
	return func() (Fetcher, error) { return f, nil }
}

func waitFor(t testing.TB, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
