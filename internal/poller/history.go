package poller

import (
	"time"

	"github.com/samber/lo"

	"github.com/janekbaraniewski/glmusage/internal/core"
)

const (
	DefaultHistoryCapacity = 1440
	DefaultPersistLimit    = 100
	DefaultPersistEvery    = 10
	DefaultHistoryWindow   = 24 * time.Hour

	// HistoryKey is the store key holding the persisted history tail.
	HistoryKey = "usage_history"
)

// History is an insertion-ordered FIFO buffer bounded at capacity. It is not
// safe for concurrent use; the Poller guards it.
type History struct {
	entries  []core.HistoryEntry
	capacity int
}

// NewHistory creates a buffer seeded with entries, keeping the newest ones
// when the seed exceeds capacity.
func NewHistory(capacity int, seed []core.HistoryEntry) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	if len(seed) > capacity {
		seed = seed[len(seed)-capacity:]
	}
	entries := make([]core.HistoryEntry, len(seed), capacity)
	copy(entries, seed)
	return &History{entries: entries, capacity: capacity}
}

// Append adds e and evicts the oldest entry when over capacity.
func (h *History) Append(e core.HistoryEntry) (evicted bool) {
	if len(h.entries) < h.capacity {
		h.entries = append(h.entries, e)
		return false
	}
	copy(h.entries, h.entries[1:])
	h.entries[len(h.entries)-1] = e
	return true
}

func (h *History) Len() int { return len(h.entries) }

func (h *History) Capacity() int { return h.capacity }

// Since returns the entries recorded strictly after cutoff, in insertion order.
func (h *History) Since(cutoff time.Time) []core.HistoryEntry {
	return lo.Filter(h.entries, func(e core.HistoryEntry, _ int) bool {
		return e.RecordedAt.After(cutoff)
	})
}

// Tail returns a copy of the newest n entries.
func (h *History) Tail(n int) []core.HistoryEntry {
	if n > len(h.entries) {
		n = len(h.entries)
	}
	out := make([]core.HistoryEntry, n)
	copy(out, h.entries[len(h.entries)-n:])
	return out
}

func (h *History) All() []core.HistoryEntry {
	return h.Tail(len(h.entries))
}

func (h *History) Clear() {
	h.entries = h.entries[:0]
}
