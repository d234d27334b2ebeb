package poller

import (
	"time"

	"github.com/janekbaraniewski/glmusage/internal/core"
)

// Display is a passive recipient of poll results. Calls are fire-and-forget
// and may arrive from the scheduler goroutine; implementations must not block.
type Display interface {
	// OnUpdate is called only when a poll produced a changed snapshot.
	// nextReset is nil when the snapshot has no token quota.
	OnUpdate(snap core.UsageSnapshot, history []core.HistoryEntry, nextReset *time.Time)
	// OnError is called when a poll failed. Absence of updates otherwise
	// means the last shown state is still current.
	OnError(message string)
}

// DisplayFuncs adapts plain functions to Display. Nil fields are skipped.
type DisplayFuncs struct {
	Update func(snap core.UsageSnapshot, history []core.HistoryEntry, nextReset *time.Time)
	Error  func(message string)
}

func (d DisplayFuncs) OnUpdate(snap core.UsageSnapshot, history []core.HistoryEntry, nextReset *time.Time) {
	if d.Update != nil {
		d.Update(snap, history, nextReset)
	}
}

func (d DisplayFuncs) OnError(message string) {
	if d.Error != nil {
		d.Error(message)
	}
}
