package poller

import (
	"time"

	"github.com/janekbaraniewski/glmusage/internal/core"
)

// tokenWindowHours is the length of the rolling token quota window. Windows
// start at wall-clock hours 00, 05, 10, 15 and 20.
const tokenWindowHours = 5

// NextTokenReset derives when the token quota window of snap resets. It
// returns false when the snapshot carries no token-class quota.
func NextTokenReset(snap core.UsageSnapshot) (time.Time, bool) {
	if _, ok := snap.QuotaLimit.TokenEntry(); !ok {
		return time.Time{}, false
	}

	captured := snap.Timestamp
	windowStart := (captured.Hour() / tokenWindowHours) * tokenWindowHours
	reset := time.Date(captured.Year(), captured.Month(), captured.Day(),
		windowStart+tokenWindowHours, 0, 0, 0, captured.Location())
	if !reset.After(captured) {
		reset = reset.AddDate(0, 0, 1)
	}
	return reset, true
}
