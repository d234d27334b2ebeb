package core

import "time"

// QueryTimeLayout is the timestamp format the monitor API expects.
const QueryTimeLayout = "2006-01-02 15:04:05"

// TimeWindow is a query range for the usage endpoints.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// DailyWindow returns the rolling one-day window aligned to hour boundaries:
// from the current hour on the previous day to the last millisecond of the
// current hour today.
func DailyWindow(now time.Time) TimeWindow {
	loc := now.Location()
	return TimeWindow{
		Start: time.Date(now.Year(), now.Month(), now.Day()-1, now.Hour(), 0, 0, 0, loc),
		End:   time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 59, 59, int(999*time.Millisecond), loc),
	}
}

// Params returns the startTime/endTime query values.
func (w TimeWindow) Params() (start, end string) {
	return w.Start.Format(QueryTimeLayout), w.End.Format(QueryTimeLayout)
}

// Contains reports whether t lies inside the window, bounds included.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}
