package poller

import "time"

const (
	DefaultActiveInterval = 10 * time.Second
	DefaultIdleInterval   = 30 * time.Second
	DefaultIdleThreshold  = 60 * time.Second
)

// Intervals configures the adaptive cadence.
type Intervals struct {
	Active        time.Duration
	Idle          time.Duration
	IdleThreshold time.Duration
}

func DefaultIntervals() Intervals {
	return Intervals{
		Active:        DefaultActiveInterval,
		Idle:          DefaultIdleInterval,
		IdleThreshold: DefaultIdleThreshold,
	}
}

// Next picks the interval for the next arm given the time since the last
// user activity.
func (i Intervals) Next(sinceActivity time.Duration) time.Duration {
	if sinceActivity > i.IdleThreshold {
		return i.Idle
	}
	return i.Active
}

func (i Intervals) withDefaults() Intervals {
	d := DefaultIntervals()
	if i.Active <= 0 {
		i.Active = d.Active
	}
	if i.Idle <= 0 {
		i.Idle = d.Idle
	}
	if i.IdleThreshold <= 0 {
		i.IdleThreshold = d.IdleThreshold
	}
	return i
}
