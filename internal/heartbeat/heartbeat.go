// Package heartbeat schedules the daemon's periodic HEARTBEAT system event.
// It never reads the clock itself; callers pass the current time in.
package heartbeat

import "time"

// Beat is due when Check returns it.
type Beat struct {
	Timestamp time.Time
	Uptime    time.Duration
}

// Scheduler fires at most once per interval, measured from the previous
// beat (or from start for the first one).
type Scheduler struct {
	interval time.Duration
	start    time.Time
	last     time.Time
}

// New returns a Scheduler. An interval <= 0 disables it.
func New(start time.Time, interval time.Duration) *Scheduler {
	return &Scheduler{
		interval: interval,
		start:    start,
		last:     start,
	}
}

// Enabled reports whether the scheduler will ever fire.
func (s *Scheduler) Enabled() bool {
	return s != nil && s.interval > 0
}

// Check returns a Beat if the interval has elapsed at now, nil otherwise.
func (s *Scheduler) Check(now time.Time) *Beat {
	if !s.Enabled() {
		return nil
	}
	if now.Sub(s.last) < s.interval {
		return nil
	}

	s.last = now
	return &Beat{
		Timestamp: now,
		Uptime:    now.Sub(s.start),
	}
}
