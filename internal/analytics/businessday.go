package analytics

import (
	"sync"
	"time"
)

// BusinessDayTracker memoizes the current business day and reports when it rolls over
type BusinessDayTracker struct {
	clock  Clock
	cutoff int
	loc    *time.Location

	mu   sync.Mutex
	last string
}

// NewBusinessDayTracker creates a tracker; a nil clock uses SystemClock
func NewBusinessDayTracker(clock Clock, cutoff int, loc *time.Location) *BusinessDayTracker {
	if clock == nil {
		clock = SystemClock
	}
	if loc == nil {
		loc = time.Local
	}
	return &BusinessDayTracker{clock: clock, cutoff: cutoff, loc: loc}
}

// Current returns the business day at the clock's now as YYYY-MM-DD
func (t *BusinessDayTracker) Current() string {
	return BusinessDay(t.clock.Now(), t.cutoff, t.loc)
}

// Rolled reports whether the business day changed since the previous call.
// The first call records the day and returns false.
func (t *BusinessDayTracker) Rolled() bool {
	day := t.Current()

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.last == "" {
		t.last = day
		return false
	}
	if day == t.last {
		return false
	}
	t.last = day
	return true
}

// BusinessDay returns the business date of now as YYYY-MM-DD
func BusinessDay(now time.Time, cutoff int, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return businessTime(now, cutoff, loc).Format("2006-01-02")
}
