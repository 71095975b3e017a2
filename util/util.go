// Package util holds helpers shared by the binaries.
package util

import "time"

// SkipThrottler lets through at most one call per period and skips the rest.
type SkipThrottler struct {
	d       time.Duration
	last    time.Time
	skipped int
	now     func() time.Time
}

func NewSkipThrottler(d time.Duration) *SkipThrottler {
	tt := &SkipThrottler{d: d, now: time.Now}
	return tt
}

// Ok reports whether the period since the last successful call has passed.
// The first call always succeeds.
func (tt *SkipThrottler) Ok() bool {
	now := tt.now()
	if !tt.last.IsZero() && now.Before(tt.last.Add(tt.d)) {
		tt.skipped++
		return false
	}

	tt.last = now
	tt.skipped = 0
	return true
}

// Skipped returns the number of calls skipped since the last successful one.
func (tt *SkipThrottler) Skipped() int {
	return tt.skipped
}
