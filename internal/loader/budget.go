package loader

import "time"

// Clock returns the current time. Tests inject a fake one.
type Clock func() time.Time

// Budget is the per-tick work window of the build scheduler.
type Budget struct {
	limit    time.Duration
	now      Clock
	deadline time.Time
}

// NewBudget creates a budget of limit per window. A nil clock uses time.Now.
func NewBudget(limit time.Duration, now Clock) *Budget {
	if now == nil {
		now = time.Now
	}
	return &Budget{limit: limit, now: now}
}

// Refresh opens a new window, but only once the previous one is used up.
// A tick that finished early leaves the remaining time to the next tick.
func (b *Budget) Refresh() {
	if !b.StillHaveTime() {
		b.deadline = b.now().Add(b.limit)
	}
}

// StillHaveTime reports whether the current window is still open.
func (b *Budget) StillHaveTime() bool {
	return b.now().Before(b.deadline)
}

// Limit returns the window length.
func (b *Budget) Limit() time.Duration { return b.limit }
