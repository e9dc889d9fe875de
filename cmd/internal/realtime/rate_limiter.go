package realtime

import (
	"sync"
	"time"
)

// RateLimiter bounds inbound events per connection to limit per window.
// Admitted timestamps are kept in admission order, so expiry only ever
// trims from the front.
type RateLimiter struct {
	mu       sync.Mutex
	admitted []time.Time
	limit    int
	window   time.Duration
}

// NewRateLimiter constructs a RateLimiter, substituting the gateway
// defaults for non-positive inputs.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = rateLimitEvents
	}
	if window <= 0 {
		window = rateLimitWindow
	}
	return &RateLimiter{
		admitted: make([]time.Time, 0, limit),
		limit:    limit,
		window:   window,
	}
}

// Allow reports whether an event at "now" fits inside the window and,
// if so, records it.
func (r *RateLimiter) Allow(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cut := now.Add(-r.window)
	expired := 0
	for expired < len(r.admitted) && !r.admitted[expired].After(cut) {
		expired++
	}
	if expired > 0 {
		r.admitted = append(r.admitted[:0], r.admitted[expired:]...)
	}

	if len(r.admitted) >= r.limit {
		return false
	}
	r.admitted = append(r.admitted, now)
	return true
}
