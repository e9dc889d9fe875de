package realtime

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsUnderLimit(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(3, time.Second)
	now := time.Unix(1000, 0)

	for i := 0; i < 3; i++ {
		if !rl.Allow(now) {
			t.Fatalf("event %d denied under limit", i)
		}
	}
	if rl.Allow(now) {
		t.Fatalf("event over limit was allowed")
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(2, time.Second)
	now := time.Unix(1000, 0)

	if !rl.Allow(now) || !rl.Allow(now) {
		t.Fatalf("initial events denied")
	}
	if rl.Allow(now.Add(500 * time.Millisecond)) {
		t.Fatalf("event inside window was allowed over limit")
	}
	if !rl.Allow(now.Add(1100 * time.Millisecond)) {
		t.Fatalf("event after window expiry was denied")
	}
}

func TestRateLimiterDefaults(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(0, 0)
	now := time.Unix(1000, 0)
	for i := 0; i < rateLimitEvents; i++ {
		if !rl.Allow(now) {
			t.Fatalf("default limiter denied event %d of %d", i, rateLimitEvents)
		}
	}
	if rl.Allow(now) {
		t.Fatalf("default limiter allowed event over limit")
	}
}
