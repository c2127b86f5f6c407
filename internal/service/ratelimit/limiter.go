package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// ErrThrottled is returned when a provider's outbound budget is spent.
// The resolver treats it like any other attempt failure.
var ErrThrottled = fmt.Errorf("rate limited")

type bucket struct {
	tokens float64
	last   time.Time
}

// Limiter is a per-provider token bucket. One instance is shared by all
// data adapters so each provider gets its own budget.
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity float64
	refill   float64 // tokens per second
}

// New creates a Limiter granting ratePerSec calls per provider.
func New(ratePerSec float64) *Limiter {
	if ratePerSec <= 0 {
		ratePerSec = 5
	}
	return &Limiter{
		buckets:  make(map[string]*bucket),
		capacity: ratePerSec,
		refill:   ratePerSec,
	}
}

// Take consumes one token for key, or returns ErrThrottled.
func (l *Limiter) Take(key string) error {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.capacity, last: now}
		l.buckets[key] = b
	}

	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens += elapsed * l.refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}

	if b.tokens < 1 {
		return fmt.Errorf("%w: %s", ErrThrottled, key)
	}
	b.tokens--
	return nil
}
