package provider

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket guarding outbound CoinGecko calls. The
// public API allows roughly 30 requests a minute without a key; the poller
// needs one markets page per tick, so the budget mostly absorbs on-demand
// fetches from cold-cache API reads and SSH sessions.
type RateLimiter struct {
	mu          sync.Mutex
	available   int
	capacity    int
	refillEvery time.Duration
	lastTopUp   time.Time
}

// NewRateLimiter allows bursts of capacity calls, regaining one call per
// refillEvery.
func NewRateLimiter(capacity int, refillEvery time.Duration) *RateLimiter {
	return &RateLimiter{
		available:   capacity,
		capacity:    capacity,
		refillEvery: refillEvery,
		lastTopUp:   time.Now(),
	}
}

// Wait blocks until a call is allowed or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		if r.take() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.refillEvery):
		}
	}
}

func (r *RateLimiter) take() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.topUp()
	if r.available == 0 {
		return false
	}
	r.available--
	return true
}

// topUp credits whole refill intervals elapsed since the last credit. A
// long-idle limiter comes back with a full burst, never more.
func (r *RateLimiter) topUp() {
	earned := int(time.Since(r.lastTopUp) / r.refillEvery)
	if earned == 0 {
		return
	}
	r.available += earned
	if r.available > r.capacity {
		r.available = r.capacity
	}
	r.lastTopUp = r.lastTopUp.Add(time.Duration(earned) * r.refillEvery)
}
