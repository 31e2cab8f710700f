// Package rate paces request dispatch for the rate-driven executors.
package rate

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// LeakyBucket schedules dispatches at a fixed rate. Rather than
// counting available tokens it answers "when should the next dispatch
// happen", which keeps pacing smooth across rate changes during ramps:
// each dispatch time is derived from the configured rate
// (next = start + (i+1) * 1/rate), without drift accumulating from
// sleep overshoot.
//
// Safe for concurrent use.
type LeakyBucket struct {
	rate        float64   // dispatches per second
	lastDrip    time.Time // last scheduled dispatch
	accumulated float64   // fractional dispatches earned by elapsed time
	mu          sync.Mutex

	totalDispatches atomic.Int64
	totalWaitTime   atomic.Int64 // nanoseconds
}

// NewLeakyBucket creates a pacer for the given dispatch rate per
// second. Rates <= 0 are clamped to 1. The first call to Next returns
// immediately.
func NewLeakyBucket(rate float64) *LeakyBucket {
	if rate <= 0 {
		rate = 1.0
	}
	return &LeakyBucket{
		rate:     rate,
		lastDrip: time.Now(),
	}
}

// Next returns when the next dispatch should start. The returned time
// may be in the past when the producer is behind schedule, meaning the
// dispatch should happen immediately.
func (lb *LeakyBucket) Next() time.Time {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(lb.lastDrip).Seconds()

	// lastDrip can sit in the future after a scheduled dispatch.
	if elapsed < 0 {
		elapsed = 0
	}

	lb.accumulated += elapsed * lb.rate

	// Never bank more than one dispatch; strict pacing, no bursts.
	if lb.accumulated > 1.0 {
		lb.accumulated = 1.0
	}

	if lb.accumulated >= 1.0 {
		lb.accumulated -= 1.0
		lb.lastDrip = now
		lb.totalDispatches.Add(1)
		return now
	}

	deficit := 1.0 - lb.accumulated
	waitSeconds := deficit / lb.rate
	lb.accumulated = 0

	nextTime := now.Add(time.Duration(waitSeconds * float64(time.Second)))

	// Anchor lastDrip at the scheduled time, not now. Anchoring at now
	// would re-earn the same interval after the sleep and double
	// dispatch.
	lb.lastDrip = nextTime

	lb.totalDispatches.Add(1)
	lb.totalWaitTime.Add(int64(nextTime.Sub(now)))

	return nextTime
}

// Wait blocks until the next dispatch should execute, or until the
// context is done. Returns ctx.Err() on cancellation.
func (lb *LeakyBucket) Wait(ctx context.Context) error {
	nextTime := lb.Next()

	waitDuration := time.Until(nextTime)
	if waitDuration <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(waitDuration):
		return nil
	}
}

// SetRate changes the dispatch rate. Accumulated credit is dropped so a
// ramp step never opens with a burst.
func (lb *LeakyBucket) SetRate(rate float64) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if rate <= 0 {
		rate = 1.0
	}

	lb.rate = rate
	lb.accumulated = 0
	lb.lastDrip = time.Now()
}

// Rate returns the current dispatch rate per second.
func (lb *LeakyBucket) Rate() float64 {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.rate
}

// Reset clears pacing state and counters for a new phase.
func (lb *LeakyBucket) Reset() {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.accumulated = 0
	lb.lastDrip = time.Now()
	lb.totalDispatches.Store(0)
	lb.totalWaitTime.Store(0)
}

// Stats reports pacing counters.
func (lb *LeakyBucket) Stats() Stats {
	lb.mu.Lock()
	rate := lb.rate
	accumulated := lb.accumulated
	lb.mu.Unlock()

	return Stats{
		Rate:            rate,
		Accumulated:     accumulated,
		TotalDispatches: lb.totalDispatches.Load(),
		TotalWaitTime:   time.Duration(lb.totalWaitTime.Load()),
	}
}

// Stats describes a pacer's activity.
type Stats struct {
	Rate            float64       `json:"rate"`
	Accumulated     float64       `json:"accumulated"`
	TotalDispatches int64         `json:"totalDispatches"`
	TotalWaitTime   time.Duration `json:"totalWaitTime"`
}
