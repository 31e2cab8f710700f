package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/radload-io/radload/internal/radius"
)

// TimeBucketStore stores time-bucketed metrics in a ring buffer.
//
// It provides:
// - Continuous time-series data (even when no requests complete)
// - Efficient O(1) append and bounded memory usage
// - Thread-safe access from multiple goroutines
//
// The store maintains a ring buffer of configurable size, automatically
// discarding old buckets when the buffer is full.
type TimeBucketStore struct {
	buckets    []*TimeBucket
	head       int // Next write position
	count      int // Current number of buckets
	maxBuckets int
	mu         sync.RWMutex

	// For interval calculation
	lastBucketTime time.Time

	// Current interval accumulator (lock-free updates)
	currentRequests  atomic.Int64
	currentSucceeded atomic.Int64
	currentFailed    atomic.Int64
	currentNoReply   atomic.Int64
}

// NewTimeBucketStore creates a new time bucket store.
//
// For a 1-hour run with 1-second buckets, use maxBuckets=3600.
func NewTimeBucketStore(maxBuckets int) *TimeBucketStore {
	if maxBuckets <= 0 {
		maxBuckets = 3600 // Default: 1 hour of data
	}

	return &TimeBucketStore{
		buckets:        make([]*TimeBucket, maxBuckets),
		maxBuckets:     maxBuckets,
		lastBucketTime: time.Now(),
	}
}

// RecordOutcome records a request outcome into the current interval
// accumulator.
//
// This method is lock-free using atomic operations, making it safe
// for high-concurrency dispatch without blocking workers.
func (tbs *TimeBucketStore) RecordOutcome(status radius.Status) {
	tbs.currentRequests.Add(1)

	switch status {
	case radius.StatusSucceeded:
		tbs.currentSucceeded.Add(1)
	case radius.StatusNoReply:
		tbs.currentNoReply.Add(1)
	default:
		tbs.currentFailed.Add(1)
	}
}

// CreateBucket creates a new bucket with the current metrics.
//
// This method is called by the background emitter (typically every
// second). It captures the current state and resets the interval
// accumulators.
func (tbs *TimeBucketStore) CreateBucket(
	totalSent, totalSucceeded, totalFailed, totalNoReply int64,
	latencies LatencyPercentiles,
	activeWorkers int,
	phase Phase,
) *TimeBucket {
	tbs.mu.Lock()
	defer tbs.mu.Unlock()

	now := time.Now()

	// Capture and reset interval counters
	intervalRequests := tbs.currentRequests.Swap(0)
	intervalFailed := tbs.currentFailed.Swap(0)
	intervalNoReply := tbs.currentNoReply.Swap(0)
	tbs.currentSucceeded.Swap(0)

	// Calculate RPS for this interval
	intervalDuration := now.Sub(tbs.lastBucketTime).Seconds()
	if intervalDuration <= 0 {
		intervalDuration = 1.0
	}
	intervalRPS := float64(intervalRequests) / intervalDuration

	// Error rate for this interval counts both failures and lost packets
	intervalErrorRate := 0.0
	if intervalRequests > 0 {
		intervalErrorRate = float64(intervalFailed+intervalNoReply) / float64(intervalRequests)
	}

	bucket := &TimeBucket{
		Timestamp:         now,
		TotalSent:         totalSent,
		TotalSucceeded:    totalSucceeded,
		TotalFailed:       totalFailed,
		TotalNoReply:      totalNoReply,
		IntervalRequests:  intervalRequests,
		IntervalRPS:       intervalRPS,
		LatencyMin:        latencies.Min,
		LatencyMax:        latencies.Max,
		LatencyP50:        latencies.P50,
		LatencyP90:        latencies.P90,
		LatencyP95:        latencies.P95,
		LatencyP99:        latencies.P99,
		ActiveWorkers:     activeWorkers,
		Phase:             phase,
		IntervalErrorRate: intervalErrorRate,
	}

	// Add to ring buffer
	tbs.buckets[tbs.head] = bucket
	tbs.head = (tbs.head + 1) % tbs.maxBuckets
	if tbs.count < tbs.maxBuckets {
		tbs.count++
	}

	tbs.lastBucketTime = now

	return bucket
}

// GetBuckets returns a copy of all buckets in chronological order.
//
// The returned slice is a copy, safe to use without holding locks.
func (tbs *TimeBucketStore) GetBuckets() []*TimeBucket {
	tbs.mu.RLock()
	defer tbs.mu.RUnlock()

	if tbs.count == 0 {
		return nil
	}

	result := make([]*TimeBucket, tbs.count)

	if tbs.count < tbs.maxBuckets {
		// Buffer not yet full - buckets are in order from 0 to count-1
		for i := 0; i < tbs.count; i++ {
			result[i] = tbs.buckets[i]
		}
	} else {
		// Buffer is full - read in order from head to head-1
		for i := 0; i < tbs.count; i++ {
			idx := (tbs.head + i) % tbs.maxBuckets
			result[i] = tbs.buckets[idx]
		}
	}

	return result
}

// GetBucketsForPhase returns buckets for a specific phase.
func (tbs *TimeBucketStore) GetBucketsForPhase(phase Phase) []*TimeBucket {
	allBuckets := tbs.GetBuckets()
	result := make([]*TimeBucket, 0)

	for _, b := range allBuckets {
		if b.Phase == phase {
			result = append(result, b)
		}
	}

	return result
}

// GetRecentBuckets returns the N most recent buckets.
func (tbs *TimeBucketStore) GetRecentBuckets(n int) []*TimeBucket {
	tbs.mu.RLock()
	defer tbs.mu.RUnlock()

	if n > tbs.count {
		n = tbs.count
	}
	if n == 0 {
		return nil
	}

	result := make([]*TimeBucket, n)

	// Read from most recent backwards
	for i := 0; i < n; i++ {
		// head-1 is most recent, head-2 is second most recent, etc.
		idx := (tbs.head - 1 - i + tbs.maxBuckets) % tbs.maxBuckets
		result[n-1-i] = tbs.buckets[idx] // Reverse to get chronological order
	}

	return result
}

// GetLatestBucket returns the most recent bucket, or nil if none.
func (tbs *TimeBucketStore) GetLatestBucket() *TimeBucket {
	tbs.mu.RLock()
	defer tbs.mu.RUnlock()

	if tbs.count == 0 {
		return nil
	}

	idx := (tbs.head - 1 + tbs.maxBuckets) % tbs.maxBuckets
	return tbs.buckets[idx]
}

// Count returns the current number of buckets stored.
func (tbs *TimeBucketStore) Count() int {
	tbs.mu.RLock()
	defer tbs.mu.RUnlock()
	return tbs.count
}

// Reset clears all buckets and resets counters.
func (tbs *TimeBucketStore) Reset() {
	tbs.mu.Lock()
	defer tbs.mu.Unlock()

	tbs.buckets = make([]*TimeBucket, tbs.maxBuckets)
	tbs.head = 0
	tbs.count = 0
	tbs.lastBucketTime = time.Now()

	tbs.currentRequests.Store(0)
	tbs.currentSucceeded.Store(0)
	tbs.currentFailed.Store(0)
	tbs.currentNoReply.Store(0)
}
