package metrics

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/radload-io/radload/internal/radius"
)

// distBounds are the upper edges of the latency distribution bands.
// Observations at or above the last edge fall into the overflow band.
var distBounds = [...]time.Duration{
	10 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	200 * time.Millisecond,
	500 * time.Millisecond,
	time.Second,
}

// distLabels has one label per band plus the overflow band.
var distLabels = [...]string{
	"< 10ms",
	"< 50ms",
	"< 100ms",
	"< 200ms",
	"< 500ms",
	"< 1s",
	">= 1s",
}

// Engine collects and aggregates load-run metrics using an HDR histogram.
//
// Key features:
// - HDR histogram for accurate latency percentiles (O(1) calculation)
// - Continuous time-bucket emission (even during low activity)
// - Lock-free counter updates for high concurrency
// - Phase-aware metrics aggregation
//
// # Thread Safety
//
// Engine is safe for concurrent use. Counters use atomic operations,
// the histogram uses mutex protection, and the background emitter runs
// in its own goroutine. Reset must not race with Record; executors
// only reset between steps, after all workers have joined.
type Engine struct {
	// HDR histogram for latency measurement
	// Range: 1 microsecond to 1 hour, 3 significant figures
	latencyHist   *hdrhistogram.Histogram
	latencyHistMu sync.Mutex

	// Atomic outcome counters for lock-free updates
	sent      atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	noReply   atomic.Int64

	// Latency distribution bands, one counter per label
	distribution [len(distLabels)]atomic.Int64

	// Active worker tracking
	activeWorkers atomic.Int32

	// Per-request samples for CSV export (only when enabled). The
	// sample log spans the whole run: unlike the counters it survives
	// step resets, so stepped runs still export every request. Sample
	// offsets anchor to createdAt, which Reset never moves.
	samples   []Sample
	samplesMu sync.Mutex
	nextID    atomic.Int64
	createdAt time.Time

	// Time-bucketed metrics store
	bucketStore *TimeBucketStore

	// Phase tracking
	currentPhase Phase
	phaseMu      sync.RWMutex
	phaseHistory []PhaseChange

	// Timing. Guarded by startMu because Reset moves the start time
	// while the progress poller reads it.
	startTime time.Time
	startMu   sync.RWMutex

	// Background emitter
	emitterCtx    context.Context
	emitterCancel context.CancelFunc
	emitterWg     sync.WaitGroup
	stopOnce      sync.Once

	// Configuration
	config EngineConfig
}

// NewEngine creates a new metrics engine with default configuration.
func NewEngine() *Engine {
	return NewEngineWithConfig(DefaultEngineConfig())
}

// NewEngineWithConfig creates a new metrics engine with custom configuration.
func NewEngineWithConfig(config EngineConfig) *Engine {
	ctx, cancel := context.WithCancel(context.Background())

	hist := hdrhistogram.New(config.HistogramMin, config.HistogramMax, config.HistogramSigFigs)

	now := time.Now()
	engine := &Engine{
		latencyHist:   hist,
		bucketStore:   NewTimeBucketStore(config.MaxBuckets),
		currentPhase:  PhaseInit,
		phaseHistory:  make([]PhaseChange, 0),
		startTime:     now,
		createdAt:     now,
		emitterCtx:    ctx,
		emitterCancel: cancel,
		config:        config,
	}

	// Start background emitter
	engine.emitterWg.Add(1)
	go engine.runEmitter()

	return engine
}

// Record records a completed request.
//
// This is the primary recording method. It updates the histogram, the
// outcome counters, the distribution bands, the time-series store and,
// when sample capture is enabled, the per-request sample log.
func (e *Engine) Record(status radius.Status, latency time.Duration) {
	// Convert to microseconds for the HDR histogram
	latencyMicros := latency.Microseconds()

	// Clamp to valid range
	if latencyMicros < e.config.HistogramMin {
		latencyMicros = e.config.HistogramMin
	}
	if latencyMicros > e.config.HistogramMax {
		latencyMicros = e.config.HistogramMax
	}

	// Record in the histogram (thread-safe via mutex)
	e.latencyHistMu.Lock()
	e.latencyHist.RecordValue(latencyMicros)
	e.latencyHistMu.Unlock()

	// Update atomic counters
	e.sent.Add(1)
	switch status {
	case radius.StatusSucceeded:
		e.succeeded.Add(1)
	case radius.StatusNoReply:
		e.noReply.Add(1)
	default:
		e.failed.Add(1)
	}

	e.distribution[distBand(latency)].Add(1)

	// Record in bucket store for time-series
	e.bucketStore.RecordOutcome(status)

	if e.config.RecordSamples {
		e.recordSample(status, latency)
	}
}

// distBand returns the distribution band index for a latency.
func distBand(latency time.Duration) int {
	for i, bound := range distBounds {
		if latency < bound {
			return i
		}
	}
	return len(distLabels) - 1
}

// recordSample appends a per-request sample with a monotonically
// increasing packet ID. Start is derived from the request end time
// minus its latency, relative to engine creation, so offsets stay
// monotonic across step resets.
func (e *Engine) recordSample(status radius.Status, latency time.Duration) {
	id := e.nextID.Add(1)
	start := time.Since(e.createdAt) - latency
	if start < 0 {
		start = 0
	}

	e.samplesMu.Lock()
	e.samples = append(e.samples, Sample{
		ID:      id,
		Status:  status,
		Start:   start,
		Latency: latency,
	})
	e.samplesMu.Unlock()
}

// Samples returns a copy of all recorded per-request samples in
// packet-ID order. Returns nil when sample capture is disabled.
func (e *Engine) Samples() []Sample {
	e.samplesMu.Lock()
	defer e.samplesMu.Unlock()

	if e.samples == nil {
		return nil
	}
	result := make([]Sample, len(e.samples))
	copy(result, e.samples)
	return result
}

// SetPhase updates the current run phase.
//
// Executors call this to mark phase transitions. Phase information is
// included in time-series buckets.
func (e *Engine) SetPhase(phase Phase) {
	e.phaseMu.Lock()
	defer e.phaseMu.Unlock()

	if e.currentPhase == phase {
		return // No change
	}

	e.currentPhase = phase
	e.phaseHistory = append(e.phaseHistory, PhaseChange{
		Phase:     phase,
		Timestamp: time.Now(),
		Requests:  e.sent.Load(),
	})
}

// GetPhase returns the current run phase.
func (e *Engine) GetPhase() Phase {
	e.phaseMu.RLock()
	defer e.phaseMu.RUnlock()
	return e.currentPhase
}

// SetActiveWorkers updates the active worker count.
func (e *Engine) SetActiveWorkers(count int) {
	e.activeWorkers.Store(int32(count))
}

// GetActiveWorkers returns the current active worker count.
func (e *Engine) GetActiveWorkers() int {
	return int(e.activeWorkers.Load())
}

// GetStartTime returns when the engine started (or was last reset).
func (e *Engine) GetStartTime() time.Time {
	e.startMu.RLock()
	defer e.startMu.RUnlock()
	return e.startTime
}

// runEmitter runs the background time-bucket emitter.
func (e *Engine) runEmitter() {
	defer e.emitterWg.Done()

	ticker := time.NewTicker(e.config.BucketInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.emitterCtx.Done():
			return
		case <-ticker.C:
			e.emitBucket()
		}
	}
}

// emitBucket creates a new time-series bucket with current metrics.
func (e *Engine) emitBucket() {
	latencies := e.GetLatencyPercentiles()
	phase := e.GetPhase()
	activeWorkers := e.GetActiveWorkers()

	e.bucketStore.CreateBucket(
		e.sent.Load(), e.succeeded.Load(), e.failed.Load(), e.noReply.Load(),
		latencies, activeWorkers, phase,
	)
}

// GetLatencyPercentiles returns current latency percentiles.
func (e *Engine) GetLatencyPercentiles() LatencyPercentiles {
	e.latencyHistMu.Lock()
	defer e.latencyHistMu.Unlock()

	return LatencyPercentiles{
		Min: time.Duration(e.latencyHist.Min()) * time.Microsecond,
		Max: time.Duration(e.latencyHist.Max()) * time.Microsecond,
		P50: time.Duration(e.latencyHist.ValueAtQuantile(50)) * time.Microsecond,
		P90: time.Duration(e.latencyHist.ValueAtQuantile(90)) * time.Microsecond,
		P95: time.Duration(e.latencyHist.ValueAtQuantile(95)) * time.Microsecond,
		P99: time.Duration(e.latencyHist.ValueAtQuantile(99)) * time.Microsecond,
	}
}

// GetDistribution returns the latency distribution table.
func (e *Engine) GetDistribution() []DistributionBucket {
	result := make([]DistributionBucket, len(distLabels))
	for i, label := range distLabels {
		result[i] = DistributionBucket{
			Label: label,
			Count: e.distribution[i].Load(),
		}
	}
	return result
}

// GetSnapshot returns a point-in-time snapshot of all metrics.
func (e *Engine) GetSnapshot() *Snapshot {
	e.latencyHistMu.Lock()
	latencyStats := LatencyStats{
		Min:    time.Duration(e.latencyHist.Min()) * time.Microsecond,
		Max:    time.Duration(e.latencyHist.Max()) * time.Microsecond,
		Mean:   time.Duration(e.latencyHist.Mean()) * time.Microsecond,
		StdDev: time.Duration(e.latencyHist.StdDev()) * time.Microsecond,
		P50:    time.Duration(e.latencyHist.ValueAtQuantile(50)) * time.Microsecond,
		P90:    time.Duration(e.latencyHist.ValueAtQuantile(90)) * time.Microsecond,
		P95:    time.Duration(e.latencyHist.ValueAtQuantile(95)) * time.Microsecond,
		P99:    time.Duration(e.latencyHist.ValueAtQuantile(99)) * time.Microsecond,
		Count:  e.latencyHist.TotalCount(),
	}
	e.latencyHistMu.Unlock()

	startTime := e.GetStartTime()
	elapsed := time.Since(startTime)
	sent := e.sent.Load()
	succeeded := e.succeeded.Load()

	// Achieved rate over the whole run
	rps := 0.0
	if elapsed.Seconds() > 0 {
		rps = float64(sent) / elapsed.Seconds()
	}

	successRate := 0.0
	if sent > 0 {
		successRate = float64(succeeded) / float64(sent)
	}

	return &Snapshot{
		Sent:          sent,
		Succeeded:     succeeded,
		Failed:        e.failed.Load(),
		NoReply:       e.noReply.Load(),
		SuccessRate:   successRate,
		Latency:       latencyStats,
		RPS:           rps,
		Distribution:  e.GetDistribution(),
		ActiveWorkers: e.GetActiveWorkers(),
		CurrentPhase:  e.GetPhase(),
		Elapsed:       elapsed,
		StartTime:     startTime,
		Timestamp:     time.Now(),
	}
}

// GetTimeSeries returns all time-series buckets.
func (e *Engine) GetTimeSeries() []*TimeBucket {
	return e.bucketStore.GetBuckets()
}

// GetPhaseHistory returns the history of phase changes.
func (e *Engine) GetPhaseHistory() []PhaseChange {
	e.phaseMu.RLock()
	defer e.phaseMu.RUnlock()

	result := make([]PhaseChange, len(e.phaseHistory))
	copy(result, e.phaseHistory)
	return result
}

// Stop stops the metrics engine and emits a final bucket. Safe to call
// more than once.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.emitterCancel()
		e.emitterWg.Wait()

		// Emit final bucket
		e.emitBucket()
	})
}

// Reset resets the step-scoped metrics to initial state.
//
// Ramp and replay executors call this at step boundaries so each step
// is measured in isolation. Two stores are run-scoped and survive: the
// per-request sample log (it backs the whole-run CSV export) and the
// time-series buckets (interval fields are computed per emit, so the
// timeline stays correct across boundaries).
func (e *Engine) Reset() {
	e.latencyHistMu.Lock()
	e.latencyHist.Reset()
	e.latencyHistMu.Unlock()

	e.sent.Store(0)
	e.succeeded.Store(0)
	e.failed.Store(0)
	e.noReply.Store(0)
	e.activeWorkers.Store(0)

	for i := range e.distribution {
		e.distribution[i].Store(0)
	}

	e.phaseMu.Lock()
	e.currentPhase = PhaseInit
	e.phaseHistory = make([]PhaseChange, 0)
	e.phaseMu.Unlock()

	e.startMu.Lock()
	e.startTime = time.Now()
	e.startMu.Unlock()
}
