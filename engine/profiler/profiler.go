package profiler

import (
	"log"
	"runtime"
	"sync"
	"time"
)

// DispatchSample is one dispatch's worth of timing and culling statistics.
type DispatchSample struct {
	ClassifyTime time.Duration
	BuildTime    time.Duration
	CompactTime  time.Duration
	Instances    int
	Visible      int
	Commands     int
}

// Profiler accumulates per-dispatch culling statistics and memory usage for
// performance monitoring. Outputs stats to the log at a configurable interval.
// Safe for use from concurrent dispatchers.
type Profiler struct {
	mu             sync.Mutex
	dispatchCount  int
	classifyTotal  time.Duration
	buildTotal     time.Duration
	compactTotal   time.Duration
	instanceTotal  int
	visibleTotal   int
	commandTotal   int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
		memStats:       runtime.MemStats{},
	}
}

// RecordDispatch should be called once per pipeline dispatch to accumulate
// stage timings and culling counts. Logs aggregated statistics when the
// update interval has elapsed: dispatch rate, average per-stage times, cull
// ratio, emitted command count, and heap usage.
//
// Parameters:
//   - sample: the dispatch's timings and counts
//
// Returns:
//   - bool: true if stats were logged this call, false otherwise
func (p *Profiler) RecordDispatch(sample DispatchSample) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.dispatchCount++
	p.classifyTotal += sample.ClassifyTime
	p.buildTotal += sample.BuildTime
	p.compactTotal += sample.CompactTime
	p.instanceTotal += sample.Instances
	p.visibleTotal += sample.Visible
	p.commandTotal += sample.Commands

	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	dispatches := float64(p.dispatchCount)
	rate := dispatches / elapsed.Seconds()
	avgClassifyUs := float64(p.classifyTotal.Microseconds()) / dispatches
	avgBuildUs := float64(p.buildTotal.Microseconds()) / dispatches
	avgCompactUs := float64(p.compactTotal.Microseconds()) / dispatches

	cullRate := 0.0
	if p.instanceTotal > 0 {
		cullRate = 100 * float64(p.instanceTotal-p.visibleTotal) / float64(p.instanceTotal)
	}
	avgCommands := float64(p.commandTotal) / dispatches

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024

	log.Printf("[Profiler] Dispatches: %.2f/s | Classify: %.0f µs | Build: %.0f µs | Compact: %.0f µs | Culled: %.1f%% | Cmds: %.1f | Heap: %.2f MB",
		rate, avgClassifyUs, avgBuildUs, avgCompactUs, cullRate, avgCommands, allocMB)

	p.dispatchCount = 0
	p.classifyTotal = 0
	p.buildTotal = 0
	p.compactTotal = 0
	p.instanceTotal = 0
	p.visibleTotal = 0
	p.commandTotal = 0
	p.lastTime = currentTime
	return true
}
