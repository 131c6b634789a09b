package cull

import (
	"github.com/Carmen-Shannon/cull-go/engine/profiler"
)

type PipelineBuilderOption func(*pipelineImpl)

// WithWorkers sets the number of compute pool workers the parallel stages
// fan out across. Values below 1 are clamped to 1.
//
// Parameters:
//   - workers: the worker count
//
// Returns:
//   - PipelineBuilderOption: a function that sets the worker count
func WithWorkers(workers int) PipelineBuilderOption {
	return func(p *pipelineImpl) {
		p.workers = max(workers, 1)
	}
}

// WithProfiler attaches a profiler that records per-stage timings and cull
// statistics for every dispatch.
//
// Parameters:
//   - prof: the profiler to record into
//
// Returns:
//   - PipelineBuilderOption: a function that sets the profiler
func WithProfiler(prof *profiler.Profiler) PipelineBuilderOption {
	return func(p *pipelineImpl) {
		p.prof = prof
	}
}
