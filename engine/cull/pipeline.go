package cull

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/cull-go/common"
	"github.com/Carmen-Shannon/cull-go/engine/profiler"
)

// Pipeline runs the three-stage visibility culling and draw-command
// generation pass over caller-owned frame buffers: classify every instance
// against the frustum, build bucket offsets and indirect draw commands, then
// compact the survivors into contiguous per-mesh buckets.
type Pipeline interface {
	// Dispatch runs one full frame of the pipeline. The stages execute in
	// strict order with a full barrier between them: all writes of a stage
	// are visible before the next stage starts. Results land in buffers.
	//
	// Counters in buffers are zeroed at the top of the dispatch, so the same
	// FrameBuffers can be handed back every frame without a manual Reset.
	//
	// Panics if frustum or buffers is nil, or if buffers is undersized for
	// the mesh catalog or drawable list. Under-sized buffers are a fatal
	// host-side sizing bug, not a recoverable condition.
	//
	// Parameters:
	//   - frustum: the camera frustum for this frame
	//   - meshes: the mesh catalog, one entry per mesh type
	//   - drawables: the per-instance input array for this frame
	//   - buffers: the frame-scoped intermediate and output buffers
	Dispatch(frustum *common.Frustum, meshes []GPUMeshInfo, drawables []GPUDrawable, buffers *FrameBuffers)

	// Workers returns the number of pool workers the parallel stages fan
	// out across.
	//
	// Returns:
	//   - int: the worker count.
	Workers() int
}

var _ Pipeline = &pipelineImpl{}

type pipelineImpl struct {
	// workers bounds the compute pool. Defaults to NumCPU-1 so the
	// dispatching goroutine keeps a core.
	workers int
	pool    worker.DynamicWorkerPool
	prof    *profiler.Profiler
}

// NewPipeline creates a culling pipeline with its own compute worker pool.
// Workers are reused across frames, so a single Pipeline should be created
// once and dispatched every frame.
//
// Parameters:
//   - options: optional configuration (worker count, profiler)
//
// Returns:
//   - Pipeline: the ready-to-dispatch pipeline.
func NewPipeline(options ...PipelineBuilderOption) Pipeline {
	p := &pipelineImpl{
		workers: max(runtime.NumCPU()-1, 1),
	}
	for _, opt := range options {
		opt(p)
	}
	p.pool = worker.NewDynamicWorkerPool(p.workers, 256, 1*time.Second)
	return p
}

func (p *pipelineImpl) Dispatch(frustum *common.Frustum, meshes []GPUMeshInfo, drawables []GPUDrawable, buffers *FrameBuffers) {
	if frustum == nil {
		panic("cull: pipeline dispatched without a frustum")
	}
	if buffers == nil {
		panic("cull: pipeline dispatched without frame buffers")
	}
	validateFrameBuffers(meshes, drawables, buffers)

	buffers.Reset()

	var classifyStart time.Time
	if p.prof != nil {
		classifyStart = time.Now()
	}
	p.runParallel(len(drawables), func(start, end int) {
		classifySpan(frustum, meshes, drawables, buffers, start, end)
	})

	var buildStart time.Time
	if p.prof != nil {
		buildStart = time.Now()
	}
	buildDrawCommands(meshes, buffers)

	var compactStart time.Time
	if p.prof != nil {
		compactStart = time.Now()
	}
	p.runParallel(len(drawables), func(start, end int) {
		compactSpan(drawables, buffers, start, end)
	})

	if p.prof != nil {
		now := time.Now()
		visible := 0
		for _, c := range buffers.VisibleCounts {
			visible += int(c)
		}
		p.prof.RecordDispatch(profiler.DispatchSample{
			ClassifyTime: buildStart.Sub(classifyStart),
			BuildTime:    compactStart.Sub(buildStart),
			CompactTime:  now.Sub(compactStart),
			Instances:    len(drawables),
			Visible:      visible,
			Commands:     int(buffers.CommandCount),
		})
	}
}

func (p *pipelineImpl) Workers() int {
	return p.workers
}

// runParallel splits [0, n) into workgroup-aligned contiguous spans, fans
// them out across the compute pool, and blocks until every span completes.
// The WaitGroup provides the per-dispatch barrier since pool.Wait() blocks
// until workers idle-exit, which is unsuitable for frame-rate workloads.
func (p *pipelineImpl) runParallel(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}

	groups := (n + WorkgroupSize - 1) / WorkgroupSize
	tasks := min(groups, p.workers*4)
	groupsPerTask := (groups + tasks - 1) / tasks

	var wg sync.WaitGroup
	for t := range tasks {
		start := t * groupsPerTask * WorkgroupSize
		end := min(start+groupsPerTask*WorkgroupSize, n)
		if start >= end {
			break
		}

		wg.Add(1)
		sCap, eCap := start, end // capture for closure
		p.pool.SubmitTask(worker.Task{
			ID: t,
			Do: func() (any, error) {
				defer wg.Done()
				fn(sCap, eCap)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

// validateFrameBuffers panics when the frame buffers cannot hold this
// frame's mesh catalog or drawable list. Running the stages against
// under-sized buffers would silently corrupt offsets and compaction.
func validateFrameBuffers(meshes []GPUMeshInfo, drawables []GPUDrawable, fb *FrameBuffers) {
	if len(fb.Visibility) < len(drawables) || len(fb.Compacted) < len(drawables) {
		panic("cull: frame buffers undersized for drawable count")
	}
	if len(fb.VisibleCounts) < len(meshes) || len(fb.LocalIndices) < len(meshes) ||
		len(fb.BaseOffsets) < len(meshes) || len(fb.Commands) < len(meshes) {
		panic("cull: frame buffers undersized for mesh catalog")
	}
}
