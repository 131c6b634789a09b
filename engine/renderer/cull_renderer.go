package renderer

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/cull-go/common"
	"github.com/Carmen-Shannon/cull-go/engine/cull"
)

// FrustumCullingShaderSource is the stage 1 compute shader: per-instance
// AABB-vs-frustum classification with atomic per-mesh visible counters.
//
//go:embed assets/frustum_culling.wgsl
var FrustumCullingShaderSource string

// GenerateDrawsShaderSource is the stage 2 compute shader: single-invocation
// exclusive prefix sum and indirect draw command emission.
//
//go:embed assets/generate_draws.wgsl
var GenerateDrawsShaderSource string

// GatherInstanceDataShaderSource is the stage 3 compute shader: atomic slot
// claiming and compaction of visible instances into per-mesh buckets.
//
//go:embed assets/gather_instance_data.wgsl
var GatherInstanceDataShaderSource string

// CullRenderer owns the GPU-side resources of the culling pipeline: the
// scratch and output buffers, the three compute pipelines, and their bind
// groups. Each Dispatch encodes buffer resets and the three passes into a
// single command submission, so all culling happens on the GPU with no
// per-instance read-back.
//
// The device and queue are borrowed from the caller and never released here.
type CullRenderer interface {
	// UploadMeshes writes the mesh catalog into the mesh info buffer.
	// Call once per scene load, before the first Dispatch.
	//
	// Parameters:
	//   - meshes: the mesh catalog, at most the configured mesh capacity
	//
	// Returns:
	//   - error: an error if the catalog exceeds the configured capacity
	UploadMeshes(meshes []cull.GPUMeshInfo) error

	// UploadDrawables writes this frame's instance array into the drawable
	// buffer and records the instance count for the next Dispatch.
	//
	// Parameters:
	//   - drawables: the per-instance input array
	//
	// Returns:
	//   - error: an error if the array exceeds the configured capacity
	UploadDrawables(drawables []cull.GPUDrawable) error

	// UpdateFrustum packs and writes the camera frustum uniform.
	//
	// Parameters:
	//   - frustum: the camera frustum for this frame
	UpdateFrustum(frustum *common.Frustum)

	// Dispatch encodes the per-frame buffer resets and the three compute
	// passes into one command buffer and submits it. Stages execute in
	// submission order, so each pass sees the previous pass's writes.
	//
	// Returns:
	//   - error: an error if command encoding or submission fails
	Dispatch() error

	// DrawCommandsBuffer returns the indirect draw command buffer. Valid as
	// the source of DrawIndexedIndirect once the submitted dispatch
	// completes.
	//
	// Returns:
	//   - *wgpu.Buffer: the 20-byte-stride indirect argument buffer
	DrawCommandsBuffer() *wgpu.Buffer

	// DrawCommandsCountBuffer returns the single-u32 buffer holding the
	// emitted command count, usable with multi-draw-indirect-count.
	//
	// Returns:
	//   - *wgpu.Buffer: the command count buffer
	DrawCommandsCountBuffer() *wgpu.Buffer

	// CompactedBuffer returns the compacted, mesh-bucketed instance buffer
	// that the vertex stage indexes via first_instance + instance_index.
	//
	// Returns:
	//   - *wgpu.Buffer: the compacted drawable buffer
	CompactedBuffer() *wgpu.Buffer

	// Release frees every GPU resource this renderer created. The borrowed
	// device and queue are left untouched.
	Release()
}

var _ CullRenderer = &wgpuCullRendererImpl{}

// cullParams mirrors the uniform block at binding 5 of the culling and gather
// shaders. Only InstanceCount is read; the trailing words pad the block out to
// the 16 byte minimum uniform stride.
type cullParams struct {
	InstanceCount uint32
	_             [3]uint32
}

type wgpuCullRendererImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	maxMeshes    int
	maxDrawables int

	instanceCount uint32

	frustumBuffer       *wgpu.Buffer
	paramsBuffer        *wgpu.Buffer
	meshInfoBuffer      *wgpu.Buffer
	drawableBuffer      *wgpu.Buffer
	visibilityBuffer    *wgpu.Buffer
	visibleCountsBuffer *wgpu.Buffer
	baseOffsetsBuffer   *wgpu.Buffer
	localIndicesBuffer  *wgpu.Buffer
	commandsBuffer      *wgpu.Buffer
	commandCountBuffer  *wgpu.Buffer
	compactedBuffer     *wgpu.Buffer

	cullingPipeline  *wgpu.ComputePipeline
	generatePipeline *wgpu.ComputePipeline
	gatherPipeline   *wgpu.ComputePipeline

	cullingBindGroup  *wgpu.BindGroup
	generateBindGroup *wgpu.BindGroup
	gatherBindGroup   *wgpu.BindGroup

	// Cached zero slices for per-frame scratch resets via WriteBuffer.
	zeroInstanceWords []byte
	zeroMeshWords     []byte
	zeroCommands      []byte
	zeroWord          []byte
}

// NewCullRenderer creates the GPU culling pipeline on a caller-owned device
// and queue. Panics if device or queue is nil; the renderer is unusable
// without them.
//
// Parameters:
//   - device: the WebGPU device to create resources on
//   - queue: the queue used for uploads and dispatch submission
//   - options: optional configuration (mesh and drawable capacities)
//
// Returns:
//   - CullRenderer: the ready renderer
//   - error: an error if any GPU resource could not be created
func NewCullRenderer(device *wgpu.Device, queue *wgpu.Queue, options ...CullRendererBuilderOption) (CullRenderer, error) {
	if device == nil {
		panic("renderer: cull renderer requires a device")
	}
	if queue == nil {
		panic("renderer: cull renderer requires a queue")
	}

	r := &wgpuCullRendererImpl{
		mu:           &sync.Mutex{},
		device:       device,
		queue:        queue,
		maxMeshes:    cull.MaxMeshes,
		maxDrawables: cull.MaxDrawables,
	}
	for _, opt := range options {
		opt(r)
	}

	r.zeroInstanceWords = make([]byte, r.maxDrawables*4)
	r.zeroMeshWords = make([]byte, r.maxMeshes*4)
	r.zeroCommands = make([]byte, r.maxMeshes*20)
	r.zeroWord = make([]byte, 4)

	if err := r.createBuffers(); err != nil {
		r.Release()
		return nil, err
	}
	if err := r.createPipelines(); err != nil {
		r.Release()
		return nil, err
	}

	return r, nil
}

func (r *wgpuCullRendererImpl) createBuffers() error {
	var err error

	create := func(label string, size int, usage wgpu.BufferUsage) *wgpu.Buffer {
		if err != nil {
			return nil
		}
		var buf *wgpu.Buffer
		buf, err = r.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            label,
			Size:             uint64(size),
			Usage:            usage,
			MappedAtCreation: false,
		})
		if err != nil {
			err = fmt.Errorf("failed to create %s: %w", label, err)
		}
		return buf
	}

	r.frustumBuffer = create("Frustum Buffer", (&cull.GPUFrustum{}).Size(),
		wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	r.paramsBuffer = create("Cull Params Buffer", 16,
		wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	r.meshInfoBuffer = create("Mesh Info Buffer", r.maxMeshes*(&cull.GPUMeshInfo{}).Size(),
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
	r.drawableBuffer = create("Drawable Buffer", r.maxDrawables*(&cull.GPUDrawable{}).Size(),
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
	r.visibilityBuffer = create("Drawable Visibility Buffer", r.maxDrawables*4,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
	r.visibleCountsBuffer = create("Visible Counts Buffer", r.maxMeshes*4,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
	r.baseOffsetsBuffer = create("Base Offsets Buffer", r.maxMeshes*4,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	r.localIndicesBuffer = create("Local Indices Buffer", r.maxMeshes*4,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
	r.commandsBuffer = create("Draw Commands Buffer", r.maxMeshes*(&cull.GPUIndirectArgs{}).Size(),
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc|wgpu.BufferUsageCopyDst|wgpu.BufferUsageIndirect)
	r.commandCountBuffer = create("Draw Commands Count Buffer", 4,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc|wgpu.BufferUsageCopyDst|wgpu.BufferUsageIndirect)
	r.compactedBuffer = create("Compacted Drawable Buffer", r.maxDrawables*(&cull.GPUDrawable{}).Size(),
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)

	return err
}

func (r *wgpuCullRendererImpl) createPipelines() error {
	type bufferBinding struct {
		binding uint32
		kind    wgpu.BufferBindingType
		buffer  *wgpu.Buffer
	}

	build := func(label, source string, bindings []bufferBinding) (*wgpu.ComputePipeline, *wgpu.BindGroup, error) {
		module, err := r.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
			Label: label + " Shader",
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
				Code: source,
			},
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create %s shader: %w", label, err)
		}

		layoutEntries := make([]wgpu.BindGroupLayoutEntry, len(bindings))
		groupEntries := make([]wgpu.BindGroupEntry, len(bindings))
		for i, b := range bindings {
			entry := wgpu.BindGroupLayoutEntry{
				Binding:    b.binding,
				Visibility: wgpu.ShaderStageCompute,
			}
			entry.Buffer.Type = b.kind
			layoutEntries[i] = entry
			groupEntries[i] = wgpu.BindGroupEntry{
				Binding: b.binding,
				Buffer:  b.buffer,
				Offset:  0,
				Size:    wgpu.WholeSize,
			}
		}

		bgl, err := r.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   label + " Bind Group Layout",
			Entries: layoutEntries,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create %s bind group layout: %w", label, err)
		}

		bindGroup, err := r.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:   label + " Bind Group",
			Layout:  bgl,
			Entries: groupEntries,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create %s bind group: %w", label, err)
		}

		pipelineLayout, err := r.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
			Label:            label + " Pipeline Layout",
			BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create %s pipeline layout: %w", label, err)
		}

		pipeline, err := r.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
			Label:  label + " Compute Pipeline",
			Layout: pipelineLayout,
			Compute: wgpu.ProgrammableStageDescriptor{
				Module:     module,
				EntryPoint: "main",
			},
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create %s compute pipeline: %w", label, err)
		}

		return pipeline, bindGroup, nil
	}

	var err error
	r.cullingPipeline, r.cullingBindGroup, err = build("Frustum Culling", FrustumCullingShaderSource, []bufferBinding{
		{binding: 0, kind: wgpu.BufferBindingTypeUniform, buffer: r.frustumBuffer},
		{binding: 1, kind: wgpu.BufferBindingTypeReadOnlyStorage, buffer: r.meshInfoBuffer},
		{binding: 2, kind: wgpu.BufferBindingTypeReadOnlyStorage, buffer: r.drawableBuffer},
		{binding: 3, kind: wgpu.BufferBindingTypeStorage, buffer: r.visibilityBuffer},
		{binding: 4, kind: wgpu.BufferBindingTypeStorage, buffer: r.visibleCountsBuffer},
		{binding: 5, kind: wgpu.BufferBindingTypeUniform, buffer: r.paramsBuffer},
	})
	if err != nil {
		return err
	}

	r.generatePipeline, r.generateBindGroup, err = build("Generate Draws", GenerateDrawsShaderSource, []bufferBinding{
		{binding: 0, kind: wgpu.BufferBindingTypeReadOnlyStorage, buffer: r.meshInfoBuffer},
		{binding: 1, kind: wgpu.BufferBindingTypeReadOnlyStorage, buffer: r.visibleCountsBuffer},
		{binding: 2, kind: wgpu.BufferBindingTypeStorage, buffer: r.baseOffsetsBuffer},
		{binding: 3, kind: wgpu.BufferBindingTypeStorage, buffer: r.commandsBuffer},
		{binding: 4, kind: wgpu.BufferBindingTypeStorage, buffer: r.commandCountBuffer},
	})
	if err != nil {
		return err
	}

	r.gatherPipeline, r.gatherBindGroup, err = build("Gather Instance Data", GatherInstanceDataShaderSource, []bufferBinding{
		{binding: 0, kind: wgpu.BufferBindingTypeReadOnlyStorage, buffer: r.drawableBuffer},
		{binding: 1, kind: wgpu.BufferBindingTypeReadOnlyStorage, buffer: r.visibilityBuffer},
		{binding: 2, kind: wgpu.BufferBindingTypeReadOnlyStorage, buffer: r.baseOffsetsBuffer},
		{binding: 3, kind: wgpu.BufferBindingTypeStorage, buffer: r.compactedBuffer},
		{binding: 4, kind: wgpu.BufferBindingTypeStorage, buffer: r.localIndicesBuffer},
		{binding: 5, kind: wgpu.BufferBindingTypeUniform, buffer: r.paramsBuffer},
	})
	return err
}

func (r *wgpuCullRendererImpl) UploadMeshes(meshes []cull.GPUMeshInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(meshes) > r.maxMeshes {
		return fmt.Errorf("mesh catalog of %d entries exceeds capacity %d", len(meshes), r.maxMeshes)
	}
	if len(meshes) > 0 {
		r.queue.WriteBuffer(r.meshInfoBuffer, 0, cull.MarshalMeshInfos(meshes))
	}
	return nil
}

func (r *wgpuCullRendererImpl) UploadDrawables(drawables []cull.GPUDrawable) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(drawables) > r.maxDrawables {
		return fmt.Errorf("drawable list of %d entries exceeds capacity %d", len(drawables), r.maxDrawables)
	}
	if len(drawables) > 0 {
		r.queue.WriteBuffer(r.drawableBuffer, 0, cull.MarshalDrawables(drawables))
	}

	r.instanceCount = uint32(len(drawables))
	params := cullParams{InstanceCount: r.instanceCount}
	r.queue.WriteBuffer(r.paramsBuffer, 0, common.StructToBytes(&params))
	return nil
}

func (r *wgpuCullRendererImpl) UpdateFrustum(frustum *common.Frustum) {
	if frustum == nil {
		panic("renderer: frustum update requires a frustum")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	gpuFrustum := cull.NewGPUFrustum(frustum)
	r.queue.WriteBuffer(r.frustumBuffer, 0, gpuFrustum.Marshal())
}

func (r *wgpuCullRendererImpl) Dispatch() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Reset frame-scoped scratch before the passes run. Stale counters from
	// a previous frame would corrupt offsets and compaction.
	r.queue.WriteBuffer(r.visibilityBuffer, 0, r.zeroInstanceWords)
	r.queue.WriteBuffer(r.visibleCountsBuffer, 0, r.zeroMeshWords)
	r.queue.WriteBuffer(r.localIndicesBuffer, 0, r.zeroMeshWords)
	r.queue.WriteBuffer(r.commandsBuffer, 0, r.zeroCommands)
	r.queue.WriteBuffer(r.commandCountBuffer, 0, r.zeroWord)

	encoder, err := r.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("failed to create culling command encoder: %w", err)
	}

	workgroups := (r.instanceCount + cull.WorkgroupSize - 1) / cull.WorkgroupSize

	if workgroups > 0 {
		pass := encoder.BeginComputePass(nil)
		pass.SetPipeline(r.cullingPipeline)
		pass.SetBindGroup(0, r.cullingBindGroup, nil)
		pass.DispatchWorkgroups(workgroups, 1, 1)
		pass.End()
	}

	{
		pass := encoder.BeginComputePass(nil)
		pass.SetPipeline(r.generatePipeline)
		pass.SetBindGroup(0, r.generateBindGroup, nil)
		pass.DispatchWorkgroups(1, 1, 1)
		pass.End()
	}

	if workgroups > 0 {
		pass := encoder.BeginComputePass(nil)
		pass.SetPipeline(r.gatherPipeline)
		pass.SetBindGroup(0, r.gatherBindGroup, nil)
		pass.DispatchWorkgroups(workgroups, 1, 1)
		pass.End()
	}

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		encoder.Release()
		return fmt.Errorf("failed to finish culling command encoder: %w", err)
	}

	r.queue.Submit(commandBuffer)
	commandBuffer.Release()
	encoder.Release()
	return nil
}

func (r *wgpuCullRendererImpl) DrawCommandsBuffer() *wgpu.Buffer {
	return r.commandsBuffer
}

func (r *wgpuCullRendererImpl) DrawCommandsCountBuffer() *wgpu.Buffer {
	return r.commandCountBuffer
}

func (r *wgpuCullRendererImpl) CompactedBuffer() *wgpu.Buffer {
	return r.compactedBuffer
}

func (r *wgpuCullRendererImpl) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	buffers := []*wgpu.Buffer{
		r.frustumBuffer, r.paramsBuffer, r.meshInfoBuffer, r.drawableBuffer,
		r.visibilityBuffer, r.visibleCountsBuffer, r.baseOffsetsBuffer,
		r.localIndicesBuffer, r.commandsBuffer, r.commandCountBuffer,
		r.compactedBuffer,
	}
	for _, buf := range buffers {
		if buf != nil {
			buf.Release()
		}
	}
	r.frustumBuffer = nil
	r.paramsBuffer = nil
	r.meshInfoBuffer = nil
	r.drawableBuffer = nil
	r.visibilityBuffer = nil
	r.visibleCountsBuffer = nil
	r.baseOffsetsBuffer = nil
	r.localIndicesBuffer = nil
	r.commandsBuffer = nil
	r.commandCountBuffer = nil
	r.compactedBuffer = nil
}
