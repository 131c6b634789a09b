package cull

const (
	// WorkgroupSize is the number of instances processed per workgroup. The
	// parallel stages split their index range into spans of this size.
	WorkgroupSize = 64

	// MaxMeshes is the default capacity of the mesh catalog and the
	// per-mesh scratch arrays.
	MaxMeshes = 128

	// MaxDrawables is the default capacity of the drawable and per-instance
	// scratch arrays.
	MaxDrawables = 32000
)

// FrameBuffers holds the caller-owned intermediate and output state shared by
// the three culling stages. The classifier writes Visibility and
// VisibleCounts; the command builder turns VisibleCounts into BaseOffsets,
// Commands and CommandCount; the compactor claims slots through LocalIndices
// and scatters survivors into Compacted.
//
// Counters accumulate across dispatches, so call Reset before reusing a
// FrameBuffers for a new frame.
type FrameBuffers struct {
	// Visibility holds one flag per instance slot: 1 if the instance survived
	// culling this frame, 0 otherwise.
	Visibility []uint32

	// VisibleCounts holds the number of visible instances per mesh type.
	VisibleCounts []uint32

	// LocalIndices holds the per-mesh slot-claim counters used while
	// compacting. After compaction each entry equals the matching
	// VisibleCounts entry.
	LocalIndices []uint32

	// BaseOffsets holds the exclusive prefix sum of VisibleCounts: the start
	// of each mesh bucket in the compacted output.
	BaseOffsets []uint32

	// Commands holds the generated draw commands, densely packed from index 0.
	Commands []GPUIndirectArgs

	// CommandCount is the number of valid entries in Commands.
	CommandCount uint32

	// Compacted holds the surviving drawables grouped into contiguous
	// per-mesh buckets.
	Compacted []GPUDrawable
}

// NewFrameBuffers allocates frame buffers sized for a mesh catalog of
// meshTypeCount entries and up to instanceCapacity drawable instances.
// Panics if either capacity is not positive.
//
// Parameters:
//   - meshTypeCount: number of mesh types the catalog can hold
//   - instanceCapacity: maximum number of drawable instances per frame
//
// Returns:
//   - *FrameBuffers: zeroed buffers ready for a dispatch.
func NewFrameBuffers(meshTypeCount, instanceCapacity int) *FrameBuffers {
	if meshTypeCount <= 0 {
		panic("cull: frame buffers require at least one mesh type")
	}
	if instanceCapacity <= 0 {
		panic("cull: frame buffers require a positive instance capacity")
	}
	return &FrameBuffers{
		Visibility:    make([]uint32, instanceCapacity),
		VisibleCounts: make([]uint32, meshTypeCount),
		LocalIndices:  make([]uint32, meshTypeCount),
		BaseOffsets:   make([]uint32, meshTypeCount),
		Commands:      make([]GPUIndirectArgs, meshTypeCount),
		Compacted:     make([]GPUDrawable, instanceCapacity),
	}
}

// MeshTypeCount returns the number of mesh types the buffers were sized for.
//
// Returns:
//   - int: the mesh catalog capacity.
func (f *FrameBuffers) MeshTypeCount() int {
	return len(f.VisibleCounts)
}

// InstanceCapacity returns the number of instance slots the buffers were sized for.
//
// Returns:
//   - int: the instance capacity.
func (f *FrameBuffers) InstanceCapacity() int {
	return len(f.Visibility)
}

// Reset zeroes the accumulating counters so the buffers can be reused for a
// new frame. The remaining arrays are fully overwritten by the stages and do
// not need clearing.
func (f *FrameBuffers) Reset() {
	clear(f.Visibility)
	clear(f.VisibleCounts)
	clear(f.LocalIndices)
	f.CommandCount = 0
}
