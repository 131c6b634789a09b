package cull

import (
	"math/rand"
	"testing"

	"github.com/Carmen-Shannon/cull-go/common"
)

// cubeFrustum builds a frustum whose six planes bound the axis-aligned cube
// [-half, half]^3, normals pointing inward.
func cubeFrustum(half float32) *common.Frustum {
	return &common.Frustum{Planes: [6]common.Plane{
		{Normal: [3]float32{1, 0, 0}, Distance: half},
		{Normal: [3]float32{-1, 0, 0}, Distance: half},
		{Normal: [3]float32{0, 1, 0}, Distance: half},
		{Normal: [3]float32{0, -1, 0}, Distance: half},
		{Normal: [3]float32{0, 0, 1}, Distance: half},
		{Normal: [3]float32{0, 0, -1}, Distance: half},
	}}
}

// unitCubeMesh builds a catalog entry with a half-extent 0.5 bounding box.
func unitCubeMesh(indexCount uint32) GPUMeshInfo {
	return GPUMeshInfo{
		IndexCount: indexCount,
		AABBMin:    [4]float32{-0.5, -0.5, -0.5, 0},
		AABBMax:    [4]float32{0.5, 0.5, 0.5, 0},
	}
}

// drawableAt builds an instance of the given mesh translated to a position.
func drawableAt(meshIndex uint32, pos [3]float32) GPUDrawable {
	d := GPUDrawable{MeshIndex: meshIndex}
	common.Identity(d.Model[:])
	d.Model[12] = pos[0]
	d.Model[13] = pos[1]
	d.Model[14] = pos[2]
	common.Identity(d.NormalMatrix[:])
	return d
}

// TestPipelineTwoMeshScenario runs the full pipeline over two mesh types
// with a mix of visible and culled instances and checks counters, offsets,
// commands, and compacted bucket contents end to end.
func TestPipelineTwoMeshScenario(t *testing.T) {
	meshes := []GPUMeshInfo{unitCubeMesh(36), unitCubeMesh(6)}
	meshes[0].FirstIndex = 0
	meshes[1].FirstIndex = 36
	meshes[1].VertexOffset = 24

	// Mesh 0: 3 instances, 2 visible. Mesh 1: 2 instances, 1 visible.
	drawables := []GPUDrawable{
		drawableAt(0, [3]float32{0, 0, 0}),
		drawableAt(0, [3]float32{50, 0, 0}),
		drawableAt(1, [3]float32{0, 3, 0}),
		drawableAt(0, [3]float32{-2, 1, 4}),
		drawableAt(1, [3]float32{0, 0, -40}),
	}
	// Tag instances so bucket contents can be identified after compaction.
	for i := range drawables {
		drawables[i].MaterialID = uint32(1000 + i)
	}

	fb := NewFrameBuffers(len(meshes), len(drawables))
	p := NewPipeline(WithWorkers(4))

	p.Dispatch(cubeFrustum(10), meshes, drawables, fb)

	if fb.VisibleCounts[0] != 2 || fb.VisibleCounts[1] != 1 {
		t.Fatalf("visible counts = %v, want [2 1]", fb.VisibleCounts)
	}
	if fb.BaseOffsets[0] != 0 || fb.BaseOffsets[1] != 2 {
		t.Fatalf("base offsets = %v, want [0 2]", fb.BaseOffsets)
	}
	if fb.CommandCount != 2 {
		t.Fatalf("command count = %d, want 2", fb.CommandCount)
	}

	want0 := GPUIndirectArgs{IndexCount: 36, InstanceCount: 2, FirstIndex: 0, BaseVertex: 0, FirstInstance: 0}
	if fb.Commands[0] != want0 {
		t.Errorf("command 0 = %+v, want %+v", fb.Commands[0], want0)
	}
	want1 := GPUIndirectArgs{IndexCount: 6, InstanceCount: 1, FirstIndex: 36, BaseVertex: 24, FirstInstance: 2}
	if fb.Commands[1] != want1 {
		t.Errorf("command 1 = %+v, want %+v", fb.Commands[1], want1)
	}

	bucket0 := map[uint32]bool{
		fb.Compacted[0].MaterialID: true,
		fb.Compacted[1].MaterialID: true,
	}
	if !bucket0[1000] || !bucket0[1003] {
		t.Errorf("mesh 0 bucket holds %v, want materials {1000, 1003}", bucket0)
	}
	if fb.Compacted[2].MaterialID != 1002 {
		t.Errorf("mesh 1 bucket slot = %+v, want material 1002", fb.Compacted[2])
	}
}

// TestPipelineEmptyBucketEmitsNoCommand verifies a mesh type with zero
// visible instances contributes no command and no compacted slots.
func TestPipelineEmptyBucketEmitsNoCommand(t *testing.T) {
	meshes := []GPUMeshInfo{unitCubeMesh(36), unitCubeMesh(6), unitCubeMesh(12)}
	drawables := []GPUDrawable{
		drawableAt(0, [3]float32{0, 0, 0}),
		drawableAt(1, [3]float32{50, 0, 0}), // mesh 1's only instance, culled
		drawableAt(2, [3]float32{1, 1, 1}),
	}
	fb := NewFrameBuffers(len(meshes), len(drawables))
	p := NewPipeline(WithWorkers(2))

	p.Dispatch(cubeFrustum(10), meshes, drawables, fb)

	if fb.CommandCount != 2 {
		t.Fatalf("command count = %d, want 2 (one per non-empty bucket)", fb.CommandCount)
	}
	for i := range int(fb.CommandCount) {
		if fb.Commands[i].IndexCount == 6 {
			t.Errorf("empty mesh 1 emitted command %+v", fb.Commands[i])
		}
	}
	// Mesh 2's bucket starts right after mesh 0's; mesh 1 consumed nothing.
	if fb.Commands[1].FirstInstance != 1 {
		t.Errorf("mesh 2 first_instance = %d, want 1", fb.Commands[1].FirstInstance)
	}
}

// TestPipelineIdempotence verifies re-dispatching identical inputs yields
// identical visibility, counters, offsets, and commands, and per-bucket
// compacted sets (order within a bucket may differ between runs).
func TestPipelineIdempotence(t *testing.T) {
	const meshCount = 8
	const instanceCount = 1000

	rng := rand.New(rand.NewSource(42))
	meshes := make([]GPUMeshInfo, meshCount)
	for m := range meshes {
		meshes[m] = unitCubeMesh(uint32(6 * (m + 1)))
		meshes[m].FirstIndex = uint32(6 * m)
	}
	drawables := make([]GPUDrawable, instanceCount)
	for i := range drawables {
		pos := [3]float32{
			rng.Float32()*40 - 20,
			rng.Float32()*40 - 20,
			rng.Float32()*40 - 20,
		}
		drawables[i] = drawableAt(uint32(rng.Intn(meshCount)), pos)
		drawables[i].MaterialID = uint32(i)
	}

	p := NewPipeline(WithWorkers(8))
	frustum := cubeFrustum(10)

	first := NewFrameBuffers(meshCount, instanceCount)
	p.Dispatch(frustum, meshes, drawables, first)

	second := NewFrameBuffers(meshCount, instanceCount)
	p.Dispatch(frustum, meshes, drawables, second)

	for i := range instanceCount {
		if first.Visibility[i] != second.Visibility[i] {
			t.Fatalf("visibility[%d] differs between runs", i)
		}
	}
	for m := range meshCount {
		if first.VisibleCounts[m] != second.VisibleCounts[m] {
			t.Fatalf("visible count %d differs between runs", m)
		}
		if first.BaseOffsets[m] != second.BaseOffsets[m] {
			t.Fatalf("base offset %d differs between runs", m)
		}
	}
	if first.CommandCount != second.CommandCount {
		t.Fatalf("command counts differ: %d vs %d", first.CommandCount, second.CommandCount)
	}
	for i := range int(first.CommandCount) {
		if first.Commands[i] != second.Commands[i] {
			t.Fatalf("command %d differs: %+v vs %+v", i, first.Commands[i], second.Commands[i])
		}
	}

	// Buckets must hold the same instance sets, in any order.
	for m := range meshCount {
		start := first.BaseOffsets[m]
		end := start + first.VisibleCounts[m]
		setA := make(map[uint32]bool, end-start)
		setB := make(map[uint32]bool, end-start)
		for s := start; s < end; s++ {
			setA[first.Compacted[s].MaterialID] = true
			setB[second.Compacted[s].MaterialID] = true
		}
		if len(setA) != int(end-start) || len(setB) != int(end-start) {
			t.Fatalf("bucket %d has duplicate slots", m)
		}
		for id := range setA {
			if !setB[id] {
				t.Fatalf("bucket %d sets differ between runs", m)
			}
		}
	}
}

// TestPipelineInvariants cross-checks a randomized dispatch against a
// sequential reference classification.
func TestPipelineInvariants(t *testing.T) {
	const meshCount = 5
	const instanceCount = 700

	rng := rand.New(rand.NewSource(7))
	meshes := make([]GPUMeshInfo, meshCount)
	for m := range meshes {
		meshes[m] = unitCubeMesh(uint32(12 * (m + 1)))
	}
	drawables := make([]GPUDrawable, instanceCount)
	for i := range drawables {
		pos := [3]float32{
			rng.Float32()*60 - 30,
			rng.Float32()*60 - 30,
			rng.Float32()*60 - 30,
		}
		drawables[i] = drawableAt(uint32(rng.Intn(meshCount)), pos)
		drawables[i].MaterialID = uint32(i)
	}

	frustum := cubeFrustum(10)
	fb := NewFrameBuffers(meshCount, instanceCount)
	p := NewPipeline()
	p.Dispatch(frustum, meshes, drawables, fb)

	// Reference counts from the visibility flags themselves.
	var wantCounts [meshCount]uint32
	for i := range drawables {
		box := meshes[drawables[i].MeshIndex].AABB()
		corners := box.TransformedCorners(drawables[i].Model[:])
		wantVisible := uint32(1)
		if boxOutsideFrustum(frustum, &corners) {
			wantVisible = 0
		}
		if fb.Visibility[i] != wantVisible {
			t.Fatalf("visibility[%d] = %d, want %d", i, fb.Visibility[i], wantVisible)
		}
		if wantVisible == 1 {
			wantCounts[drawables[i].MeshIndex]++
		}
	}

	running := uint32(0)
	nonEmpty := uint32(0)
	for m := range meshCount {
		if fb.VisibleCounts[m] != wantCounts[m] {
			t.Errorf("visible count %d = %d, want %d", m, fb.VisibleCounts[m], wantCounts[m])
		}
		if fb.BaseOffsets[m] != running {
			t.Errorf("base offset %d = %d, want %d", m, fb.BaseOffsets[m], running)
		}
		running += wantCounts[m]
		if wantCounts[m] > 0 {
			nonEmpty++
		}
		if fb.LocalIndices[m] != wantCounts[m] {
			t.Errorf("local counter %d = %d, want %d", m, fb.LocalIndices[m], wantCounts[m])
		}
	}
	if fb.CommandCount != nonEmpty {
		t.Errorf("command count = %d, want %d", fb.CommandCount, nonEmpty)
	}

	// Every bucket slot filled exactly once by an instance of that mesh.
	for m := range meshCount {
		start := fb.BaseOffsets[m]
		end := start + fb.VisibleCounts[m]
		seen := make(map[uint32]bool)
		for s := start; s < end; s++ {
			inst := fb.Compacted[s]
			if int(inst.MeshIndex) != m {
				t.Fatalf("slot %d holds mesh %d, want %d", s, inst.MeshIndex, m)
			}
			if seen[inst.MaterialID] {
				t.Fatalf("instance %d compacted twice", inst.MaterialID)
			}
			seen[inst.MaterialID] = true
			if fb.Visibility[inst.MaterialID] != 1 {
				t.Fatalf("culled instance %d was compacted", inst.MaterialID)
			}
		}
	}
}

// TestPipelineDispatchPanics verifies fatal precondition violations panic
// instead of silently corrupting buffers.
func TestPipelineDispatchPanics(t *testing.T) {
	meshes := []GPUMeshInfo{unitCubeMesh(6)}
	drawables := []GPUDrawable{drawableAt(0, [3]float32{0, 0, 0})}

	tests := []struct {
		name string
		run  func(p Pipeline)
	}{
		{
			name: "nil frustum",
			run: func(p Pipeline) {
				p.Dispatch(nil, meshes, drawables, NewFrameBuffers(1, 1))
			},
		},
		{
			name: "nil buffers",
			run: func(p Pipeline) {
				p.Dispatch(cubeFrustum(10), meshes, drawables, nil)
			},
		},
		{
			name: "undersized for drawables",
			run: func(p Pipeline) {
				fb := NewFrameBuffers(1, 4)
				many := make([]GPUDrawable, 8)
				p.Dispatch(cubeFrustum(10), meshes, many, fb)
			},
		},
		{
			name: "undersized for mesh catalog",
			run: func(p Pipeline) {
				fb := NewFrameBuffers(1, 4)
				catalog := []GPUMeshInfo{unitCubeMesh(6), unitCubeMesh(12)}
				p.Dispatch(cubeFrustum(10), catalog, drawables, fb)
			},
		},
	}

	p := NewPipeline(WithWorkers(1))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("expected panic")
				}
			}()
			tt.run(p)
		})
	}
}

// TestPipelineZeroDrawables verifies dispatching an empty scene is a no-op
// that still clears stale counters.
func TestPipelineZeroDrawables(t *testing.T) {
	meshes := []GPUMeshInfo{unitCubeMesh(6)}
	fb := NewFrameBuffers(1, 4)
	fb.VisibleCounts[0] = 99
	fb.CommandCount = 3

	p := NewPipeline(WithWorkers(1))
	p.Dispatch(cubeFrustum(10), meshes, nil, fb)

	if fb.VisibleCounts[0] != 0 {
		t.Errorf("stale counter survived: %d", fb.VisibleCounts[0])
	}
	if fb.CommandCount != 0 {
		t.Errorf("command count = %d, want 0", fb.CommandCount)
	}
}

// TestNewFrameBuffersPanics verifies sizing preconditions.
func TestNewFrameBuffersPanics(t *testing.T) {
	for _, tt := range []struct {
		name             string
		meshes, capacity int
	}{
		{name: "zero meshes", meshes: 0, capacity: 10},
		{name: "zero capacity", meshes: 4, capacity: 0},
	} {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("expected panic")
				}
			}()
			NewFrameBuffers(tt.meshes, tt.capacity)
		})
	}
}
