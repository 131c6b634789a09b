package cull

import (
	"testing"
)

// TestClassifySpanVisibility tests the AABB-vs-frustum decision for boxes in
// various positions relative to a cube frustum of half-extent 10.
func TestClassifySpanVisibility(t *testing.T) {
	tests := []struct {
		name        string
		position    [3]float32
		wantVisible uint32
	}{
		{
			name:        "centered inside",
			position:    [3]float32{0, 0, 0},
			wantVisible: 1,
		},
		{
			name:        "near boundary but inside",
			position:    [3]float32{9, 9, 9},
			wantVisible: 1,
		},
		{
			name:        "straddling one plane",
			position:    [3]float32{10, 0, 0},
			wantVisible: 1,
		},
		{
			name:        "fully outside one plane",
			position:    [3]float32{12, 0, 0},
			wantVisible: 0,
		},
		{
			name:        "just past the boundary",
			position:    [3]float32{-11, 0, 0},
			wantVisible: 0,
		},
		{
			name:        "outside a corner",
			position:    [3]float32{15, 15, 15},
			wantVisible: 0,
		},
		{
			name:        "far behind",
			position:    [3]float32{0, 0, -40},
			wantVisible: 0,
		},
	}

	meshes := []GPUMeshInfo{unitCubeMesh(36)}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drawables := []GPUDrawable{drawableAt(0, tt.position)}
			fb := NewFrameBuffers(1, 1)
			frustum := cubeFrustum(10)

			classifySpan(frustum, meshes, drawables, fb, 0, len(drawables))

			if fb.Visibility[0] != tt.wantVisible {
				t.Errorf("visibility = %d, want %d", fb.Visibility[0], tt.wantVisible)
			}
			if fb.VisibleCounts[0] != tt.wantVisible {
				t.Errorf("visible count = %d, want %d", fb.VisibleCounts[0], tt.wantVisible)
			}
		})
	}
}

// TestClassifySpanBoxOnPlane verifies the negative-or-zero rejection rule: a
// box whose corners all sit exactly on a plane (signed distance 0) is culled.
func TestClassifySpanBoxOnPlane(t *testing.T) {
	// Half-extent 0.5 box centered at x=-9.5 against a cube frustum of
	// half-extent 10: corners at x in {-10, -9}, left-plane distances
	// {0, 1}. One corner is strictly positive, so the box survives.
	meshes := []GPUMeshInfo{unitCubeMesh(36)}
	drawables := []GPUDrawable{drawableAt(0, [3]float32{-9.5, 0, 0})}
	fb := NewFrameBuffers(1, 1)

	classifySpan(cubeFrustum(10), meshes, drawables, fb, 0, 1)

	if fb.Visibility[0] != 1 {
		t.Fatalf("straddling box culled, want visible")
	}

	// Shift by a full extent: corners at x in {-11, -10}, distances
	// {-1, 0}, all at or below zero, so the plane rejects the box.
	drawables[0] = drawableAt(0, [3]float32{-10.5, 0, 0})
	fb.Reset()
	classifySpan(cubeFrustum(10), meshes, drawables, fb, 0, 1)

	if fb.Visibility[0] != 0 {
		t.Errorf("box with all corners at distance <= 0 survived, want culled")
	}
}

// TestClassifySpanPerMeshCounters verifies that concurrent-style counter
// accumulation lands on the right mesh buckets.
func TestClassifySpanPerMeshCounters(t *testing.T) {
	meshes := []GPUMeshInfo{unitCubeMesh(36), unitCubeMesh(6)}
	drawables := []GPUDrawable{
		drawableAt(0, [3]float32{0, 0, 0}),     // visible
		drawableAt(0, [3]float32{50, 0, 0}),    // culled
		drawableAt(1, [3]float32{0, 5, 0}),     // visible
		drawableAt(1, [3]float32{-3, 0, 0}),    // visible
		drawableAt(1, [3]float32{0, -50, 50}),  // culled
		drawableAt(0, [3]float32{2, 2, 2}),     // visible
	}
	fb := NewFrameBuffers(2, len(drawables))

	classifySpan(cubeFrustum(10), meshes, drawables, fb, 0, len(drawables))

	if fb.VisibleCounts[0] != 2 {
		t.Errorf("mesh 0 count = %d, want 2", fb.VisibleCounts[0])
	}
	if fb.VisibleCounts[1] != 2 {
		t.Errorf("mesh 1 count = %d, want 2", fb.VisibleCounts[1])
	}
	wantVis := []uint32{1, 0, 1, 1, 0, 1}
	for i, want := range wantVis {
		if fb.Visibility[i] != want {
			t.Errorf("visibility[%d] = %d, want %d", i, fb.Visibility[i], want)
		}
	}
}

// TestClassifySpanOutOfRangeMeshIndex verifies an instance referencing a
// mesh type beyond the catalog is silently dropped.
func TestClassifySpanOutOfRangeMeshIndex(t *testing.T) {
	meshes := []GPUMeshInfo{unitCubeMesh(36)}
	drawables := []GPUDrawable{drawableAt(7, [3]float32{0, 0, 0})}
	fb := NewFrameBuffers(1, 1)

	classifySpan(cubeFrustum(10), meshes, drawables, fb, 0, 1)

	if fb.Visibility[0] != 0 {
		t.Errorf("visibility = %d, want 0 for out-of-range mesh index", fb.Visibility[0])
	}
	if fb.VisibleCounts[0] != 0 {
		t.Errorf("visible count = %d, want 0", fb.VisibleCounts[0])
	}
}

// TestClassifySpanClipsExcessRange verifies spans past the drawable list are
// skipped like over-dispatched workgroup threads.
func TestClassifySpanClipsExcessRange(t *testing.T) {
	meshes := []GPUMeshInfo{unitCubeMesh(36)}
	drawables := []GPUDrawable{drawableAt(0, [3]float32{0, 0, 0})}
	fb := NewFrameBuffers(1, WorkgroupSize)

	classifySpan(cubeFrustum(10), meshes, drawables, fb, 0, WorkgroupSize)

	if fb.VisibleCounts[0] != 1 {
		t.Errorf("visible count = %d, want 1", fb.VisibleCounts[0])
	}
	for i := 1; i < WorkgroupSize; i++ {
		if fb.Visibility[i] != 0 {
			t.Fatalf("visibility[%d] = %d, want untouched 0", i, fb.Visibility[i])
		}
	}
}
