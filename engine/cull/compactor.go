package cull

import "sync/atomic"

// compactSpan runs the compactor over the instance span [start, end). Every
// instance whose visibility flag is set atomically claims the next free slot
// in its mesh bucket and is copied into the compacted output at
// BaseOffsets[mesh] + slot. Culled instances are dropped.
//
// Slot claims are unique, so no two instances ever collide, but the order of
// instances within a bucket depends on scheduling and is unspecified.
func compactSpan(drawables []GPUDrawable, fb *FrameBuffers, start, end int) {
	if end > len(drawables) {
		end = len(drawables)
	}
	for i := start; i < end; i++ {
		if fb.Visibility[i] == 0 {
			continue
		}
		m := drawables[i].MeshIndex
		local := atomic.AddUint32(&fb.LocalIndices[m], 1) - 1
		fb.Compacted[fb.BaseOffsets[m]+local] = drawables[i]
	}
}
