package cull

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/cull-go/common"
)

// classifySpan runs the visibility classifier over the instance span
// [start, end). For each instance it transforms the mesh's object-space
// bounding box corners by the instance model matrix, tests them against the
// six frustum planes, records the 0/1 visibility flag, and on survival
// atomically increments the instance's per-mesh visible counter.
//
// Spans past the end of the drawable list are silently clipped, matching the
// excess-thread early exit of an over-dispatched workgroup grid.
func classifySpan(frustum *common.Frustum, meshes []GPUMeshInfo, drawables []GPUDrawable, fb *FrameBuffers, start, end int) {
	if end > len(drawables) {
		end = len(drawables)
	}
	for i := start; i < end; i++ {
		d := &drawables[i]
		if int(d.MeshIndex) >= len(meshes) {
			fb.Visibility[i] = 0
			continue
		}
		box := meshes[d.MeshIndex].AABB()
		corners := box.TransformedCorners(d.Model[:])
		if boxOutsideFrustum(frustum, &corners) {
			fb.Visibility[i] = 0
			continue
		}
		fb.Visibility[i] = 1
		atomic.AddUint32(&fb.VisibleCounts[d.MeshIndex], 1)
	}
}

// boxOutsideFrustum reports whether any single frustum plane rejects all
// eight corners. A corner is on a plane's negative side when its signed
// distance is zero or below, so boxes lying exactly in a plane are culled.
func boxOutsideFrustum(frustum *common.Frustum, corners *[8][3]float32) bool {
	for p := range frustum.Planes {
		pl := &frustum.Planes[p]
		rejects := true
		for _, c := range corners {
			if pl.SignedDistance(c) > 0 {
				rejects = false
				break
			}
		}
		if rejects {
			return true
		}
	}
	return false
}
