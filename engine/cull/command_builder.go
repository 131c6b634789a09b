package cull

// buildDrawCommands runs the sequential offset and command stage. It turns
// the per-mesh visible counters into an exclusive prefix sum of bucket base
// offsets, then emits one indirect draw command per mesh type that has at
// least one visible instance, densely packed from Commands[0].
//
// FirstInstance of each command carries the bucket's base offset into the
// compacted instance buffer, so the vertex stage can index the compacted
// array with first_instance + instance_index and needs no extra indirection.
//
// The scan is a plain single-threaded loop over the mesh catalog. That is
// fine for catalogs of a few hundred entries; a parallel exclusive scan only
// becomes worthwhile well beyond that.
func buildDrawCommands(meshes []GPUMeshInfo, fb *FrameBuffers) {
	fb.CommandCount = 0
	if len(meshes) == 0 {
		return
	}

	fb.BaseOffsets[0] = 0
	for m := 1; m < len(meshes); m++ {
		fb.BaseOffsets[m] = fb.BaseOffsets[m-1] + fb.VisibleCounts[m-1]
	}

	for m := range meshes {
		count := fb.VisibleCounts[m]
		if count == 0 {
			continue
		}
		fb.Commands[fb.CommandCount] = GPUIndirectArgs{
			IndexCount:    meshes[m].IndexCount,
			InstanceCount: count,
			FirstIndex:    meshes[m].FirstIndex,
			BaseVertex:    int32(meshes[m].VertexOffset),
			FirstInstance: fb.BaseOffsets[m],
		}
		fb.CommandCount++
	}
}
