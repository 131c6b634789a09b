package renderer

type CullRendererBuilderOption func(*wgpuCullRendererImpl)

// WithMaxMeshes sets the mesh catalog capacity the GPU buffers are sized
// for. Values below 1 are clamped to 1.
//
// Parameters:
//   - maxMeshes: the mesh type capacity
//
// Returns:
//   - CullRendererBuilderOption: a function that sets the mesh capacity
func WithMaxMeshes(maxMeshes int) CullRendererBuilderOption {
	return func(r *wgpuCullRendererImpl) {
		r.maxMeshes = max(maxMeshes, 1)
	}
}

// WithMaxDrawables sets the instance capacity the GPU buffers are sized
// for. Values below 1 are clamped to 1.
//
// Parameters:
//   - maxDrawables: the drawable instance capacity
//
// Returns:
//   - CullRendererBuilderOption: a function that sets the drawable capacity
func WithMaxDrawables(maxDrawables int) CullRendererBuilderOption {
	return func(r *wgpuCullRendererImpl) {
		r.maxDrawables = max(maxDrawables, 1)
	}
}
