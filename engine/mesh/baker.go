package mesh

import (
	"github.com/Carmen-Shannon/cull-go/common"
	"github.com/Carmen-Shannon/cull-go/engine/cull"
)

// Baked is the result of packing primitives into shared megabuffers: one
// concatenated vertex list, one concatenated index list, and a mesh catalog
// entry per primitive recording where its geometry landed.
//
// Catalog order matches primitive order, so a primitive's position in the
// input slice is its mesh index for the culling pipeline.
type Baked struct {
	Vertices []Vertex
	Indices  []uint32
	Meshes   []cull.GPUMeshInfo
}

// Bake concatenates primitives into shared vertex and index megabuffers and
// builds the mesh catalog. Each catalog entry carries the primitive's index
// range, its vertex offset into the shared vertex buffer, and its
// local-space bounding box. Primitives with a zero bounding box get one
// computed from their vertices.
//
// Parameters:
//   - primitives: the geometry to pack, one entry per mesh type
//
// Returns:
//   - *Baked: the megabuffers and catalog, ready for GPU upload.
func Bake(primitives []Primitive) *Baked {
	baked := &Baked{
		Meshes: make([]cull.GPUMeshInfo, 0, len(primitives)),
	}

	for i := range primitives {
		p := &primitives[i]
		vertexOffset := uint32(len(baked.Vertices))
		firstIndex := uint32(len(baked.Indices))

		baked.Vertices = append(baked.Vertices, p.Vertices...)
		baked.Indices = append(baked.Indices, p.Indices...)

		bounds := p.Bounds
		if bounds == (common.AABB{}) {
			bounds = BoundsFromVertices(p.Vertices)
		}

		baked.Meshes = append(baked.Meshes, cull.GPUMeshInfo{
			IndexCount:   uint32(len(p.Indices)),
			FirstIndex:   firstIndex,
			VertexOffset: vertexOffset,
			AABBMin:      [4]float32{bounds.Min[0], bounds.Min[1], bounds.Min[2], 0},
			AABBMax:      [4]float32{bounds.Max[0], bounds.Max[1], bounds.Max[2], 0},
		})
	}

	return baked
}

// VertexBytes serializes the shared vertex buffer for GPU upload.
//
// Returns:
//   - []byte: len(Vertices) × 64 bytes.
func (b *Baked) VertexBytes() []byte {
	buf := make([]byte, 0, len(b.Vertices)*64)
	for i := range b.Vertices {
		buf = append(buf, b.Vertices[i].Marshal()...)
	}
	return buf
}

// IndexBytes serializes the shared index buffer for GPU upload as
// little-endian u32 indices.
//
// Returns:
//   - []byte: len(Indices) × 4 bytes.
func (b *Baked) IndexBytes() []byte {
	return common.SliceToBytes(b.Indices)
}
