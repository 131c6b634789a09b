package mesh

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/cull-go/common"
)

// Vertex is the GPU-aligned representation of a single mesh vertex.
// Size: 64 bytes (std430 aligned, no padding required).
type Vertex struct {
	Position [3]float32 // offset  0: vertex position in model space (12 bytes)
	Normal   [3]float32 // offset 12: vertex normal for lighting (12 bytes)
	TexCoord [2]float32 // offset 24: UV texture coordinate (8 bytes)
	Color    [4]float32 // offset 32: per-vertex RGBA color (16 bytes)
	Tangent  [4]float32 // offset 48: tangent vector (xyz) + handedness (w) for normal mapping (16 bytes)
}

// Size returns the size of the Vertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (v *Vertex) Size() int {
	return int(unsafe.Sizeof(*v))
}

// Marshal serializes the Vertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload.
func (v *Vertex) Marshal() []byte {
	buf := make([]byte, 64)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(v.Normal[0]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(v.Normal[1]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(v.Normal[2]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(v.TexCoord[0]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(v.TexCoord[1]))
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(v.Color[0]))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(v.Color[1]))
	binary.LittleEndian.PutUint32(buf[40:44], math.Float32bits(v.Color[2]))
	binary.LittleEndian.PutUint32(buf[44:48], math.Float32bits(v.Color[3]))
	binary.LittleEndian.PutUint32(buf[48:52], math.Float32bits(v.Tangent[0]))
	binary.LittleEndian.PutUint32(buf[52:56], math.Float32bits(v.Tangent[1]))
	binary.LittleEndian.PutUint32(buf[56:60], math.Float32bits(v.Tangent[2]))
	binary.LittleEndian.PutUint32(buf[60:64], math.Float32bits(v.Tangent[3]))
	return buf
}

// Primitive is one piece of renderable geometry before baking: its own
// vertex and index lists, local-space bounds, and material reference.
type Primitive struct {
	Vertices   []Vertex
	Indices    []uint32
	Bounds     common.AABB
	MaterialID uint32
}

// BoundsFromVertices computes the local-space bounding box of a vertex list.
// An empty list yields a degenerate box at the origin.
//
// Parameters:
//   - vertices: the vertices to bound
//
// Returns:
//   - common.AABB: the tightest axis-aligned box containing every position.
func BoundsFromVertices(vertices []Vertex) common.AABB {
	if len(vertices) == 0 {
		return common.AABB{}
	}
	box := common.NewAABB(vertices[0].Position, vertices[0].Position)
	for i := 1; i < len(vertices); i++ {
		box.ExpandToPoint(vertices[i].Position)
	}
	return box
}
