package cull

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/cull-go/common"
)

// GPUMeshInfoSource is the canonical WGSL definition of the MeshInfo struct.
// Matches GPUMeshInfo layout exactly (48 bytes, std430 aligned).
//
//go:embed assets/mesh_info.wgsl
var GPUMeshInfoSource string

// GPUMeshInfo is the GPU-aligned per-mesh-type record in the mesh catalog.
// Holds the index-buffer range of the mesh inside the shared megabuffer and
// its local-space bounding box.
// Matches the WGSL MeshInfo struct layout exactly (see GPUMeshInfoSource).
// Size: 48 bytes (std430 aligned).
type GPUMeshInfo struct {
	IndexCount   uint32     // offset 0: number of indices in the mesh
	FirstIndex   uint32     // offset 4: offset into the shared index buffer
	VertexOffset uint32     // offset 8: added to each index value at draw time
	_pad         uint32     // offset 12: align vec4 to 16
	AABBMin      [4]float32 // offset 16: local-space bounding box minimum (w unused)
	AABBMax      [4]float32 // offset 32: local-space bounding box maximum (w unused)
}

// Size returns the size of the GPUMeshInfo struct in bytes.
//
// Returns:
//   - int: The size of the struct in bytes.
func (g *GPUMeshInfo) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUMeshInfo struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload.
func (g *GPUMeshInfo) Marshal() []byte {
	buf := make([]byte, 48)
	binary.LittleEndian.PutUint32(buf[0:4], g.IndexCount)
	binary.LittleEndian.PutUint32(buf[4:8], g.FirstIndex)
	binary.LittleEndian.PutUint32(buf[8:12], g.VertexOffset)
	binary.LittleEndian.PutUint32(buf[12:16], 0) // _pad
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[16+i*4:20+i*4], math.Float32bits(g.AABBMin[i]))
	}
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[32+i*4:36+i*4], math.Float32bits(g.AABBMax[i]))
	}
	return buf
}

// AABB returns the local-space bounding box as a common.AABB.
//
// Returns:
//   - common.AABB: the bounding box with the unused w components dropped.
func (g *GPUMeshInfo) AABB() common.AABB {
	return common.AABB{
		Min: [3]float32{g.AABBMin[0], g.AABBMin[1], g.AABBMin[2]},
		Max: [3]float32{g.AABBMax[0], g.AABBMax[1], g.AABBMax[2]},
	}
}

// GPUDrawableSource is the canonical WGSL definition of the Drawable struct.
// Matches GPUDrawable layout exactly (144 bytes, std430 aligned).
//
//go:embed assets/drawable.wgsl
var GPUDrawableSource string

// GPUDrawable is the GPU-aligned per-instance record: one renderable instance
// referencing a mesh type in the catalog by index.
// Matches the WGSL Drawable struct layout exactly (see GPUDrawableSource).
// Size: 144 bytes (2 × mat4x4 + 2 × u32 + pad, std430 aligned).
type GPUDrawable struct {
	Model        [16]float32 // offset 0, size 64: model matrix (mat4x4<f32>, column-major)
	NormalMatrix [16]float32 // offset 64, size 64: inverse-transpose of the model matrix
	MeshIndex    uint32      // offset 128: index into the mesh catalog
	MaterialID   uint32      // offset 132: material identifier, carried through untouched
	_pad0        uint32      // offset 136: pad struct to 16-byte multiple
	_pad1        uint32      // offset 140
}

// Size returns the size of the GPUDrawable struct in bytes.
//
// Returns:
//   - int: The size of the struct in bytes.
func (g *GPUDrawable) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUDrawable struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 144-byte buffer ready for GPU upload.
func (g *GPUDrawable) Marshal() []byte {
	buf := make([]byte, 144)
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(g.Model[i]))
	}
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[64+i*4:68+i*4], math.Float32bits(g.NormalMatrix[i]))
	}
	binary.LittleEndian.PutUint32(buf[128:132], g.MeshIndex)
	binary.LittleEndian.PutUint32(buf[132:136], g.MaterialID)
	binary.LittleEndian.PutUint32(buf[136:140], 0) // _pad0
	binary.LittleEndian.PutUint32(buf[140:144], 0) // _pad1
	return buf
}

// NewGPUDrawable builds a drawable from a model matrix, deriving the
// inverse-transpose normal matrix. Falls back to the model matrix itself
// when the model matrix is singular.
//
// Parameters:
//   - model: 16-element column-major model matrix
//   - meshIndex: index into the mesh catalog
//   - materialID: opaque material identifier
//
// Returns:
//   - GPUDrawable: the populated drawable record.
func NewGPUDrawable(model []float32, meshIndex, materialID uint32) GPUDrawable {
	d := GPUDrawable{MeshIndex: meshIndex, MaterialID: materialID}
	copy(d.Model[:], model)
	if !common.NormalMatrix(d.NormalMatrix[:], model) {
		copy(d.NormalMatrix[:], model)
	}
	return d
}

// GPUFrustumSource is the canonical WGSL definition of the Frustum struct.
// Matches GPUFrustum layout exactly (96 bytes, std430 aligned).
//
//go:embed assets/frustum.wgsl
var GPUFrustumSource string

// GPUFrustum is the GPU-aligned representation of the six view-frustum planes.
// Each plane packs the normal in xyz and the distance in w.
// Matches the WGSL Frustum struct layout exactly (see GPUFrustumSource).
// Size: 96 bytes (6 × vec4<f32>).
type GPUFrustum struct {
	Planes [6][4]float32 // offset 0: left, right, bottom, top, near, far
}

// NewGPUFrustum packs a common.Frustum into its GPU representation.
//
// Parameters:
//   - f: the frustum to pack
//
// Returns:
//   - GPUFrustum: planes packed as (normal.xyz, distance).
func NewGPUFrustum(f *common.Frustum) GPUFrustum {
	var g GPUFrustum
	for i, pl := range f.Planes {
		g.Planes[i] = [4]float32{pl.Normal[0], pl.Normal[1], pl.Normal[2], pl.Distance}
	}
	return g
}

// Size returns the size of the GPUFrustum struct in bytes.
//
// Returns:
//   - int: The size of the struct in bytes.
func (g *GPUFrustum) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUFrustum struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 96-byte buffer ready for GPU upload.
func (g *GPUFrustum) Marshal() []byte {
	buf := make([]byte, 96)
	off := 0
	for i := range 6 {
		for j := range 4 {
			binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(g.Planes[i][j]))
			off += 4
		}
	}
	return buf
}

// GPUIndirectArgsSource is the canonical WGSL definition of the IndirectArgs struct.
// Matches GPUIndirectArgs layout exactly (20 bytes).
//
//go:embed assets/indirect_args.wgsl
var GPUIndirectArgsSource string

// GPUIndirectArgs is the GPU-aligned DrawIndexedIndirect argument block consumed
// directly by indexed indirect draws. FirstInstance carries the bucket base
// offset into the compacted instance buffer rather than a hardware instance ID.
// Matches the WGSL IndirectArgs struct layout exactly (see GPUIndirectArgsSource).
// Size: 20 bytes (5 × u32).
type GPUIndirectArgs struct {
	IndexCount    uint32 // offset 0: number of indices per instance
	InstanceCount uint32 // offset 4: number of visible instances for this mesh
	FirstIndex    uint32 // offset 8: offset into the shared index buffer
	BaseVertex    int32  // offset 12: added to each index value (signed)
	FirstInstance uint32 // offset 16: base offset into the compacted instance buffer
}

// Size returns the size of the GPUIndirectArgs struct in bytes.
//
// Returns:
//   - int: The size of the struct in bytes.
func (g *GPUIndirectArgs) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUIndirectArgs struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 20-byte buffer ready for GPU upload.
func (g *GPUIndirectArgs) Marshal() []byte {
	buf := make([]byte, 20)
	binary.LittleEndian.PutUint32(buf[0:4], g.IndexCount)
	binary.LittleEndian.PutUint32(buf[4:8], g.InstanceCount)
	binary.LittleEndian.PutUint32(buf[8:12], g.FirstIndex)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(g.BaseVertex))
	binary.LittleEndian.PutUint32(buf[16:20], g.FirstInstance)
	return buf
}

// MarshalMeshInfos serializes a mesh catalog into a contiguous byte buffer
// suitable for a single GPU upload.
//
// Parameters:
//   - meshes: the mesh catalog
//
// Returns:
//   - []byte: len(meshes) × 48 bytes.
func MarshalMeshInfos(meshes []GPUMeshInfo) []byte {
	buf := make([]byte, 0, len(meshes)*48)
	for i := range meshes {
		buf = append(buf, meshes[i].Marshal()...)
	}
	return buf
}

// MarshalDrawables serializes a drawable list into a contiguous byte buffer
// suitable for a single GPU upload.
//
// Parameters:
//   - drawables: the drawable instances
//
// Returns:
//   - []byte: len(drawables) × 144 bytes.
func MarshalDrawables(drawables []GPUDrawable) []byte {
	buf := make([]byte, 0, len(drawables)*144)
	for i := range drawables {
		buf = append(buf, drawables[i].Marshal()...)
	}
	return buf
}

// MarshalIndirectArgs serializes a draw command list into a contiguous byte
// buffer laid out exactly as the indirect draw hardware expects.
//
// Parameters:
//   - commands: the draw commands
//
// Returns:
//   - []byte: len(commands) × 20 bytes.
func MarshalIndirectArgs(commands []GPUIndirectArgs) []byte {
	buf := make([]byte, 0, len(commands)*20)
	for i := range commands {
		buf = append(buf, commands[i].Marshal()...)
	}
	return buf
}
