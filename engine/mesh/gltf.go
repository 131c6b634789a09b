package mesh

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/cull-go/common"
)

// Common errors returned by the glTF importer
var (
	errInvalidGLTFVersion = errors.New("invalid glTF version: must be 2.0")
	errInvalidGLBMagic    = errors.New("invalid GLB magic number")
	errInvalidGLBVersion  = errors.New("invalid GLB version: must be 2")
	errMissingJSONChunk   = errors.New("GLB file missing JSON chunk")
	errInvalidBufferURI   = errors.New("invalid buffer URI")
	errBufferSizeMismatch = errors.New("buffer size mismatch")
)

// GLB container constants
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
const (
	glbMagic     = 0x46546C67 // "glTF"
	glbVersion   = 2
	glbChunkJSON = 0x4E4F534A // "JSON"
	glbChunkBIN  = 0x004E4942 // "BIN\0"
)

// glTF accessor component types
const (
	gltfComponentUByte  = 5121
	gltfComponentUShort = 5123
	gltfComponentUInt   = 5125
	gltfComponentFloat  = 5126
)

const gltfModeTriangles = 4

// glTF 2.0 JSON structures, trimmed to the geometry subset the importer reads.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html

type gltfDocument struct {
	Asset       gltfAsset        `json:"asset"`
	Meshes      []gltfMesh       `json:"meshes,omitempty"`
	Accessors   []gltfAccessor   `json:"accessors,omitempty"`
	BufferViews []gltfBufferView `json:"bufferViews,omitempty"`
	Buffers     []gltfBuffer     `json:"buffers,omitempty"`
}

type gltfAsset struct {
	Version string `json:"version"`
}

type gltfMesh struct {
	Name       string          `json:"name,omitempty"`
	Primitives []gltfPrimitive `json:"primitives"`
}

type gltfPrimitive struct {
	// Attributes maps attribute semantics (POSITION, NORMAL, TEXCOORD_0,
	// COLOR_0, TANGENT) to accessor indices.
	Attributes map[string]int `json:"attributes"`
	Indices    *int           `json:"indices,omitempty"`
	Material   *int           `json:"material,omitempty"`
	Mode       *int           `json:"mode,omitempty"`
}

type gltfAccessor struct {
	BufferView    *int      `json:"bufferView,omitempty"`
	ByteOffset    int       `json:"byteOffset,omitempty"`
	ComponentType int       `json:"componentType"`
	Count         int       `json:"count"`
	Type          string    `json:"type"`
	Max           []float32 `json:"max,omitempty"`
	Min           []float32 `json:"min,omitempty"`
}

type gltfBufferView struct {
	Buffer     int  `json:"buffer"`
	ByteOffset int  `json:"byteOffset,omitempty"`
	ByteLength int  `json:"byteLength"`
	ByteStride *int `json:"byteStride,omitempty"`
}

type gltfBuffer struct {
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`

	data []byte
}

// gltfFile holds a parsed document with its resolved buffer data.
type gltfFile struct {
	baseDir  string
	doc      *gltfDocument
	binChunk []byte
}

// LoadGLTF reads a .gltf or .glb file and extracts its geometry as bake-ready
// primitives. Format detection is automatic. Only triangle primitives are
// imported; materials, skins, and animations are ignored.
//
// Parameters:
//   - path: path to the glTF or GLB file
//
// Returns:
//   - []Primitive: one primitive per glTF mesh primitive, in document order
//   - error: error if parsing or extraction fails
func LoadGLTF(path string) ([]Primitive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	f := &gltfFile{baseDir: filepath.Dir(path)}
	if err := f.parse(data); err != nil {
		return nil, err
	}
	return f.extractPrimitives()
}

// ReadGLTF extracts geometry from glTF JSON or GLB data on a reader. Use this
// when loading from embedded resources or network streams. External buffer
// URIs are resolved relative to the working directory.
//
// Parameters:
//   - r: reader containing glTF JSON or GLB data
//
// Returns:
//   - []Primitive: one primitive per glTF mesh primitive, in document order
//   - error: error if parsing or extraction fails
func ReadGLTF(r io.Reader) ([]Primitive, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	f := &gltfFile{baseDir: "."}
	if err := f.parse(data); err != nil {
		return nil, err
	}
	return f.extractPrimitives()
}

// parse dispatches on the GLB magic to the container or plain-JSON path.
func (f *gltfFile) parse(data []byte) error {
	if len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == glbMagic {
		return f.parseGLB(data)
	}
	return f.parseJSON(data)
}

func (f *gltfFile) parseJSON(data []byte) error {
	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}

	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return errInvalidGLTFVersion
	}

	f.doc = &doc
	return f.loadBuffers()
}

func (f *gltfFile) parseGLB(data []byte) error {
	if len(data) < 12 {
		return errors.New("GLB file too small")
	}

	if binary.LittleEndian.Uint32(data[0:4]) != glbMagic {
		return errInvalidGLBMagic
	}
	if binary.LittleEndian.Uint32(data[4:8]) != glbVersion {
		return errInvalidGLBVersion
	}

	var jsonData []byte
	offset := 12
	for offset+8 <= len(data) {
		chunkLength := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
		chunkType := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		offset += 8

		if offset+chunkLength > len(data) {
			return errors.New("GLB chunk extends past end of file")
		}
		chunk := data[offset : offset+chunkLength]
		offset += chunkLength

		switch chunkType {
		case glbChunkJSON:
			jsonData = chunk
		case glbChunkBIN:
			f.binChunk = chunk
		}
	}

	if jsonData == nil {
		return errMissingJSONChunk
	}

	var doc gltfDocument
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}

	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return errInvalidGLTFVersion
	}

	f.doc = &doc
	return f.loadBuffers()
}

// loadBuffers resolves every buffer's data from its URI, embedded base64, or
// the GLB binary chunk.
func (f *gltfFile) loadBuffers() error {
	for i := range f.doc.Buffers {
		buf := &f.doc.Buffers[i]

		if buf.URI == "" {
			if i == 0 && f.binChunk != nil {
				buf.data = f.binChunk
				if len(buf.data) < buf.ByteLength {
					return fmt.Errorf("buffer %d: %w", i, errBufferSizeMismatch)
				}
				continue
			}
			return fmt.Errorf("buffer %d has no URI and no GLB binary chunk", i)
		}

		data, err := f.loadBufferURI(buf.URI)
		if err != nil {
			return fmt.Errorf("buffer %d: %w", i, err)
		}
		buf.data = data

		if len(buf.data) < buf.ByteLength {
			return fmt.Errorf("buffer %d: %w", i, errBufferSizeMismatch)
		}
	}

	return nil
}

// loadBufferURI loads buffer data from a base64 data URI or a file path
// relative to the document.
func (f *gltfFile) loadBufferURI(uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "data:") {
		commaIdx := strings.Index(uri, ",")
		if commaIdx < 0 {
			return nil, errInvalidBufferURI
		}
		if !strings.Contains(uri[5:commaIdx], "base64") {
			return nil, fmt.Errorf("unsupported data URI encoding: %s", uri[5:commaIdx])
		}
		data, err := base64.StdEncoding.DecodeString(uri[commaIdx+1:])
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(filepath.Join(f.baseDir, uri))
	if err != nil {
		return nil, fmt.Errorf("failed to load buffer file %q: %w", uri, err)
	}
	return data, nil
}

// extractPrimitives converts every triangle primitive in the document into a
// bake-ready Primitive.
func (f *gltfFile) extractPrimitives() ([]Primitive, error) {
	var primitives []Primitive

	for mi, m := range f.doc.Meshes {
		for pi, p := range m.Primitives {
			if p.Mode != nil && *p.Mode != gltfModeTriangles {
				continue
			}

			prim, err := f.extractPrimitive(&p)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}
			primitives = append(primitives, prim)
		}
	}

	return primitives, nil
}

func (f *gltfFile) extractPrimitive(p *gltfPrimitive) (Primitive, error) {
	posIndex, ok := p.Attributes["POSITION"]
	if !ok {
		return Primitive{}, errors.New("primitive has no POSITION attribute")
	}

	positions, err := f.readVec3(posIndex)
	if err != nil {
		return Primitive{}, fmt.Errorf("POSITION: %w", err)
	}

	vertices := make([]Vertex, len(positions))
	for i, pos := range positions {
		vertices[i] = Vertex{
			Position: pos,
			Normal:   [3]float32{0, 1, 0},
			Color:    [4]float32{1, 1, 1, 1},
		}
	}

	if ni, ok := p.Attributes["NORMAL"]; ok {
		normals, err := f.readVec3(ni)
		if err != nil {
			return Primitive{}, fmt.Errorf("NORMAL: %w", err)
		}
		for i := range min(len(normals), len(vertices)) {
			vertices[i].Normal = normals[i]
		}
	}

	if ti, ok := p.Attributes["TEXCOORD_0"]; ok {
		uvs, err := f.readVec2(ti)
		if err != nil {
			return Primitive{}, fmt.Errorf("TEXCOORD_0: %w", err)
		}
		for i := range min(len(uvs), len(vertices)) {
			vertices[i].TexCoord = uvs[i]
		}
	}

	if ti, ok := p.Attributes["TANGENT"]; ok {
		tangents, err := f.readVec4(ti)
		if err != nil {
			return Primitive{}, fmt.Errorf("TANGENT: %w", err)
		}
		for i := range min(len(tangents), len(vertices)) {
			vertices[i].Tangent = tangents[i]
		}
	}

	if ci, ok := p.Attributes["COLOR_0"]; ok {
		colors, err := f.readVec4(ci)
		if err != nil {
			return Primitive{}, fmt.Errorf("COLOR_0: %w", err)
		}
		for i := range min(len(colors), len(vertices)) {
			vertices[i].Color = colors[i]
		}
	}

	var indices []uint32
	if p.Indices != nil {
		indices, err = f.readIndices(*p.Indices)
		if err != nil {
			return Primitive{}, fmt.Errorf("indices: %w", err)
		}
	} else {
		// Non-indexed geometry: synthesize a sequential index list.
		indices = make([]uint32, len(vertices))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	prim := Primitive{
		Vertices: vertices,
		Indices:  indices,
		Bounds:   f.positionBounds(posIndex, vertices),
	}
	if p.Material != nil {
		prim.MaterialID = uint32(*p.Material)
	}
	return prim, nil
}

// positionBounds prefers the accessor's declared min/max over a vertex scan.
// The glTF spec requires both on POSITION accessors, but some exporters omit
// them.
func (f *gltfFile) positionBounds(posIndex int, vertices []Vertex) common.AABB {
	acc := &f.doc.Accessors[posIndex]
	if len(acc.Min) == 3 && len(acc.Max) == 3 {
		return common.NewAABB(
			[3]float32{acc.Min[0], acc.Min[1], acc.Min[2]},
			[3]float32{acc.Max[0], acc.Max[1], acc.Max[2]},
		)
	}
	return BoundsFromVertices(vertices)
}

// accessorBytes reads an accessor's packed element data, de-interleaving
// strided buffer views.
func (f *gltfFile) accessorBytes(index, elementSize int) ([]byte, *gltfAccessor, error) {
	if index < 0 || index >= len(f.doc.Accessors) {
		return nil, nil, fmt.Errorf("accessor index %d out of range", index)
	}
	acc := &f.doc.Accessors[index]
	if acc.BufferView == nil {
		return nil, nil, errors.New("accessor has no bufferView")
	}
	if *acc.BufferView < 0 || *acc.BufferView >= len(f.doc.BufferViews) {
		return nil, nil, fmt.Errorf("bufferView index %d out of range", *acc.BufferView)
	}

	bv := &f.doc.BufferViews[*acc.BufferView]
	if bv.Buffer < 0 || bv.Buffer >= len(f.doc.Buffers) {
		return nil, nil, fmt.Errorf("buffer index %d out of range", bv.Buffer)
	}
	buf := f.doc.Buffers[bv.Buffer].data

	stride := elementSize
	if bv.ByteStride != nil && *bv.ByteStride > 0 {
		stride = *bv.ByteStride
	}

	start := bv.ByteOffset + acc.ByteOffset
	if need := start + (acc.Count-1)*stride + elementSize; acc.Count > 0 && need > len(buf) {
		return nil, nil, fmt.Errorf("accessor %d reads past buffer end", index)
	}

	result := make([]byte, acc.Count*elementSize)
	for i := 0; i < acc.Count; i++ {
		copy(result[i*elementSize:(i+1)*elementSize], buf[start+i*stride:start+i*stride+elementSize])
	}
	return result, acc, nil
}

func (f *gltfFile) readVec2(index int) ([][2]float32, error) {
	data, acc, err := f.accessorBytes(index, 8)
	if err != nil {
		return nil, err
	}
	if acc.Type != "VEC2" || acc.ComponentType != gltfComponentFloat {
		return nil, fmt.Errorf("accessor is not VEC2 FLOAT: type=%s, componentType=%d", acc.Type, acc.ComponentType)
	}

	result := make([][2]float32, acc.Count)
	for i := range result {
		for c := range 2 {
			result[i][c] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*8+c*4:]))
		}
	}
	return result, nil
}

func (f *gltfFile) readVec3(index int) ([][3]float32, error) {
	data, acc, err := f.accessorBytes(index, 12)
	if err != nil {
		return nil, err
	}
	if acc.Type != "VEC3" || acc.ComponentType != gltfComponentFloat {
		return nil, fmt.Errorf("accessor is not VEC3 FLOAT: type=%s, componentType=%d", acc.Type, acc.ComponentType)
	}

	result := make([][3]float32, acc.Count)
	for i := range result {
		for c := range 3 {
			result[i][c] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*12+c*4:]))
		}
	}
	return result, nil
}

func (f *gltfFile) readVec4(index int) ([][4]float32, error) {
	data, acc, err := f.accessorBytes(index, 16)
	if err != nil {
		return nil, err
	}
	if acc.Type != "VEC4" || acc.ComponentType != gltfComponentFloat {
		return nil, fmt.Errorf("accessor is not VEC4 FLOAT: type=%s, componentType=%d", acc.Type, acc.ComponentType)
	}

	result := make([][4]float32, acc.Count)
	for i := range result {
		for c := range 4 {
			result[i][c] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*16+c*4:]))
		}
	}
	return result, nil
}

// readIndices reads a SCALAR accessor as uint32 index data, widening
// UNSIGNED_BYTE and UNSIGNED_SHORT components.
func (f *gltfFile) readIndices(index int) ([]uint32, error) {
	if index < 0 || index >= len(f.doc.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of range", index)
	}
	componentSize := 0
	switch f.doc.Accessors[index].ComponentType {
	case gltfComponentUByte:
		componentSize = 1
	case gltfComponentUShort:
		componentSize = 2
	case gltfComponentUInt:
		componentSize = 4
	default:
		return nil, fmt.Errorf("unsupported index component type %d", f.doc.Accessors[index].ComponentType)
	}

	data, acc, err := f.accessorBytes(index, componentSize)
	if err != nil {
		return nil, err
	}
	if acc.Type != "SCALAR" {
		return nil, fmt.Errorf("index accessor is not SCALAR: type=%s", acc.Type)
	}

	result := make([]uint32, acc.Count)
	for i := range result {
		switch componentSize {
		case 1:
			result[i] = uint32(data[i])
		case 2:
			result[i] = uint32(binary.LittleEndian.Uint16(data[i*2:]))
		case 4:
			result[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
	}
	return result, nil
}
