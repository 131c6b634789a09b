package game_object

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/cull-go/common"
)

type gameObject struct {
	id      uint64
	enabled atomic.Bool

	meshIndex  uint32
	materialID uint32

	position      [3]float32
	rotation      [3]float32
	rotationSpeed [3]float32
	scale         [3]float32
}

// GameObject is a scene entity: one instance of a baked mesh with its own
// world transform. Objects carry a mesh catalog index and a material ID so
// the scene can snapshot them straight into GPU instance records.
type GameObject interface {
	// ID returns the object's unique identifier.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// Enabled returns whether this object participates in culling and drawing.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// MeshIndex returns the object's index into the baked mesh catalog.
	//
	// Returns:
	//   - uint32: the catalog index
	MeshIndex() uint32

	// MaterialID returns the object's material identifier. The value is carried
	// through culling untouched and resolved by the caller's shading pass.
	//
	// Returns:
	//   - uint32: the material ID
	MaterialID() uint32

	// Position returns the object's world-space position.
	//
	// Returns:
	//   - x, y, z: position components
	Position() (x, y, z float32)

	// Rotation returns the object's Euler rotation in radians.
	//
	// Returns:
	//   - rx, ry, rz: rotation angles
	Rotation() (rx, ry, rz float32)

	// RotationSpeed returns the object's rotation speed in radians per second.
	//
	// Returns:
	//   - rx, ry, rz: rotation speed values
	RotationSpeed() (rx, ry, rz float32)

	// Scale returns the object's scale factors.
	//
	// Returns:
	//   - sx, sy, sz: scale components
	Scale() (sx, sy, sz float32)

	// SetID sets the object's unique identifier.
	//
	// Parameters:
	//   - id: the ID to assign
	SetID(id uint64)

	// SetEnabled sets whether the object participates in culling and drawing.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// SetMeshIndex sets the object's index into the baked mesh catalog.
	//
	// Parameters:
	//   - index: the catalog index
	SetMeshIndex(index uint32)

	// SetMaterialID sets the object's material identifier.
	//
	// Parameters:
	//   - id: the material ID
	SetMaterialID(id uint32)

	// SetPosition sets the object's world-space position.
	//
	// Parameters:
	//   - x, y, z: new position components
	SetPosition(x, y, z float32)

	// SetRotation sets the object's Euler rotation in radians.
	//
	// Parameters:
	//   - rx, ry, rz: new rotation angles
	SetRotation(rx, ry, rz float32)

	// SetRotationSpeed sets the object's rotation speed in radians per second.
	// The scene advances rotation by this amount each update.
	//
	// Parameters:
	//   - rx, ry, rz: new rotation speed values
	SetRotationSpeed(rx, ry, rz float32)

	// SetScale sets the object's scale factors.
	//
	// Parameters:
	//   - sx, sy, sz: new scale factors
	SetScale(sx, sy, sz float32)

	// Advance rotates the object by its rotation speed scaled by deltaTime.
	//
	// Parameters:
	//   - deltaTime: elapsed time in seconds
	Advance(deltaTime float32)

	// WriteModelMatrix writes the object's 4x4 column-major model matrix into out.
	//
	// Parameters:
	//   - out: destination slice (must be at least 16 elements)
	WriteModelMatrix(out []float32)
}

var _ GameObject = &gameObject{}

// NewGameObject creates a new GameObject configured with the given options.
// Objects default to enabled with unit scale at the origin.
//
// Parameters:
//   - options: functional options to configure the object
//
// Returns:
//   - GameObject: the newly created object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	obj := &gameObject{
		scale: [3]float32{1, 1, 1},
	}
	obj.enabled.Store(true)
	for _, option := range options {
		option(obj)
	}
	return obj
}

func (g *gameObject) ID() uint64 {
	return g.id
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) MeshIndex() uint32 {
	return g.meshIndex
}

func (g *gameObject) MaterialID() uint32 {
	return g.materialID
}

func (g *gameObject) Position() (x, y, z float32) {
	return g.position[0], g.position[1], g.position[2]
}

func (g *gameObject) Rotation() (rx, ry, rz float32) {
	return g.rotation[0], g.rotation[1], g.rotation[2]
}

func (g *gameObject) RotationSpeed() (rx, ry, rz float32) {
	return g.rotationSpeed[0], g.rotationSpeed[1], g.rotationSpeed[2]
}

func (g *gameObject) Scale() (sx, sy, sz float32) {
	return g.scale[0], g.scale[1], g.scale[2]
}

func (g *gameObject) SetID(id uint64) {
	g.id = id
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) SetMeshIndex(index uint32) {
	g.meshIndex = index
}

func (g *gameObject) SetMaterialID(id uint32) {
	g.materialID = id
}

func (g *gameObject) SetPosition(x, y, z float32) {
	g.position = [3]float32{x, y, z}
}

func (g *gameObject) SetRotation(rx, ry, rz float32) {
	g.rotation = [3]float32{rx, ry, rz}
}

func (g *gameObject) SetRotationSpeed(rx, ry, rz float32) {
	g.rotationSpeed = [3]float32{rx, ry, rz}
}

func (g *gameObject) SetScale(sx, sy, sz float32) {
	g.scale = [3]float32{sx, sy, sz}
}

func (g *gameObject) Advance(deltaTime float32) {
	g.rotation[0] += g.rotationSpeed[0] * deltaTime
	g.rotation[1] += g.rotationSpeed[1] * deltaTime
	g.rotation[2] += g.rotationSpeed[2] * deltaTime
}

func (g *gameObject) WriteModelMatrix(out []float32) {
	common.BuildModelMatrix(out,
		g.position[0], g.position[1], g.position[2],
		g.rotation[0], g.rotation[1], g.rotation[2],
		g.scale[0], g.scale[1], g.scale[2],
	)
}
