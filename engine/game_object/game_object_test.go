package game_object

import (
	"math"
	"testing"
)

func TestNewGameObjectDefaults(t *testing.T) {
	obj := NewGameObject()

	if !obj.Enabled() {
		t.Fatal("objects should default to enabled")
	}
	if sx, sy, sz := obj.Scale(); sx != 1 || sy != 1 || sz != 1 {
		t.Fatalf("default scale got (%v, %v, %v) want unit", sx, sy, sz)
	}
	if x, y, z := obj.Position(); x != 0 || y != 0 || z != 0 {
		t.Fatalf("default position got (%v, %v, %v) want origin", x, y, z)
	}
	if obj.ID() != 0 {
		t.Fatalf("unassigned ID got %d want 0", obj.ID())
	}
}

func TestGameObjectBuilderOptions(t *testing.T) {
	obj := NewGameObject(
		WithID(7),
		WithEnabled(false),
		WithMeshIndex(3),
		WithMaterialID(12),
		WithPosition(1, 2, 3),
		WithRotation(0.1, 0.2, 0.3),
		WithRotationSpeed(1, 0, 0),
		WithScale(2, 2, 2),
	)

	if obj.ID() != 7 {
		t.Fatalf("ID got %d", obj.ID())
	}
	if obj.Enabled() {
		t.Fatal("WithEnabled(false) not applied")
	}
	if obj.MeshIndex() != 3 {
		t.Fatalf("mesh index got %d", obj.MeshIndex())
	}
	if obj.MaterialID() != 12 {
		t.Fatalf("material ID got %d", obj.MaterialID())
	}
	if x, y, z := obj.Position(); x != 1 || y != 2 || z != 3 {
		t.Fatalf("position got (%v, %v, %v)", x, y, z)
	}
	if rx, _, _ := obj.RotationSpeed(); rx != 1 {
		t.Fatalf("rotation speed x got %v", rx)
	}
}

func TestGameObjectAdvance(t *testing.T) {
	obj := NewGameObject(WithRotationSpeed(0, 2, 0))

	obj.Advance(0.25)
	if _, ry, _ := obj.Rotation(); math.Abs(float64(ry-0.5)) > 1e-6 {
		t.Fatalf("rotation y after advance got %v want 0.5", ry)
	}

	obj.Advance(0.25)
	if _, ry, _ := obj.Rotation(); math.Abs(float64(ry-1.0)) > 1e-6 {
		t.Fatalf("rotation y after second advance got %v want 1.0", ry)
	}
}

func TestGameObjectWriteModelMatrix(t *testing.T) {
	obj := NewGameObject(
		WithPosition(5, -3, 8),
		WithScale(2, 3, 4),
	)

	var m [16]float32
	obj.WriteModelMatrix(m[:])

	if m[0] != 2 || m[5] != 3 || m[10] != 4 {
		t.Fatalf("scale diagonal got (%v, %v, %v)", m[0], m[5], m[10])
	}
	if m[12] != 5 || m[13] != -3 || m[14] != 8 {
		t.Fatalf("translation column got (%v, %v, %v)", m[12], m[13], m[14])
	}
	if m[15] != 1 {
		t.Fatalf("m[15] got %v want 1", m[15])
	}
}

func TestGameObjectYawQuarterTurn(t *testing.T) {
	obj := NewGameObject(WithRotationSpeed(0, math.Pi, 0))
	obj.Advance(0.5)

	var m [16]float32
	obj.WriteModelMatrix(m[:])

	// +X rotates onto -Z under a 90 degree yaw.
	if math.Abs(float64(m[0])) > 1e-6 || math.Abs(float64(m[2]+1)) > 1e-6 {
		t.Fatalf("first column got (%v, %v, %v)", m[0], m[1], m[2])
	}
}
