package common

import (
	"math"
	"testing"
)

func TestSignedDistance(t *testing.T) {
	tests := []struct {
		name  string
		plane Plane
		point [3]float32
		want  float32
	}{
		{
			name:  "in front of y plane",
			plane: Plane{Normal: [3]float32{0, 1, 0}, Distance: -5},
			point: [3]float32{0, 7, 0},
			want:  2,
		},
		{
			name:  "behind y plane",
			plane: Plane{Normal: [3]float32{0, 1, 0}, Distance: -5},
			point: [3]float32{0, 3, 0},
			want:  -2,
		},
		{
			name:  "on the plane",
			plane: Plane{Normal: [3]float32{1, 0, 0}, Distance: 10},
			point: [3]float32{-10, 99, -4},
			want:  0,
		},
		{
			name:  "offset from origin plane",
			plane: Plane{Normal: [3]float32{0, 0, -1}, Distance: 1},
			point: [3]float32{0, 0, -3},
			want:  4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.plane.SignedDistance(tt.point)
			if math.Abs(float64(got-tt.want)) > matEps {
				t.Fatalf("SignedDistance got %v want %v", got, tt.want)
			}
		})
	}
}

func TestExtractFrustumFromIdentity(t *testing.T) {
	// The identity view-projection yields the clip cube: |x| <= 1, |y| <= 1,
	// and the near/far pair bounding |z| <= 1 under this extraction.
	var id [16]float32
	Identity(id[:])
	f := ExtractFrustumFromMatrix(id[:])

	wantNormals := [6][3]float32{
		FrustumLeft:   {1, 0, 0},
		FrustumRight:  {-1, 0, 0},
		FrustumBottom: {0, 1, 0},
		FrustumTop:    {0, -1, 0},
		FrustumNear:   {0, 0, 1},
		FrustumFar:    {0, 0, -1},
	}
	for i, want := range wantNormals {
		got := f.Planes[i].Normal
		for c := range 3 {
			if math.Abs(float64(got[c]-want[c])) > matEps {
				t.Fatalf("plane %d normal got %v want %v", i, got, want)
			}
		}
		if math.Abs(float64(f.Planes[i].Distance-1)) > matEps {
			t.Fatalf("plane %d distance got %v want 1", i, f.Planes[i].Distance)
		}
	}

	inside := [3]float32{0, 0, 0}
	for i := range f.Planes {
		if f.Planes[i].SignedDistance(inside) <= 0 {
			t.Fatalf("origin should be inside plane %d", i)
		}
	}

	outside := [3]float32{2, 0, 0}
	if f.Planes[FrustumRight].SignedDistance(outside) >= 0 {
		t.Fatal("point at x=2 should be behind the right plane")
	}
}

func TestExtractFrustumNormalization(t *testing.T) {
	view := make([]float32, 16)
	proj := make([]float32, 16)
	viewProj := make([]float32, 16)
	LookAt(view, 3, 4, 5, 0, 0, 0, 0, 1, 0)
	Perspective(proj, float32(math.Pi/3), 16.0/9.0, 0.1, 200)
	Mul4(viewProj, proj, view)

	f := ExtractFrustumFromMatrix(viewProj)
	for i := range f.Planes {
		n := f.Planes[i].Normal
		length := math.Sqrt(float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2]))
		if math.Abs(length-1) > matEps {
			t.Fatalf("plane %d normal length got %v want 1", i, length)
		}
	}
}

func TestExtractFrustumFromCamera(t *testing.T) {
	// Camera at (0,0,10) looking at the origin, 90 degree vertical fov.
	view := make([]float32, 16)
	proj := make([]float32, 16)
	viewProj := make([]float32, 16)
	LookAt(view, 0, 0, 10, 0, 0, 0, 0, 1, 0)
	Perspective(proj, float32(math.Pi/2), 1.0, 0.5, 100)
	Mul4(viewProj, proj, view)

	f := ExtractFrustumFromMatrix(viewProj)

	insidePlanes := func(p [3]float32) bool {
		for i := range f.Planes {
			if f.Planes[i].SignedDistance(p) <= 0 {
				return false
			}
		}
		return true
	}

	tests := []struct {
		name   string
		point  [3]float32
		inside bool
	}{
		{"look target", [3]float32{0, 0, 0}, true},
		{"slightly off axis", [3]float32{2, 2, 0}, true},
		{"behind the eye", [3]float32{0, 0, 20}, false},
		{"in front of near plane", [3]float32{0, 0, 9.8}, false},
		{"beyond far plane", [3]float32{0, 0, -95}, false},
		{"far left", [3]float32{-50, 0, 0}, false},
		{"far above", [3]float32{0, 50, 0}, false},
		// With a 90 degree fov the half-extent at the focal plane equals
		// the distance from the eye, so (9,9,0) sits 10 units out with
		// extent 10 and stays inside.
		{"near the corner", [3]float32{9, 9, 0}, true},
		{"past the corner", [3]float32{11, 11, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := insidePlanes(tt.point); got != tt.inside {
				t.Fatalf("point %v inside = %v, want %v", tt.point, got, tt.inside)
			}
		})
	}
}
