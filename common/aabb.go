package common

// AABB is an axis-aligned bounding box in a mesh's local object space.
// Min and Max are the component-wise minimum and maximum corners.
type AABB struct {
	Min [3]float32
	Max [3]float32
}

// NewAABB builds an AABB from two arbitrary opposite corners, normalizing them
// so that Min holds the component-wise minimum and Max the maximum.
//
// Parameters:
//   - p1, p2: opposite corners of the box, in any order
//
// Returns:
//   - AABB: the normalized bounding box
func NewAABB(p1, p2 [3]float32) AABB {
	var box AABB
	for i := range 3 {
		if p1[i] < p2[i] {
			box.Min[i], box.Max[i] = p1[i], p2[i]
		} else {
			box.Min[i], box.Max[i] = p2[i], p1[i]
		}
	}
	return box
}

// AABBFromPoints computes the bounding box of a point set. An empty input
// returns the zero AABB.
//
// Parameters:
//   - points: the points to bound
//
// Returns:
//   - AABB: the smallest box containing every point
func AABBFromPoints(points [][3]float32) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	box := AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		box.ExpandToPoint(p)
	}
	return box
}

// ExpandToPoint grows the box in place so that it contains the given point.
//
// Parameters:
//   - p: the point to include
func (b *AABB) ExpandToPoint(p [3]float32) {
	for i := range 3 {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// Corners returns the 8 corners of the box. The corner order is stable:
// bit 0 of the corner index selects Max.X, bit 1 selects Max.Y, bit 2 selects Max.Z.
//
// Returns:
//   - [8][3]float32: the corner positions
func (b *AABB) Corners() [8][3]float32 {
	var corners [8][3]float32
	for i := range 8 {
		c := [3]float32{b.Min[0], b.Min[1], b.Min[2]}
		if i&1 != 0 {
			c[0] = b.Max[0]
		}
		if i&2 != 0 {
			c[1] = b.Max[1]
		}
		if i&4 != 0 {
			c[2] = b.Max[2]
		}
		corners[i] = c
	}
	return corners
}

// TransformedCorners transforms the 8 corners of the box by a 4x4 column-major
// matrix (w=1 point transform). The result is not re-boxed; callers that need
// plane tests against the oriented result should test the corners directly.
//
// Parameters:
//   - m: the transform matrix (16 elements, column-major)
//
// Returns:
//   - [8][3]float32: the transformed corner positions
func (b *AABB) TransformedCorners(m []float32) [8][3]float32 {
	corners := b.Corners()
	for i := range corners {
		corners[i] = TransformPoint(m, corners[i])
	}
	return corners
}
