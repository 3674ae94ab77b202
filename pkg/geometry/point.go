package geometry

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl64"
)

// Point is a 3D coordinate. It is a value type; all arithmetic returns new points.
type Point = mgl64.Vec3

// Pt is shorthand for Point{x, y, z}.
func Pt(x, y, z float64) Point { return Point{x, y, z} }

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 { return a.Sub(b).Len() }

// Centroid returns the mean of pts. It reports false for an empty slice.
func Centroid(pts []Point) (Point, bool) {
	if len(pts) == 0 {
		return Point{}, false
	}
	var sum Point
	for _, p := range pts {
		sum = sum.Add(p)
	}
	return sum.Mul(1 / float64(len(pts))), true
}

// NearestIndex returns the index of the point in pts closest to p and the
// distance to it. Ties resolve to the lowest index. It returns -1 and +Inf
// for an empty slice.
func NearestIndex(pts []Point, p Point) (int, float64) {
	best, bestD := -1, math.Inf(1)
	for i, q := range pts {
		if d := Distance(p, q); d < bestD {
			best, bestD = i, d
		}
	}
	return best, bestD
}

// MinDistance returns the distance between the closest pair of points drawn
// from a and b. The result does not depend on the order of either slice.
// It returns +Inf if either slice is empty.
func MinDistance(a, b []Point) float64 {
	minD := math.Inf(1)
	for _, p := range a {
		if _, d := NearestIndex(b, p); d < minD {
			minD = d
		}
	}
	return minD
}

// MeanZ returns the mean z coordinate of pts, or 0 for an empty slice.
func MeanZ(pts []Point) float64 {
	c, ok := Centroid(pts)
	if !ok {
		return 0
	}
	return c.Z()
}

// ToVec converts a Point to the sdfx vector type.
func ToVec(p Point) v3.Vec { return v3.Vec{X: p.X(), Y: p.Y(), Z: p.Z()} }

// FromVec converts an sdfx vector to a Point.
func FromVec(v v3.Vec) Point { return Point{v.X, v.Y, v.Z} }

// Bounds returns the axis-aligned bounding box of pts.
// It reports false for an empty slice.
func Bounds(pts []Point) (sdf.Box3, bool) {
	if len(pts) == 0 {
		return sdf.Box3{}, false
	}
	first := ToVec(pts[0])
	box := sdf.Box3{Min: first, Max: first}
	for _, p := range pts[1:] {
		v := ToVec(p)
		box = box.Extend(sdf.Box3{Min: v, Max: v})
	}
	return box, true
}

// BoxesOverlap reports whether a and b intersect once each is grown by
// margin on every side.
func BoxesOverlap(a, b sdf.Box3, margin float64) bool {
	return a.Min.X-margin <= b.Max.X+margin && b.Min.X-margin <= a.Max.X+margin &&
		a.Min.Y-margin <= b.Max.Y+margin && b.Min.Y-margin <= a.Max.Y+margin &&
		a.Min.Z-margin <= b.Max.Z+margin && b.Min.Z-margin <= a.Max.Z+margin
}
