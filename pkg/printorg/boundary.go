package printorg

import (
	"slices"

	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/geometry"
	"github.com/matzehuels/towerpath/pkg/mesh"
)

// BaseBoundary is the surface a segment's first path is printed onto:
// either the mesh's boundary-tagged vertices or the last paths of the
// segments it rests on.
type BaseBoundary struct {
	points  []geometry.Point
	parents []int
}

// BoundaryData is the serialized form of a [BaseBoundary].
type BoundaryData struct {
	BoundaryPoints [][3]float64 `json:"boundary_points"`
}

// NewRootBoundary returns the boundary made of every mesh vertex tagged
// with boundary == 1, in vertex order.
func NewRootBoundary(m *mesh.Mesh) *BaseBoundary {
	if m == nil {
		return &BaseBoundary{}
	}
	return &BaseBoundary{points: m.BoundaryVertices()}
}

// NewParentBoundary concatenates the last path of every parent, parents in
// ascending order.
func NewParentBoundary(layers []*geometry.VerticalLayer, parents []int) (*BaseBoundary, error) {
	if len(parents) == 0 {
		return nil, errors.New(errors.ErrCodeInternal, "parent boundary needs at least one parent")
	}
	sorted := slices.Clone(parents)
	slices.Sort(sorted)

	var pts []geometry.Point
	for _, p := range sorted {
		if p < 0 || p >= len(layers) {
			return nil, errors.New(errors.ErrCodeInternal, "parent %d out of range", p)
		}
		top, ok := layers[p].Top()
		if !ok {
			return nil, errors.New(errors.ErrCodeDataValidity, "parent segment %d has no paths", p)
		}
		pts = append(pts, top.Points...)
	}
	return &BaseBoundary{points: pts, parents: sorted}, nil
}

// Points returns a copy of the boundary points.
func (b *BaseBoundary) Points() []geometry.Point { return slices.Clone(b.points) }

// Len returns the number of boundary points.
func (b *BaseBoundary) Len() int { return len(b.points) }

// IsRoot reports whether this is the mesh root boundary.
func (b *BaseBoundary) IsRoot() bool { return len(b.parents) == 0 }

// Parents returns the segments this boundary was built from.
func (b *BaseBoundary) Parents() []int { return slices.Clone(b.parents) }

// ToData returns the serializable form.
func (b *BaseBoundary) ToData() BoundaryData {
	out := BoundaryData{BoundaryPoints: make([][3]float64, len(b.points))}
	for i, p := range b.points {
		out.BoundaryPoints[i] = [3]float64(p)
	}
	return out
}
