package printorg

import (
	"testing"

	"github.com/matzehuels/towerpath/pkg/geometry"
	"github.com/matzehuels/towerpath/pkg/mesh"
)

// square returns a closed 4-point path centred on (cx, cy) at height z.
func square(t *testing.T, cx, cy, z, half float64) geometry.Path {
	t.Helper()
	p, err := geometry.NewPath([]geometry.Point{
		geometry.Pt(cx-half, cy-half, z),
		geometry.Pt(cx+half, cy-half, z),
		geometry.Pt(cx+half, cy+half, z),
		geometry.Pt(cx-half, cy+half, z),
	}, true)
	if err != nil {
		t.Fatalf("NewPath: %v", err)
	}
	return p
}

func openPath(t *testing.T, pts ...geometry.Point) geometry.Path {
	t.Helper()
	p, err := geometry.NewPath(pts, false)
	if err != nil {
		t.Fatalf("NewPath: %v", err)
	}
	return p
}

// column stacks n unit squares starting at z0, dz apart.
func column(t *testing.T, id int, cx, cy, z0, dz float64, n int) *geometry.VerticalLayer {
	t.Helper()
	vl := geometry.NewVerticalLayer(id)
	for i := range n {
		vl.Append(square(t, cx, cy, z0+float64(i)*dz, 1))
	}
	return vl
}

// bedMesh returns a face-less mesh whose vertices are all tagged as root
// boundary.
func bedMesh(t *testing.T, pts ...geometry.Point) *mesh.Mesh {
	t.Helper()
	m, err := mesh.New(pts, nil)
	if err != nil {
		t.Fatalf("mesh.New: %v", err)
	}
	m.MarkBoundaryBelow(1e9)
	return m
}

// footprint returns the four corners of the unit square at (cx, cy) on the bed.
func footprint(cx, cy float64) []geometry.Point {
	return []geometry.Point{
		geometry.Pt(cx-1, cy-1, 0),
		geometry.Pt(cx+1, cy-1, 0),
		geometry.Pt(cx+1, cy+1, 0),
		geometry.Pt(cx-1, cy+1, 0),
	}
}

func groups(layers ...*geometry.VerticalLayer) []geometry.PathGroup {
	out := make([]geometry.PathGroup, len(layers))
	for i, l := range layers {
		out[i] = l
	}
	return out
}

// stacked is a column on the bed with a second column printed on top of it.
func stacked(t *testing.T) (*mesh.Mesh, []*geometry.VerticalLayer) {
	t.Helper()
	bed := append(footprint(0, 0), geometry.Pt(0, -1, 0), geometry.Pt(0, 1, 0))
	return bedMesh(t, bed...), []*geometry.VerticalLayer{
		column(t, 0, 0, 0, 0.2, 0.3, 3), // z 0.2 0.5 0.8
		column(t, 1, 0, 0, 1.1, 0.3, 2), // z 1.1 1.4
	}
}

// merged is two columns on the bed joined by a bridge resting on both.
func merged(t *testing.T) (*mesh.Mesh, []*geometry.VerticalLayer) {
	t.Helper()
	bridge := geometry.NewVerticalLayer(2)
	bridge.Append(openPath(t, geometry.Pt(1, 1, 1.1), geometry.Pt(2, 1, 1.1)))
	bridge.Append(openPath(t, geometry.Pt(1, 1, 1.4), geometry.Pt(1.5, 1, 1.4), geometry.Pt(2, 1, 1.4)))

	bed := append(footprint(0, 0), footprint(3, 0)...)
	return bedMesh(t, bed...), []*geometry.VerticalLayer{
		column(t, 0, 0, 0, 0.2, 0.3, 3),
		column(t, 1, 3, 0, 0.2, 0.3, 3),
		bridge,
	}
}

const threshold = 0.5
