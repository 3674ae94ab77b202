// Package mesh provides the read-only triangle mesh the organizer reasons
// about: vertex positions, faces and named per-vertex attributes.
//
// The organizer only needs two things from a mesh: the vertices tagged with
// the boundary attribute (the bed contact region) and local surface normals.
// Everything else here supports building meshes for the CLI and tests.
package mesh

import (
	"math"
	"slices"
	"sync"

	"github.com/deadsy/sdfx/sdf"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/geometry"
)

// AttrBoundary is the vertex attribute marking the bed contact region.
// A value of BoundaryValue tags a vertex as part of the root boundary.
const (
	AttrBoundary  = "boundary"
	BoundaryValue = 1.0
)

// Mesh is a triangle mesh with optional per-vertex float attributes.
//
// A Mesh is shared read-only by every organizer component. Mutating methods
// (SetVertex, SetVertexAttribute, MarkBoundaryBelow) must not be called while
// an organization run holds the mesh. Code that writes Vertices or Faces
// directly must call Invalidate afterwards.
type Mesh struct {
	Vertices []geometry.Point
	Faces    [][3]int

	attrs map[string][]float64

	normalsMu sync.Mutex
	normals   []mgl64.Vec3
}

// New validates faces against the vertex count and returns the mesh.
func New(vertices []geometry.Point, faces [][3]int) (*Mesh, error) {
	for i, f := range faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(vertices) {
				return nil, errors.New(errors.ErrCodeDataValidity, "face %d references vertex %d of %d", i, idx, len(vertices))
			}
		}
	}
	return &Mesh{
		Vertices: slices.Clone(vertices),
		Faces:    slices.Clone(faces),
		attrs:    make(map[string][]float64),
	}, nil
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// FaceCount returns the number of triangles.
func (m *Mesh) FaceCount() int { return len(m.Faces) }

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool { return len(m.Vertices) == 0 }

// SetVertexAttribute sets attribute name of vertex i. Unset vertices read as 0.
func (m *Mesh) SetVertexAttribute(name string, i int, v float64) error {
	if i < 0 || i >= len(m.Vertices) {
		return errors.New(errors.ErrCodeInvalidInput, "vertex %d out of range", i)
	}
	if m.attrs == nil {
		m.attrs = make(map[string][]float64)
	}
	vals, ok := m.attrs[name]
	if !ok {
		vals = make([]float64, len(m.Vertices))
		m.attrs[name] = vals
	}
	vals[i] = v
	return nil
}

// VertexAttribute returns attribute name of vertex i, or 0 if unset.
func (m *Mesh) VertexAttribute(name string, i int) float64 {
	vals, ok := m.attrs[name]
	if !ok || i < 0 || i >= len(vals) {
		return 0
	}
	return vals[i]
}

// AttributeNames returns the names of all attributes in sorted order.
func (m *Mesh) AttributeNames() []string {
	names := make([]string, 0, len(m.attrs))
	for k := range m.attrs {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// VerticesWithAttribute returns the positions of all vertices whose
// attribute equals value, in vertex index order.
func (m *Mesh) VerticesWithAttribute(name string, value float64) []geometry.Point {
	vals := m.attrs[name]
	var out []geometry.Point
	for i, v := range vals {
		if v == value {
			out = append(out, m.Vertices[i])
		}
	}
	return out
}

// BoundaryVertices returns the root boundary: all vertices tagged with
// AttrBoundary == BoundaryValue.
func (m *Mesh) BoundaryVertices() []geometry.Point {
	return m.VerticesWithAttribute(AttrBoundary, BoundaryValue)
}

// MarkBoundaryBelow tags every vertex with z <= zMax as boundary and returns
// how many were tagged.
func (m *Mesh) MarkBoundaryBelow(zMax float64) int {
	n := 0
	for i, v := range m.Vertices {
		if v.Z() <= zMax {
			_ = m.SetVertexAttribute(AttrBoundary, i, BoundaryValue)
			n++
		}
	}
	return n
}

// Bounds returns the axis-aligned bounding box of the vertices.
func (m *Mesh) Bounds() (sdf.Box3, bool) { return geometry.Bounds(m.Vertices) }

// ZRange returns the lowest and highest vertex z. It returns zeros for an empty mesh.
func (m *Mesh) ZRange() (lo, hi float64) {
	box, ok := m.Bounds()
	if !ok {
		return 0, 0
	}
	return box.Min.Z, box.Max.Z
}

// SetVertex moves vertex i to p and drops the cached normals.
func (m *Mesh) SetVertex(i int, p geometry.Point) error {
	if i < 0 || i >= len(m.Vertices) {
		return errors.New(errors.ErrCodeInvalidInput, "vertex %d out of range", i)
	}
	m.Vertices[i] = p
	m.Invalidate()
	return nil
}

// Invalidate drops cached derived data after a direct edit of Vertices or
// Faces.
func (m *Mesh) Invalidate() {
	m.normalsMu.Lock()
	m.normals = nil
	m.normalsMu.Unlock()
}

// VertexNormals returns area-weighted unit vertex normals. Vertices not
// referenced by any face get a zero normal. The result is cached until the
// next SetVertex or Invalidate, or until the vertex count changes. Safe for
// concurrent use.
func (m *Mesh) VertexNormals() []mgl64.Vec3 {
	m.normalsMu.Lock()
	defer m.normalsMu.Unlock()
	if m.normals == nil || len(m.normals) != len(m.Vertices) {
		m.normals = m.computeNormals()
	}
	return m.normals
}

func (m *Mesh) computeNormals() []mgl64.Vec3 {
	normals := make([]mgl64.Vec3, len(m.Vertices))
	for _, f := range m.Faces {
		a, b, c := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		// The cross product's length is twice the triangle area.
		n := b.Sub(a).Cross(c.Sub(a))
		for _, idx := range f {
			normals[idx] = normals[idx].Add(n)
		}
	}
	for i, n := range normals {
		if l := n.Len(); l > 0 {
			normals[i] = n.Mul(1 / l)
		}
	}
	return normals
}

// NearestVertex returns the index of the vertex closest to p and the
// distance to it. It returns -1 and +Inf for an empty mesh.
func (m *Mesh) NearestVertex(p geometry.Point) (int, float64) {
	if len(m.Vertices) == 0 {
		return -1, math.Inf(1)
	}
	return geometry.NearestIndex(m.Vertices, p)
}

// NormalAt returns the normal of the vertex nearest to p, or the zero
// vector when the mesh has no faces.
func (m *Mesh) NormalAt(p geometry.Point) mgl64.Vec3 {
	idx, _ := m.NearestVertex(p)
	if idx < 0 || len(m.Faces) == 0 {
		return mgl64.Vec3{}
	}
	return m.VertexNormals()[idx]
}
