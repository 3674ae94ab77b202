package slicer

import (
	"context"
	"math"

	"github.com/charmbracelet/log"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/geometry"
	"github.com/matzehuels/towerpath/pkg/mesh"
)

// DefaultCells is the grid size of the sampled back-end along the longest
// side of a cross-section.
const DefaultCells = 100

// sampled turns each planar cross-section into a signed distance field and
// traces its zero level with marching squares. Contour points end up about
// one grid cell apart whatever the mesh tessellation. Open cross-section
// curves enclose nothing and are dropped.
type sampled struct {
	logger *log.Logger
	cells  int
}

func (*sampled) Name() string { return string(BackendSampled) }

func (s *sampled) Slice(ctx context.Context, m *mesh.Mesh, levels []float64) ([]*geometry.Layer, error) {
	if m == nil || m.FaceCount() == 0 {
		return nil, errors.New(errors.ErrCodeDataValidity, "mesh has no faces")
	}
	var layers []*geometry.Layer
	for _, z := range levels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		field, ok := newContourField(sliceAt(m, z), s.cells)
		if !ok {
			s.logger.Debug("empty level", "z", z)
			continue
		}
		var lines lineCollector
		render.NewMarchingSquaresUniform(s.cells).Render(field, &lines)
		paths := traceLoops(lines.lines, z, field.tolerance())
		if len(paths) == 0 {
			continue
		}
		layers = append(layers, geometry.NewLayer(paths))
		s.logger.Debug("sampled level", "z", z, "paths", len(paths), "segments", len(lines.lines))
	}
	s.logger.Info("sliced mesh", "levels", len(levels), "layers", len(layers), "cells", s.cells)
	return layers, nil
}

// contourField is the signed distance to a set of closed polygons in the
// xy plane, negative inside (even-odd rule).
type contourField struct {
	loops [][]v2.Vec
	bb    sdf.Box2
	cell  float64
}

func newContourField(paths []geometry.Path, cells int) (*contourField, bool) {
	f := &contourField{}
	first := true
	for _, p := range paths {
		if !p.Closed {
			continue
		}
		loop := make([]v2.Vec, p.Len())
		for i, pt := range p.Points {
			loop[i] = v2.Vec{X: pt.X(), Y: pt.Y()}
			if first {
				f.bb = sdf.Box2{Min: loop[i], Max: loop[i]}
				first = false
			}
			f.bb = f.bb.Include(loop[i])
		}
		f.loops = append(f.loops, loop)
	}
	if len(f.loops) == 0 {
		return nil, false
	}
	f.cell = f.bb.Size().MaxComponent() / float64(cells)
	if f.cell == 0 {
		return nil, false
	}
	// room for the zero level to close around the outermost contour
	f.bb = f.bb.Enlarge(v2.Vec{X: 4 * f.cell, Y: 4 * f.cell})
	return f, true
}

func (f *contourField) BoundingBox() sdf.Box2 { return f.bb }

func (f *contourField) Evaluate(p v2.Vec) float64 {
	d := math.Inf(1)
	inside := false
	for _, loop := range f.loops {
		j := len(loop) - 1
		for i := range loop {
			a, b := loop[j], loop[i]
			d = math.Min(d, segmentDistance(p, a, b))
			if (a.Y > p.Y) != (b.Y > p.Y) && p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
				inside = !inside
			}
			j = i
		}
	}
	if inside {
		return -d
	}
	return d
}

// tolerance is the distance under which two traced points are the same.
func (f *contourField) tolerance() float64 { return f.cell * 1e-6 }

func segmentDistance(p, a, b v2.Vec) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return p.Sub(a).Length()
	}
	t := math.Max(0, math.Min(1, p.Sub(a).Dot(ab)/l2))
	return p.Sub(a.Add(ab.MulScalar(t))).Length()
}

// lineCollector is an sdf.Line2Writer that keeps every line.
type lineCollector struct {
	lines []*sdf.Line2
}

func (c *lineCollector) Write(in []*sdf.Line2) error {
	c.lines = append(c.lines, in...)
	return nil
}

func (c *lineCollector) Close() error { return nil }

// traceLoops joins marching-squares segments that share endpoints into
// paths at height z. Chains that return to their start are closed.
func traceLoops(lines []*sdf.Line2, z, tol float64) []geometry.Path {
	idx := newPointIndex(tol)
	ends := make([][2]int, len(lines))
	adj := make(map[int][]int)
	used := make([]bool, len(lines))
	for i, l := range lines {
		a, b := idx.id(l[0]), idx.id(l[1])
		ends[i] = [2]int{a, b}
		if a == b {
			used[i] = true
			continue
		}
		adj[a] = append(adj[a], i)
		adj[b] = append(adj[b], i)
	}

	var paths []geometry.Path
	for start := range lines {
		if used[start] {
			continue
		}
		used[start] = true
		first, cur := ends[start][0], ends[start][1]
		nodes := []int{first, cur}
		for cur != first {
			next := -1
			for _, li := range adj[cur] {
				if !used[li] {
					next = li
					break
				}
			}
			if next < 0 {
				break
			}
			used[next] = true
			if ends[next][0] == cur {
				cur = ends[next][1]
			} else {
				cur = ends[next][0]
			}
			nodes = append(nodes, cur)
		}
		closed := cur == first
		if closed {
			nodes = nodes[:len(nodes)-1]
		}
		if len(nodes) < 3 {
			continue
		}
		pts := make([]geometry.Point, len(nodes))
		for i, n := range nodes {
			v := idx.points[n]
			pts[i] = geometry.Pt(v.X, v.Y, z)
		}
		paths = append(paths, geometry.Path{Points: pts, Closed: closed})
	}
	return paths
}

// pointIndex assigns ids to 2D points, merging points closer than tol.
type pointIndex struct {
	tol    float64
	points []v2.Vec
	cells  map[[2]int64][]int
}

func newPointIndex(tol float64) *pointIndex {
	return &pointIndex{tol: tol, cells: make(map[[2]int64][]int)}
}

func (x *pointIndex) id(p v2.Vec) int {
	cx, cy := int64(math.Floor(p.X/x.tol)), int64(math.Floor(p.Y/x.tol))
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, i := range x.cells[[2]int64{cx + dx, cy + dy}] {
				if x.points[i].Sub(p).Length() <= x.tol {
					return i
				}
			}
		}
	}
	i := len(x.points)
	x.points = append(x.points, p)
	key := [2]int64{cx, cy}
	x.cells[key] = append(x.cells[key], i)
	return i
}
