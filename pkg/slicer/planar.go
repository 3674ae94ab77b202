package slicer

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/geometry"
	"github.com/matzehuels/towerpath/pkg/mesh"
)

// planar intersects triangles with horizontal planes.
//
// A vertex exactly on a plane counts as above it, so every crossing edge
// has one endpoint strictly below. Crossing points are identified by the
// mesh edge they lie on, which makes stitching exact: two triangles sharing
// an edge produce the same node.
type planar struct {
	logger *log.Logger
}

func (*planar) Name() string { return string(BackendPlanar) }

func (s *planar) Slice(ctx context.Context, m *mesh.Mesh, levels []float64) ([]*geometry.Layer, error) {
	if m == nil || m.FaceCount() == 0 {
		return nil, errors.New(errors.ErrCodeDataValidity, "mesh has no faces")
	}
	var layers []*geometry.Layer
	for i, z := range levels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		paths := sliceAt(m, z)
		if len(paths) == 0 {
			s.logger.Debug("empty level", "z", z)
			continue
		}
		layers = append(layers, geometry.NewLayer(paths))
		s.logger.Debug("cut level", "z", z, "paths", len(paths), "done", i+1, "of", len(levels))
	}
	s.logger.Info("sliced mesh", "levels", len(levels), "layers", len(layers))
	return layers, nil
}

// edgeKey is an undirected mesh edge, lower vertex index first.
type edgeKey [2]int

func newEdgeKey(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// sliceAt returns the contours of m at height z.
func sliceAt(m *mesh.Mesh, z float64) []geometry.Path {
	var segs [][2]edgeKey
	adj := make(map[edgeKey][]int)
	var firstSeen []edgeKey

	for _, f := range m.Faces {
		var cut []edgeKey
		for k := range 3 {
			a, b := f[k], f[(k+1)%3]
			if above(m, a, z) != above(m, b, z) {
				cut = append(cut, newEdgeKey(a, b))
			}
		}
		if len(cut) != 2 || cut[0] == cut[1] {
			continue
		}
		idx := len(segs)
		segs = append(segs, [2]edgeKey{cut[0], cut[1]})
		for _, e := range cut {
			if _, ok := adj[e]; !ok {
				firstSeen = append(firstSeen, e)
			}
			adj[e] = append(adj[e], idx)
		}
	}
	if len(segs) == 0 {
		return nil
	}

	used := make([]bool, len(segs))
	var paths []geometry.Path
	emit := func(nodes []edgeKey, closed bool) {
		if closed && len(nodes) < 3 {
			return
		}
		pts := make([]geometry.Point, len(nodes))
		for i, e := range nodes {
			pts[i] = crossing(m, e, z)
		}
		paths = append(paths, geometry.Path{Points: pts, Closed: closed})
	}

	// open chains start at dangling ends
	for _, e := range firstSeen {
		if len(adj[e])%2 == 1 && hasUnused(adj[e], used) {
			nodes, closed := walk(e, segs, adj, used)
			emit(nodes, closed)
		}
	}
	for i := range segs {
		if !used[i] {
			nodes, closed := walk(segs[i][0], segs, adj, used)
			emit(nodes, closed)
		}
	}
	return paths
}

func above(m *mesh.Mesh, v int, z float64) bool { return m.Vertices[v].Z() >= z }

func hasUnused(idx []int, used []bool) bool {
	for _, i := range idx {
		if !used[i] {
			return true
		}
	}
	return false
}

// walk follows unused segments from start until it runs out or returns to
// start.
func walk(start edgeKey, segs [][2]edgeKey, adj map[edgeKey][]int, used []bool) ([]edgeKey, bool) {
	nodes := []edgeKey{start}
	cur := start
	for {
		next := -1
		for _, i := range adj[cur] {
			if !used[i] {
				next = i
				break
			}
		}
		if next < 0 {
			return nodes, false
		}
		used[next] = true
		other := segs[next][0]
		if other == cur {
			other = segs[next][1]
		}
		if other == start {
			return nodes, true
		}
		nodes = append(nodes, other)
		cur = other
	}
}

// crossing returns where edge e meets the plane at z.
func crossing(m *mesh.Mesh, e edgeKey, z float64) geometry.Point {
	a, b := m.Vertices[e[0]], m.Vertices[e[1]]
	t := (z - a.Z()) / (b.Z() - a.Z())
	p := a.Add(b.Sub(a).Mul(t))
	return geometry.Pt(p.X(), p.Y(), z)
}
