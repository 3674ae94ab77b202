package printorg

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/geometry"
	"github.com/matzehuels/towerpath/pkg/mesh"
)

// ConnectivityParams tunes [SegmentConnectivity].
type ConnectivityParams struct {
	// Frames attaches a tool frame built from the mesh normal to each point.
	Frames bool
}

// SegmentConnectivity turns one segment's paths into print points, matching
// every point to the layer beneath it.
//
// Each point of path j is matched to the nearest point of path j-1, or of
// the base boundary when j is 0. Ties go to the lowest index, so the match
// is deterministic and defined for any pair of point counts.
type SegmentConnectivity struct {
	paths    []geometry.Path
	boundary *BaseBoundary
	mesh     *mesh.Mesh
	params   ConnectivityParams

	printpoints [][]*geometry.PrintPoint
	computed    bool
}

// NewSegmentConnectivity prepares the computation. Nothing is evaluated
// until [SegmentConnectivity.Compute].
func NewSegmentConnectivity(paths []geometry.Path, boundary *BaseBoundary, m *mesh.Mesh, params ConnectivityParams) *SegmentConnectivity {
	return &SegmentConnectivity{
		paths:    paths,
		boundary: boundary,
		mesh:     m,
		params:   params,
	}
}

// Compute fills the print points. It is idempotent: once it has succeeded,
// further calls return nil without recomputing. On failure no print points
// are stored.
func (c *SegmentConnectivity) Compute() error {
	if c.computed {
		return nil
	}
	if err := c.validate(); err != nil {
		return err
	}

	below := c.boundary.points
	out := make([][]*geometry.PrintPoint, len(c.paths))
	for j, path := range c.paths {
		row := make([]*geometry.PrintPoint, len(path.Points))
		for k, p := range path.Points {
			idx, d := geometry.NearestIndex(below, p)
			if idx < 0 {
				return errors.New(errors.ErrCodeDataValidity, "path %d point %d has nothing to rest on", j, k)
			}
			row[k] = c.newPrintPoint(p, d, idx)
		}
		out[j] = row
		below = path.Points
	}

	c.printpoints = out
	c.computed = true
	return nil
}

func (c *SegmentConnectivity) validate() error {
	if len(c.paths) == 0 {
		return errors.New(errors.ErrCodeDataValidity, "segment has no paths")
	}
	for j, path := range c.paths {
		if path.Len() == 0 {
			return errors.New(errors.ErrCodeDataValidity, "path %d has no points", j)
		}
		for k, p := range path.Points {
			if !finite(p) {
				return errors.New(errors.ErrCodeDataValidity, "path %d point %d is not finite", j, k)
			}
		}
	}
	if c.boundary == nil || c.boundary.Len() == 0 {
		return errors.New(errors.ErrCodeDataValidity, "base boundary is empty")
	}
	return nil
}

func (c *SegmentConnectivity) newPrintPoint(p geometry.Point, height float64, support int) *geometry.PrintPoint {
	var normal mgl64.Vec3
	if c.mesh != nil {
		normal = c.mesh.NormalAt(p)
	}
	pp := &geometry.PrintPoint{
		Pt:           p,
		LayerHeight:  height,
		SupportIndex: support,
		MeshNormal:   normal,
	}
	if c.params.Frames {
		pp.Frame = geometry.NewFrame(normal)
	}
	return pp
}

func finite(p geometry.Point) bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Computed reports whether Compute has succeeded.
func (c *SegmentConnectivity) Computed() bool { return c.computed }

// Paths returns the segment's paths in print order.
func (c *SegmentConnectivity) Paths() []geometry.Path { return c.paths }

// PrintPoints returns the print points of path j, or nil if j is out of
// range or Compute has not run.
func (c *SegmentConnectivity) PrintPoints(j int) []*geometry.PrintPoint {
	if j < 0 || j >= len(c.printpoints) {
		return nil
	}
	return c.printpoints[j]
}

// PrintPoint returns point k of path j.
func (c *SegmentConnectivity) PrintPoint(j, k int) (*geometry.PrintPoint, bool) {
	row := c.PrintPoints(j)
	if k < 0 || k >= len(row) {
		return nil, false
	}
	return row[k], true
}
