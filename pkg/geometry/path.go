package geometry

import (
	"slices"

	"github.com/matzehuels/towerpath/pkg/errors"
)

// Path is an ordered polyline. When Closed is set the last point implicitly
// connects back to the first.
type Path struct {
	Points []Point
	Closed bool
}

// NewPath validates and returns a path over pts. The slice is copied.
// An empty path, or a closed path with fewer than three points, is a
// data-validity error.
func NewPath(pts []Point, closed bool) (Path, error) {
	p := Path{Points: slices.Clone(pts), Closed: closed}
	if err := p.Validate(); err != nil {
		return Path{}, err
	}
	return p, nil
}

// Validate checks the path invariants.
func (p Path) Validate() error {
	if len(p.Points) == 0 {
		return errors.New(errors.ErrCodeDataValidity, "path has no points")
	}
	if p.Closed && len(p.Points) < 3 {
		return errors.New(errors.ErrCodeDataValidity, "closed path needs at least 3 points, has %d", len(p.Points))
	}
	return nil
}

// Len returns the number of points.
func (p Path) Len() int { return len(p.Points) }

// First returns the first point. It panics on an empty path.
func (p Path) First() Point { return p.Points[0] }

// Last returns the last point. It panics on an empty path.
func (p Path) Last() Point { return p.Points[len(p.Points)-1] }

// Centroid returns the mean of the path's points.
func (p Path) Centroid() (Point, bool) { return Centroid(p.Points) }

// Length returns the polyline length, including the closing edge for closed paths.
func (p Path) Length() float64 {
	var total float64
	for i := 1; i < len(p.Points); i++ {
		total += Distance(p.Points[i-1], p.Points[i])
	}
	if p.Closed && len(p.Points) > 1 {
		total += Distance(p.Last(), p.First())
	}
	return total
}

// Reversed returns a copy of the path with its point order reversed.
func (p Path) Reversed() Path {
	pts := slices.Clone(p.Points)
	slices.Reverse(pts)
	return Path{Points: pts, Closed: p.Closed}
}

// Clone returns a deep copy of the path.
func (p Path) Clone() Path {
	return Path{Points: slices.Clone(p.Points), Closed: p.Closed}
}
