package geometry

import "fmt"

// LayerKind distinguishes horizontal slices from vertically stacked segments.
type LayerKind string

const (
	// KindHorizontal marks a planar slice: all paths roughly share one z.
	KindHorizontal LayerKind = "horizontal_layer"
	// KindVertical marks a segment: paths stacked in deposition order.
	KindVertical LayerKind = "vertical_layer"
)

// Valid reports whether k is a known kind.
func (k LayerKind) Valid() bool { return k == KindHorizontal || k == KindVertical }

// PathGroup is an ordered collection of paths with a known layering kind.
// It is implemented by *Layer and *VerticalLayer.
type PathGroup interface {
	Kind() LayerKind
	PathList() []Path
}

// Layer is a horizontal slice: an ordered group of approximately coplanar paths.
type Layer struct {
	Paths []Path
}

// NewLayer returns a layer over paths.
func NewLayer(paths []Path) *Layer { return &Layer{Paths: paths} }

// Kind implements PathGroup.
func (l *Layer) Kind() LayerKind { return KindHorizontal }

// PathList implements PathGroup.
func (l *Layer) PathList() []Path { return l.Paths }

// TotalPoints returns the number of points across all paths.
func (l *Layer) TotalPoints() int { return totalPoints(l.Paths) }

func (l *Layer) String() string { return fmt.Sprintf("<Layer with %d paths>", len(l.Paths)) }

// VerticalLayer is a segment: one vertically continuous column of material
// whose paths are stored bottom to top.
//
// The head centroid is the centroid of the most recently appended path. It
// is recomputed inside Append, so it is never stale as long as paths are
// added through Append rather than by editing Paths directly.
type VerticalLayer struct {
	ID    int
	Paths []Path

	head    Point
	hasHead bool
}

// NewVerticalLayer returns an empty segment with the given id.
func NewVerticalLayer(id int) *VerticalLayer { return &VerticalLayer{ID: id} }

// Kind implements PathGroup.
func (v *VerticalLayer) Kind() LayerKind { return KindVertical }

// PathList implements PathGroup.
func (v *VerticalLayer) PathList() []Path { return v.Paths }

// Append adds p on top of the segment and refreshes the head centroid.
func (v *VerticalLayer) Append(p Path) {
	v.Paths = append(v.Paths, p)
	v.refreshHead()
}

func (v *VerticalLayer) refreshHead() {
	if len(v.Paths) == 0 {
		v.head, v.hasHead = Point{}, false
		return
	}
	v.head, v.hasHead = v.Paths[len(v.Paths)-1].Centroid()
}

// HeadCentroid returns the centroid of the top path. It reports false while
// the segment is empty.
func (v *VerticalLayer) HeadCentroid() (Point, bool) { return v.head, v.hasHead }

// Bottom returns the first (lowest) path. It reports false for an empty segment.
func (v *VerticalLayer) Bottom() (Path, bool) {
	if len(v.Paths) == 0 {
		return Path{}, false
	}
	return v.Paths[0], true
}

// Top returns the last (highest) path. It reports false for an empty segment.
func (v *VerticalLayer) Top() (Path, bool) {
	if len(v.Paths) == 0 {
		return Path{}, false
	}
	return v.Paths[len(v.Paths)-1], true
}

// TotalPoints returns the number of points across all paths.
func (v *VerticalLayer) TotalPoints() int { return totalPoints(v.Paths) }

func (v *VerticalLayer) String() string {
	return fmt.Sprintf("<VerticalLayer %d with %d paths>", v.ID, len(v.Paths))
}

func totalPoints(paths []Path) int {
	n := 0
	for _, p := range paths {
		n += len(p.Points)
	}
	return n
}
