package printorg

import (
	stderrors "errors"
	"fmt"
	"math"

	"github.com/charmbracelet/log"
	"github.com/deadsy/sdfx/sdf"

	"github.com/matzehuels/towerpath/pkg/dag"
	"github.com/matzehuels/towerpath/pkg/errors"
	"github.com/matzehuels/towerpath/pkg/geometry"
	"github.com/matzehuels/towerpath/pkg/mesh"
)

// GraphOptions tunes [NewSegmentsDirectedGraph].
type GraphOptions struct {
	// MaxOrders caps [SegmentsDirectedGraph.AllTopologicalOrders].
	// Zero means dag.DefaultOrderLimit.
	MaxOrders int

	Logger *log.Logger
}

// SegmentsDirectedGraph records which segment rests on which. Node ids are
// positions in the layer slice it was built from. An edge A → B means B is
// printed on top of A.
type SegmentsDirectedGraph struct {
	g         *dag.DAG
	threshold float64
	maxOrders int
	logger    *log.Logger

	orders     [][]int
	complete   bool
	enumerated bool
}

// NewSegmentsDirectedGraph discovers the support relation between layers.
//
// B gets an edge from A when the closest pair of points between B's first
// path and A's last path is at most maxD apart, B's first path does not sit
// more than maxD below A's last path, and B starts higher than A starts. A segment without parents must
// start within maxD of the mesh's boundary vertices, otherwise the print
// region is unsupported and a topology error is returned. A single segment
// is always its own root.
func NewSegmentsDirectedGraph(m *mesh.Mesh, layers []*geometry.VerticalLayer, maxD float64, opts GraphOptions) (*SegmentsDirectedGraph, error) {
	if err := errors.ValidatePositive("max_layer_height", maxD); err != nil {
		return nil, err
	}
	if len(layers) == 0 {
		return nil, errors.New(errors.ErrCodeConfiguration, "no vertical layers to organize")
	}
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger()
	}

	sg := &SegmentsDirectedGraph{
		g:         dag.New(dag.Metadata{"max_d_threshold": maxD}),
		threshold: maxD,
		maxOrders: opts.MaxOrders,
		logger:    logger,
	}

	ends := make([]segmentEnds, len(layers))
	for i, vl := range layers {
		e, err := newSegmentEnds(i, vl)
		if err != nil {
			return nil, err
		}
		ends[i] = e
		if err := sg.g.AddNode(dag.Node{ID: i, Meta: dag.Metadata{"paths": len(vl.Paths)}}); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "add segment %d", i)
		}
	}

	if len(layers) > 1 {
		if err := sg.discoverEdges(ends); err != nil {
			return nil, err
		}
		if err := sg.checkRoots(m, ends); err != nil {
			return nil, err
		}
	}

	if err := sg.g.Validate(); err != nil {
		if stderrors.Is(err, dag.ErrGraphHasCycle) {
			return nil, errors.Wrap(errors.ErrCodeTopology, err, "segments support each other in a cycle")
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "segment graph")
	}
	dag.AssignLayers(sg.g)

	logger.Debug("built segment graph", "segments", sg.g.NodeCount(), "edges", sg.g.EdgeCount(), "roots", sg.Roots())
	return sg, nil
}

// segmentEnds caches the first and last path of a segment with their bounds.
type segmentEnds struct {
	bottom, top       []geometry.Point
	bottomBox, topBox sdf.Box3
}

func newSegmentEnds(i int, vl *geometry.VerticalLayer) (segmentEnds, error) {
	if vl == nil {
		return segmentEnds{}, errors.New(errors.ErrCodeConfiguration, "segment %d is nil", i)
	}
	bottom, ok := vl.Bottom()
	top, _ := vl.Top()
	if !ok || bottom.Len() == 0 || top.Len() == 0 {
		return segmentEnds{}, errors.New(errors.ErrCodeDataValidity, "segment %d has no points", i)
	}
	bb, _ := geometry.Bounds(bottom.Points)
	tb, _ := geometry.Bounds(top.Points)
	return segmentEnds{bottom: bottom.Points, top: top.Points, bottomBox: bb, topBox: tb}, nil
}

func (sg *SegmentsDirectedGraph) discoverEdges(ends []segmentEnds) error {
	for a := range ends {
		for b := range ends {
			if a == b {
				continue
			}
			if !sg.restsOn(ends[b], ends[a]) {
				continue
			}
			if err := sg.g.AddEdge(dag.Edge{From: a, To: b}); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "add edge %d -> %d", a, b)
			}
		}
	}
	return nil
}

// restsOn reports whether segment child is printed on top of parent.
func (sg *SegmentsDirectedGraph) restsOn(child, parent segmentEnds) bool {
	if geometry.MeanZ(child.bottom) <= geometry.MeanZ(parent.bottom) {
		return false
	}
	if !geometry.BoxesOverlap(child.bottomBox, parent.topBox, sg.threshold) {
		return false
	}
	if geometry.MeanZ(child.bottom) < geometry.MeanZ(parent.top)-sg.threshold {
		return false
	}
	return geometry.MinDistance(child.bottom, parent.top) <= sg.threshold
}

func (sg *SegmentsDirectedGraph) checkRoots(m *mesh.Mesh, ends []segmentEnds) error {
	var rootPts []geometry.Point
	if m != nil {
		rootPts = m.BoundaryVertices()
	}
	for _, id := range sg.g.Sources() {
		d := geometry.MinDistance(ends[id].bottom, rootPts)
		if d > sg.threshold {
			return errors.New(errors.ErrCodeTopology,
				"segment %d rests on no other segment and is %s from the root boundary (threshold %g)",
				id, fmtDistance(d), sg.threshold)
		}
	}
	return nil
}

func fmtDistance(d float64) string {
	if math.IsInf(d, 1) {
		return "infinitely far"
	}
	return fmt.Sprintf("%.3g", d)
}

// Len returns the number of segments.
func (sg *SegmentsDirectedGraph) Len() int { return sg.g.NodeCount() }

// ParentsOf returns the segments i rests on, ascending. Empty means i is a
// root and starts on the mesh boundary.
func (sg *SegmentsDirectedGraph) ParentsOf(i int) []int { return sg.g.Parents(i) }

// ChildrenOf returns the segments resting on i, ascending.
func (sg *SegmentsDirectedGraph) ChildrenOf(i int) []int { return sg.g.Children(i) }

// Roots returns the segments with no parents, ascending.
func (sg *SegmentsDirectedGraph) Roots() []int { return sg.g.Sources() }

// IsRoot reports whether i has no parents.
func (sg *SegmentsDirectedGraph) IsRoot(i int) bool { return sg.g.InDegree(i) == 0 }

// EdgeCount returns the number of support edges.
func (sg *SegmentsDirectedGraph) EdgeCount() int { return sg.g.EdgeCount() }

// Edges returns all support edges as [from, to] pairs.
func (sg *SegmentsDirectedGraph) Edges() [][2]int {
	out := make([][2]int, 0, sg.g.EdgeCount())
	for _, e := range sg.g.Edges() {
		out = append(out, [2]int{e.From, e.To})
	}
	return out
}

// Depths groups segment ids by graph depth. Segments in one group never
// rest on each other.
func (sg *SegmentsDirectedGraph) Depths() [][]int { return dag.Levels(sg.g) }

// AllTopologicalOrders returns the print orders in which every segment
// comes after everything it rests on, up to the configured cap. The result
// is computed once. When the cap cuts enumeration short a warning is logged
// and [SegmentsDirectedGraph.Truncated] reports true.
func (sg *SegmentsDirectedGraph) AllTopologicalOrders() [][]int {
	if !sg.enumerated {
		sg.orders, sg.complete = sg.g.TopologicalOrders(sg.maxOrders)
		sg.enumerated = true
		if !sg.complete {
			sg.logger.Warn("topological order enumeration truncated", "limit", len(sg.orders))
		}
	}
	return sg.orders
}

// Truncated reports whether more orders exist than were enumerated.
func (sg *SegmentsDirectedGraph) Truncated() bool {
	sg.AllTopologicalOrders()
	return !sg.complete
}

// IsValidOrder reports whether order places every segment after its parents.
func (sg *SegmentsDirectedGraph) IsValidOrder(order []int) bool {
	return sg.g.IsTopologicalOrder(order)
}

// DOT renders the graph in Graphviz DOT format with roots highlighted.
func (sg *SegmentsDirectedGraph) DOT() string {
	roots := make(map[int]bool)
	for _, r := range sg.Roots() {
		roots[r] = true
	}
	return dag.ToDOT(sg.g, dag.DOTOptions{
		Label:     segmentLabel,
		Detailed:  true,
		Highlight: roots,
	})
}

func segmentLabel(id int) string { return fmt.Sprintf("layer_%d", id) }

func pathLabel(j int) string { return fmt.Sprintf("path_%d", j) }
