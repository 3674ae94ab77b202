// Package printorg organizes vertical layers into an ordered, attributed
// set of print points for curved (non-planar) printing.
//
// # Overview
//
// A curved print is cut into segments: columns of stacked paths that are
// printed bottom to top. Some segments start on the print bed, others on top
// of a segment printed earlier. The [Organizer] works out which segment rests
// on which, picks an order in which every support is printed first, and turns
// every input point into a [geometry.PrintPoint] carrying the layer height
// and surface normal downstream export needs.
//
// # Stages
//
// An organization run moves through fixed stages; each stage consumes the
// previous one's output:
//
//	INIT → GRAPH_BUILT → BOUNDARIES_COMPUTED → CONNECTIVITY_COMPUTED
//	     → ORDER_SELECTED → PRINTPOINTS_EXPORTED
//
// [Organizer.Organize] runs them all. The individual stage methods exist for
// callers that want to inspect intermediate state; calling them out of order
// is a configuration error. Any failure aborts the run.
//
// # Support Graph
//
// [SegmentsDirectedGraph] adds an edge A → B when B's first path lies within
// the distance threshold of A's last path and does not sit below it. A
// segment with no parent must start on the mesh's boundary-tagged vertices;
// otherwise the print region is unsupported and construction fails with an
// [errors.ErrCodeTopology] error.
//
// # Correspondence
//
// [SegmentConnectivity] matches every point to the nearest point of the path
// beneath it (or of the segment's [BaseBoundary] for the first path), lowest
// index first on ties. The distance to the match is the point's layer height.
//
// # Order Selection
//
// Valid orders are enumerated up to [Params.MaxOrders]. An [OrderPolicy]
// picks one: [FirstOrder] takes the first enumerated order, [MinTravel] the
// one with the least travel between consecutive segments.
//
// # Velocity
//
// [AssignVelocity] runs after export and only writes PrintPoint.Velocity.
package printorg
