package dag

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] when the node ID is
	// negative. Segment ids are indices and start at zero.
	ErrInvalidNodeID = errors.New("node ID must not be negative")

	// ErrDuplicateNodeID is returned by [DAG.AddNode] when a node with the
	// same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To node
	// does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrSelfLoop is returned by [DAG.AddEdge] when From and To are equal.
	// A segment can never rest on itself.
	ErrSelfLoop = errors.New("edge connects a node to itself")

	// ErrInvalidEdgeEndpoint is returned by [DAG.Validate] when an edge
	// references a node that doesn't exist. This indicates graph corruption.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrGraphHasCycle is returned by [DAG.Validate] when a cycle is detected.
	// Cycles are detected using depth-first search with white/gray/black coloring.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Metadata stores arbitrary key-value pairs attached to nodes or the graph.
// Metadata maps are never nil - they are automatically initialized to empty
// maps when needed.
type Metadata map[string]any

// Node is a vertex of the graph. Row holds the node's depth once
// [AssignLayers] has run (0 = source).
type Node struct {
	ID   int
	Row  int
	Meta Metadata
}

// Edge is a directed connection From → To. In a support graph it reads
// "From lies under To".
type Edge struct {
	From int
	To   int
	Meta Metadata // never nil after AddEdge
}

// DAG is a directed acyclic graph over integer node ids.
//
// Query results are returned in ascending id order so that every traversal
// built on top of the graph is deterministic.
//
// The zero value is not usable - use New to create a valid DAG instance.
// DAG is not safe for concurrent use without external synchronization.
type DAG struct {
	nodes    map[int]*Node
	edges    []Edge
	outgoing map[int][]int // nodeID -> children IDs, sorted
	incoming map[int][]int // nodeID -> parent IDs, sorted
	rows     map[int][]*Node
	meta     Metadata
}

// New creates an empty DAG with optional graph-level metadata.
func New(meta Metadata) *DAG {
	if meta == nil {
		meta = Metadata{}
	}
	return &DAG{
		nodes:    make(map[int]*Node),
		outgoing: make(map[int][]int),
		incoming: make(map[int][]int),
		rows:     make(map[int][]*Node),
		meta:     meta,
	}
}

// Meta returns the graph-level metadata map.
func (d *DAG) Meta() Metadata { return d.meta }

// AddNode adds a node to the graph and indexes it by its Row.
// Returns ErrInvalidNodeID for a negative ID, or ErrDuplicateNodeID
// if a node with the same ID already exists.
func (d *DAG) AddNode(n Node) error {
	if n.ID < 0 {
		return ErrInvalidNodeID
	}
	if _, exists := d.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	node := &n
	d.nodes[node.ID] = node
	d.rows[node.Row] = append(d.rows[node.Row], node)
	return nil
}

// SetRows updates the row assignments for nodes and rebuilds the row index.
// Nodes not present in the rows map retain their current row assignment.
func (d *DAG) SetRows(rows map[int]int) {
	d.rows = make(map[int][]*Node)
	for _, id := range d.NodeIDs() {
		n := d.nodes[id]
		if newRow, ok := rows[n.ID]; ok {
			n.Row = newRow
		}
		d.rows[n.Row] = append(d.rows[n.Row], n)
	}
}

// AddEdge adds a directed edge between two existing nodes.
// Adding an edge that already exists is a no-op.
func (d *DAG) AddEdge(e Edge) error {
	if _, ok := d.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := d.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if e.From == e.To {
		return ErrSelfLoop
	}
	if _, found := slices.BinarySearch(d.outgoing[e.From], e.To); found {
		return nil
	}
	if e.Meta == nil {
		e.Meta = Metadata{}
	}
	d.edges = append(d.edges, e)
	d.outgoing[e.From] = insertSorted(d.outgoing[e.From], e.To)
	d.incoming[e.To] = insertSorted(d.incoming[e.To], e.From)
	return nil
}

func insertSorted(s []int, v int) []int {
	i, _ := slices.BinarySearch(s, v)
	return slices.Insert(s, i, v)
}

// RemoveEdge removes the edge from→to if it exists.
func (d *DAG) RemoveEdge(from, to int) {
	d.edges = slices.DeleteFunc(d.edges, func(e Edge) bool { return e.From == from && e.To == to })
	d.outgoing[from] = slices.DeleteFunc(d.outgoing[from], func(s int) bool { return s == to })
	d.incoming[to] = slices.DeleteFunc(d.incoming[to], func(s int) bool { return s == from })
}

// Nodes returns all nodes in ascending ID order. The returned slice contains
// pointers to the actual node structs, so modifications affect the graph.
func (d *DAG) Nodes() []*Node {
	nodes := make([]*Node, 0, len(d.nodes))
	for _, id := range d.NodeIDs() {
		nodes = append(nodes, d.nodes[id])
	}
	return nodes
}

// NodeIDs returns all node IDs in ascending order.
func (d *DAG) NodeIDs() []int {
	return slices.Sorted(maps.Keys(d.nodes))
}

// Edges returns a copy of all edges in insertion order.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// NodeCount returns the number of nodes in the graph.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges in the graph.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// Children returns the IDs this node has edges to, in ascending order.
// The returned slice is a copy.
func (d *DAG) Children(id int) []int { return slices.Clone(d.outgoing[id]) }

// Parents returns the IDs with edges into this node, in ascending order.
// The returned slice is a copy.
func (d *DAG) Parents(id int) []int { return slices.Clone(d.incoming[id]) }

// OutDegree returns the number of outgoing edges from the node.
func (d *DAG) OutDegree(id int) int { return len(d.outgoing[id]) }

// InDegree returns the number of incoming edges to the node.
func (d *DAG) InDegree(id int) int { return len(d.incoming[id]) }

// Node returns the node with the given ID and true, or nil and false if not found.
func (d *DAG) Node(id int) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// NodesInRow returns all nodes assigned to the given row, in the order they
// were indexed.
func (d *DAG) NodesInRow(row int) []*Node { return d.rows[row] }

// RowCount returns the number of distinct rows in the graph.
func (d *DAG) RowCount() int { return len(d.rows) }

// RowIDs returns all row indices in sorted ascending order.
func (d *DAG) RowIDs() []int {
	return slices.Sorted(maps.Keys(d.rows))
}

// Sources returns the IDs of nodes with no incoming edges, ascending.
func (d *DAG) Sources() []int {
	var sources []int
	for _, id := range d.NodeIDs() {
		if len(d.incoming[id]) == 0 {
			sources = append(sources, id)
		}
	}
	return sources
}

// Sinks returns the IDs of nodes with no outgoing edges, ascending.
func (d *DAG) Sinks() []int {
	var sinks []int
	for _, id := range d.NodeIDs() {
		if len(d.outgoing[id]) == 0 {
			sinks = append(sinks, id)
		}
	}
	return sinks
}

// Validate checks graph integrity and returns nil if valid.
// Returns ErrInvalidEdgeEndpoint if an edge references a missing node or
// ErrGraphHasCycle if a cycle is detected.
//
// Cycle detection runs in O(N+E) time using depth-first search.
func (d *DAG) Validate() error {
	for _, e := range d.edges {
		_, okS := d.nodes[e.From]
		_, okD := d.nodes[e.To]
		if !okS || !okD {
			return ErrInvalidEdgeEndpoint
		}
	}
	return d.detectCycles()
}

func (d *DAG) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[int]int, len(d.nodes))
	var hasCycle bool

	var dfs func(id int)
	dfs = func(id int) {
		color[id] = gray
		for _, child := range d.outgoing[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				hasCycle = true
			}
			if hasCycle {
				return
			}
		}
		color[id] = black
	}

	for _, id := range d.NodeIDs() {
		if color[id] == white {
			dfs(id)
			if hasCycle {
				return ErrGraphHasCycle
			}
		}
	}
	return nil
}

// PosMap creates a position lookup map from a slice of node IDs.
// The returned map maps each ID to its index in the slice.
func PosMap(ids []int) map[int]int {
	m := make(map[int]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}
