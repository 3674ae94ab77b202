// Package dag provides a small directed acyclic graph keyed by integer node
// ids, used to describe which print segments rest on which.
//
// # Basic Usage
//
// Create a graph with [New], add nodes with [DAG.AddNode] and edges with
// [DAG.AddEdge]. An edge From → To means From must be printed before To:
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: 0})
//	g.AddNode(dag.Node{ID: 1})
//	g.AddEdge(dag.Edge{From: 0, To: 1})
//
// All queries ([DAG.Children], [DAG.Parents], [DAG.Sources], [DAG.NodeIDs])
// return ids in ascending order. Nothing in the package depends on map
// iteration order.
//
// # Depths
//
// [AssignLayers] stores each node's longest-path depth in [Node.Row].
// [Levels] groups ids by depth; nodes in one level are independent of each
// other.
//
// # Orders
//
// [DAG.TopologicalOrders] enumerates valid print orders in lexicographic
// order up to a caller-supplied limit and reports whether it stopped early.
// [DAG.IsTopologicalOrder] checks a single candidate.
//
// # Validation
//
// [DAG.Validate] checks that every edge references existing nodes and that
// the graph has no cycles.
//
// # Visualization
//
// [ToDOT] writes Graphviz DOT and [RenderSVG] renders it through the
// embedded Graphviz engine.
package dag
