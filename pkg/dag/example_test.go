package dag_test

import (
	"fmt"

	"github.com/matzehuels/towerpath/pkg/dag"
)

func ExampleDAG_basic() {
	// Two segments resting on a shared base: 0 → 1, 0 → 2
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: 0})
	_ = g.AddNode(dag.Node{ID: 1})
	_ = g.AddNode(dag.Node{ID: 2})
	_ = g.AddEdge(dag.Edge{From: 0, To: 1})
	_ = g.AddEdge(dag.Edge{From: 0, To: 2})

	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Children of 0:", g.Children(0))
	fmt.Println("Sources:", g.Sources())
	// Output:
	// Nodes: 3
	// Edges: 2
	// Children of 0: [1 2]
	// Sources: [0]
}

func ExampleDAG_TopologicalOrders() {
	g := dag.New(nil)
	for id := range 3 {
		_ = g.AddNode(dag.Node{ID: id})
	}
	_ = g.AddEdge(dag.Edge{From: 0, To: 1})
	_ = g.AddEdge(dag.Edge{From: 0, To: 2})

	orders, complete := g.TopologicalOrders(0)
	fmt.Println(orders, complete)
	// Output:
	// [[0 1 2] [0 2 1]] true
}

func ExampleAssignLayers() {
	g := dag.New(nil)
	for id := range 4 {
		_ = g.AddNode(dag.Node{ID: id})
	}
	_ = g.AddEdge(dag.Edge{From: 0, To: 1})
	_ = g.AddEdge(dag.Edge{From: 1, To: 3})
	_ = g.AddEdge(dag.Edge{From: 2, To: 3})

	dag.AssignLayers(g)
	fmt.Println(dag.Levels(g))
	// Output:
	// [[0 2] [1] [3]]
}
