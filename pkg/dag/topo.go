package dag

import "slices"

// DefaultOrderLimit bounds [DAG.TopologicalOrders] when the caller passes a
// non-positive limit. The number of orders grows factorially with the number
// of mutually independent nodes.
const DefaultOrderLimit = 1000

// TopologicalOrders enumerates orderings of all node IDs in which every edge
// source precedes its target.
//
// Orders are produced in lexicographic order of their ID sequences, so the
// first order is the one that always picks the smallest available ID. At most
// limit orders are returned (DefaultOrderLimit if limit <= 0). The boolean
// result reports whether the enumeration was complete; false means more
// orders exist beyond the limit.
//
// For an acyclic graph at least one order is always returned. For a graph
// with a cycle no order exists and the result is empty.
func (d *DAG) TopologicalOrders(limit int) ([][]int, bool) {
	if limit <= 0 {
		limit = DefaultOrderLimit
	}
	ids := d.NodeIDs()
	inDegree := make(map[int]int, len(ids))
	for _, id := range ids {
		inDegree[id] = len(d.incoming[id])
	}

	var (
		orders    [][]int
		truncated bool
		current   = make([]int, 0, len(ids))
		placed    = make(map[int]bool, len(ids))
	)

	var visit func() bool
	visit = func() bool {
		if len(current) == len(ids) {
			if len(orders) == limit {
				truncated = true
				return false
			}
			orders = append(orders, slices.Clone(current))
			return true
		}
		for _, id := range ids {
			if placed[id] || inDegree[id] != 0 {
				continue
			}
			placed[id] = true
			current = append(current, id)
			for _, c := range d.outgoing[id] {
				inDegree[c]--
			}

			keepGoing := visit()

			for _, c := range d.outgoing[id] {
				inDegree[c]++
			}
			current = current[:len(current)-1]
			placed[id] = false

			if !keepGoing {
				return false
			}
		}
		return true
	}

	if len(ids) == 0 {
		return [][]int{{}}, true
	}
	visit()
	return orders, !truncated
}

// IsTopologicalOrder reports whether order contains every node exactly once
// with each edge source before its target.
func (d *DAG) IsTopologicalOrder(order []int) bool {
	if len(order) != len(d.nodes) {
		return false
	}
	pos := PosMap(order)
	if len(pos) != len(order) {
		return false
	}
	for id := range d.nodes {
		if _, ok := pos[id]; !ok {
			return false
		}
	}
	for _, e := range d.edges {
		if pos[e.From] >= pos[e.To] {
			return false
		}
	}
	return true
}

func sortedCopy(s []int) []int {
	out := slices.Clone(s)
	slices.Sort(out)
	return out
}
