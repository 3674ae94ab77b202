package dag

// AssignLayers assigns every node a row equal to its depth: the length of
// the longest path from any source.
//
// AssignLayers uses a longest-path algorithm via topological sort (Kahn's
// algorithm). Each node is placed at one plus the maximum row of any of its
// parents, ensuring that:
//   - Source nodes (no incoming edges) are at row 0
//   - All parents are strictly above their children
//
// Existing row assignments are overwritten. AssignLayers assumes the graph
// is acyclic; nodes on a cycle never reach zero in-degree and stay at row 0.
// Run [DAG.Validate] first.
//
// Time complexity is O(V + E).
func AssignLayers(g *DAG) {
	ids := g.NodeIDs()
	inDegree := make(map[int]int, len(ids))
	rows := make(map[int]int, len(ids))
	queue := make([]int, 0, len(ids))

	for _, id := range ids {
		degree := g.InDegree(id)
		inDegree[id] = degree
		if degree == 0 {
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, child := range g.outgoing[curr] {
			if row := rows[curr] + 1; row > rows[child] {
				rows[child] = row
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	g.SetRows(rows)
}

// Levels returns node IDs grouped by row, rows ascending and IDs ascending
// within a row. Nodes in the same level share no edge, so they can be
// processed independently once every earlier level is done.
func Levels(g *DAG) [][]int {
	rowIDs := g.RowIDs()
	levels := make([][]int, 0, len(rowIDs))
	for _, r := range rowIDs {
		var level []int
		for _, n := range g.NodesInRow(r) {
			level = append(level, n.ID)
		}
		levels = append(levels, sortedCopy(level))
	}
	return levels
}
