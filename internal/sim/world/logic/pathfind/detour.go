package pathfind

import "undercroft.game/internal/sim/grid"

// DetourStep looks for a passable first step from start that eventually
// reduces the Chebyshev distance to target within maxDepth steps. Neighbor
// order is fixed so the choice is deterministic.
//
// Returns the direction of the first step on success.
func DetourStep(start, target grid.Point, maxDepth int, passable func(grid.Point) bool) (grid.Direction, bool) {
	if maxDepth <= 0 {
		return 0, false
	}
	startDist := grid.Distance(start, target)

	type qItem struct {
		p     grid.Point
		depth int
		first grid.Direction
	}

	visited := make(map[grid.Point]bool, 256)
	visited[start] = true

	queue := make([]qItem, 0, 256)
	for _, d := range grid.Directions {
		np := start.Add(d)
		if !passable(np) {
			continue
		}
		visited[np] = true
		queue = append(queue, qItem{p: np, depth: 1, first: d})
	}

	bestDist := startDist
	bestDepth := 0
	var bestFirst grid.Direction
	found := false

	for head := 0; head < len(queue); head++ {
		it := queue[head]

		d := grid.Distance(it.p, target)
		if d < startDist {
			// BFS visits depth in order, so the first hit at a given distance
			// has the smallest depth and the earliest first step.
			if !found || d < bestDist || (d == bestDist && it.depth < bestDepth) {
				found = true
				bestDist = d
				bestDepth = it.depth
				bestFirst = it.first
			}
		}

		if it.depth >= maxDepth {
			continue
		}
		for _, dir := range grid.Directions {
			np := it.p.Add(dir)
			if visited[np] || !passable(np) {
				continue
			}
			visited[np] = true
			queue = append(queue, qItem{p: np, depth: it.depth + 1, first: it.first})
		}
	}

	if !found {
		return 0, false
	}
	return bestFirst, true
}
