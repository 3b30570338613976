// Package pathfind finds routes over the tile grid for planners.
package pathfind

import (
	"container/heap"

	"undercroft.game/internal/sim/grid"
)

// CostFunc returns the cost of entering p, or false when p cannot be entered.
type CostFunc func(p grid.Point) (int, bool)

type Path struct {
	// Points excludes the start and ends at the goal.
	Points []grid.Point
	Cost   int
}

// Find runs A* with king moves. Diagonal steps cost diagPermille/1000 of the
// entered tile's cost. maxNodes bounds the number of expanded nodes; zero
// means unbounded. The goal is entered even when cost reports it blocked, so
// callers can path onto an occupied target.
func Find(start, goal grid.Point, cost CostFunc, diagPermille, maxNodes int) (Path, bool) {
	if start == goal {
		return Path{}, true
	}
	minCost := 1
	open := &nodeHeap{}
	heap.Push(open, &node{p: start, f: grid.Distance(start, goal) * minCost})
	g := map[grid.Point]int{start: 0}
	from := map[grid.Point]grid.Point{}
	closed := map[grid.Point]bool{}
	seq := 0

	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		if closed[cur.p] {
			continue
		}
		if cur.p == goal {
			return rebuild(from, start, goal, g[goal]), true
		}
		closed[cur.p] = true
		if maxNodes > 0 && len(closed) > maxNodes {
			return Path{}, false
		}
		for _, d := range grid.Directions {
			np := cur.p.Add(d)
			if closed[np] {
				continue
			}
			c, ok := cost(np)
			if np == goal && !ok {
				c, ok = minCost, true
			}
			if !ok {
				continue
			}
			if d.Diagonal() {
				c = c * diagPermille / 1000
			}
			ng := g[cur.p] + c
			if old, seen := g[np]; seen && old <= ng {
				continue
			}
			g[np] = ng
			from[np] = cur.p
			seq++
			heap.Push(open, &node{p: np, g: ng, f: ng + grid.Distance(np, goal)*minCost, seq: seq})
		}
	}
	return Path{}, false
}

func rebuild(from map[grid.Point]grid.Point, start, goal grid.Point, cost int) Path {
	var rev []grid.Point
	for p := goal; p != start; p = from[p] {
		rev = append(rev, p)
	}
	pts := make([]grid.Point, len(rev))
	for i := range rev {
		pts[i] = rev[len(rev)-1-i]
	}
	return Path{Points: pts, Cost: cost}
}

type node struct {
	p   grid.Point
	g   int
	f   int
	seq int
}

// nodeHeap orders by f, then g descending, then insertion order so equal
// candidates expand deterministically.
type nodeHeap []*node

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	if h[i].g != h[j].g {
		return h[i].g > h[j].g
	}
	return h[i].seq < h[j].seq
}
func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)   { *h = append(*h, x.(*node)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}
