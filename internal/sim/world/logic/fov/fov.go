package fov

import "undercroft.game/internal/sim/grid"

// Set is the result of a field-of-view computation.
type Set map[grid.Point]struct{}

func (s Set) Has(p grid.Point) bool {
	_, ok := s[p]
	return ok
}

// Compute returns every point within Chebyshev radius of origin that has a
// clear Bresenham line from origin. Opaque tiles are visible themselves but
// hide what lies behind them. The origin is always visible.
func Compute(origin grid.Point, radius int, opaque func(grid.Point) bool) Set {
	vis := Set{origin: {}}
	if radius <= 0 {
		return vis
	}
	// Cast to the ring at the radius; every inner tile lies on some ray.
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if grid.AbsInt(dx) != radius && grid.AbsInt(dy) != radius {
				continue
			}
			cast(vis, origin, grid.P(origin.X+dx, origin.Y+dy), opaque)
		}
	}
	// Rays to the ring can skip inner tiles on shallow lines; check those
	// directly.
	for dy := -radius + 1; dy < radius; dy++ {
		for dx := -radius + 1; dx < radius; dx++ {
			p := grid.P(origin.X+dx, origin.Y+dy)
			if !vis.Has(p) {
				cast(vis, origin, p, opaque)
			}
		}
	}
	return vis
}

func cast(vis Set, origin, to grid.Point, opaque func(grid.Point) bool) {
	line := grid.Line(origin, to)
	for _, p := range line[1:] {
		vis[p] = struct{}{}
		if opaque(p) {
			return
		}
	}
}
