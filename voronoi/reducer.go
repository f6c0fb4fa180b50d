package voronoi

import (
	"github.com/shaneosullivan-maps/mapcore/geometry"
	"github.com/shaneosullivan-maps/mapcore/gridmap"
)

// ReduceGridToLines implements convert_grid_to_line_with_voronoi: it
// thresholds g to occupied cells in [occLo,occHi], finds the boundary
// (occupied cells with a free 4-neighbour), seeds Voronoi sites from the
// free cells touching that boundary, discards any resulting edge whose
// endpoint cell is itself occupied, merges collinear adjacent edges, and
// joins isolated dangling endpoints that sit in diagonally-adjacent
// cells. cancel, if non-nil, is polled once per scanned row of the
// boundary search; when it reports true, ReduceGridToLines stops and
// returns nil, leaving the caller's completion flag unset.
func ReduceGridToLines(g *gridmap.GridMap, occLo, occHi float32, res int, dMin float64, cancel func() bool) []geometry.Line {
	bounds := g.UpdatedBounds()
	if bounds.Empty() {
		return nil
	}
	occupied := func(x, y int) bool {
		v := g.Get(x, y)
		return v >= occLo && v <= occHi
	}

	isBoundary := make(map[[2]int]bool)
	for y := bounds.MinY - 1; y <= bounds.MaxY+1; y++ {
		if cancel != nil && cancel() {
			return nil
		}
		for x := bounds.MinX - 1; x <= bounds.MaxX+1; x++ {
			if !occupied(x, y) {
				continue
			}
			if !occupied(x-1, y) || !occupied(x+1, y) || !occupied(x, y-1) || !occupied(x, y+1) {
				isBoundary[[2]int{x, y}] = true
			}
		}
	}
	if len(isBoundary) == 0 {
		return nil
	}

	seen := make(map[[2]int]bool)
	var sites []geometry.Point
	for c := range isBoundary {
		x, y := c[0], c[1]
		for _, n := range [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
			if isBoundary[n] || occupied(n[0], n[1]) {
				continue
			}
			if seen[n] {
				continue
			}
			seen[n] = true
			sites = append(sites, cellCentre(n[0], n[1], res))
		}
	}
	if len(sites) < 2 {
		return nil
	}

	if cancel != nil && cancel() {
		return nil
	}
	clip := Bounds{
		MinX: float64((bounds.MinX - 1) * res), MinY: float64((bounds.MinY - 1) * res),
		MaxX: float64((bounds.MaxX + 2) * res), MaxY: float64((bounds.MaxY + 2) * res),
	}
	diagram := Compute(sites, clip, dMin)

	var lines []geometry.Line
	for _, e := range diagram.Edges {
		if e.SiteB < 0 {
			continue // bounding-rectangle artefact, not a map feature
		}
		c1 := cellOf(e.P1, res)
		c2 := cellOf(e.P2, res)
		if occupied(int(c1.X), int(c1.Y)) || occupied(int(c2.X), int(c2.Y)) {
			continue
		}
		lines = append(lines, geometry.Line{P1: e.P1, P2: e.P2})
	}

	lines = mergeCollinear(lines)
	lines = append(lines, joinIsolatedDiagonals(lines, res)...)
	return lines
}

func cellCentre(x, y, res int) geometry.Point {
	return geometry.Point{X: float64(x*res) + float64(res)/2, Y: float64(y*res) + float64(res)/2}
}

func cellOf(p geometry.Point, res int) geometry.CellXY {
	return geometry.CellXY{X: geometry.RasterFloor(p.X / float64(res)), Y: geometry.RasterFloor(p.Y / float64(res))}
}

// mergeCollinear folds a line into its predecessor when they share an
// endpoint and point in the same direction, via a hash of endpoint to
// candidate line index (the "2-D spatial hash" merge step).
func mergeCollinear(lines []geometry.Line) []geometry.Line {
	const eps = 1e-6
	changed := true
	for changed {
		changed = false
		byEnd := make(map[geometry.Point][]int)
		key := func(p geometry.Point) geometry.Point {
			return geometry.Point{X: round(p.X, eps), Y: round(p.Y, eps)}
		}
		for i, l := range lines {
			if l == (geometry.Line{}) {
				continue
			}
			byEnd[key(l.P1)] = append(byEnd[key(l.P1)], i)
			byEnd[key(l.P2)] = append(byEnd[key(l.P2)], i)
		}
		for i, l := range lines {
			if l == (geometry.Line{}) {
				continue
			}
			for _, j := range byEnd[key(l.P2)] {
				if j == i || lines[j] == (geometry.Line{}) {
					continue
				}
				if !sameDirection(l, lines[j]) {
					continue
				}
				merged, ok := tryMerge(l, lines[j])
				if !ok {
					continue
				}
				lines[i] = merged
				lines[j] = geometry.Line{}
				changed = true
				break
			}
		}
	}
	var out []geometry.Line
	for _, l := range lines {
		if l != (geometry.Line{}) {
			out = append(out, l)
		}
	}
	return out
}

func round(v, eps float64) float64 {
	if eps <= 0 {
		return v
	}
	scale := 1 / eps
	return float64(int64(v*scale+0.5)) / scale
}

func sameDirection(a, b geometry.Line) bool {
	const angEps = 0.5
	da := geometry.LineAngle(a)
	db := geometry.LineAngle(b)
	diff := da - db
	if diff < 0 {
		diff = -diff
	}
	return diff < angEps || diff > 180-angEps
}

// tryMerge joins two collinear lines sharing endpoint a.P2==b.P1 (within
// the caller's key rounding) into a single longer line.
func tryMerge(a, b geometry.Line) (geometry.Line, bool) {
	switch {
	case closeEnough(a.P2, b.P1):
		return geometry.Line{P1: a.P1, P2: b.P2}, true
	case closeEnough(a.P2, b.P2):
		return geometry.Line{P1: a.P1, P2: b.P1}, true
	}
	return geometry.Line{}, false
}

func closeEnough(a, b geometry.Point) bool {
	const eps = 1e-3
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx+dy*dy < eps*eps
}

// joinIsolatedDiagonals finds line endpoints with no other line touching
// them (dangling ends) and, where two such ends sit in diagonally
// adjacent cells, adds a connecting segment between them.
func joinIsolatedDiagonals(lines []geometry.Line, res int) []geometry.Line {
	degree := make(map[geometry.Point]int)
	for _, l := range lines {
		degree[l.P1]++
		degree[l.P2]++
	}
	var dangling []geometry.Point
	for _, l := range lines {
		if degree[l.P1] == 1 {
			dangling = append(dangling, l.P1)
		}
		if degree[l.P2] == 1 {
			dangling = append(dangling, l.P2)
		}
	}
	var joins []geometry.Line
	used := make([]bool, len(dangling))
	for i := range dangling {
		if used[i] {
			continue
		}
		ci := cellOf(dangling[i], res)
		for j := i + 1; j < len(dangling); j++ {
			if used[j] {
				continue
			}
			cj := cellOf(dangling[j], res)
			dx, dy := cj.X-ci.X, cj.Y-ci.Y
			if abs64(dx) == 1 && abs64(dy) == 1 {
				joins = append(joins, geometry.Line{P1: dangling[i], P2: dangling[j]})
				used[i], used[j] = true, true
				break
			}
		}
	}
	return joins
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
