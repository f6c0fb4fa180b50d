package voronoi

import (
	"math"
	"testing"

	"github.com/shaneosullivan-maps/mapcore/geometry"
	"github.com/shaneosullivan-maps/mapcore/gridmap"
)

func hasDelaunay(d *Diagram, a, b int) bool {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	for _, e := range d.Delaunay {
		if e.A == lo && e.B == hi {
			return true
		}
	}
	return false
}

func TestTwoSitesProduceOneBisectorEdge(t *testing.T) {
	sites := []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}
	d := Compute(sites, Bounds{MinX: -100, MinY: -100, MaxX: 100, MaxY: 100}, 0)
	if !hasDelaunay(d, 0, 1) {
		t.Fatal("expected the only pair of sites to be Delaunay-adjacent")
	}
	found := false
	for _, e := range d.Edges {
		if e.SiteB >= 0 {
			found = true
			if e.P1.X != 5 || e.P2.X != 5 {
				t.Fatalf("expected the bisector edge to lie on x=5, got %+v", e)
			}
		}
	}
	if !found {
		t.Fatal("expected at least one bisector edge")
	}
}

func TestThreeSitesFormCompleteDelaunayTriangle(t *testing.T) {
	sites := []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 5, Y: 10}}
	d := Compute(sites, Bounds{MinX: -100, MinY: -100, MaxX: 100, MaxY: 100}, 0)
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			if !hasDelaunay(d, i, j) {
				t.Fatalf("expected sites %d,%d to be Delaunay-adjacent", i, j)
			}
		}
	}
}

func TestCollinearSitesFormAChain(t *testing.T) {
	sites := []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 20, Y: 0}, {X: 30, Y: 0}}
	d := Compute(sites, Bounds{MinX: -100, MinY: -100, MaxX: 100, MaxY: 100}, 0)
	if !hasDelaunay(d, 0, 1) || !hasDelaunay(d, 1, 2) || !hasDelaunay(d, 2, 3) {
		t.Fatal("expected a consecutive chain of Delaunay edges along the line")
	}
	if hasDelaunay(d, 0, 2) || hasDelaunay(d, 0, 3) || hasDelaunay(d, 1, 3) {
		t.Fatal("expected no Delaunay edge skipping over an intermediate site")
	}
}

func TestDedupeDropsClusteredSites(t *testing.T) {
	sites := []geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 50, Y: 50}}
	d := Compute(sites, Bounds{MinX: -100, MinY: -100, MaxX: 100, MaxY: 100}, 10)
	if len(d.Sites) != 2 {
		t.Fatalf("got %d sites after dedup, want 2", len(d.Sites))
	}
}

func TestEdgeIterIsRestartable(t *testing.T) {
	sites := []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 5, Y: 10}}
	d := Compute(sites, Bounds{MinX: -100, MinY: -100, MaxX: 100, MaxY: 100}, 0)
	it := d.EdgeIter()
	var firstPass int
	for {
		if _, ok := it.Next(); !ok {
			break
		}
		firstPass++
	}
	it.Reset()
	var secondPass int
	for {
		if _, ok := it.Next(); !ok {
			break
		}
		secondPass++
	}
	if firstPass == 0 || firstPass != secondPass {
		t.Fatalf("restarted iterator produced %d items, first pass had %d", secondPass, firstPass)
	}
}

func TestReduceGridToLinesProducesBoundaryLines(t *testing.T) {
	g := gridmap.New(100)
	// A horizontal occupied wall at y=5, x in [0,9], with free cells above
	// and below it.
	for x := 0; x < 10; x++ {
		g.Set(x, 5, 1)
	}
	for x := 0; x < 10; x++ {
		g.Set(x, 3, 0)
		g.Set(x, 7, 0)
	}
	lines := ReduceGridToLines(g, 0.5, 1.5, 100, 10, nil)
	if len(lines) == 0 {
		t.Fatal("expected at least one boundary line from the wall")
	}
}

func TestReduceGridToLinesEmptyGridReturnsNil(t *testing.T) {
	g := gridmap.New(100)
	if lines := ReduceGridToLines(g, 0.5, 1.5, 100, 10, nil); lines != nil {
		t.Fatalf("expected nil for an empty grid, got %d lines", len(lines))
	}
}

func TestReduceGridToLinesCancelledReturnsNil(t *testing.T) {
	g := gridmap.New(100)
	for x := 0; x < 10; x++ {
		g.Set(x, 5, 1)
	}
	for x := 0; x < 10; x++ {
		g.Set(x, 3, 0)
		g.Set(x, 7, 0)
	}
	lines := ReduceGridToLines(g, 0.5, 1.5, 100, 10, func() bool { return true })
	if lines != nil {
		t.Fatalf("expected a cancelled reduction to return nil, got %d lines", len(lines))
	}
}

// TestCollinearSitesProduceNoVoronoiEdges pins spec §4.6's degenerate
// case: three or more collinear sites yield an empty Voronoi (no
// bisector edges at all), only the Delaunay chain.
func TestCollinearSitesProduceNoVoronoiEdges(t *testing.T) {
	sites := []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 20, Y: 0}, {X: 30, Y: 0}}
	d := Compute(sites, Bounds{MinX: -100, MinY: -100, MaxX: 100, MaxY: 100}, 0)
	if len(d.Edges) != 0 {
		t.Fatalf("expected collinear sites to produce an empty Voronoi, got %d edges: %+v", len(d.Edges), d.Edges)
	}
}

// TestVoronoiVertexIsEquidistantFromItsThreeSites pins §8(9): the one
// Voronoi vertex of a 3-site triangle is the triangle's circumcentre,
// equidistant from all three generating sites.
func TestVoronoiVertexIsEquidistantFromItsThreeSites(t *testing.T) {
	sites := []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 5, Y: 10}}
	d := Compute(sites, Bounds{MinX: -1000, MinY: -1000, MaxX: 1000, MaxY: 1000}, 0)

	var vertex geometry.Point
	found := false
	for _, e := range d.Edges {
		for _, p := range [2]geometry.Point{e.P1, e.P2} {
			onBoundary := p.X <= -1000+1e-6 || p.X >= 1000-1e-6 || p.Y <= -1000+1e-6 || p.Y >= 1000-1e-6
			if !onBoundary {
				vertex = p
				found = true
			}
		}
	}
	if !found {
		t.Fatal("expected an interior Voronoi vertex shared by all three cells")
	}
	d0 := dist(vertex, sites[0])
	d1 := dist(vertex, sites[1])
	d2 := dist(vertex, sites[2])
	const eps = 1e-3
	if math.Abs(d0-d1) > eps || math.Abs(d1-d2) > eps {
		t.Fatalf("expected the Voronoi vertex to be equidistant from its 3 sites, got distances %v %v %v", d0, d1, d2)
	}
}

// TestFourSquareCornersYieldFourSidesAndOneDiagonal pins §8(9)'s second
// clause: 4 sites at square corners give a Delaunay graph of exactly the
// 4 sides plus one of the two diagonals, never zero and never both.
func TestFourSquareCornersYieldFourSidesAndOneDiagonal(t *testing.T) {
	sites := []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	d := Compute(sites, Bounds{MinX: -100, MinY: -100, MaxX: 100, MaxY: 100}, 0)

	sides := [][2]int{{0, 1}, {1, 2}, {2, 3}, {0, 3}}
	for _, s := range sides {
		if !hasDelaunay(d, s[0], s[1]) {
			t.Fatalf("expected side %v to be Delaunay-adjacent", s)
		}
	}
	diag1, diag2 := hasDelaunay(d, 0, 2), hasDelaunay(d, 1, 3)
	if diag1 == diag2 {
		t.Fatalf("expected exactly one of the two diagonals, got (0,2)=%v (1,3)=%v", diag1, diag2)
	}
	if len(d.Delaunay) != 5 {
		t.Fatalf("expected 4 sides plus 1 diagonal, got %d Delaunay edges: %+v", len(d.Delaunay), d.Delaunay)
	}
}

// TestReduceGridToLinesOnLShapeProducesTwoBars is scenario S5: an
// L-shaped set of occupied cells reduces to its two-bar skeleton, one
// horizontal and one vertical, through the shape's corner.
func TestReduceGridToLinesOnLShapeProducesTwoBars(t *testing.T) {
	g := gridmap.New(100)
	for _, c := range [][2]int{{0, 0}, {1, 0}, {2, 0}, {0, 1}, {0, 2}} {
		g.Set(c[0], c[1], 1)
	}
	lines := ReduceGridToLines(g, 0.5, 1.5, 100, 10, nil)
	if len(lines) != 2 {
		t.Fatalf("expected the L-shape to reduce to 2 bars, got %d: %+v", len(lines), lines)
	}
	var horizontal, vertical int
	const eps = 1.0
	for _, l := range lines {
		dx, dy := math.Abs(l.P1.X-l.P2.X), math.Abs(l.P1.Y-l.P2.Y)
		switch {
		case dy < eps && dx > eps:
			horizontal++
		case dx < eps && dy > eps:
			vertical++
		default:
			t.Fatalf("expected an axis-aligned bar, got %+v", l)
		}
	}
	if horizontal != 1 || vertical != 1 {
		t.Fatalf("expected 1 horizontal and 1 vertical bar, got %d horizontal, %d vertical", horizontal, vertical)
	}
}
