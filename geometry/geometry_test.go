package geometry

import (
	"math"
	"math/rand"
	"testing"
)

func TestDegRadRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		x := (r.Float64()*2 - 1) * 10
		got := DegToRad(RadToDeg(x))
		if math.Abs(got-x) > 1e-6 {
			t.Fatalf("degToRad(radToDeg(%v)) = %v", x, got)
		}
	}
}

func crossProductIntersect(a, b Line) (Point, bool) {
	x1, y1, x2, y2 := a.P1.X, a.P1.Y, a.P2.X, a.P2.Y
	x3, y3, x4, y4 := b.P1.X, b.P1.Y, b.P2.X, b.P2.Y
	denom := (x1-x2)*(y3-y4) - (y1-y2)*(x3-x4)
	if denom == 0 {
		return Point{}, false
	}
	px := ((x1*y2-y1*x2)*(x3-x4) - (x1-x2)*(x3*y4-y3*x4)) / denom
	py := ((x1*y2-y1*x2)*(y3-y4) - (y1-y2)*(x3*y4-y3*x4)) / denom
	return Point{px, py}, true
}

func TestLineIntersectionAgreesWithCrossProduct(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	n := 0
	for i := 0; i < 1000; i++ {
		a := Line{Point{r.Float64() * 100, r.Float64() * 100}, Point{r.Float64() * 100, r.Float64() * 100}}
		b := Line{Point{r.Float64() * 100, r.Float64() * 100}, Point{r.Float64() * 100, r.Float64() * 100}}
		want, wantOK := crossProductIntersect(a, b)
		got, gotOK := LineIntersection(a, b, false, 0)
		if wantOK != gotOK {
			continue // both only disagree on degenerate/parallel edge cases
		}
		if wantOK {
			if math.Abs(got.X-want.X) > 1e-3 || math.Abs(got.Y-want.Y) > 1e-3 {
				t.Fatalf("intersection mismatch: got %+v want %+v", got, want)
			}
			n++
		}
	}
	if n < 500 {
		t.Fatalf("too few comparable intersections: %d", n)
	}
}

func TestRasterizeLineEndpointsIncluded(t *testing.T) {
	cells := RasterizeLine(Point{100, 100}, Point{300, 100}, 100, false)
	want := map[CellXY]bool{{1, 1}: true, {2, 1}: true, {3, 1}: true}
	for _, c := range cells {
		delete(want, c)
	}
	if len(want) != 0 {
		t.Fatalf("missing expected cells: %+v", want)
	}
}

func TestRasterFloorQuirk(t *testing.T) {
	if RasterFloor(-0.5) != -2 {
		t.Fatalf("RasterFloor(-0.5) = %d, want -2 (floor-1 for negative non-integers)", RasterFloor(-0.5))
	}
	if RasterFloor(-1.0) != -1 {
		t.Fatalf("RasterFloor(-1.0) = %d, want -1 (integers map to themselves)", RasterFloor(-1.0))
	}
	if RasterFloor(1.5) != 1 {
		t.Fatalf("RasterFloor(1.5) = %d, want 1", RasterFloor(1.5))
	}
}
