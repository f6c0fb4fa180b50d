// Package geometry implements the points, lines, rectangles and
// angle/intersection/perpendicular-distance helpers shared by the Map
// Core, plus the line/rectangle/robot rasterisers used to project vector
// objects onto a grid.
//
// Grounded on MapManagerLibrary/sosutil/SosUtil.{h,cpp} (angle and
// intersection helpers) and MapManagerLibrary/mapmanager/MapManager.cpp's
// setLine/setRectangle/setRobot rasterisation (see
// _examples/original_source).
package geometry

import "math"

// ROBOTRadius is the canonical newly-placed-robot radius, in mm.
const ROBOTRadius = 220

// Point is a point in millimetres.
type Point struct{ X, Y float64 }

// PointLong is a point in integer grid cells.
type PointLong struct{ X, Y int64 }

// Line is a line segment in millimetres.
type Line struct{ P1, P2 Point }

// LineLong is a line segment in integer grid cells.
type LineLong struct{ P1, P2 PointLong }

// Kind distinguishes the four vector object shapes.
type Kind int

const (
	KindLine Kind = iota
	KindRect
	KindRectFilled
	KindRobot
)

func (k Kind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindRect:
		return "rect"
	case KindRectFilled:
		return "rectfill"
	case KindRobot:
		return "robot"
	default:
		return "unknown"
	}
}

// LineLayer is a line tagged with the layer/value/kind it represents in
// the Map Core. Two LineLayer values are equal iff their Layer fields
// match; ordering is by Layer.
type LineLayer struct {
	Line
	Layer int64
	Value float32
	Kind  Kind
}

// Equal reports whether two LineLayer values share a layer id.
func (l LineLayer) Equal(o LineLayer) bool { return l.Layer == o.Layer }

// Less orders LineLayer values by layer id.
func (l LineLayer) Less(o LineLayer) bool { return l.Layer < o.Layer }

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 { return deg * math.Pi / 180 }

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 { return rad * 180 / math.Pi }

// NormalizeUndirected maps an angle (degrees) into [0,180), the
// convention used for undirected line comparisons, rounding to 3
// decimals as the source does before folding into range.
func NormalizeUndirected(deg float64) float64 {
	deg = math.Round(deg*1000) / 1000
	deg = math.Mod(deg, 180)
	if deg < 0 {
		deg += 180
	}
	return deg
}

// NormalizeDirected maps an angle (degrees) into [-180,180], the
// convention used for directed/pose angles.
func NormalizeDirected(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	} else if deg < -180 {
		deg += 360
	}
	return deg
}

// LineAngle returns the undirected angle of a line, in [0,180) degrees.
func LineAngle(l Line) float64 {
	dx, dy := l.P2.X-l.P1.X, l.P2.Y-l.P1.Y
	return NormalizeUndirected(RadToDeg(math.Atan2(dy, dx)))
}

func dist(a, b Point) float64 { return math.Hypot(a.X-b.X, a.Y-b.Y) }

// LineIntersection computes the intersection of the infinite extensions
// of a and b, returning ok=false if the lines are parallel. When
// segmentMode is true the intersection is additionally required to lie
// on both finite segments, accepted within eps (default 2 when eps<=0)
// via the sum-of-distances-to-endpoints test.
func LineIntersection(a, b Line, segmentMode bool, eps float64) (Point, bool) {
	if eps <= 0 {
		eps = 2
	}
	A1 := a.P2.Y - a.P1.Y
	B1 := a.P1.X - a.P2.X
	C1 := -(A1*a.P1.X + B1*a.P1.Y)

	A2 := b.P2.Y - b.P1.Y
	B2 := b.P1.X - b.P2.X
	C2 := -(A2*b.P1.X + B2*b.P1.Y)

	if LineAngle(a) == LineAngle(b) {
		return Point{}, false
	}

	det := A1*B2 - A2*B1
	if det == 0 {
		return Point{}, false
	}
	x := (B1*C2 - B2*C1) / det
	y := (A2*C1 - A1*C2) / det
	p := Point{x, y}

	if !segmentMode {
		return p, true
	}
	lenA := dist(a.P1, a.P2)
	lenB := dist(b.P1, b.P2)
	onA := math.Abs(dist(p, a.P1)+dist(p, a.P2)-lenA) <= eps
	onB := math.Abs(dist(p, b.P1)+dist(p, b.P2)-lenB) <= eps
	if onA && onB {
		return p, true
	}
	return Point{}, false
}

// PerpDistance returns the perpendicular distance from p to the segment
// l, falling back to the distance to the nearer endpoint when the foot of
// the perpendicular does not land on the segment.
func PerpDistance(p Point, l Line) float64 {
	dx, dy := l.P2.X-l.P1.X, l.P2.Y-l.P1.Y
	length2 := dx*dx + dy*dy
	if length2 == 0 {
		return dist(p, l.P1)
	}
	// Perpendicular through p: direction (-dy,dx).
	perp := Line{P1: p, P2: Point{p.X - dy, p.Y + dx}}
	hit, ok := LineIntersection(l, perp, false, 0)
	if !ok {
		return math.Min(dist(p, l.P1), dist(p, l.P2))
	}
	segLen := dist(l.P1, l.P2)
	onSeg := math.Abs(dist(hit, l.P1)+dist(hit, l.P2)-segLen) <= 1e-6*segLen+1e-9
	if onSeg {
		return dist(p, hit)
	}
	return math.Min(dist(p, l.P1), dist(p, l.P2))
}

// CellFromMM converts a millimetre coordinate to a grid cell using the
// standard negative-floor convention (floor(mm/res)).
func CellFromMM(mm float64, res int) int64 {
	return int64(math.Floor(mm / float64(res)))
}

// RasterFloor implements the stricter rounding used specifically when
// painting rasterised vector cells (spec 4.4): integers map to
// themselves, but a negative non-integer rounds one cell further down
// than a plain floor. This reproduces a documented quirk of the original
// rasteriser rather than a bug to silently fix.
func RasterFloor(v float64) int64 {
	f := math.Floor(v)
	if v < 0 && v != f {
		return int64(f) - 1
	}
	return int64(f)
}

// CellXY is an integer grid-cell coordinate produced by a rasteriser.
type CellXY struct{ X, Y int64 }

func toCell(p Point, res int) CellXY {
	return CellXY{RasterFloor(p.X / float64(res)), RasterFloor(p.Y / float64(res))}
}

// RasterizeLine walks from p1 to p2 in grid cells (res mm/cell) using
// Bresenham-like major-axis stepping. When doubleLine is true a parallel
// line one cell to the perpendicular side is also produced, the side
// chosen by slope sign and midpoint parity, matching the source's
// "double line" vector mode.
func RasterizeLine(p1, p2 Point, res int, doubleLine bool) []CellXY {
	c1, c2 := toCell(p1, res), toCell(p2, res)
	cells := bresenham(c1, c2)
	if !doubleLine {
		return cells
	}
	dx := float64(c2.X - c1.X)
	dy := float64(c2.Y - c1.Y)
	var ox, oy int64
	switch {
	case dx == 0:
		ox = 1
	case dy == 0:
		oy = 1
	default:
		slope := dy / dx
		mid := c1.X + c1.Y
		if slope > 0 {
			if mid%2 == 0 {
				ox = 1
			} else {
				oy = -1
			}
		} else {
			if mid%2 == 0 {
				oy = 1
			} else {
				ox = 1
			}
		}
	}
	second := bresenham(CellXY{c1.X + ox, c1.Y + oy}, CellXY{c2.X + ox, c2.Y + oy})
	return append(cells, second...)
}

func bresenham(a, b CellXY) []CellXY {
	var out []CellXY
	dx := b.X - a.X
	dy := b.Y - a.Y
	adx, ady := abs64(dx), abs64(dy)
	if ady >= adx { // major axis Y
		sx := sign64(dx)
		if dy == 0 {
			out = append(out, a)
			return out
		}
		sy := sign64(dy)
		errAcc := adx * 2
		err := int64(0)
		x := a.X
		for y := a.Y; ; y += sy {
			out = append(out, CellXY{x, y})
			if y == b.Y {
				break
			}
			err += errAcc
			if err > ady {
				x += sx
				err -= ady * 2
			}
		}
	} else { // major axis X
		sy := sign64(dy)
		sx := sign64(dx)
		errAcc := ady * 2
		err := int64(0)
		y := a.Y
		for x := a.X; ; x += sx {
			out = append(out, CellXY{x, y})
			if x == b.X {
				break
			}
			err += errAcc
			if err > adx {
				y += sy
				err -= adx * 2
			}
		}
	}
	return out
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func sign64(v int64) int64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// RasterizeRectFilled paints every cell in the inclusive rectangle
// spanned by p1,p2 (after clamping to min/max corners).
func RasterizeRectFilled(p1, p2 Point, res int) []CellXY {
	c1, c2 := toCell(p1, res), toCell(p2, res)
	x0, x1 := minI64(c1.X, c2.X), maxI64(c1.X, c2.X)
	y0, y1 := minI64(c1.Y, c2.Y), maxI64(c1.Y, c2.Y)
	var out []CellXY
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			out = append(out, CellXY{x, y})
		}
	}
	return out
}

// RasterizeRectOutline paints only the four edges of the rectangle
// spanned by p1,p2.
func RasterizeRectOutline(p1, p2 Point, res int) []CellXY {
	c1, c2 := toCell(p1, res), toCell(p2, res)
	x0, x1 := minI64(c1.X, c2.X), maxI64(c1.X, c2.X)
	y0, y1 := minI64(c1.Y, c2.Y), maxI64(c1.Y, c2.Y)
	seen := make(map[CellXY]bool)
	var out []CellXY
	add := func(c CellXY) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for x := x0; x <= x1; x++ {
		add(CellXY{x, y0})
		add(CellXY{x, y1})
	}
	for y := y0; y <= y1; y++ {
		add(CellXY{x0, y})
		add(CellXY{x1, y})
	}
	return out
}

// RasterizeRobot paints a filled circle of the given radius (mm) centred
// on the midpoint of p1,p2.
func RasterizeRobot(p1, p2 Point, radiusMm float64, res int) []CellXY {
	center := Point{(p1.X + p2.X) / 2, (p1.Y + p2.Y) / 2}
	cc := toCell(center, res)
	rCells := radiusMm / float64(res)
	box := int64(mathCeil(rCells))
	r2 := rCells * rCells
	var out []CellXY
	for dy := -box; dy <= box; dy++ {
		for dx := -box; dx <= box; dx++ {
			if float64(dx*dx+dy*dy) <= r2 {
				out = append(out, CellXY{cc.X + dx, cc.Y + dy})
			}
		}
	}
	return out
}

func mathCeil(v float64) float64 {
	i := float64(int64(v))
	if i < v {
		return i + 1
	}
	return i
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// RobotOffsetPoints returns the two points exactly radiusMm from centre
// along the +X/-Y and -X/+Y diagonals, as used by SetRobot (spec 4.4).
func RobotOffsetPoints(centre Point, radiusMm float64) (Point, Point) {
	d := radiusMm / math.Sqrt2
	return Point{centre.X + d, centre.Y - d}, Point{centre.X - d, centre.Y + d}
}
