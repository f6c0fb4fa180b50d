// Package rossum writes the Rossum `.wld` world-description format. Unlike
// every other format adapter this one is write-only: Rossum files are
// consumed by a downstream simulator, never re-read into a Map Core
// fragment.
//
// Grounded on spec.md's Rossum writer description and on
// _examples/original_source/MapManagerLibrary/fileparsers/StageWorldFileParser.cpp's
// entity/tuple-block writing idiom, which Rossum's "name N { key: v; }"
// block syntax mirrors.
package rossum

import (
	"bufio"
	"fmt"
	"io"

	"github.com/shaneosullivan-maps/mapcore/geometry"
)

// MmPerMetre is the scale factor between Map Core millimetres and the
// metres Rossum files are written in.
const MmPerMetre = 1000.0

// WallThicknessM is the fixed wall thickness Rossum expects as the fifth
// geometry field.
const WallThicknessM = 0.05

// RobotRadiusM is the fixed robot radius Rossum expects for a placement.
const RobotRadiusM = 0.25

// Robot is a single named placement to emit as a "placement" block.
type Robot struct {
	Centre    geometry.Point
	HeadingDeg float64
}

// Save writes walls (derived from line and rectangle vector objects, with
// filled/unfilled rectangles both translated into their four boundary
// line fences) and robots as a Rossum world file.
func Save(w io.Writer, lines []geometry.Line, robots []Robot) error {
	bw := bufio.NewWriter(w)
	for i, l := range lines {
		x1, y1 := l.P1.X/MmPerMetre, l.P1.Y/MmPerMetre
		x2, y2 := l.P2.X/MmPerMetre, l.P2.Y/MmPerMetre
		if _, err := fmt.Fprintf(bw, "wall %d {\n  geometry: %g,%g,%g,%g,%g;\n}\n",
			i, x1, y1, x2, y2, WallThicknessM); err != nil {
			return err
		}
	}
	for i, r := range robots {
		x, y := r.Centre.X/MmPerMetre, r.Centre.Y/MmPerMetre
		if _, err := fmt.Fprintf(bw, "placement home%d {\n  label: \"Home%d\";\n  geometry: %g,%g,%g,%g;\n}\n",
			i, i, x, y, r.HeadingDeg, RobotRadiusM); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// RectToWalls translates a rectangle (filled or unfilled alike, since
// Rossum has no filled-area primitive) into the four line segments
// forming its boundary.
func RectToWalls(p1, p2 geometry.Point) []geometry.Line {
	corners := [4]geometry.Point{
		{X: p1.X, Y: p1.Y},
		{X: p2.X, Y: p1.Y},
		{X: p2.X, Y: p2.Y},
		{X: p1.X, Y: p2.Y},
	}
	out := make([]geometry.Line, 4)
	for i := range corners {
		out[i] = geometry.Line{P1: corners[i], P2: corners[(i+1)%4]}
	}
	return out
}
