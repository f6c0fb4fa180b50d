// Package stage loads a Stage/Player world file (via worldfile) plus its
// referenced PNM bitmap into a Fragment: "position" entities become
// robots, and a single "bitmap"/"environment" entity supplies the base
// occupancy grid.
//
// Grounded on spec.md §4.8's Stage world + PNM description and on
// _examples/original_source/MapManagerLibrary/fileparsers/StageWorldFileParser.cpp
// for the unit/angle entities this adapter resolves (`resolution`,
// `size`, `pose`, `bitmap`). Unit and angle conversion factors are kept
// as a small data-driven table of arithmetic expressions evaluated with
// github.com/Knetic/govaluate, rather than a hardcoded switch, so a new
// unit only needs a table entry.
package stage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Knetic/govaluate"

	"github.com/shaneosullivan-maps/mapcore/formats"
	"github.com/shaneosullivan-maps/mapcore/formats/pnm"
	"github.com/shaneosullivan-maps/mapcore/formats/worldfile"
	"github.com/shaneosullivan-maps/mapcore/geometry"
	"github.com/shaneosullivan-maps/mapcore/gridmap"
)

var lengthScaleExpr = map[string]string{
	"m":  "1000",
	"cm": "10",
	"mm": "1",
}

var angleScaleExpr = map[string]string{
	"degrees": "1",
	"radians": "180 / 3.14159265358979323846",
}

func scaleFor(table map[string]string, unit string) (float64, error) {
	expr, ok := table[unit]
	if !ok {
		return 0, fmt.Errorf("stage: unknown unit %q", unit)
	}
	ev, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return 0, fmt.Errorf("stage: bad scale expression for %q: %w", unit, err)
	}
	result, err := ev.Evaluate(nil)
	if err != nil {
		return 0, err
	}
	v, ok := result.(float64)
	if !ok {
		return 0, fmt.Errorf("stage: scale expression for %q did not evaluate to a number", unit)
	}
	return v, nil
}

// Load reads a Stage world file and its associated bitmap into a
// Fragment. The world's length/angle conventions ("m"/"cm"/"mm" and
// "degrees"/"radians") are read from the "unit_length"/"unit_angle"
// properties of the root entity, defaulting to metres and degrees.
func Load(worldPath string) (*formats.Fragment, error) {
	w, err := worldfile.Parse(worldPath)
	if err != nil {
		return nil, err
	}

	lengthUnit := w.GetString(0, "unit_length", "m")
	angleUnit := w.GetString(0, "unit_angle", "degrees")
	lengthScale, err := scaleFor(lengthScaleExpr, lengthUnit)
	if err != nil {
		return nil, err
	}
	angleScale, err := scaleFor(angleScaleExpr, angleUnit)
	if err != nil {
		return nil, err
	}

	resolutionM := w.GetDouble(0, "resolution", 0.1)
	resolution := int(resolutionM * lengthScale)
	if resolution <= 0 {
		resolution = gridmap.DefaultResolution
	}

	frag := &formats.Fragment{Resolution: resolution}

	bitmapEntity := w.FindEntity("bitmap")
	if bitmapEntity < 0 {
		bitmapEntity = w.FindEntity("environment")
	}
	if bitmapEntity >= 0 {
		bitmapFile := w.GetString(bitmapEntity, "bitmap", "")
		if bitmapFile == "" {
			return nil, fmt.Errorf("stage: bitmap entity has no bitmap filename")
		}
		sizeX := w.GetDoubleTuple(bitmapEntity, "size", 0, 10) * lengthScale
		sizeY := w.GetDoubleTuple(bitmapEntity, "size", 1, 10) * lengthScale

		img, err := loadBitmap(filepath.Join(filepath.Dir(worldPath), bitmapFile))
		if err != nil {
			return nil, err
		}
		frag.Grid = bitmapToGrid(img, sizeX, sizeY, resolution)
	}

	for _, e := range w.EntitiesOfType("position") {
		x := w.GetDoubleTuple(e, "pose", 0, 0) * lengthScale
		y := w.GetDoubleTuple(e, "pose", 1, 0) * lengthScale
		heading := w.GetDoubleTuple(e, "pose", 2, 0) * angleScale
		centre := geometry.Point{X: x, Y: y}
		p1, p2 := geometry.RobotOffsetPoints(centre, geometry.ROBOTRadius)
		frag.Objects = append(frag.Objects, formats.VectorRecord{Kind: geometry.KindRobot, Value: float32(heading), P1: p1, P2: p2})
	}

	return frag, nil
}

func loadBitmap(path string) (*pnm.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return pnm.Decode(f)
}

// bitmapToGrid paints img onto a fresh grid, mapping pixel (0,0) to the
// bitmap's top-left world corner and scaling so the image spans
// sizeX-by-sizeY mm.
func bitmapToGrid(img *pnm.Image, sizeXMm, sizeYMm float64, res int) *gridmap.GridMap {
	g := gridmap.New(gridmap.DefaultBlockSize)
	occ := img.ToOccupancy(127)
	mmPerPixelX := sizeXMm / float64(img.Width)
	mmPerPixelY := sizeYMm / float64(img.Height)
	for py := 0; py < img.Height; py++ {
		for px := 0; px < img.Width; px++ {
			v := occ[py*img.Width+px]
			if v <= 0 {
				continue
			}
			worldX := float64(px) * mmPerPixelX
			worldY := float64(img.Height-1-py) * mmPerPixelY
			cellX := int(worldX / float64(res))
			cellY := int(worldY / float64(res))
			g.Set(cellX, cellY, v)
		}
	}
	return g
}
