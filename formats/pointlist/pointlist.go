// Package pointlist reads and writes the trivial Point-List grid format:
// a "gridpointlist" marker, width/height header lines, then one "x y v"
// triple per non-zero cell. It also offers an optional SHP export/import
// pair (an enrichment beyond the format's own textual form) so a point
// list can round trip through GIS tooling.
//
// Grounded on the generic grid-cell-triple loading convention in
// _examples/original_source/MapManagerLibrary/fileparsers/GridMapParser.h
// and on _examples/spatialmodel-inmap/io.go's use of
// github.com/jonas-p/go-shp for the SHP adapter.
package pointlist

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"

	"github.com/shaneosullivan-maps/mapcore/formats"
	"github.com/shaneosullivan-maps/mapcore/geometry"
	"github.com/shaneosullivan-maps/mapcore/gridmap"
)

// Load reads a Point-List file into a Fragment.
func Load(r io.Reader) (*formats.Fragment, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !sc.Scan() || strings.TrimSpace(sc.Text()) != "gridpointlist" {
		return nil, fmt.Errorf("pointlist: missing gridpointlist header")
	}
	if !sc.Scan() {
		return nil, fmt.Errorf("pointlist: missing width line")
	}
	if _, err := parseHeaderInt(sc.Text(), "width"); err != nil {
		return nil, err
	}
	if !sc.Scan() {
		return nil, fmt.Errorf("pointlist: missing height line")
	}
	if _, err := parseHeaderInt(sc.Text(), "height"); err != nil {
		return nil, err
	}

	g := gridmap.New(gridmap.DefaultBlockSize)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("pointlist: malformed point line %q", line)
		}
		x, errX := strconv.Atoi(fields[0])
		y, errY := strconv.Atoi(fields[1])
		v, errV := strconv.ParseFloat(fields[2], 32)
		if errX != nil || errY != nil || errV != nil {
			return nil, fmt.Errorf("pointlist: malformed point line %q", line)
		}
		g.Set(x, y, float32(v))
	}
	return &formats.Fragment{Resolution: gridmap.DefaultResolution, Grid: g}, sc.Err()
}

func parseHeaderInt(line, key string) (int, error) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) != 2 || fields[0] != key {
		return 0, fmt.Errorf("pointlist: expected %q header line, got %q", key, line)
	}
	return strconv.Atoi(fields[1])
}

// Save writes frag's grid as a Point-List file, one line per non-default
// cell within its updated bounds.
func Save(w io.Writer, frag *formats.Fragment) error {
	if frag.Grid == nil {
		return fmt.Errorf("pointlist: cannot save a fragment with no grid")
	}
	b := frag.Grid.UpdatedBounds()
	width, height := 0, 0
	if !b.Empty() {
		width, height = b.MaxX-b.MinX+1, b.MaxY-b.MinY+1
	}
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "gridpointlist\nwidth %d\nheight %d\n", width, height); err != nil {
		return err
	}
	for x := b.MinX; x <= b.MaxX; x++ {
		for y := b.MinY; y <= b.MaxY; y++ {
			v := frag.Grid.Get(x, y)
			if v == 0 {
				continue
			}
			if _, err := fmt.Fprintf(bw, "%d %d %g\n", x, y, v); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// ExportSHP writes every occupied cell centre (mm) in frag's grid as a
// point shapefile at path.
func ExportSHP(path string, frag *formats.Fragment, res int) error {
	if frag.Grid == nil {
		return fmt.Errorf("pointlist: cannot export a fragment with no grid")
	}
	sw, err := shp.Create(path, shp.POINT)
	if err != nil {
		return err
	}
	defer sw.Close()
	b := frag.Grid.UpdatedBounds()
	for x := b.MinX; x <= b.MaxX; x++ {
		for y := b.MinY; y <= b.MaxY; y++ {
			if frag.Grid.Get(x, y) <= 0.5 {
				continue
			}
			pt := shp.Point{X: (float64(x) + 0.5) * float64(res), Y: (float64(y) + 0.5) * float64(res)}
			sw.Write(&pt)
		}
	}
	return nil
}

// ImportSHP reads a point shapefile and returns the points it contains.
func ImportSHP(path string) ([]geometry.Point, error) {
	sr, err := shp.Open(path)
	if err != nil {
		return nil, err
	}
	defer sr.Close()
	var out []geometry.Point
	for sr.Next() {
		_, shape := sr.Shape()
		if pt, ok := shape.(*shp.Point); ok {
			out = append(out, geometry.Point{X: pt.X, Y: pt.Y})
		}
	}
	return out, nil
}
