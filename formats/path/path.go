// Package path reads and writes the Path line-list format: a textual
// "lines" section listing "x1 y1 x2 y2" segments, one per line, used to
// persist a robot trajectory or any other standalone polyline separate
// from a Map Core vector layer. It shares the same section-grouping
// convention as the Voronoi file format without the vertex/edge/Delaunay
// sections that format adds.
//
// Grounded on spec.md's description of the Voronoi/Path family of
// textual formats and on
// _examples/original_source/MapManagerLibrary/fileparsers/GridMapParser.h's
// plain line-oriented reading style; the optional SHP enrichment follows
// _examples/spatialmodel-inmap/io.go's use of github.com/jonas-p/go-shp.
package path

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"

	"github.com/shaneosullivan-maps/mapcore/geometry"
)

// Load reads a Path file into an ordered list of line segments.
func Load(r io.Reader) ([]geometry.Line, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !sc.Scan() || strings.TrimSpace(sc.Text()) != "lines" {
		return nil, fmt.Errorf("path: missing lines header")
	}
	var out []geometry.Line
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, fmt.Errorf("path: malformed line %q", line)
		}
		vals := make([]float64, 4)
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("path: malformed line %q", line)
			}
			vals[i] = v
		}
		out = append(out, geometry.Line{
			P1: geometry.Point{X: vals[0], Y: vals[1]},
			P2: geometry.Point{X: vals[2], Y: vals[3]},
		})
	}
	return out, sc.Err()
}

// Save writes lines as a Path file.
func Save(w io.Writer, lines []geometry.Line) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, "lines"); err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(bw, "%g %g %g %g\n", l.P1.X, l.P1.Y, l.P2.X, l.P2.Y); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ExportSHP writes lines as a polyline shapefile at path.
func ExportSHP(filePath string, lines []geometry.Line) error {
	sw, err := shp.Create(filePath, shp.POLYLINE)
	if err != nil {
		return err
	}
	defer sw.Close()
	for _, l := range lines {
		poly := &shp.PolyLine{
			Box: shp.Box{
				MinX: minf(l.P1.X, l.P2.X), MinY: minf(l.P1.Y, l.P2.Y),
				MaxX: maxf(l.P1.X, l.P2.X), MaxY: maxf(l.P1.Y, l.P2.Y),
			},
			NumParts:  1,
			NumPoints: 2,
			Parts:     []int32{0},
			Points:    []shp.Point{{X: l.P1.X, Y: l.P1.Y}, {X: l.P2.X, Y: l.P2.Y}},
		}
		sw.Write(poly)
	}
	return nil
}

// ImportSHP reads a polyline shapefile, flattening each polyline's
// consecutive point pairs into line segments.
func ImportSHP(filePath string) ([]geometry.Line, error) {
	sr, err := shp.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer sr.Close()
	var out []geometry.Line
	for sr.Next() {
		_, shape := sr.Shape()
		poly, ok := shape.(*shp.PolyLine)
		if !ok {
			continue
		}
		for i := 0; i+1 < len(poly.Points); i++ {
			p1, p2 := poly.Points[i], poly.Points[i+1]
			out = append(out, geometry.Line{
				P1: geometry.Point{X: p1.X, Y: p1.Y},
				P2: geometry.Point{X: p2.X, Y: p2.Y},
			})
		}
	}
	return out, nil
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
