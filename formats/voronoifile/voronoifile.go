// Package voronoifile reads and writes the Voronoi file format: a
// textual dump of a voronoi.Diagram grouped into "lines" (an optional
// free-form line list, reused for the reducer's output), "edges"
// (Voronoi edges by site index pair), "vertices" (site coordinates) and
// "delaunaylines" sections.
//
// Grounded on spec.md's Voronoi/Path format family description and on
// the section-grouping convention of
// _examples/original_source/MapManagerLibrary/fileparsers/StageWorldFileParser.cpp.
package voronoifile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shaneosullivan-maps/mapcore/geometry"
	"github.com/shaneosullivan-maps/mapcore/voronoi"
)

// Load reads a Voronoi file into a Diagram. Sections may appear in any
// order; any missing section simply leaves the corresponding Diagram
// field empty.
func Load(r io.Reader) (*voronoi.Diagram, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	d := &voronoi.Diagram{}
	var section string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		switch line {
		case "lines", "edges", "vertices", "delaunaylines":
			section = line
			continue
		}
		fields := strings.Fields(line)
		switch section {
		case "vertices":
			p, err := parsePoint(fields)
			if err != nil {
				return nil, fmt.Errorf("voronoifile: bad vertex line %q: %w", line, err)
			}
			d.Sites = append(d.Sites, p)
		case "edges":
			e, err := parseEdge(fields)
			if err != nil {
				return nil, fmt.Errorf("voronoifile: bad edge line %q: %w", line, err)
			}
			d.Edges = append(d.Edges, e)
		case "delaunaylines":
			de, err := parseDelaunay(fields)
			if err != nil {
				return nil, fmt.Errorf("voronoifile: bad delaunay line %q: %w", line, err)
			}
			d.Delaunay = append(d.Delaunay, de)
		case "lines":
			// Free-form reducer output lines carry no site provenance;
			// record them as edges with unset site indices so callers
			// can still iterate them via EdgeIter.
			l, err := parseLine(fields)
			if err != nil {
				return nil, fmt.Errorf("voronoifile: bad line %q: %w", line, err)
			}
			d.Edges = append(d.Edges, voronoi.Edge{P1: l.P1, P2: l.P2, SiteA: -1, SiteB: -1})
		default:
			return nil, fmt.Errorf("voronoifile: data line %q before any section header", line)
		}
	}
	return d, sc.Err()
}

func parsePoint(fields []string) (geometry.Point, error) {
	v, err := floats(fields, 2)
	if err != nil {
		return geometry.Point{}, err
	}
	return geometry.Point{X: v[0], Y: v[1]}, nil
}

func parseLine(fields []string) (geometry.Line, error) {
	v, err := floats(fields, 4)
	if err != nil {
		return geometry.Line{}, err
	}
	return geometry.Line{P1: geometry.Point{X: v[0], Y: v[1]}, P2: geometry.Point{X: v[2], Y: v[3]}}, nil
}

func parseEdge(fields []string) (voronoi.Edge, error) {
	if len(fields) != 6 {
		return voronoi.Edge{}, fmt.Errorf("expected 6 fields, got %d", len(fields))
	}
	v, err := floats(fields[:4], 4)
	if err != nil {
		return voronoi.Edge{}, err
	}
	a, errA := strconv.Atoi(fields[4])
	b, errB := strconv.Atoi(fields[5])
	if errA != nil || errB != nil {
		return voronoi.Edge{}, fmt.Errorf("bad site indices in %q", strings.Join(fields, " "))
	}
	return voronoi.Edge{
		P1: geometry.Point{X: v[0], Y: v[1]}, P2: geometry.Point{X: v[2], Y: v[3]},
		SiteA: a, SiteB: b,
	}, nil
}

func parseDelaunay(fields []string) (voronoi.DelaunayEdge, error) {
	if len(fields) != 2 {
		return voronoi.DelaunayEdge{}, fmt.Errorf("expected 2 fields, got %d", len(fields))
	}
	a, errA := strconv.Atoi(fields[0])
	b, errB := strconv.Atoi(fields[1])
	if errA != nil || errB != nil {
		return voronoi.DelaunayEdge{}, fmt.Errorf("bad site indices in %q", strings.Join(fields, " "))
	}
	return voronoi.DelaunayEdge{A: a, B: b}, nil
}

func floats(fields []string, n int) ([]float64, error) {
	if len(fields) != n {
		return nil, fmt.Errorf("expected %d fields, got %d", n, len(fields))
	}
	out := make([]float64, n)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Save writes d's vertices, edges and Delaunay pairs as a Voronoi file.
func Save(w io.Writer, d *voronoi.Diagram) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, "vertices"); err != nil {
		return err
	}
	for _, s := range d.Sites {
		if _, err := fmt.Fprintf(bw, "%g %g\n", s.X, s.Y); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(bw, "edges"); err != nil {
		return err
	}
	for _, e := range d.Edges {
		if _, err := fmt.Fprintf(bw, "%g %g %g %g %d %d\n", e.P1.X, e.P1.Y, e.P2.X, e.P2.Y, e.SiteA, e.SiteB); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(bw, "delaunaylines"); err != nil {
		return err
	}
	for _, de := range d.Delaunay {
		if _, err := fmt.Fprintf(bw, "%d %d\n", de.A, de.B); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SaveLines writes an ad hoc line list (e.g. a grid-to-vector reduction
// with no site provenance) under the "lines" section, for callers that
// only need the boundary geometry and not the full Diagram.
func SaveLines(w io.Writer, lines []geometry.Line) error {
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
