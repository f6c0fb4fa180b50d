// Package mapviewer implements the canonical map-and-vectors text format:
// a resolution header, an optional gridmap block (west/east/north/south
// extent plus x-major run-length-capable data), and an optional
// vectorobjects block.
//
// Grounded on
// _examples/original_source/MapManagerLibrary/translators/MapViewerTranslator.cpp,
// the original "old grid format plus vectors" reader/writer this package
// reproduces.
package mapviewer

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/shaneosullivan-maps/mapcore/formats"
	"github.com/shaneosullivan-maps/mapcore/geometry"
	"github.com/shaneosullivan-maps/mapcore/gridmap"
)

// Load reads a mapviewer-format file into a Fragment.
func Load(r io.Reader) (*formats.Fragment, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 32*1024*1024)
	sc.Split(bufio.ScanWords)

	tok := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		return sc.Text(), true
	}
	expect := func(want string) error {
		got, ok := tok()
		if !ok {
			return fmt.Errorf("mapviewer: expected %q, got EOF", want)
		}
		if got != want {
			return fmt.Errorf("mapviewer: expected %q, got %q", want, got)
		}
		return nil
	}
	intTok := func() (int, error) {
		s, ok := tok()
		if !ok {
			return 0, fmt.Errorf("mapviewer: expected integer, got EOF")
		}
		return strconv.Atoi(s)
	}
	floatTok := func() (float64, error) {
		s, ok := tok()
		if !ok {
			return 0, fmt.Errorf("mapviewer: expected number, got EOF")
		}
		return strconv.ParseFloat(s, 64)
	}

	frag := &formats.Fragment{Resolution: gridmap.DefaultResolution}

	if err := expect("resolution"); err != nil {
		return nil, err
	}
	res, err := intTok()
	if err != nil {
		return nil, fmt.Errorf("mapviewer: bad resolution: %w", err)
	}
	frag.Resolution = res

	next, ok := tok()
	if !ok {
		return frag, nil
	}
	if next == "resolution_off" {
		b, ok := tok()
		if !ok {
			return nil, fmt.Errorf("mapviewer: expected true/false after resolution_off")
		}
		frag.ResolutionOff = b == "true"
		next, ok = tok()
		if !ok {
			return frag, nil
		}
	}

	if next == "gridmap" {
		var west, east, north, south int
		for i := 0; i < 4; i++ {
			name, ok := tok()
			if !ok {
				return nil, fmt.Errorf("mapviewer: truncated gridmap header")
			}
			v, err := strconv.Atoi(mustToken(tok))
			if err != nil {
				return nil, fmt.Errorf("mapviewer: bad %s value: %w", name, err)
			}
			switch name {
			case "west":
				west = v
			case "east":
				east = v
			case "north":
				north = v
			case "south":
				south = v
			default:
				return nil, fmt.Errorf("mapviewer: unexpected gridmap field %q", name)
			}
		}
		if err := expect("data"); err != nil {
			return nil, err
		}
		g := gridmap.New(gridmap.DefaultBlockSize)
		cr := newCellReader(tok)
		for x := west; x <= east; x++ {
			for y := south; y <= north; y++ {
				v, err := cr.next()
				if err != nil {
					return nil, err
				}
				g.Set(x, y, v)
			}
		}
		frag.Grid = g
		next, ok = tok()
		if !ok {
			return frag, nil
		}
	}

	if next == "vectorobjects" {
		for {
			kindTok, ok := tok()
			if !ok {
				break
			}
			kind, err := parseKind(kindTok)
			if err != nil {
				return nil, err
			}
			layer, err := intTok()
			if err != nil {
				return nil, fmt.Errorf("mapviewer: bad layer: %w", err)
			}
			value, err := floatTok()
			if err != nil {
				return nil, fmt.Errorf("mapviewer: bad value: %w", err)
			}
			x1, err := floatTok()
			if err != nil {
				return nil, err
			}
			y1, err := floatTok()
			if err != nil {
				return nil, err
			}
			x2, err := floatTok()
			if err != nil {
				return nil, err
			}
			y2, err := floatTok()
			if err != nil {
				return nil, err
			}
			frag.Objects = append(frag.Objects, formats.VectorRecord{
				Kind:  kind,
				Layer: int64(layer),
				Value: float32(value),
				P1:    geometry.Point{X: x1, Y: y1},
				P2:    geometry.Point{X: x2, Y: y2},
			})
		}
	}
	return frag, nil
}

func mustToken(tok func() (string, bool)) string {
	s, _ := tok()
	return s
}

// cellReader yields one grid value per call to next, transparently
// expanding a "[ n v ]" run token into n repeated values.
type cellReader struct {
	tok     func() (string, bool)
	pending []float32
}

func newCellReader(tok func() (string, bool)) *cellReader { return &cellReader{tok: tok} }

func (c *cellReader) next() (float32, error) {
	if len(c.pending) > 0 {
		v := c.pending[0]
		c.pending = c.pending[1:]
		return v, nil
	}
	s, ok := c.tok()
	if !ok {
		return 0, fmt.Errorf("mapviewer: truncated grid data")
	}
	if s != "[" {
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return 0, fmt.Errorf("mapviewer: bad cell value %q: %w", s, err)
		}
		return float32(v), nil
	}
	nStr, ok := c.tok()
	if !ok {
		return 0, fmt.Errorf("mapviewer: truncated run")
	}
	n, err := strconv.Atoi(nStr)
	if err != nil {
		return 0, fmt.Errorf("mapviewer: bad run count %q: %w", nStr, err)
	}
	vStr, ok := c.tok()
	if !ok {
		return 0, fmt.Errorf("mapviewer: truncated run")
	}
	v, err := strconv.ParseFloat(vStr, 32)
	if err != nil {
		return 0, fmt.Errorf("mapviewer: bad run value %q: %w", vStr, err)
	}
	if closeTok, ok := c.tok(); !ok || closeTok != "]" {
		return 0, fmt.Errorf("mapviewer: unterminated run")
	}
	if n < 1 {
		return 0, fmt.Errorf("mapviewer: non-positive run count %d", n)
	}
	for i := 1; i < n; i++ {
		c.pending = append(c.pending, float32(v))
	}
	return float32(v), nil
}

func parseKind(s string) (geometry.Kind, error) {
	switch s {
	case "line":
		return geometry.KindLine, nil
	case "rect":
		return geometry.KindRect, nil
	case "rectfill":
		return geometry.KindRectFilled, nil
	case "robot":
		return geometry.KindRobot, nil
	}
	return 0, fmt.Errorf("mapviewer: unknown vector kind %q", s)
}

// Save writes frag in mapviewer format. Grid data is written literally,
// one value per line, without run-length compression — a valid reader
// must accept both forms, but this writer favours simplicity.
func Save(w io.Writer, frag *formats.Fragment) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "resolution %d\n", frag.Resolution); err != nil {
		return err
	}
	if frag.ResolutionOff {
		if _, err := fmt.Fprintf(bw, "resolution_off true\n"); err != nil {
			return err
		}
	}
	if frag.Grid != nil {
		b := frag.Grid.UpdatedBounds()
		if !b.Empty() {
			if _, err := fmt.Fprintf(bw, "gridmap\nwest %d east %d north %d south %d\ndata\n", b.MinX, b.MaxX, b.MaxY, b.MinY); err != nil {
				return err
			}
			for x := b.MinX; x <= b.MaxX; x++ {
				for y := b.MinY; y <= b.MaxY; y++ {
					if _, err := fmt.Fprintf(bw, "%g\n", frag.Grid.Get(x, y)); err != nil {
						return err
					}
				}
			}
		}
	}
	if len(frag.Objects) > 0 {
		if _, err := fmt.Fprintf(bw, "vectorobjects\n"); err != nil {
			return err
		}
		for _, o := range frag.Objects {
			if _, err := fmt.Fprintf(bw, "%s %d %g %g %g %g %g\n", o.Kind, o.Layer, o.Value, o.P1.X, o.P1.Y, o.P2.X, o.P2.Y); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
