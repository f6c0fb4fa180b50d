// Package beesoft reads and writes the Beesoft textual grid format: four
// header keywords followed by size_x*size_y whitespace-separated floats
// in the inverse convention (values are saved as 1-v for v>=0, and -1
// passes straight through).
//
// Grounded on
// _examples/original_source/MapManagerLibrary/translators/BeesoftTranslator.cpp.
package beesoft

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shaneosullivan-maps/mapcore/formats"
	"github.com/shaneosullivan-maps/mapcore/gridmap"
)

// Load reads a Beesoft grid file into a Fragment. Beesoft carries no
// vector objects.
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

	var sizeX, sizeY, resolution int
	haveX, haveY, haveRes := false, false, false

	for !haveX || !haveY || !haveRes {
		key, ok := tok()
		if !ok {
			return nil, fmt.Errorf("beesoft: truncated header")
		}
		switch key {
		case "robot_specifications->global_mapsize_x":
			v, err := intTok(tok)
			if err != nil {
				return nil, fmt.Errorf("beesoft: bad mapsize_x: %w", err)
			}
			sizeX, haveX = v, true
		case "robot_specifications->global_mapsize_y":
			v, err := intTok(tok)
			if err != nil {
				return nil, fmt.Errorf("beesoft: bad mapsize_y: %w", err)
			}
			sizeY, haveY = v, true
		case "robot_specifications->resolution":
			v, err := intTok(tok)
			if err != nil {
				return nil, fmt.Errorf("beesoft: bad resolution: %w", err)
			}
			resolution, haveRes = v, true
		default:
			// Unknown header line: ignore and keep scanning for the
			// four keywords this loader understands.
		}
	}

	// Consume up to and including "global_map[0]:".
	for {
		s, ok := tok()
		if !ok {
			return nil, fmt.Errorf("beesoft: missing global_map[0]: marker")
		}
		if strings.HasPrefix(s, "global_map[0]") {
			break
		}
	}

	g := gridmap.New(gridmap.DefaultBlockSize)
	for x := 0; x < sizeX; x++ {
		for y := 0; y < sizeY; y++ {
			s, ok := tok()
			if !ok {
				return nil, fmt.Errorf("beesoft: truncated grid data at (%d,%d)", x, y)
			}
			v, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return nil, fmt.Errorf("beesoft: bad cell value %q: %w", s, err)
			}
			g.Set(x, y, invert(float32(v)))
		}
	}
	return &formats.Fragment{Resolution: resolution, Grid: g}, nil
}

func intTok(tok func() (string, bool)) (int, error) {
	s, ok := tok()
	if !ok {
		return 0, fmt.Errorf("unexpected EOF")
	}
	return strconv.Atoi(s)
}

// invert applies the Beesoft <-> Map Core value convention in both
// directions: it is its own inverse for every value except -1.
func invert(v float32) float32 {
	if v == -1 {
		return -1
	}
	return 1 - v
}

// Save writes frag as a Beesoft grid file.
func Save(w io.Writer, frag *formats.Fragment) error {
	if frag.Grid == nil {
		return fmt.Errorf("beesoft: cannot save a fragment with no grid")
	}
	b := frag.Grid.UpdatedBounds()
	sizeX, sizeY := 0, 0
	if !b.Empty() {
		sizeX, sizeY = b.MaxX-b.MinX+1, b.MaxY-b.MinY+1
	}
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "robot_specifications->global_mapsize_x %d\n", sizeX); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(bw, "robot_specifications->global_mapsize_y %d\n", sizeY); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(bw, "robot_specifications->resolution %d\n", frag.Resolution); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(bw, "global_map[0]:\n"); err != nil {
		return err
	}
	for x := 0; x < sizeX; x++ {
		for y := 0; y < sizeY; y++ {
			v := invert(frag.Grid.Get(b.MinX+x, b.MinY+y))
			if _, err := fmt.Fprintf(bw, "%g\n", v); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
