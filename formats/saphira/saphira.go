// Package saphira reads and writes the Saphira ".wld" textual map format:
// width, height, an origin, an optional robot position, then one line
// segment per remaining non-blank line as an x1 y1 x2 y2 quadruple.
//
// Grounded on
// _examples/original_source/MapManagerLibrary/translators/SaphiraTranslator.cpp.
package saphira

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shaneosullivan-maps/mapcore/formats"
	"github.com/shaneosullivan-maps/mapcore/geometry"
)

// Load reads a Saphira .wld file into a Fragment. Vector coordinates in
// Saphira files are already millimetres, so ResolutionOff is always set.
func Load(r io.Reader) (*formats.Fragment, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	frag := &formats.Fragment{Resolution: 100, ResolutionOff: true}
	layer := int64(10)
	sawRobot := false

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "width", "height", "origin":
			continue // grid extent metadata, not needed to reconstruct vectors
		case "position":
			if sawRobot {
				return nil, fmt.Errorf("saphira: only one robot position is permitted")
			}
			if len(fields) < 4 {
				return nil, fmt.Errorf("saphira: malformed position line %q", line)
			}
			x, err1 := strconv.ParseFloat(fields[1], 64)
			y, err2 := strconv.ParseFloat(fields[2], 64)
			theta, err3 := strconv.ParseFloat(fields[3], 64)
			if err1 != nil || err2 != nil || err3 != nil {
				return nil, fmt.Errorf("saphira: malformed position line %q", line)
			}
			p1, p2 := geometry.RobotOffsetPoints(geometry.Point{X: x, Y: y}, geometry.ROBOTRadius)
			frag.Objects = append(frag.Objects, formats.VectorRecord{
				Kind: geometry.KindRobot, Layer: layer, Value: float32(theta), P1: p1, P2: p2,
			})
			layer++
			sawRobot = true
		default:
			if len(fields) != 4 {
				return nil, fmt.Errorf("saphira: malformed line segment %q", line)
			}
			vals := make([]float64, 4)
			for i, f := range fields {
				v, err := strconv.ParseFloat(f, 64)
				if err != nil {
					return nil, fmt.Errorf("saphira: bad coordinate %q: %w", f, err)
				}
				vals[i] = v
			}
			frag.Objects = append(frag.Objects, formats.VectorRecord{
				Kind:  geometry.KindLine,
				Layer: layer,
				Value: 1,
				P1:    geometry.Point{X: vals[0], Y: vals[1]},
				P2:    geometry.Point{X: vals[2], Y: vals[3]},
			})
			layer++
		}
	}
	return frag, sc.Err()
}

// Save writes frag as a Saphira .wld file. Only line and robot objects
// are representable; rect/rectfill objects are skipped.
func Save(w io.Writer, frag *formats.Fragment) error {
	bw := bufio.NewWriter(w)
	minX, minY, maxX, maxY := bounds(frag.Objects)
	if _, err := fmt.Fprintf(bw, "width %g\n", maxX-minX); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(bw, "height %g\n", maxY-minY); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(bw, "origin %g %g\n", minX, minY); err != nil {
		return err
	}
	for _, o := range frag.Objects {
		if o.Kind != geometry.KindRobot {
			continue
		}
		centre := geometry.Point{X: (o.P1.X + o.P2.X) / 2, Y: (o.P1.Y + o.P2.Y) / 2}
		if _, err := fmt.Fprintf(bw, "position %g %g %g\n", centre.X, centre.Y, o.Value); err != nil {
			return err
		}
		break // a single robot is permitted
	}
	for _, o := range frag.Objects {
		if o.Kind != geometry.KindLine {
			continue
		}
		if _, err := fmt.Fprintf(bw, "%g %g %g %g\n", o.P1.X, o.P1.Y, o.P2.X, o.P2.Y); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func bounds(objs []formats.VectorRecord) (minX, minY, maxX, maxY float64) {
	first := true
	upd := func(p geometry.Point) {
		if first || p.X < minX {
			minX = p.X
		}
		if first || p.Y < minY {
			minY = p.Y
		}
		if first || p.X > maxX {
			maxX = p.X
		}
		if first || p.Y > maxY {
			maxY = p.Y
		}
		first = false
	}
	for _, o := range objs {
		upd(o.P1)
		upd(o.P2)
	}
	return
}
