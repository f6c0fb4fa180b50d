// Package carmen reads and writes the Carmen binary map format: an ASCII
// comment header followed by a sequence of length-prefixed, tag-prefixed
// binary records. Only CREATOR_RECORD and GRIDMAP_RECORD are understood;
// others are skipped on load and never emitted on save.
//
// Grounded on
// _examples/original_source/MapManagerLibrary/translators/CarmenTranslator.cpp.
package carmen

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/shaneosullivan-maps/mapcore/formats"
	"github.com/shaneosullivan-maps/mapcore/gridmap"
)

const (
	tagCreator byte = 1
	tagGridmap byte = 2
)

// Creator carries the optional creator-name/timestamp fields a Carmen
// file's CREATOR_RECORD holds; a load/save round trip must preserve them
// unchanged even though no Map Core operation reads or writes them.
type Creator struct {
	Name string
	Time time.Time
}

// Fragment wraps formats.Fragment with the Carmen-specific Creator
// record, since formats.Fragment has no place for format-specific
// metadata that round trips without semantic meaning elsewhere.
type Fragment struct {
	formats.Fragment
	Creator *Creator
}

// Load reads a Carmen map file.
func Load(r io.Reader) (*Fragment, error) {
	br := bufio.NewReader(r)
	if err := skipCommentHeader(br); err != nil {
		return nil, err
	}

	out := &Fragment{Fragment: formats.Fragment{Resolution: gridmap.DefaultResolution}}
	for {
		tag, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		var length uint32
		if err := binary.Read(br, binary.LittleEndian, &length); err != nil {
			return nil, fmt.Errorf("carmen: truncated record length: %w", err)
		}
		body := make([]byte, length)
		if _, err := io.ReadFull(br, body); err != nil {
			return nil, fmt.Errorf("carmen: truncated record body: %w", err)
		}

		switch tag {
		case tagCreator:
			name, ts, err := decodeCreator(body)
			if err != nil {
				return nil, err
			}
			out.Creator = &Creator{Name: name, Time: ts}
		case tagGridmap:
			g, res, err := decodeGridmap(body)
			if err != nil {
				return nil, err
			}
			out.Grid = g
			out.Resolution = res
		default:
			// Unknown record kind: skip, per the format's forward
			// compatibility contract.
		}
	}
	return out, nil
}

func skipCommentHeader(br *bufio.Reader) error {
	for {
		b, err := br.Peek(1)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if b[0] != '#' {
			return nil
		}
		if _, err := br.ReadString('\n'); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

func decodeCreator(body []byte) (string, time.Time, error) {
	buf := bytes.NewReader(body)
	var nameLen uint32
	if err := binary.Read(buf, binary.LittleEndian, &nameLen); err != nil {
		return "", time.Time{}, fmt.Errorf("carmen: bad creator record: %w", err)
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(buf, name); err != nil {
		return "", time.Time{}, fmt.Errorf("carmen: bad creator name: %w", err)
	}
	var unixSec int64
	if err := binary.Read(buf, binary.LittleEndian, &unixSec); err != nil {
		return "", time.Time{}, fmt.Errorf("carmen: bad creator timestamp: %w", err)
	}
	return string(name), time.Unix(unixSec, 0).UTC(), nil
}

func decodeGridmap(body []byte) (*gridmap.GridMap, int, error) {
	buf := bytes.NewReader(body)
	var sizeX, sizeY, resolution int32
	if err := binary.Read(buf, binary.LittleEndian, &sizeX); err != nil {
		return nil, 0, err
	}
	if err := binary.Read(buf, binary.LittleEndian, &sizeY); err != nil {
		return nil, 0, err
	}
	if err := binary.Read(buf, binary.LittleEndian, &resolution); err != nil {
		return nil, 0, err
	}
	g := gridmap.New(gridmap.DefaultBlockSize)
	for x := 0; x < int(sizeX); x++ {
		for y := 0; y < int(sizeY); y++ {
			var v float32
			if err := binary.Read(buf, binary.LittleEndian, &v); err != nil {
				return nil, 0, fmt.Errorf("carmen: truncated grid data at (%d,%d): %w", x, y, err)
			}
			g.Set(x, y, clamp(v))
		}
	}
	return g, int(resolution), nil
}

func clamp(v float32) float32 {
	if v == -1 {
		return -1
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Save writes frag as a Carmen map file, re-emitting the Creator record
// verbatim if present and always writing the grid at frag.Resolution —
// the map's live resolution, not whatever value the file originally
// carried before a resolution change (see DESIGN.md's Open Question
// decision on the Carmen writer).
func Save(w io.Writer, frag *Fragment) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "# Carmen map file\n"); err != nil {
		return err
	}
	if frag.Creator != nil {
		if err := writeCreator(bw, frag.Creator); err != nil {
			return err
		}
	}
	if frag.Grid != nil {
		if err := writeGridmap(bw, frag.Grid, frag.Resolution); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeCreator(w io.Writer, c *Creator) error {
	var body bytes.Buffer
	if err := binary.Write(&body, binary.LittleEndian, uint32(len(c.Name))); err != nil {
		return err
	}
	if _, err := body.WriteString(c.Name); err != nil {
		return err
	}
	if err := binary.Write(&body, binary.LittleEndian, c.Time.Unix()); err != nil {
		return err
	}
	return writeRecord(w, tagCreator, body.Bytes())
}

func writeGridmap(w io.Writer, g *gridmap.GridMap, resolution int) error {
	b := g.UpdatedBounds()
	var body bytes.Buffer
	sizeX, sizeY := 0, 0
	if !b.Empty() {
		sizeX, sizeY = b.MaxX-b.MinX+1, b.MaxY-b.MinY+1
	}
	if err := binary.Write(&body, binary.LittleEndian, int32(sizeX)); err != nil {
		return err
	}
	if err := binary.Write(&body, binary.LittleEndian, int32(sizeY)); err != nil {
		return err
	}
	if err := binary.Write(&body, binary.LittleEndian, int32(resolution)); err != nil {
		return err
	}
	for x := 0; x < sizeX; x++ {
		for y := 0; y < sizeY; y++ {
			v := clamp(g.Get(b.MinX+x, b.MinY+y))
			if err := binary.Write(&body, binary.LittleEndian, v); err != nil {
				return err
			}
		}
	}
	return writeRecord(w, tagGridmap, body.Bytes())
}

func writeRecord(w io.Writer, tag byte, body []byte) error {
	if _, err := w.Write([]byte{tag}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(body))); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}
