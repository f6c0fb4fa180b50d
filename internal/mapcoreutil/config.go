// Package mapcoreutil holds the configuration binding and subcommand
// implementations behind cmd/mapcore, the same split the teacher keeps
// between inmaputil's Cfg/options table and its RunE bodies.
package mapcoreutil

import (
	"fmt"
	"io"
	"os"

	"github.com/shaneosullivan-maps/mapcore/formats"
	"github.com/shaneosullivan-maps/mapcore/formats/beesoft"
	"github.com/shaneosullivan-maps/mapcore/formats/carmen"
	"github.com/shaneosullivan-maps/mapcore/formats/mapviewer"
	"github.com/shaneosullivan-maps/mapcore/formats/pointlist"
	"github.com/shaneosullivan-maps/mapcore/formats/saphira"
)

// fragmentFormat is the uniform load/save shape every Fragment-based
// adapter (as opposed to the line-only or bitmap-only adapters) is
// wrapped into, so convert/info/cspace can treat them interchangeably.
type fragmentFormat struct {
	load func(io.Reader) (*formats.Fragment, error)
	save func(io.Writer, *formats.Fragment) error
}

// fragmentFormats lists the adapters convert/info/cspace can read and
// write. stage, path, pointlist's SHP export, voronoifile and pnm are
// deliberately not here: stage reads a world file plus a companion
// bitmap off disk rather than a single stream, and path/voronoifile/pnm
// carry line-only, diagram-only or raster-only data that doesn't fit
// the grid-plus-vectors Fragment shape these subcommands operate on.
var fragmentFormats = map[string]fragmentFormat{
	"mapviewer": {mapviewer.Load, mapviewer.Save},
	"saphira":   {saphira.Load, saphira.Save},
	"beesoft":   {beesoft.Load, beesoft.Save},
	"pointlist": {pointlist.Load, pointlist.Save},
	"carmen": {
		load: func(r io.Reader) (*formats.Fragment, error) {
			frag, err := carmen.Load(r)
			if err != nil {
				return nil, err
			}
			return &frag.Fragment, nil
		},
		save: func(w io.Writer, frag *formats.Fragment) error {
			return carmen.Save(w, &carmen.Fragment{Fragment: *frag})
		},
	},
}

func lookupFormat(name string) (fragmentFormat, error) {
	f, ok := fragmentFormats[name]
	if !ok {
		return fragmentFormat{}, fmt.Errorf("mapcore: unsupported format %q (want one of mapviewer, saphira, beesoft, pointlist, carmen)", name)
	}
	return f, nil
}

func openInput(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mapcore: opening %q: %w", path, err)
	}
	return f, nil
}

func createOutput(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("mapcore: creating %q: %w", path, err)
	}
	return f, nil
}

func validateRange(name string, lo, hi float32) error {
	if lo > hi {
		return fmt.Errorf("mapcore: %s range is inverted: lo=%v hi=%v", name, lo, hi)
	}
	return nil
}
