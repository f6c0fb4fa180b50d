// Package formats defines the common value type every format adapter
// (mapviewer, saphira, carmen, beesoft, stage, rossum, pointlist, path,
// voronoifile) loads into and saves out of, so adapters never depend on
// one another or on the mapcore façade.
//
// Grounded on
// _examples/original_source/MapManagerLibrary/translators/Translator.h's
// shared load/save contract, which every format-specific translator
// implements against a common in-memory map representation.
package formats

import (
	"github.com/shaneosullivan-maps/mapcore/geometry"
	"github.com/shaneosullivan-maps/mapcore/gridmap"
)

// VectorRecord is one vector object as read from, or about to be written
// to, a format file — independent of any live undo/layer bookkeeping.
type VectorRecord struct {
	Kind   geometry.Kind
	Layer  int64
	Value  float32
	P1, P2 geometry.Point
}

// Fragment is everything a format adapter can carry: a resolution, an
// optional occupancy grid, and zero or more vector records. Adapters that
// only support one half (e.g. Rossum is vector-only) leave the other
// field nil/empty.
type Fragment struct {
	Resolution    int
	ResolutionOff bool // vector coordinates are already mm, not grid-cell multiples of Resolution
	Grid          *gridmap.GridMap
	Objects       []VectorRecord
}
