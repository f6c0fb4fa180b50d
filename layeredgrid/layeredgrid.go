// Package layeredgrid implements the per-cell stack of (layer-id, value)
// contributions layered over a base GridMap<f32>, so that vector
// deletions and undo can exactly restore the map underneath a removed
// object.
//
// Grounded on MapManagerLibrary/mapmanager/GridMapLayer.{h,cpp}, which
// keeps the same "base value plus a per-cell layer stack" structure
// (there called a vector of LayerInfo per cell) and the same layer-index
// used by deleteLayer/redoLayer.
package layeredgrid

import (
	"fmt"
	"math"

	"github.com/shaneosullivan-maps/mapcore/geometry"
	"github.com/shaneosullivan-maps/mapcore/gridmap"
	"github.com/shaneosullivan-maps/mapcore/internal/blockgrid"
)

type entry struct {
	layer int64
	value float32
}

// cellStack is never allowed to be empty once allocated; an empty stack
// is always represented by a nil *cellStack (spec 3.4 "Empty vectors are
// forbidden by construction").
type cellStack struct {
	entries []entry
}

func (s *cellStack) head() float32 { return s.entries[len(s.entries)-1].value }

type cellLoc struct {
	x, y  int
	value float32
}

// LayeredGrid is the base map plus its layer overlay.
type LayeredGrid struct {
	base    *gridmap.GridMap
	stacks  *blockgrid.BlockGrid[*cellStack]
	layerIdx map[int64][]cellLoc

	enabled bool // layers-enabled mode; false = base-map-only, no undo bookkeeping
}

// New creates an empty LayeredGrid with layers enabled.
func New(blockSize int) *LayeredGrid {
	return &LayeredGrid{
		base:     gridmap.New(blockSize),
		stacks:   blockgrid.New[*cellStack](nil, blockSize, 1),
		layerIdx: make(map[int64][]cellLoc),
		enabled:  true,
	}
}

// Base exposes the underlying GridMap for read-only consumers (format
// savers, voronoi reducer, CLI readers).
func (l *LayeredGrid) Base() *gridmap.GridMap { return l.base }

// SetLayersEnabled switches between precise-undo (layers enabled) and
// bulk (layers disabled, base map only) mode. Disabling clears existing
// layer bookkeeping — per spec 3.4 this mode is used during bulk
// operations where undo is not required.
func (l *LayeredGrid) SetLayersEnabled(enabled bool) {
	if !enabled {
		l.stacks.Reset()
		l.layerIdx = make(map[int64][]cellLoc)
	}
	l.enabled = enabled
}

// LayersEnabled reports the current mode.
func (l *LayeredGrid) LayersEnabled() bool { return l.enabled }

// Get returns the current displayed (base) value at (x,y).
func (l *LayeredGrid) Get(x, y int) float32 { return l.base.Get(x, y) }

// Push records a (layer,v) contribution at (x,y). If layers are disabled
// it writes straight through to the base map. Otherwise: if a stack
// already exists at (x,y), the new entry is pushed only when it differs
// from the current head (spec 4.3); a fresh stack is seeded with the
// pre-existing base value under layer 0 before the new entry is added.
// The base cell is always set to v and the layer-index is updated.
func (l *LayeredGrid) Push(x, y int, layer int64, v float32) {
	if !l.enabled {
		l.base.Set(x, y, v)
		return
	}
	s := l.stacks.Get(x, y, 0)
	fresh := s == nil
	if fresh {
		seed := l.base.Get(x, y)
		s = &cellStack{entries: []entry{{layer: 0, value: seed}}}
		l.stacks.Put(s, x, y, 0)
	}
	if fresh || s.head() != v {
		s.entries = append(s.entries, entry{layer: layer, value: v})
	}
	l.base.Set(x, y, v)
	l.layerIdx[layer] = append(l.layerIdx[layer], cellLoc{x, y, v})
}

// Pop removes the entry matching layer from the stack at (x,y), wherever
// it sits, and writes the new head's value (if any) into the base cell.
// Popping the last real entry collapses the stack back to nil.
func (l *LayeredGrid) Pop(x, y int, layer int64) {
	if !l.enabled {
		return
	}
	s := l.stacks.Get(x, y, 0)
	if s == nil {
		return
	}
	idx := -1
	for i, e := range s.entries {
		if e.layer == layer {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	if len(s.entries) <= 1 {
		// Only the seed (layer 0) remains, or nothing at all: the base
		// cell equals the seed value either way, so drop the stack.
		var seedVal float32
		if len(s.entries) == 1 {
			seedVal = s.entries[0].value
		}
		l.stacks.Put(nil, x, y, 0)
		l.base.Set(x, y, seedVal)
		return
	}
	l.base.Set(x, y, s.head())
}

// DeleteLayer pops layer from every cell it touched (per the layer
// index) and returns the bounding rectangle of the affected cells.
func (l *LayeredGrid) DeleteLayer(layer int64) blockgrid.Rect {
	locs := l.layerIdx[layer]
	r := blockgrid.Rect{MinX: 1, MinY: 1, MaxX: 0, MaxY: 0}
	for _, c := range locs {
		l.popNoIndexUpdate(c.x, c.y, layer)
		r = r.Union(blockgrid.Rect{MinX: c.x, MinY: c.y, MaxX: c.x, MaxY: c.y})
	}
	delete(l.layerIdx, layer)
	return r
}

// popNoIndexUpdate is Pop without touching layerIdx (DeleteLayer owns
// the index lifecycle for the layer being removed).
func (l *LayeredGrid) popNoIndexUpdate(x, y int, layer int64) { l.Pop(x, y, layer) }

// RedoLayer re-pushes every (x,y,v) recorded for layer and returns the
// bounding rectangle of the affected cells.
func (l *LayeredGrid) RedoLayer(layer int64, locs []struct {
	X, Y  int
	Value float32
}) blockgrid.Rect {
	r := blockgrid.Rect{MinX: 1, MinY: 1, MaxX: 0, MaxY: 0}
	for _, c := range locs {
		l.Push(c.X, c.Y, layer, c.Value)
		r = r.Union(blockgrid.Rect{MinX: c.X, MinY: c.Y, MaxX: c.X, MaxY: c.Y})
	}
	return r
}

// LayerCells returns the recorded (x,y,value) triples for layer, in the
// order they were pushed; used by callers (VectorModel undo) that need
// to snapshot a layer before deleting it so it can later be redone.
func (l *LayeredGrid) LayerCells(layer int64) []struct {
	X, Y  int
	Value float32
} {
	locs := l.layerIdx[layer]
	out := make([]struct {
		X, Y  int
		Value float32
	}, len(locs))
	for i, c := range locs {
		out[i] = struct {
			X, Y  int
			Value float32
		}{c.x, c.y, c.value}
	}
	return out
}

// PushObject rasterises an object of the given kind/layer/value at grid
// resolution res and pushes every resulting cell.
func (l *LayeredGrid) PushObject(kind geometry.Kind, p1, p2 geometry.Point, layer int64, value float32, res int) {
	for _, c := range rasterize(kind, p1, p2, value, res) {
		l.Push(int(c.X), int(c.Y), layer, value)
	}
}

// PopObject removes every cell rasterised for an object of the given
// kind/geometry under layer.
func (l *LayeredGrid) PopObject(kind geometry.Kind, p1, p2 geometry.Point, layer int64, value float32, res int) {
	for _, c := range rasterize(kind, p1, p2, value, res) {
		l.Pop(int(c.X), int(c.Y), layer)
	}
}

func rasterize(kind geometry.Kind, p1, p2 geometry.Point, value float32, res int) []geometry.CellXY {
	switch kind {
	case geometry.KindLine:
		return geometry.RasterizeLine(p1, p2, res, true)
	case geometry.KindRect:
		return geometry.RasterizeRectOutline(p1, p2, res)
	case geometry.KindRectFilled:
		return geometry.RasterizeRectFilled(p1, p2, res)
	case geometry.KindRobot:
		radius := math.Hypot(p2.X-p1.X, p2.Y-p1.Y) / 2
		if radius <= 0 {
			radius = geometry.ROBOTRadius
		}
		return geometry.RasterizeRobot(p1, p2, radius, res)
	default:
		return nil
	}
}

// IntegrateAndDeleteLayerInfo collapses every stack by discarding every
// entry but the head, then drops the stack grid and layer index. Called
// before destructive operations where layer-level undo is meaningless.
func (l *LayeredGrid) IntegrateAndDeleteLayerInfo() {
	l.stacks.Reset()
	l.layerIdx = make(map[int64][]cellLoc)
}

// Crop forwards to the base map and destroys all layer info.
func (l *LayeredGrid) Crop(w, n, e, s int) {
	l.IntegrateAndDeleteLayerInfo()
	l.base.Crop(w, n, e, s)
}

// Translate forwards to the base map and destroys all layer info.
func (l *LayeredGrid) Translate(dx, dy int) {
	l.IntegrateAndDeleteLayerInfo()
	l.base.Translate(dx, dy)
}

// GenerateCSpace integrates away layer info then grows occupied cells by
// radiusMm, implementing configuration-space dilation. cancel is
// forwarded to GrowOccupied's inner loop; see its doc for semantics.
func (l *LayeredGrid) GenerateCSpace(radiusMm float64, lo, hi float32, res int, cancel func() bool) {
	l.IntegrateAndDeleteLayerInfo()
	l.base.GrowOccupied(radiusMm, lo, hi, res, cancel)
}

// CheckInvariant panics with a diagnostic if the stack head at (x,y)
// disagrees with the base cell — an unrecoverable programming error per
// spec 7.
func (l *LayeredGrid) CheckInvariant(x, y int) {
	s := l.stacks.Get(x, y, 0)
	if s == nil {
		return
	}
	if s.head() != l.base.Get(x, y) {
		panic(fmt.Sprintf("layeredgrid: invariant violated at (%d,%d): stack head %v != base %v", x, y, s.head(), l.base.Get(x, y)))
	}
}
