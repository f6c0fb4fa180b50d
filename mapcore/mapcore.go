// Package mapcore is the façade a caller embeds: one LayeredGrid, one
// vectormodel.Model bound to it, and the bookkeeping (current
// resolution, running-average count, last error) that the map-editing
// operations in spec 4.9 share.
//
// Grounded on MapManagerLibrary/mapmanager/MapManager.{h,cpp}, which is
// the original's single facade class wrapping the same grid+vector pair
// plus a last-error (title, message) slot cleared by the first reader.
package mapcore

import (
	"fmt"
	"io"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/shaneosullivan-maps/mapcore/formats"
	"github.com/shaneosullivan-maps/mapcore/formats/mapviewer"
	"github.com/shaneosullivan-maps/mapcore/geometry"
	"github.com/shaneosullivan-maps/mapcore/gridmap"
	"github.com/shaneosullivan-maps/mapcore/internal/blockgrid"
	"github.com/shaneosullivan-maps/mapcore/layeredgrid"
	"github.com/shaneosullivan-maps/mapcore/vectormodel"
	"github.com/shaneosullivan-maps/mapcore/voronoi"
)

// Version identifies this facade's wire/behaviour contract.
const Version = "1.0.0"

// ErrorKind classifies a facade error per spec 6's external-interface
// taxonomy.
type ErrorKind int

const (
	ErrFileOpen ErrorKind = iota
	ErrFileSave
	ErrParse
	ErrNoMapLoaded
	ErrOutOfMemory
	ErrUnsupportedFormat
	ErrInvalidArgument
)

func (k ErrorKind) String() string {
	switch k {
	case ErrFileOpen:
		return "FileOpen"
	case ErrFileSave:
		return "FileSave"
	case ErrParse:
		return "ParseError"
	case ErrNoMapLoaded:
		return "NoMapLoaded"
	case ErrOutOfMemory:
		return "OutOfMemory"
	case ErrUnsupportedFormat:
		return "UnsupportedFormat"
	case ErrInvalidArgument:
		return "InvalidArgument"
	default:
		return "Unknown"
	}
}

// Error is the (title, message) pair spec 6/7 describe: a short
// machine-classifiable title plus a human-readable message. Callers that
// need the classification switch on Kind; callers that just want
// something to show a user read Error().
type Error struct {
	Kind    ErrorKind
	Title   string
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Title, e.Message) }

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Title: kind.String(), Message: fmt.Sprintf(format, args...)}
}

// MapCore owns one layered grid and its bound vector model. Zero value
// is not usable; construct with New or NewMap.
type MapCore struct {
	grid    *layeredgrid.LayeredGrid
	vectors *vectormodel.Model
	res     int
	log     *logrus.Logger

	avgCount int // number of maps folded into the running average so far

	lastErr *Error

	cancelBulk bool // set by CancelBulkJob, polled inside bulk ops' inner loops
	jobOK      bool // result of the most recently finished bulk op
}

// CancelBulkJob requests that the bulk operation currently running (or
// the next one started) stop at its next cancellation check. MapCore is
// single-threaded cooperative and the bulk operations take no caller
// callback, so a cancel requested before AverageGridMap,
// GenerateCSpaceSimple or ReduceToVoronoiLines starts stops that run at
// its first check.
func (mc *MapCore) CancelBulkJob() { mc.cancelBulk = true }

// JobCompletedSuccessfully reports whether the most recently run bulk
// operation (AverageGridMap, GenerateCSpaceSimple, ReduceToVoronoiLines)
// ran to completion rather than being cancelled partway through.
func (mc *MapCore) JobCompletedSuccessfully() bool { return mc.jobOK }

// canceled is passed to bulk operations as their poll function.
func (mc *MapCore) canceled() bool { return mc.cancelBulk }

// startBulkJob clears the prior job's completion flag; every bulk
// operation calls this before doing any work. It deliberately leaves
// cancelBulk alone: a caller is allowed to call CancelBulkJob before the
// operation it targets has actually started.
func (mc *MapCore) startBulkJob() {
	mc.jobOK = false
}

// finishBulkJob records whether the bulk operation ran to completion —
// jobOK is true only if nobody called CancelBulkJob before or during the
// run — then clears the cancel flag so the next bulk operation starts
// uncancelled.
func (mc *MapCore) finishBulkJob() {
	mc.jobOK = !mc.cancelBulk
	mc.cancelBulk = false
}

// discardLogger is the default logger for callers that don't supply
// their own: library use without a CLI must produce no output.
func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// New creates an empty map at the given resolution (mm per cell),
// logging lifecycle and bulk-operation events to logger. A nil logger
// is replaced with a no-op logger. The min/max bounds are advisory
// only: the underlying grid is sparse and grows lazily as cells are
// written, the same way MapManagerLibrary's block-allocated grid does,
// so they are accepted for API compatibility with callers that size a
// map up front but are not used to pre-allocate storage.
func New(minX, maxX, minY, maxY float64, resolution int, logger *logrus.Logger) (*MapCore, error) {
	if resolution <= 0 {
		return nil, newError(ErrInvalidArgument, "resolution must be positive, got %d", resolution)
	}
	if maxX < minX || maxY < minY {
		return nil, newError(ErrInvalidArgument, "map bounds are inverted: (%v,%v)-(%v,%v)", minX, minY, maxX, maxY)
	}
	if logger == nil {
		logger = discardLogger()
	}
	grid := layeredgrid.New(gridmap.DefaultBlockSize)
	logger.WithFields(logrus.Fields{"resolution": resolution}).Debug("mapcore: new map")
	return &MapCore{
		grid:    grid,
		vectors: vectormodel.New(grid, resolution),
		res:     resolution,
		log:     logger,
	}, nil
}

// NewMap is New with the default no-op logger, for callers that don't
// care about tracing.
func NewMap(minX, maxX, minY, maxY float64, resolution int) (*MapCore, error) {
	return New(minX, maxX, minY, maxY, resolution, nil)
}

// Reset discards all grid and vector state, keeping the current
// resolution.
func (mc *MapCore) Reset() {
	mc.grid = layeredgrid.New(gridmap.DefaultBlockSize)
	mc.vectors = vectormodel.New(mc.grid, mc.res)
	mc.avgCount = 0
	mc.lastErr = nil
	mc.cancelBulk = false
	mc.jobOK = false
	mc.log.Debug("mapcore: reset")
}

// AddMap merges other into mc: every cell of other's base grid is
// combined into mc's base by taking the elementwise maximum (an
// occupied cell always wins over a free or unknown one), and every
// vector object of other is re-inserted into mc as a fresh object with
// its own layer id and undo entry. shallow skips the grid merge and
// only imports the vector objects, for a caller that already knows the
// two maps share identical underlying cells (MapManagerLibrary's
// performShallowCopy) and only wants the second map's annotations.
func (mc *MapCore) AddMap(other *MapCore, shallow bool) {
	if !shallow {
		ob := other.grid.Base().UpdatedBounds()
		if !ob.Empty() {
			for y := ob.MinY; y <= ob.MaxY; y++ {
				for x := ob.MinX; x <= ob.MaxX; x++ {
					v := other.grid.Base().Get(x, y)
					if v == gridmap.Unknown {
						continue
					}
					if cur := mc.grid.Base().Get(x, y); cur != gridmap.Unknown && cur > v {
						continue
					}
					mc.grid.Base().Set(x, y, v)
				}
			}
		}
	}
	for _, obj := range other.vectors.Objects() {
		mc.vectors.SetObject(obj.Kind, obj.P1, obj.P2, obj.Value)
	}
}

// Resolution returns the current mm-per-cell resolution.
func (mc *MapCore) Resolution() int { return mc.res }

// LastError returns and clears the last recorded error, the way spec 7
// describes a reader consuming the (title, message) slot once.
func (mc *MapCore) LastError() *Error {
	e := mc.lastErr
	mc.lastErr = nil
	return e
}

func (mc *MapCore) setLastError(e *Error) *Error {
	mc.lastErr = e
	return e
}

// --- pixel operations ---

// SetPoint writes a single cell through the undo/redo system, as an
// object of its own (spec 8 scenario S1 treats a lone set_point as an
// undo step distinct from any preceding set_line).
func (mc *MapCore) SetPoint(x, y int, value float32) {
	mc.vectors.SetPointBrush([]struct {
		X, Y  int
		Value float32
	}{{X: x, Y: y, Value: value}})
}

// GetPointVal reads the current composited value of one cell.
func (mc *MapCore) GetPointVal(x, y int) float32 { return mc.grid.Get(x, y) }

// FillArea performs a 4-neighbour flood fill starting at the cell under
// (xMm, yMm), replacing every reachable cell within tolerance of the
// start cell's value with value. The fill is bounded to one cell beyond
// the grid's current allocated extent so an all-default region cannot
// flood without limit; cells outside that bound are left untouched even
// if they would otherwise match. The scratch visited-set is local to
// this call and discarded once the brush is applied.
func (mc *MapCore) FillArea(xMm, yMm float64, value float32, tolerance float32) {
	x0 := int(geometry.CellFromMM(xMm, mc.res))
	y0 := int(geometry.CellFromMM(yMm, mc.res))
	target := mc.grid.Get(x0, y0)

	bound := mc.grid.Base().AllocatedBounds()
	if bound.Empty() {
		bound = blockgrid.Rect{MinX: x0, MinY: y0, MaxX: x0, MaxY: y0}
	}
	bound.MinX--
	bound.MinY--
	bound.MaxX++
	bound.MaxY++

	type cell struct{ x, y int }
	visited := make(map[cell]bool)
	var brush []struct {
		X, Y  int
		Value float32
	}
	stack := []cell{{x0, y0}}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[c] || !bound.Contains(c.x, c.y) {
			continue
		}
		visited[c] = true
		v := mc.grid.Get(c.x, c.y)
		if absf32(v-target) > tolerance {
			continue
		}
		brush = append(brush, struct {
			X, Y  int
			Value float32
		}{X: c.x, Y: c.y, Value: value})
		stack = append(stack,
			cell{c.x + 1, c.y}, cell{c.x - 1, c.y},
			cell{c.x, c.y + 1}, cell{c.x, c.y - 1})
	}
	if len(brush) > 0 {
		mc.vectors.SetPointBrush(brush)
	}
}

func absf32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// --- vector operations ---

func (mc *MapCore) SetLine(p1, p2 geometry.Point, value float32) vectormodel.Object {
	return mc.vectors.SetObject(geometry.KindLine, p1, p2, value)
}

func (mc *MapCore) SetRectangle(p1, p2 geometry.Point, value float32) vectormodel.Object {
	return mc.vectors.SetObject(geometry.KindRect, p1, p2, value)
}

func (mc *MapCore) SetRectangleFilled(p1, p2 geometry.Point, value float32) vectormodel.Object {
	return mc.vectors.SetObject(geometry.KindRectFilled, p1, p2, value)
}

func (mc *MapCore) SetRobot(centre geometry.Point, orientationDeg float64) vectormodel.Object {
	return mc.vectors.SetRobot(centre, orientationDeg)
}

func (mc *MapCore) RobotRuns() []vectormodel.RobotPlacement { return mc.vectors.RobotRuns() }

func (mc *MapCore) DeleteObject(layer int64) error {
	if err := mc.vectors.DeleteObject(layer); err != nil {
		return mc.setLastError(newError(ErrInvalidArgument, "%v", err))
	}
	return nil
}

func (mc *MapCore) ReplaceObject(layer int64, kind geometry.Kind, p1, p2 geometry.Point, value float32) (vectormodel.Object, error) {
	obj, err := mc.vectors.ReplaceObject(layer, kind, p1, p2, value)
	if err != nil {
		return obj, mc.setLastError(newError(ErrInvalidArgument, "%v", err))
	}
	return obj, nil
}

func (mc *MapCore) TranslateObjects(layers []int64, dx, dy float64) {
	mc.vectors.TranslateObjects(layers, dx, dy)
}

func (mc *MapCore) ClearVectors() { mc.vectors.ClearVectors() }

func (mc *MapCore) ClearRobots() { mc.vectors.ClearRobots() }

func (mc *MapCore) Objects() []vectormodel.Object { return mc.vectors.Objects() }

// --- format bridging ---

// LoadFragment builds a fresh map from a format adapter's decoded
// fragment: the grid cells are copied in directly (no undo entry, the
// same way loading a file replaces state in MapManagerLibrary rather
// than recording an undoable action) and the vector records are
// replayed through SetObject so each becomes a normal, undoable layer.
func LoadFragment(frag *formats.Fragment, logger *logrus.Logger) (*MapCore, error) {
	res := frag.Resolution
	if res <= 0 {
		res = gridmap.DefaultResolution
	}
	mc, err := New(0, 0, 0, 0, res, logger)
	if err != nil {
		return nil, err
	}
	if frag.Grid != nil {
		b := frag.Grid.UpdatedBounds()
		if !b.Empty() {
			base := mc.grid.Base()
			for y := b.MinY; y <= b.MaxY; y++ {
				for x := b.MinX; x <= b.MaxX; x++ {
					if v := frag.Grid.Get(x, y); v != gridmap.Unknown {
						base.Set(x, y, v)
					}
				}
			}
		}
	}
	for _, rec := range frag.Objects {
		mc.vectors.SetObject(rec.Kind, rec.P1, rec.P2, rec.Value)
	}
	return mc, nil
}

// ExportFragment flattens mc's current state into the common value type
// every format adapter saves from, after discarding the layer history
// the same way ThresholdMap/SmoothMap do, since a saved file has no
// notion of undo.
func (mc *MapCore) ExportFragment() *formats.Fragment {
	mc.grid.IntegrateAndDeleteLayerInfo()
	objs := mc.vectors.Objects()
	recs := make([]formats.VectorRecord, len(objs))
	for i, o := range objs {
		recs[i] = formats.VectorRecord{Kind: o.Kind, Layer: o.LayerID, Value: o.Value, P1: o.P1, P2: o.P2}
	}
	return &formats.Fragment{Resolution: mc.res, Grid: mc.grid.Base(), Objects: recs}
}

// --- maintenance operations ---

func (mc *MapCore) Undo() bool { return mc.vectors.Undo() }

func (mc *MapCore) Redo() bool { return mc.vectors.Redo() }

// SetResolution changes the mm-per-cell scale of future vector
// rasterisation without touching already-painted grid cells.
func (mc *MapCore) SetResolution(newRes int) error {
	if newRes <= 0 {
		return mc.setLastError(newError(ErrInvalidArgument, "resolution must be positive, got %d", newRes))
	}
	mc.vectors.SetResolution(newRes)
	mc.res = newRes
	return nil
}

// CropMap clips both the base grid and every vector object to the
// rectangle (x1,y1)-(x2,y2), given in mm and in either corner order.
func (mc *MapCore) CropMap(x1, y1, x2, y2 float64) {
	mc.vectors.CropObjects(x1, y1, x2, y2)
	w := int(geometry.CellFromMM(math.Min(x1, x2), mc.res))
	e := int(geometry.CellFromMM(math.Max(x1, x2), mc.res))
	s := int(geometry.CellFromMM(math.Min(y1, y2), mc.res))
	n := int(geometry.CellFromMM(math.Max(y1, y2), mc.res))
	mc.grid.Crop(w, n, e, s)
}

// TranslateMap shifts the whole map by (dxMm, dyMm), which must each be
// an exact multiple of the current resolution since the base grid only
// translates in whole cells.
func (mc *MapCore) TranslateMap(dxMm, dyMm float64) error {
	if math.Mod(dxMm, float64(mc.res)) != 0 || math.Mod(dyMm, float64(mc.res)) != 0 {
		return mc.setLastError(newError(ErrInvalidArgument,
			"translation (%v,%v) is not a multiple of resolution %d", dxMm, dyMm, mc.res))
	}
	dx := int(dxMm) / mc.res
	dy := int(dyMm) / mc.res
	mc.grid.Translate(dx, dy)

	var layers []int64
	for _, obj := range mc.vectors.Objects() {
		layers = append(layers, obj.LayerID)
	}
	mc.vectors.TranslateObjects(layers, dxMm, dyMm)
	return nil
}

// ThresholdMap collapses every known cell to 0 or 1: the cell's value is
// normalised to [lo,hi] then clamped to [0,1], and rounds to 1 at or
// above the midpoint, 0 below it. Unknown cells become 0 (treated as
// free) rather than participating in the normalisation. This discards
// layer history first, the same way GenerateCSpace does, since the
// result no longer corresponds to any single painted object.
func (mc *MapCore) ThresholdMap(lo, hi float32) {
	mc.grid.IntegrateAndDeleteLayerInfo()
	base := mc.grid.Base()
	b := base.UpdatedBounds()
	if b.Empty() {
		return
	}
	span := hi - lo
	for y := b.MinY; y <= b.MaxY; y++ {
		for x := b.MinX; x <= b.MaxX; x++ {
			v := base.Get(x, y)
			if v == gridmap.Unknown {
				base.Set(x, y, 0)
				continue
			}
			var out float32
			if span != 0 {
				norm := (v - lo) / span
				if norm < 0 {
					norm = 0
				}
				if norm > 1 {
					norm = 1
				}
				if norm >= 0.5 {
					out = 1
				}
			}
			base.Set(x, y, out)
		}
	}
}

// SmoothMap box-blurs every cell whose current value lies in [lo,hi],
// leaving cells outside that band, including unknown cells, untouched.
func (mc *MapCore) SmoothMap(lo, hi float32) {
	mc.grid.IntegrateAndDeleteLayerInfo()
	base := mc.grid.Base()
	b := base.UpdatedBounds()
	if b.Empty() {
		return
	}
	blurred := base.BoxBlur(3, 1.0/9.0)
	for y := b.MinY; y <= b.MaxY; y++ {
		for x := b.MinX; x <= b.MaxX; x++ {
			v := base.Get(x, y)
			if v < lo || v > hi {
				continue
			}
			base.Set(x, y, blurred.Get(x, y))
		}
	}
}

// NegativeMap inverts every known cell (v -> 1-v) and leaves unknown
// cells unchanged, so threshold_map then negative_map composes as spec
// 8 scenario S2 describes: threshold first coerces unknown to 0, so a
// negate that follows a threshold never sees -1 again.
func (mc *MapCore) NegativeMap() {
	mc.grid.IntegrateAndDeleteLayerInfo()
	base := mc.grid.Base()
	b := base.UpdatedBounds()
	if b.Empty() {
		return
	}
	for y := b.MinY; y <= b.MaxY; y++ {
		for x := b.MinX; x <= b.MaxX; x++ {
			v := base.Get(x, y)
			if v == gridmap.Unknown {
				continue
			}
			base.Set(x, y, 1-v)
		}
	}
}

// GenerateCSpaceSimple grows every cell in [lo,hi] outward by distMm,
// the configuration-space dilation used to turn an occupancy map into a
// footprint a robot of that radius cannot enter.
func (mc *MapCore) GenerateCSpaceSimple(lo, hi float32, distMm float64) {
	mc.log.WithFields(logrus.Fields{"distMm": distMm, "lo": lo, "hi": hi}).Debug("mapcore: generating configuration space")
	mc.startBulkJob()
	mc.grid.GenerateCSpace(distMm, lo, hi, mc.res, mc.canceled)
	mc.finishBulkJob()
}

// AverageGridMap folds one more map, read in MapViewer format from r,
// into the running mean. Cells the incoming map has no information for
// keep the running average's current value rather than being treated as
// free or occupied, so a partial scan never drags the average toward
// unknown.
func (mc *MapCore) AverageGridMap(r io.Reader) error {
	frag, err := mapviewer.Load(r)
	if err != nil {
		return mc.setLastError(newError(ErrFileOpen, "%v", err))
	}
	mc.log.WithFields(logrus.Fields{"priorSamples": mc.avgCount}).Debug("mapcore: folding a map into the running average")
	if frag.Grid == nil {
		return mc.setLastError(newError(ErrParse, "averaged map has no grid data"))
	}
	mc.startBulkJob()
	mc.grid.IntegrateAndDeleteLayerInfo()
	base := mc.grid.Base()
	n := float32(mc.avgCount)

	union := base.UpdatedBounds().Union(frag.Grid.UpdatedBounds())
	if !union.Empty() {
	rows:
		for y := union.MinY; y <= union.MaxY; y++ {
			if mc.canceled() {
				break rows
			}
			for x := union.MinX; x <= union.MaxX; x++ {
				cur := base.Get(x, y)
				if cur == gridmap.Unknown {
					cur = 0
				}
				incoming := frag.Grid.Get(x, y)
				if incoming == gridmap.Unknown {
					incoming = cur
				}
				base.Set(x, y, (cur*n+incoming)/(n+1))
			}
		}
	}
	mc.finishBulkJob()
	if mc.jobOK {
		mc.avgCount++
	}
	return nil
}

// CorrelateMap returns the Pearson correlation between mc's and other's
// base grids.
func (mc *MapCore) CorrelateMap(other *MapCore) float64 {
	return mc.grid.Base().Correlate(other.grid.Base())
}

// MapScoreMap returns the CMU MATCH-style sum-of-squared-differences
// score between mc's and other's base grids. comparable is false when
// neither map has any updated cells, in which case score is always 0
// and must not be read as "a perfect match".
func (mc *MapCore) MapScoreMap(other *MapCore, occupiedOnly bool) (score float64, comparable bool) {
	a, b := mc.grid.Base(), other.grid.Base()
	if !a.Comparable(b) {
		return 0, false
	}
	return a.Score(b, occupiedOnly), true
}

// --- readers ---

// ComputeVoronoi seeds Voronoi sites from the free cells that border
// occupied cells in [occLo,occHi] and returns the full diagram (sites,
// clipped Voronoi edges and the dual Delaunay graph) for callers that
// need more than the merged line segments ReduceToVoronoiLines returns.
func (mc *MapCore) ComputeVoronoi(occLo, occHi float32, dMin float64) *voronoi.Diagram {
	base := mc.grid.Base()
	bounds := base.UpdatedBounds()
	if bounds.Empty() {
		return &voronoi.Diagram{}
	}
	occupied := func(x, y int) bool {
		v := base.Get(x, y)
		return v >= occLo && v <= occHi
	}
	isBoundary := make(map[[2]int]bool)
	for y := bounds.MinY - 1; y <= bounds.MaxY+1; y++ {
		for x := bounds.MinX - 1; x <= bounds.MaxX+1; x++ {
			if !occupied(x, y) {
				continue
			}
			if !occupied(x-1, y) || !occupied(x+1, y) || !occupied(x, y-1) || !occupied(x, y+1) {
				isBoundary[[2]int{x, y}] = true
			}
		}
	}
	seen := make(map[[2]int]bool)
	var sites []geometry.Point
	for c := range isBoundary {
		x, y := c[0], c[1]
		for _, n := range [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
			if isBoundary[n] || occupied(n[0], n[1]) || seen[n] {
				continue
			}
			seen[n] = true
			sites = append(sites, geometry.Point{
				X: float64(n[0]*mc.res) + float64(mc.res)/2,
				Y: float64(n[1]*mc.res) + float64(mc.res)/2,
			})
		}
	}
	if len(sites) < 2 {
		return &voronoi.Diagram{Sites: sites}
	}
	clip := voronoi.Bounds{
		MinX: float64((bounds.MinX - 1) * mc.res), MinY: float64((bounds.MinY - 1) * mc.res),
		MaxX: float64((bounds.MaxX + 2) * mc.res), MaxY: float64((bounds.MaxY + 2) * mc.res),
	}
	return voronoi.Compute(sites, clip, dMin)
}

// ReduceToVoronoiLines returns the merged boundary line segments
// convert_grid_to_line_with_voronoi produces, discarding the diagram
// that produced them.
func (mc *MapCore) ReduceToVoronoiLines(occLo, occHi float32, dMin float64) []geometry.Line {
	mc.startBulkJob()
	lines := voronoi.ReduceGridToLines(mc.grid.Base(), occLo, occHi, mc.res, dMin, mc.canceled)
	mc.finishBulkJob()
	return lines
}

// RowReader copies one row of the base grid at a time, for callers that
// want to stream a large map out without holding it all in memory twice.
type RowReader struct {
	grid    *gridmap.GridMap
	bounds  blockgrid.Rect
	nextRow int
}

// NewRowReader returns a reader over mc's current base grid bounds.
// Calling it again after further edits reflects the edits, since it
// holds a live reference to the grid rather than a snapshot.
func (mc *MapCore) NewRowReader() *RowReader {
	b := mc.grid.Base().UpdatedBounds()
	return &RowReader{grid: mc.grid.Base(), bounds: b, nextRow: b.MinY}
}

// Next copies the next row into dst (resized as needed) and returns it
// along with the row's y coordinate. ok is false once every row in
// bounds has been returned.
func (r *RowReader) Next(dst []float32) (row []float32, y int, ok bool) {
	if r.bounds.Empty() || r.nextRow > r.bounds.MaxY {
		return nil, 0, false
	}
	y = r.nextRow
	r.nextRow++
	width := r.bounds.MaxX - r.bounds.MinX + 1
	if cap(dst) < width {
		dst = make([]float32, width)
	}
	dst = dst[:width]
	r.grid.CopyRow(dst, y, r.bounds.MinX, r.bounds.MaxX)
	return dst, y, true
}
