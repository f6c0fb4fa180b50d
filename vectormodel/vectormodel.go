// Package vectormodel implements the insertion-ordered collection of
// vector objects (line/rect/filled-rect/robot) bound to a LayeredGrid,
// along with the four bounded undo/redo queues described in spec 3.5/4.4.
//
// Grounded on MapManagerLibrary/mapmanager/MapManager.{h,cpp}'s
// _listObjects / _listDeletedObjects / _listUndoneObjects /
// _listReplacedObjects bookkeeping (see
// _examples/original_source/MapManagerLibrary/mapmanager).
package vectormodel

import (
	"fmt"

	"github.com/shaneosullivan-maps/mapcore/geometry"
	"github.com/shaneosullivan-maps/mapcore/layeredgrid"
)

// NumUndoSteps bounds every undo/redo queue in the model (spec 6).
const NumUndoSteps = 10

// Object is one vector in the model.
type Object struct {
	LayerID int64
	Value   float32
	Kind    geometry.Kind
	P1, P2  geometry.Point
}

type cellValue struct {
	X, Y  int
	Value float32
}

type actionKind int

const (
	actionSetPoint actionKind = iota
	actionSetObject
	actionDeleteObject
	actionReplaceObject
)

type action struct {
	kind    actionKind
	layer   int64        // layer written (SetPoint) or object's layer
	obj     Object       // SetObject / DeleteObject operand, or ReplaceObject's new object
	oldObj  Object       // ReplaceObject's displaced object
	cells   []cellValue  // SetPoint brush cells, kept for redo
}

// RobotPlacement is one recorded robot placement, used for the bounded
// robot-run history (SPEC_FULL C.4); it is purely a read history, not
// part of the undo/redo system.
type RobotPlacement struct {
	Centre      geometry.Point
	OrientationDeg float64
	Seq         int
}

// Model is the vector object list plus its undo/redo bookkeeping.
type Model struct {
	grid *layeredgrid.LayeredGrid
	res  int

	objects []Object

	gridViewEnabled bool
	nextPos         int64
	nextNeg         int64

	deletedObjects []Object
	undoneObjects  []Object
	replaced       []struct {
		newLayer int64
		old      Object
	}

	userActions []action
	redoActions []action

	robotRuns []RobotPlacement
	robotSeq  int
}

// New creates an empty Model bound to grid at the given resolution, with
// grid-view (live projection onto the LayeredGrid) enabled.
func New(grid *layeredgrid.LayeredGrid, resolution int) *Model {
	return &Model{
		grid:            grid,
		res:             resolution,
		gridViewEnabled: true,
		nextPos:         NumUndoSteps,
		nextNeg:         -2,
	}
}

// Objects returns a read-only snapshot of the model's objects in
// insertion order.
func (m *Model) Objects() []Object {
	out := make([]Object, len(m.objects))
	copy(out, m.objects)
	return out
}

// Resolution returns the current grid resolution (mm/cell).
func (m *Model) Resolution() int { return m.res }

func (m *Model) nextLayerID() int64 {
	if m.gridViewEnabled {
		id := m.nextPos
		m.nextPos++
		return id
	}
	id := m.nextNeg
	m.nextNeg--
	return id
}

func (m *Model) find(layer int64) int {
	for i, o := range m.objects {
		if o.LayerID == layer {
			return i
		}
	}
	return -1
}

func (m *Model) clearRedoState() {
	m.redoActions = nil
	m.undoneObjects = nil
}

func pushBounded[T any](q []T, v T, onEvict func(T)) []T {
	q = append(q, v)
	if len(q) > NumUndoSteps {
		if onEvict != nil {
			onEvict(q[0])
		}
		q = q[1:]
	}
	return q
}

// SetObject appends a new object to the model. If grid-view is enabled it
// is immediately projected onto the LayeredGrid under a fresh positive
// layer id; otherwise it gets a fresh negative id and is not projected.
func (m *Model) SetObject(kind geometry.Kind, p1, p2 geometry.Point, value float32) Object {
	id := m.nextLayerID()
	obj := Object{LayerID: id, Value: value, Kind: kind, P1: p1, P2: p2}
	m.objects = append(m.objects, obj)
	if id > 0 {
		m.grid.PushObject(kind, p1, p2, id, value, m.res)
	}
	m.userActions = pushBounded(m.userActions, action{kind: actionSetObject, obj: obj}, m.freeAction)
	m.clearRedoState()
	return obj
}

// SetRobot is SetObject specialised for robots: the two stored points are
// placed exactly ROBOTRadius mm from centre, and value carries the
// orientation in degrees. The placement is recorded in the bounded
// robot-run history (SPEC_FULL C.4).
func (m *Model) SetRobot(centre geometry.Point, orientationDeg float64) Object {
	p1, p2 := geometry.RobotOffsetPoints(centre, geometry.ROBOTRadius)
	obj := m.SetObject(geometry.KindRobot, p1, p2, float32(orientationDeg))
	m.robotSeq++
	m.robotRuns = pushRobotRun(m.robotRuns, RobotPlacement{Centre: centre, OrientationDeg: orientationDeg, Seq: m.robotSeq})
	return obj
}

func pushRobotRun(q []RobotPlacement, v RobotPlacement) []RobotPlacement {
	const maxNumRobotRuns = 24
	q = append(q, v)
	if len(q) > maxNumRobotRuns {
		q = q[1:]
	}
	return q
}

// RobotRuns returns the bounded history of robot placements, oldest
// first.
func (m *Model) RobotRuns() []RobotPlacement {
	out := make([]RobotPlacement, len(m.robotRuns))
	copy(out, m.robotRuns)
	return out
}

// DeleteObject removes the object with the given layer id from the
// model, pops it from the grid if it was projected, and records it in
// the bounded deleted-objects queue.
func (m *Model) DeleteObject(layer int64) error {
	idx := m.find(layer)
	if idx < 0 {
		return fmt.Errorf("vectormodel: no object with layer %d", layer)
	}
	obj := m.objects[idx]
	m.objects = append(m.objects[:idx], m.objects[idx+1:]...)
	if obj.LayerID > 0 {
		m.grid.PopObject(obj.Kind, obj.P1, obj.P2, obj.LayerID, obj.Value, m.res)
	}
	m.deletedObjects = pushBounded(m.deletedObjects, obj, nil)
	m.userActions = pushBounded(m.userActions, action{kind: actionDeleteObject, obj: obj}, m.freeAction)
	m.clearRedoState()
	return nil
}

// ReplaceObject swaps the object at layer for a new shape/value, assigning
// the replacement a fresh layer id. The displaced object is recorded,
// keyed by the new layer id, so it can be restored on undo.
func (m *Model) ReplaceObject(layer int64, kind geometry.Kind, p1, p2 geometry.Point, value float32) (Object, error) {
	idx := m.find(layer)
	if idx < 0 {
		return Object{}, fmt.Errorf("vectormodel: no object with layer %d", layer)
	}
	old := m.objects[idx]
	if old.LayerID > 0 {
		m.grid.PopObject(old.Kind, old.P1, old.P2, old.LayerID, old.Value, m.res)
	}
	newID := m.nextLayerID()
	replacement := Object{LayerID: newID, Value: value, Kind: kind, P1: p1, P2: p2}
	m.objects[idx] = replacement
	if newID > 0 {
		m.grid.PushObject(kind, p1, p2, newID, value, m.res)
	}
	m.replaced = pushBounded(m.replaced, struct {
		newLayer int64
		old      Object
	}{newID, old}, nil)
	m.userActions = pushBounded(m.userActions, action{kind: actionReplaceObject, obj: replacement, oldObj: old}, m.freeAction)
	m.clearRedoState()
	return replacement, nil
}

// SetPointBrush pushes an arbitrary set of (x,y)->value cells (e.g. a
// flood-fill or a single pixel) under a fresh layer, recording it as an
// undoable action.
func (m *Model) SetPointBrush(cells []struct {
	X, Y  int
	Value float32
}) int64 {
	layer := m.nextLayerID()
	cv := make([]cellValue, len(cells))
	for i, c := range cells {
		cv[i] = cellValue{c.X, c.Y, c.Value}
		m.grid.Push(c.X, c.Y, layer, c.Value)
	}
	m.userActions = pushBounded(m.userActions, action{kind: actionSetPoint, layer: layer, cells: cv}, m.freeAction)
	m.clearRedoState()
	return layer
}

// freeAction is invoked when an action is evicted from the bounded
// userActions queue for exceeding NumUndoSteps. The live grid state is
// untouched either way; only the ability to undo the evicted action is
// lost (delete_layer_permanently, spec 4.4).
func (m *Model) freeAction(a action) {}

// Undo reverses the most recent user action, if any, moving it onto the
// redo stack. Returns false if there is nothing to undo.
func (m *Model) Undo() bool {
	if len(m.userActions) == 0 {
		return false
	}
	a := m.userActions[len(m.userActions)-1]
	m.userActions = m.userActions[:len(m.userActions)-1]

	switch a.kind {
	case actionSetPoint:
		m.grid.DeleteLayer(a.layer)
	case actionSetObject:
		idx := m.find(a.obj.LayerID)
		if idx >= 0 {
			m.objects = append(m.objects[:idx], m.objects[idx+1:]...)
		}
		if a.obj.LayerID > 0 {
			m.grid.PopObject(a.obj.Kind, a.obj.P1, a.obj.P2, a.obj.LayerID, a.obj.Value, m.res)
		}
		m.undoneObjects = append(m.undoneObjects, a.obj)
	case actionDeleteObject:
		m.objects = append(m.objects, a.obj)
		if a.obj.LayerID > 0 {
			m.grid.PushObject(a.obj.Kind, a.obj.P1, a.obj.P2, a.obj.LayerID, a.obj.Value, m.res)
		}
	case actionReplaceObject:
		idx := m.find(a.obj.LayerID)
		if a.obj.LayerID > 0 {
			m.grid.PopObject(a.obj.Kind, a.obj.P1, a.obj.P2, a.obj.LayerID, a.obj.Value, m.res)
		}
		if a.oldObj.LayerID > 0 {
			m.grid.PushObject(a.oldObj.Kind, a.oldObj.P1, a.oldObj.P2, a.oldObj.LayerID, a.oldObj.Value, m.res)
		}
		if idx >= 0 {
			m.objects[idx] = a.oldObj
		}
	}
	m.redoActions = pushBounded(m.redoActions, a, nil)
	return true
}

// Redo re-applies the most recently undone action. Returns false if
// there is nothing to redo.
func (m *Model) Redo() bool {
	if len(m.redoActions) == 0 {
		return false
	}
	a := m.redoActions[len(m.redoActions)-1]
	m.redoActions = m.redoActions[:len(m.redoActions)-1]

	switch a.kind {
	case actionSetPoint:
		locs := make([]struct {
			X, Y  int
			Value float32
		}, len(a.cells))
		for i, c := range a.cells {
			locs[i] = struct {
				X, Y  int
				Value float32
			}{c.X, c.Y, c.Value}
		}
		m.grid.RedoLayer(a.layer, locs)
	case actionSetObject:
		m.objects = append(m.objects, a.obj)
		if a.obj.LayerID > 0 {
			m.grid.PushObject(a.obj.Kind, a.obj.P1, a.obj.P2, a.obj.LayerID, a.obj.Value, m.res)
		}
	case actionDeleteObject:
		idx := m.find(a.obj.LayerID)
		if idx >= 0 {
			m.objects = append(m.objects[:idx], m.objects[idx+1:]...)
		}
		if a.obj.LayerID > 0 {
			m.grid.PopObject(a.obj.Kind, a.obj.P1, a.obj.P2, a.obj.LayerID, a.obj.Value, m.res)
		}
	case actionReplaceObject:
		idx := m.find(a.oldObj.LayerID)
		if a.oldObj.LayerID > 0 {
			m.grid.PopObject(a.oldObj.Kind, a.oldObj.P1, a.oldObj.P2, a.oldObj.LayerID, a.oldObj.Value, m.res)
		}
		if a.obj.LayerID > 0 {
			m.grid.PushObject(a.obj.Kind, a.obj.P1, a.obj.P2, a.obj.LayerID, a.obj.Value, m.res)
		}
		if idx >= 0 {
			m.objects[idx] = a.obj
		}
	}
	m.userActions = pushBounded(m.userActions, a, nil)
	return true
}

// EnableGridView turns on live projection. Every vector currently holding
// a negative (unprojected) layer id is reassigned a fresh positive id and
// pushed onto the grid.
func (m *Model) EnableGridView() {
	if m.gridViewEnabled {
		return
	}
	m.gridViewEnabled = true
	for i, o := range m.objects {
		if o.LayerID < 0 {
			newID := m.nextLayerID()
			m.objects[i].LayerID = newID
			m.grid.PushObject(o.Kind, o.P1, o.P2, newID, o.Value, m.res)
		}
	}
}

// DisableGridView turns off live projection without altering existing ids
// or popping already-projected objects (matching the source, where
// disabling only stops *future* writes from reaching the grid).
func (m *Model) DisableGridView() { m.gridViewEnabled = false }

// GridViewEnabled reports whether live projection is currently on.
func (m *Model) GridViewEnabled() bool { return m.gridViewEnabled }

// SetResolution changes the mm-per-cell resolution: every projected
// object is popped at the old resolution, the resolution field is
// updated, then every object is re-pushed at the new resolution. Vector
// points themselves (stored in mm) are unchanged.
func (m *Model) SetResolution(newRes int) {
	if newRes == m.res {
		return
	}
	for _, o := range m.objects {
		if o.LayerID > 0 {
			m.grid.PopObject(o.Kind, o.P1, o.P2, o.LayerID, o.Value, m.res)
		}
	}
	m.res = newRes
	for _, o := range m.objects {
		if o.LayerID > 0 {
			m.grid.PushObject(o.Kind, o.P1, o.P2, o.LayerID, o.Value, m.res)
		}
	}
}

// TranslateObjects shifts every named object's points by (dx,dy) mm,
// re-projecting it on the grid.
func (m *Model) TranslateObjects(layers []int64, dx, dy float64) {
	want := make(map[int64]bool, len(layers))
	for _, l := range layers {
		want[l] = true
	}
	for i, o := range m.objects {
		if !want[o.LayerID] {
			continue
		}
		if o.LayerID > 0 {
			m.grid.PopObject(o.Kind, o.P1, o.P2, o.LayerID, o.Value, m.res)
		}
		o.P1.X += dx
		o.P1.Y += dy
		o.P2.X += dx
		o.P2.Y += dy
		m.objects[i] = o
		if o.LayerID > 0 {
			m.grid.PushObject(o.Kind, o.P1, o.P2, o.LayerID, o.Value, m.res)
		}
	}
}

// ClearVectors removes every object from the model (and the grid),
// without going through the undo system — used by MapCore.clear_vectors.
func (m *Model) ClearVectors() {
	for _, o := range m.objects {
		if o.LayerID > 0 {
			m.grid.PopObject(o.Kind, o.P1, o.P2, o.LayerID, o.Value, m.res)
		}
	}
	m.objects = nil
	m.userActions = nil
	m.redoActions = nil
	m.deletedObjects = nil
	m.undoneObjects = nil
	m.replaced = nil
}

// ClearRobots removes every robot object from the model.
func (m *Model) ClearRobots() {
	var kept []Object
	for _, o := range m.objects {
		if o.Kind == geometry.KindRobot {
			if o.LayerID > 0 {
				m.grid.PopObject(o.Kind, o.P1, o.P2, o.LayerID, o.Value, m.res)
			}
			continue
		}
		kept = append(kept, o)
	}
	m.objects = kept
}

// CropObjects clips every line/rect/robot to the rectangle [x1,y1]-[x2,y2]
// (mm), dropping objects that fall entirely outside it, matching the
// behaviour crop_map must apply to vectors (spec 4.9).
func (m *Model) CropObjects(x1, y1, x2, y2 float64) {
	lo := geometry.Point{X: min2(x1, x2), Y: min2(y1, y2)}
	hi := geometry.Point{X: max2(x1, x2), Y: max2(y1, y2)}
	var kept []Object
	for _, o := range m.objects {
		p1, p2, ok := clipSegment(o.P1, o.P2, lo, hi)
		if !ok {
			continue
		}
		o.P1, o.P2 = p1, p2
		kept = append(kept, o)
	}
	m.objects = kept
}

func min2(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
func max2(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// clipSegment performs a simple Liang-Barsky clip of the segment p1-p2
// against the axis-aligned box [lo,hi], returning ok=false when the
// segment lies entirely outside.
func clipSegment(p1, p2, lo, hi geometry.Point) (geometry.Point, geometry.Point, bool) {
	dx, dy := p2.X-p1.X, p2.Y-p1.Y
	t0, t1 := 0.0, 1.0
	clip := func(p, q float64) bool {
		if p == 0 {
			return q >= 0
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return false
			}
			if r < t1 {
				t1 = r
			}
		}
		return true
	}
	if !clip(-dx, p1.X-lo.X) || !clip(dx, hi.X-p1.X) || !clip(-dy, p1.Y-lo.Y) || !clip(dy, hi.Y-p1.Y) {
		return geometry.Point{}, geometry.Point{}, false
	}
	np1 := geometry.Point{X: p1.X + t0*dx, Y: p1.Y + t0*dy}
	np2 := geometry.Point{X: p1.X + t1*dx, Y: p1.Y + t1*dy}
	return np1, np2, true
}

// Bounds returns the mm-space bounding rectangle of every point in the
// model, or ok=false if the model is empty.
func (m *Model) Bounds() (lo, hi geometry.Point, ok bool) {
	if len(m.objects) == 0 {
		return geometry.Point{}, geometry.Point{}, false
	}
	lo = m.objects[0].P1
	hi = m.objects[0].P1
	upd := func(p geometry.Point) {
		lo.X, lo.Y = min2(lo.X, p.X), min2(lo.Y, p.Y)
		hi.X, hi.Y = max2(hi.X, p.X), max2(hi.Y, p.Y)
	}
	for _, o := range m.objects {
		upd(o.P1)
		upd(o.P2)
	}
	return lo, hi, true
}

// ObjectsNear returns every object whose P1-P2 bounding box intersects
// the rectangle (x1,y1)-(x2,y2), using a freshly built spatial index
// rather than a linear scan. Build cost is paid on every call, so this
// is for bounding-box searches against large object counts (fill-area
// style queries), not a tight loop.
func (m *Model) ObjectsNear(x1, y1, x2, y2 float64) []Object {
	idx := geometry.NewLineIndex()
	byLayer := make(map[int64]Object, len(m.objects))
	for _, o := range m.objects {
		idx.Insert(o.LayerID, o.P1, o.P2)
		byLayer[o.LayerID] = o
	}
	var out []Object
	for _, layer := range idx.Query(x1, y1, x2, y2) {
		out = append(out, byLayer[layer])
	}
	return out
}
