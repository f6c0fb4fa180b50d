package mapcore

import (
	"testing"

	"github.com/shaneosullivan-maps/mapcore/geometry"
)

func newTestMap(t *testing.T) *MapCore {
	t.Helper()
	mc, err := NewMap(0, 1000, 0, 1000, 100)
	if err != nil {
		t.Fatal(err)
	}
	return mc
}

// TestPointThenLineUndoSequencing is scenario S1: a set_point followed
// by a set_line undoes the line first, leaving the point in place, and a
// second undo removes the point too.
func TestPointThenLineUndoSequencing(t *testing.T) {
	mc := newTestMap(t)
	mc.SetPoint(3, 7, 1.0)
	mc.SetLine(geometry.Point{X: 0, Y: 0}, geometry.Point{X: 500, Y: 0}, 1.0)

	if v := mc.GetPointVal(3, 7); v != 1.0 {
		t.Fatalf("point value before undo = %v, want 1.0", v)
	}
	if v := mc.GetPointVal(2, 0); v != 1.0 {
		t.Fatalf("line cell before undo = %v, want 1.0", v)
	}

	if !mc.Undo() {
		t.Fatal("expected first undo to succeed")
	}
	if v := mc.GetPointVal(3, 7); v != 1.0 {
		t.Fatalf("point value after undoing the line = %v, want 1.0 (unaffected)", v)
	}
	if v := mc.GetPointVal(2, 0); v == 1.0 {
		t.Fatal("line cell should be cleared after undoing the line")
	}

	if !mc.Undo() {
		t.Fatal("expected second undo to succeed")
	}
	if v := mc.GetPointVal(3, 7); v == 1.0 {
		t.Fatal("point should be cleared after the second undo")
	}

	if mc.Undo() {
		t.Fatal("expected no further undo once the history is exhausted")
	}
}

// TestThresholdThenNegativeComposition is scenario S2: threshold_map
// coerces unknown cells to 0, and a subsequent negative_map then treats
// every cell as known.
func TestThresholdThenNegativeComposition(t *testing.T) {
	mc := newTestMap(t)
	mc.SetPoint(0, 0, 0.2)
	mc.SetPoint(1, 0, 0.5)
	mc.SetPoint(2, 0, 0.8)
	mc.SetPoint(3, 0, -1.0) // unknown

	mc.ThresholdMap(0.4, 1.0)
	want := []float32{0, 0, 1, 0}
	for i, v := range want {
		got := mc.GetPointVal(i, 0)
		if got != v {
			t.Fatalf("after threshold, cell %d = %v, want %v", i, got, v)
		}
	}

	mc.NegativeMap()
	want = []float32{1, 1, 0, 1}
	for i, v := range want {
		got := mc.GetPointVal(i, 0)
		if got != v {
			t.Fatalf("after negate, cell %d = %v, want %v", i, got, v)
		}
	}
}

func TestNegativeMapPreservesUnknownWithoutPriorThreshold(t *testing.T) {
	mc := newTestMap(t)
	mc.SetPoint(0, 0, 0.0)
	mc.SetPoint(1, 0, 1.0)
	// (2,0) stays unknown.

	mc.NegativeMap()
	if v := mc.GetPointVal(0, 0); v != 1.0 {
		t.Fatalf("cell (0,0) = %v, want 1.0", v)
	}
	if v := mc.GetPointVal(1, 0); v != 0.0 {
		t.Fatalf("cell (1,0) = %v, want 0.0", v)
	}
	if v := mc.GetPointVal(2, 0); v != -1.0 {
		t.Fatalf("unknown cell (2,0) = %v, want -1.0 (untouched)", v)
	}
}

func TestFillAreaFloodsMatchingNeighboursOnly(t *testing.T) {
	mc := newTestMap(t)
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			mc.SetPoint(x, y, 0.0)
		}
	}
	mc.SetPoint(2, 2, 1.0) // an island in the middle of the free region

	mc.FillArea(50, 50, 0.75, 0.1) // (0,0) cell, value 0.0, tolerant fill

	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			if x == 2 && y == 2 {
				continue
			}
			if v := mc.GetPointVal(x, y); v != 0.75 {
				t.Fatalf("cell (%d,%d) = %v, want 0.75", x, y, v)
			}
		}
	}
	if v := mc.GetPointVal(2, 2); v != 1.0 {
		t.Fatalf("island cell should be untouched by the fill, got %v", v)
	}
}

func TestSetResolutionDoesNotRewriteExistingCells(t *testing.T) {
	mc := newTestMap(t)
	mc.SetPoint(5, 5, 1.0)
	if err := mc.SetResolution(50); err != nil {
		t.Fatal(err)
	}
	if mc.Resolution() != 50 {
		t.Fatalf("resolution = %d, want 50", mc.Resolution())
	}
	if v := mc.GetPointVal(5, 5); v != 1.0 {
		t.Fatalf("existing cell changed after resolution change: %v", v)
	}
}

func TestSetResolutionRejectsNonPositive(t *testing.T) {
	mc := newTestMap(t)
	if err := mc.SetResolution(0); err == nil {
		t.Fatal("expected an error for a zero resolution")
	}
	if e := mc.LastError(); e == nil || e.Kind != ErrInvalidArgument {
		t.Fatalf("LastError = %v, want ErrInvalidArgument", e)
	}
}

func TestTranslateMapRejectsNonMultipleOfResolution(t *testing.T) {
	mc := newTestMap(t)
	if err := mc.TranslateMap(150, 0); err == nil {
		t.Fatal("expected an error translating by a non-multiple of the resolution")
	}
}

func TestTranslateMapShiftsGridCells(t *testing.T) {
	mc := newTestMap(t)
	mc.SetPoint(1, 1, 1.0)
	if err := mc.TranslateMap(200, 0); err != nil {
		t.Fatal(err)
	}
	if v := mc.GetPointVal(3, 1); v != 1.0 {
		t.Fatalf("translated cell (3,1) = %v, want 1.0", v)
	}
}

func TestDeleteObjectRejectsUnknownLayer(t *testing.T) {
	mc := newTestMap(t)
	if err := mc.DeleteObject(999); err == nil {
		t.Fatal("expected an error deleting a nonexistent layer")
	}
}

func TestAddMapMergesGridAndVectors(t *testing.T) {
	a := newTestMap(t)
	b := newTestMap(t)
	a.SetPoint(0, 0, 1.0)
	b.SetPoint(0, 0, 0.0)
	b.SetPoint(1, 1, 1.0)
	b.SetLine(geometry.Point{X: 0, Y: 0}, geometry.Point{X: 100, Y: 0}, 1.0)

	a.AddMap(b, false)

	if v := a.GetPointVal(1, 1); v != 1.0 {
		t.Fatalf("merged cell (1,1) = %v, want 1.0", v)
	}
	if got := len(a.Objects()); got != 1 {
		t.Fatalf("expected 1 object after merge (point brushes aren't vector objects), got %d", got)
	}
}

func TestComputeVoronoiReturnsEmptyDiagramForEmptyMap(t *testing.T) {
	mc := newTestMap(t)
	d := mc.ComputeVoronoi(0.5, 1.0, 1.0)
	if len(d.Edges) != 0 {
		t.Fatalf("expected no edges on an empty map, got %d", len(d.Edges))
	}
}

func TestRowReaderCopiesEachRowOnce(t *testing.T) {
	mc := newTestMap(t)
	mc.SetPoint(0, 0, 1.0)
	mc.SetPoint(0, 2, 1.0)

	r := mc.NewRowReader()
	var rows []int
	var buf []float32
	for {
		row, y, ok := r.Next(buf)
		if !ok {
			break
		}
		buf = row
		rows = append(rows, y)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows (0,1,2), got %d: %v", len(rows), rows)
	}
}

func TestMapScoreMapNotComparableWhenBothBlank(t *testing.T) {
	a := newTestMap(t)
	b := newTestMap(t)
	if _, comparable := a.MapScoreMap(b, false); comparable {
		t.Fatal("expected two blank maps to be reported as not comparable")
	}
}

func TestLoadFragmentThenExportFragmentRoundTripsGridAndObjects(t *testing.T) {
	mc := newTestMap(t)
	mc.SetLine(geometry.Point{X: 0, Y: 0}, geometry.Point{X: 200, Y: 0}, 1)
	mc.SetPoint(5, 5, 1)

	frag := mc.ExportFragment()
	if frag.Resolution != mc.Resolution() {
		t.Fatalf("expected exported resolution %d, got %d", mc.Resolution(), frag.Resolution)
	}
	if len(frag.Objects) != 1 {
		t.Fatalf("expected 1 vector object exported, got %d", len(frag.Objects))
	}
	if frag.Grid.Get(5, 5) != 1 {
		t.Fatalf("expected exported grid to carry the point brush, got %v", frag.Grid.Get(5, 5))
	}

	loaded, err := LoadFragment(frag, nil)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.GetPointVal(5, 5) != 1 {
		t.Fatal("expected loaded map to carry the point brush")
	}
	if len(loaded.Objects()) != 1 {
		t.Fatalf("expected 1 vector object loaded, got %d", len(loaded.Objects()))
	}
}

func TestMapScoreMapComparableOnceEitherMapHasData(t *testing.T) {
	a := newTestMap(t)
	b := newTestMap(t)
	a.SetPoint(0, 0, 1.0)
	score, comparable := a.MapScoreMap(b, false)
	if !comparable {
		t.Fatal("expected maps to be comparable once one has data")
	}
	if score <= 0 {
		t.Fatalf("expected a positive score for mismatched cells, got %v", score)
	}
}

// TestCancelBulkJobStopsGenerateCSpaceSimple exercises spec §5's
// cancellation contract: a job cancelled before it runs performs no
// work and reports itself incomplete.
func TestCancelBulkJobStopsGenerateCSpaceSimple(t *testing.T) {
	mc := newTestMap(t)
	mc.SetPoint(5, 5, 1.0)
	mc.CancelBulkJob()
	mc.GenerateCSpaceSimple(1.0, 1.0, 250)
	if mc.JobCompletedSuccessfully() {
		t.Fatal("expected a pre-cancelled job to report incomplete")
	}
	if mc.GetPointVal(6, 5) != 0 {
		t.Fatal("expected no growth once the job was cancelled before running")
	}
}

func TestGenerateCSpaceSimpleReportsCompletionWhenNotCancelled(t *testing.T) {
	mc := newTestMap(t)
	mc.SetPoint(5, 5, 1.0)
	mc.GenerateCSpaceSimple(1.0, 1.0, 250)
	if !mc.JobCompletedSuccessfully() {
		t.Fatal("expected an uncancelled job to report success")
	}
	if mc.GetPointVal(6, 5) == 0 {
		t.Fatal("expected growth to have happened without cancellation")
	}
}

func TestCancelBulkJobStopsReduceToVoronoiLines(t *testing.T) {
	mc := newTestMap(t)
	for x := 0; x < 10; x++ {
		mc.SetPoint(x, 5, 1)
	}
	mc.CancelBulkJob()
	lines := mc.ReduceToVoronoiLines(0.5, 1.5, 10)
	if mc.JobCompletedSuccessfully() {
		t.Fatal("expected a pre-cancelled job to report incomplete")
	}
	if lines != nil {
		t.Fatalf("expected no lines from a job cancelled before it ran, got %d", len(lines))
	}
}
