package layeredgrid

import "testing"

func TestPushPopRestoresBase(t *testing.T) {
	l := New(100)
	l.Base().Set(3, 3, 0.2)

	l.Push(3, 3, 1, 0.9)
	if l.Get(3, 3) != 0.9 {
		t.Fatalf("after push, base = %v, want 0.9", l.Get(3, 3))
	}
	l.Pop(3, 3, 1)
	if l.Get(3, 3) != 0.2 {
		t.Fatalf("after pop, base = %v, want restored 0.2", l.Get(3, 3))
	}
	l.CheckInvariant(3, 3)
}

func TestStackedLayersPopInOrder(t *testing.T) {
	l := New(100)
	l.Push(1, 1, 10, 0.5)
	l.Push(1, 1, 20, 0.9)
	if l.Get(1, 1) != 0.9 {
		t.Fatalf("head should be last pushed value, got %v", l.Get(1, 1))
	}
	l.Pop(1, 1, 20)
	if l.Get(1, 1) != 0.5 {
		t.Fatalf("after popping the top layer, base should revert to 0.5, got %v", l.Get(1, 1))
	}
	l.Pop(1, 1, 10)
	if l.Get(1, 1) != 0 {
		t.Fatalf("after popping the last remaining layer, base should revert to the original default, got %v", l.Get(1, 1))
	}
}

func TestDeleteLayerBoundingBox(t *testing.T) {
	l := New(100)
	l.Push(0, 0, 5, 1)
	l.Push(3, 4, 5, 1)
	r := l.DeleteLayer(5)
	if r.MinX != 0 || r.MinY != 0 || r.MaxX != 3 || r.MaxY != 4 {
		t.Fatalf("delete-layer bbox = %+v", r)
	}
	if l.Get(0, 0) != 0 || l.Get(3, 4) != 0 {
		t.Fatal("deleted layer cells should revert to default")
	}
}

func TestRedoLayerAfterDelete(t *testing.T) {
	l := New(100)
	l.Push(0, 0, 7, 1)
	locs := l.LayerCells(7)
	l.DeleteLayer(7)
	if l.Get(0, 0) != 0 {
		t.Fatal("expected cell cleared after delete")
	}
	l.RedoLayer(7, locs)
	if l.Get(0, 0) != 1 {
		t.Fatal("expected cell restored after redo")
	}
}
