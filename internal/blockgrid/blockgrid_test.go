package blockgrid

import (
	"math/rand"
	"testing"
)

func TestGetPutRoundTrip(t *testing.T) {
	g := New(float32(0), 0, 0)
	r := rand.New(rand.NewSource(1))

	type write struct{ x, y int; v float32 }
	seen := make(map[[2]int]float32)
	var writes []write
	for i := 0; i < 2000; i++ {
		x := r.Intn(20001) - 10000
		y := r.Intn(20001) - 10000
		v := r.Float32()
		writes = append(writes, write{x, y, v})
		seen[[2]int{x, y}] = v
	}
	for _, w := range writes {
		g.Put(w.v, w.x, w.y, 0)
	}
	for xy, v := range seen {
		got := g.Get(xy[0], xy[1], 0)
		if got != v {
			t.Fatalf("Get(%d,%d) = %v, want %v (last write wins)", xy[0], xy[1], got, v)
		}
	}
}

func TestUpdatedBoundsTight(t *testing.T) {
	g := New(float32(0), 0, 0)
	g.Put(1, 5, 5, 0)
	g.Put(1, -3, 10, 0)
	g.Put(1, 20, -7, 0)
	g.Put(0, 100, 100, 0) // default value write must not expand bounds

	b := g.UpdatedBounds()
	if b.MinX != -3 || b.MaxX != 20 || b.MinY != -7 || b.MaxY != 10 {
		t.Fatalf("updated bounds = %+v, want tight bbox of non-default writes", b)
	}
}

func TestGetOutsideBoundsReturnsDefault(t *testing.T) {
	g := New(float32(-1), 0, 0)
	if g.Get(12345, -6789, 0) != -1 {
		t.Fatal("reads outside the allocated mesh must return the grid default")
	}
	g.Put(1, 0, 0, 0)
	if g.Get(1000, 1000, 0) != -1 {
		t.Fatal("reads outside allocated bounds of a non-empty grid must still return the default")
	}
}

func TestCropShrinksAllocatedBounds(t *testing.T) {
	g := New(float32(0), 10, 0)
	for y := -20; y <= 20; y++ {
		for x := -20; x <= 20; x++ {
			g.Put(1, x, y, 0)
		}
	}
	g.Crop(-5, 5, 5, -5)
	if g.Get(-5, -5, 0) != 1 || g.Get(5, 5, 0) != 1 {
		t.Fatal("cells inside the crop rectangle must survive")
	}
	if g.Get(-20, -20, 0) != 0 {
		t.Fatal("cells outside the crop rectangle must read back as default")
	}
	ub := g.UpdatedBounds()
	if ub.MinX != -5 || ub.MaxX != 5 || ub.MinY != -5 || ub.MaxY != 5 {
		t.Fatalf("updated bounds after crop = %+v, want exactly the crop rect", ub)
	}
}

func TestTranslateShiftsCells(t *testing.T) {
	g := New(float32(0), 10, 0)
	g.Put(1, 0, 0, 0)
	g.Translate(100, -50)
	if g.Get(100, -50, 0) != 1 {
		t.Fatal("translate must shift every written cell by (dx,dy)")
	}
	if g.Get(0, 0, 0) != 0 {
		t.Fatal("the old location must no longer hold the value")
	}
}

func TestCloneEmptiesSource(t *testing.T) {
	src := New(float32(0), 10, 0)
	src.Put(1, 1, 1, 0)
	dst := New(float32(0), 10, 0)
	dst.Clone(src)
	if dst.Get(1, 1, 0) != 1 {
		t.Fatal("clone must move the data into dst")
	}
	if !src.UpdatedBounds().Empty() {
		t.Fatal("clone must leave the source freshly reinitialised")
	}
}

func TestCopyPreservesSource(t *testing.T) {
	src := New(float32(0), 10, 0)
	src.Put(1, 2, 3, 0)
	dst := New(float32(0), 10, 0)
	dst.Copy(src)
	if dst.Get(2, 3, 0) != 1 {
		t.Fatal("copy must deep-copy the data into dst")
	}
	if src.Get(2, 3, 0) != 1 {
		t.Fatal("copy must leave the source intact")
	}
}
