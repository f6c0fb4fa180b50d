package carmen

import (
	"bytes"
	"testing"
	"time"

	"github.com/shaneosullivan-maps/mapcore/formats"
	"github.com/shaneosullivan-maps/mapcore/gridmap"
)

func TestRoundTripGridAndCreator(t *testing.T) {
	g := gridmap.New(100)
	g.Set(0, 0, 1)
	g.Set(1, 0, 0)
	g.Set(0, 1, -1)

	frag := &Fragment{
		Fragment: formats.Fragment{Resolution: 100, Grid: g},
		Creator:  &Creator{Name: "test-suite", Time: time.Unix(1700000000, 0).UTC()},
	}

	var buf bytes.Buffer
	if err := Save(&buf, frag); err != nil {
		t.Fatal(err)
	}
	got, err := Load(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Creator == nil || got.Creator.Name != "test-suite" {
		t.Fatalf("creator record did not round trip: %+v", got.Creator)
	}
	if !got.Creator.Time.Equal(frag.Creator.Time) {
		t.Fatalf("creator timestamp = %v, want %v", got.Creator.Time, frag.Creator.Time)
	}
	if got.Grid.Get(0, 0) != 1 || got.Grid.Get(1, 0) != 0 || got.Grid.Get(0, 1) != -1 {
		t.Fatal("grid values did not round trip")
	}
	if got.Resolution != 100 {
		t.Fatalf("resolution = %d, want 100", got.Resolution)
	}
}

func TestSaveUsesLiveResolutionNotLoadTimeValue(t *testing.T) {
	g := gridmap.New(100)
	g.Set(0, 0, 1)
	frag := &Fragment{Fragment: formats.Fragment{Resolution: 50, Grid: g}}

	var buf bytes.Buffer
	if err := Save(&buf, frag); err != nil {
		t.Fatal(err)
	}
	got, err := Load(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Resolution != 50 {
		t.Fatalf("resolution = %d, want 50 (the frag's current value at save time)", got.Resolution)
	}
}

func TestClampValuesOutsideUnitRange(t *testing.T) {
	g := gridmap.New(100)
	g.Set(0, 0, 5)
	g.Set(1, 0, -5)
	g.Set(2, 0, -1)
	frag := &Fragment{Fragment: formats.Fragment{Resolution: 100, Grid: g}}

	var buf bytes.Buffer
	if err := Save(&buf, frag); err != nil {
		t.Fatal(err)
	}
	got, err := Load(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Grid.Get(0, 0) != 1 {
		t.Fatalf("expected value >1 clamped to 1, got %v", got.Grid.Get(0, 0))
	}
	if got.Grid.Get(1, 0) != 0 {
		t.Fatalf("expected value <0 clamped to 0, got %v", got.Grid.Get(1, 0))
	}
	if got.Grid.Get(2, 0) != -1 {
		t.Fatalf("expected -1 preserved as the unknown sentinel, got %v", got.Grid.Get(2, 0))
	}
}
