package voronoifile

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shaneosullivan-maps/mapcore/geometry"
	"github.com/shaneosullivan-maps/mapcore/voronoi"
)

func TestRoundTripDiagram(t *testing.T) {
	d := &voronoi.Diagram{
		Sites: []geometry.Point{{X: 0, Y: 0}, {X: 100, Y: 0}},
		Edges: []voronoi.Edge{
			{P1: geometry.Point{X: 50, Y: -50}, P2: geometry.Point{X: 50, Y: 50}, SiteA: 0, SiteB: 1},
		},
		Delaunay: []voronoi.DelaunayEdge{{A: 0, B: 1}},
	}
	var buf bytes.Buffer
	if err := Save(&buf, d); err != nil {
		t.Fatal(err)
	}
	got, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v\n--- written ---\n%s", err, buf.String())
	}
	if len(got.Sites) != 2 || len(got.Edges) != 1 || len(got.Delaunay) != 1 {
		t.Fatalf("diagram did not round trip: %+v", got)
	}
	if got.Edges[0].SiteA != 0 || got.Edges[0].SiteB != 1 {
		t.Fatalf("edge site provenance lost: %+v", got.Edges[0])
	}
}

func TestSaveLinesThenLoadProducesProvenancelessEdges(t *testing.T) {
	lines := []geometry.Line{{P1: geometry.Point{X: 0, Y: 0}, P2: geometry.Point{X: 10, Y: 10}}}
	var buf bytes.Buffer
	if err := SaveLines(&buf, lines); err != nil {
		t.Fatal(err)
	}
	got, err := Load(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Edges) != 1 || got.Edges[0].SiteA != -1 {
		t.Fatalf("expected one provenanceless edge, got %+v", got.Edges)
	}
}

func TestLoadRejectsDataBeforeSection(t *testing.T) {
	_, err := Load(strings.NewReader("0 0\n"))
	if err == nil {
		t.Fatal("expected an error for data before any section header")
	}
}
