package geometry

import (
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
)

// LineIndex is an optional spatial index over a vector model's line/rect
// edges, so a caller that needs "every object near this box" doesn't
// have to scan the full object list. It is a pure reader over data the
// caller inserts; nothing in this package keeps it in sync automatically.
//
// Grounded on the teacher's own use of the same rtree package
// (_examples/spatialmodel-inmap/io.go's Emissions.data field:
// rtree.NewTree(25, 50), Insert, SearchIntersect).
type LineIndex struct {
	tree *rtree.Rtree
}

type indexedLine struct {
	geom.LineString
	Layer int64
}

// NewLineIndex builds an empty index with the same branching factors the
// teacher uses (minChildren=25, maxChildren=50).
func NewLineIndex() *LineIndex {
	return &LineIndex{tree: rtree.NewTree(25, 50)}
}

// Insert adds one line segment, identified by layer.
func (idx *LineIndex) Insert(layer int64, p1, p2 Point) {
	idx.tree.Insert(indexedLine{
		LineString: geom.LineString{geom.Point{X: p1.X, Y: p1.Y}, geom.Point{X: p2.X, Y: p2.Y}},
		Layer:      layer,
	})
}

// Query returns the layer ids of every indexed line whose bounding box
// intersects the rectangle (x1,y1)-(x2,y2).
func (idx *LineIndex) Query(x1, y1, x2, y2 float64) []int64 {
	b := &geom.Bounds{Min: geom.Point{X: x1, Y: y1}, Max: geom.Point{X: x2, Y: y2}}
	hits := idx.tree.SearchIntersect(b)
	out := make([]int64, 0, len(hits))
	for _, h := range hits {
		if l, ok := h.(indexedLine); ok {
			out = append(out, l.Layer)
		}
	}
	return out
}
