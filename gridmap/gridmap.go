// Package gridmap specialises blockgrid.BlockGrid to f32 occupancy values
// and adds the map-level transforms: resize/reduce, blur, correlation,
// map-score, grow-occupied (configuration-space dilation), translate,
// crop and the native MapViewer "old grid format" serialisation.
//
// Grounded on MapManagerLibrary/grid/GridMap.{h,cpp}, with the row-major
// blur and the Baron's-correlation scoring ported from GridMap.cpp's
// boxBlur/gaussBlur/correlateMap/scoreMap. Window sums in BoxBlur and the
// squared-difference sums in Score run over gonum/floats once a
// row/window is shaped as a []float64 buffer.
package gridmap

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/shaneosullivan-maps/mapcore/internal/blockgrid"
)

// Unknown is the sentinel cell value meaning "no information".
const Unknown float32 = -1.0

// Default block edge length and grid resolution, named per spec 6.
const (
	DefaultBlockSize = 100
	DefaultResolution = 100
)

// GridMap is a BlockGrid[float32] with default 0, plus the transform
// suite described in spec 4.2.
type GridMap struct {
	grid *blockgrid.BlockGrid[float32]

	// reduceToggle alternates the NE/SW shift applied by ReduceDimension
	// when factor==4, so repeated downsamplings do not accumulate drift
	// (spec 4.2, "Reduce_dimension alternation" design note).
	reduceToggle bool
}

// New creates an empty GridMap with the given block edge length (W if
// w<=0).
func New(w int) *GridMap {
	return &GridMap{grid: blockgrid.New(float32(0), w, 1)}
}

// Raw exposes the underlying BlockGrid for packages (layeredgrid,
// voronoi) that need direct block access.
func (m *GridMap) Raw() *blockgrid.BlockGrid[float32] { return m.grid }

// Get returns the value at (x,y), or 0 (the default) if unset.
func (m *GridMap) Get(x, y int) float32 { return m.grid.Get(x, y, 0) }

// Set writes v at (x,y), growing the grid if necessary.
func (m *GridMap) Set(x, y int, v float32) { m.grid.Put(v, x, y, 0) }

// CopyRow fills buf[0:xHi-xLo+1] with row y, clamped/defaulted outside
// allocated bounds. Mandatory accessor for hot loops (spec 4.3).
func (m *GridMap) CopyRow(buf []float32, y, xLo, xHi int) {
	m.grid.CopyRow(buf, y, xLo, xHi)
}

// UpdatedBounds returns the tight bounding box of non-default cells.
func (m *GridMap) UpdatedBounds() blockgrid.Rect { return m.grid.UpdatedBounds() }

// AllocatedBounds returns the union of allocated block extents.
func (m *GridMap) AllocatedBounds() blockgrid.Rect { return m.grid.AllocatedBounds() }

// Crop sets cells outside [w,e]x[s,n] to default and shifts the updated
// bounds to exactly that rectangle.
func (m *GridMap) Crop(w, n, e, s int) { m.grid.Crop(w, n, e, s) }

// Translate adds (dx,dy) to every block's origin and to the tracked
// bounds.
func (m *GridMap) Translate(dx, dy int) { m.grid.Translate(dx, dy) }

// Reset releases every block.
func (m *GridMap) Reset() { m.grid.Reset() }

// ReduceFactor selects which cells of a k-cell neighbourhood to combine.
type ReduceFactor int

const (
	Factor1 ReduceFactor = 1
	Factor4 ReduceFactor = 4
	Factor9 ReduceFactor = 9
)

// Pick selects min or max when reducing.
type Pick int

const (
	PickMin Pick = iota
	PickMax
)

// ReduceDimension builds a fresh map whose cell (x',y') summarises the k
// cells of m it covers, using min or max per pick. Factor4 alternates
// between an NE-shifted and SW-shifted 2x2 window on consecutive calls
// (stateful; see reduceToggle) to avoid cumulative drift.
func (m *GridMap) ReduceDimension(k ReduceFactor, pick Pick) *GridMap {
	out := New(m.grid.BlockSize())
	b := m.UpdatedBounds()
	if b.Empty() {
		return out
	}

	combine := func(vals []float32) float32 {
		best := vals[0]
		for _, v := range vals[1:] {
			if pick == PickMax && v > best {
				best = v
			} else if pick == PickMin && v < best {
				best = v
			}
		}
		return best
	}

	switch k {
	case Factor1:
		for y := b.MinY; y <= b.MaxY; y++ {
			for x := b.MinX; x <= b.MaxX; x++ {
				out.Set(x, y, m.Get(x, y))
			}
		}
	case Factor4:
		var ox, oy int
		if m.reduceToggle {
			ox, oy = 1, 0 // NE shift
		} else {
			ox, oy = 0, -1 // SW shift
		}
		m.reduceToggle = !m.reduceToggle
		for y := b.MinY / 2; y <= b.MaxY/2+1; y++ {
			for x := b.MinX / 2; x <= b.MaxX/2+1; x++ {
				x0, y0 := x*2+ox, y*2+oy
				vals := []float32{
					m.Get(x0, y0), m.Get(x0+1, y0),
					m.Get(x0, y0+1), m.Get(x0+1, y0+1),
				}
				out.Set(x, y, combine(vals))
			}
		}
	case Factor9:
		for y := b.MinY / 3; y <= b.MaxY/3+1; y++ {
			for x := b.MinX / 3; x <= b.MaxX/3+1; x++ {
				var vals []float32
				for dy := 0; dy < 3; dy++ {
					for dx := 0; dx < 3; dx++ {
						vals = append(vals, m.Get(x*3+dx, y*3+dy))
					}
				}
				out.Set(x, y, combine(vals))
			}
		}
	}
	return out
}

// BoxBlur applies a two-pass (vertical then horizontal) running-sum box
// blur with an odd kernel size k and per-sample weight, preserving the
// default value where the windowed sum magnitude is below 1e-3.
func (m *GridMap) BoxBlur(k int, weight float64) *GridMap {
	if k%2 == 0 {
		k++
	}
	half := k / 2
	b := m.UpdatedBounds()
	if b.Empty() {
		return New(m.grid.BlockSize())
	}

	window := make([]float64, k)

	vertical := New(m.grid.BlockSize())
	for x := b.MinX; x <= b.MaxX; x++ {
		for dy := -half; dy <= half; dy++ {
			window[dy+half] = float64(m.Get(x, b.MinY+dy)) * weight
		}
		sum := floats.Sum(window)
		vertical.Set(x, b.MinY, clampOrDefault(sum))
		for y := b.MinY + 1; y <= b.MaxY; y++ {
			sum -= float64(m.Get(x, y-half-1)) * weight
			sum += float64(m.Get(x, y+half)) * weight
			vertical.Set(x, y, clampOrDefault(sum))
		}
	}

	horizontal := New(m.grid.BlockSize())
	for y := b.MinY; y <= b.MaxY; y++ {
		for dx := -half; dx <= half; dx++ {
			window[dx+half] = float64(vertical.Get(b.MinX+dx, y))
		}
		sum := floats.Sum(window)
		horizontal.Set(b.MinX, y, clampOrDefault(sum))
		for x := b.MinX + 1; x <= b.MaxX; x++ {
			sum -= float64(vertical.Get(x-half-1, y))
			sum += float64(vertical.Get(x+half, y))
			horizontal.Set(x, y, clampOrDefault(sum))
		}
	}
	return horizontal
}

func clampOrDefault(sum float64) float32 {
	if math.Abs(sum) < 1e-3 {
		return 0
	}
	return float32(sum)
}

// GaussBlur generates a binomial kernel of size k (Pascal-row outer
// product), normalises it to sum 1, and applies it once.
func (m *GridMap) GaussBlur(k int) *GridMap {
	if k%2 == 0 {
		k++
	}
	row := pascalRow(k)
	var total float64
	for _, v := range row {
		total += v
	}
	for i := range row {
		row[i] /= total
	}

	half := k / 2
	b := m.UpdatedBounds()
	out := New(m.grid.BlockSize())
	if b.Empty() {
		return out
	}
	for y := b.MinY; y <= b.MaxY; y++ {
		for x := b.MinX; x <= b.MaxX; x++ {
			var sum float64
			for j := -half; j <= half; j++ {
				for i := -half; i <= half; i++ {
					sum += float64(m.Get(x+i, y+j)) * row[i+half] * row[j+half]
				}
			}
			out.Set(x, y, clampOrDefault(sum))
		}
	}
	return out
}

func pascalRow(k int) []float64 {
	row := make([]float64, k)
	row[0] = 1
	for i := 1; i < k; i++ {
		prev := make([]float64, k)
		copy(prev, row)
		row[0] = 1
		for j := 1; j <= i; j++ {
			row[j] = prev[j-1] + prev[j]
		}
	}
	return row
}

// GrowOccupied dilates every cell whose value is in [lo,hi] by radiusMm
// (converted to cells via res), leaving a higher existing value in place.
// This is the configuration-space dilation used by generate_cspace.
// cancel, if non-nil, is polled once per seed; when it reports true,
// GrowOccupied stops dilating immediately, leaving seeds already
// processed in place.
func (m *GridMap) GrowOccupied(radiusMm float64, lo, hi float32, res int, cancel func() bool) {
	seeds := m.seedsInRange(lo, hi)
	radiusCells := radiusMm / float64(res)
	r2 := radiusCells * radiusCells
	box := int(math.Ceil(radiusCells))

	for _, s := range seeds {
		if cancel != nil && cancel() {
			return
		}
		for dy := -box; dy <= box; dy++ {
			for dx := -box; dx <= box; dx++ {
				d2 := float64(dx*dx + dy*dy)
				if d2 > r2 {
					continue
				}
				x, y := s.x+dx, s.y+dy
				if m.Get(x, y) < s.v {
					m.Set(x, y, s.v)
				}
			}
		}
	}
}

type occupiedSeed struct {
	x, y int
	v    float32
}

func (m *GridMap) seedsInRange(lo, hi float32) []occupiedSeed {
	var out []occupiedSeed
	b := m.UpdatedBounds()
	if b.Empty() {
		return out
	}
	for y := b.MinY; y <= b.MaxY; y++ {
		for x := b.MinX; x <= b.MaxX; x++ {
			v := m.Get(x, y)
			if v >= lo && v <= hi {
				out = append(out, occupiedSeed{x, y, v})
			}
		}
	}
	return out
}

// Correlate computes Baron's/Pearson correlation coefficient between m
// and other over the union of their updated bounds, rounded to 4
// decimals. Missing cells read as default (0).
func (m *GridMap) Correlate(other *GridMap) float64 {
	b := m.UpdatedBounds().Union(other.UpdatedBounds())
	if b.Empty() {
		return 0
	}
	n := (b.MaxX - b.MinX + 1) * (b.MaxY - b.MinY + 1)
	a := make([]float64, 0, n)
	o := make([]float64, 0, n)
	for y := b.MinY; y <= b.MaxY; y++ {
		for x := b.MinX; x <= b.MaxX; x++ {
			a = append(a, float64(m.Get(x, y)))
			o = append(o, float64(other.Get(x, y)))
		}
	}
	c := stat.Correlation(a, o, nil)
	if math.IsNaN(c) {
		return 0
	}
	return math.Round(c*10000) / 10000
}

// Comparable reports whether m and other have any updated cells at all,
// the precondition scoreMap's "no comparison possible" result checks
// before calling Score: two maps that are both still completely blank
// have nothing to compare, which is a different outcome than a
// comparison that happens to score 0.
func (m *GridMap) Comparable(other *GridMap) bool {
	return !m.UpdatedBounds().Union(other.UpdatedBounds()).Empty()
}

// Score returns the sum of squared differences between m and other over
// the union of their bounds (lower is better, CMU MATCH style). Cells
// that both equal the "unknown" value 0.5 are skipped; if occupiedOnly,
// a pair only contributes when either cell is >0.5.
func (m *GridMap) Score(other *GridMap, occupiedOnly bool) float64 {
	b := m.UpdatedBounds().Union(other.UpdatedBounds())
	if b.Empty() {
		return 0
	}
	width := b.MaxX - b.MinX + 1
	row := make([]float64, width)
	var total float64
	for y := b.MinY; y <= b.MaxY; y++ {
		for x := b.MinX; x <= b.MaxX; x++ {
			a, o := m.Get(x, y), other.Get(x, y)
			if (a == 0.5 && o == 0.5) || (occupiedOnly && a <= 0.5 && o <= 0.5) {
				row[x-b.MinX] = 0
				continue
			}
			row[x-b.MinX] = float64(a) - float64(o)
		}
		total += floats.Dot(row, row)
	}
	return total
}

// Save writes m using the MapViewer "old grid format": an ASCII header
// "N S E W D R" followed by values in x-major, y column-minor, z
// innermost order.
func (m *GridMap) Save(w io.Writer, resolution int) error {
	b := m.UpdatedBounds()
	if b.Empty() {
		b = blockgrid.Rect{}
	}
	bw := bufio.NewWriter(w)
	depth := 1
	if _, err := fmt.Fprintf(bw, "%d %d %d %d %d %d\n", b.MaxY, b.MinY, b.MaxX, b.MinX, depth, resolution); err != nil {
		return err
	}
	for x := b.MinX; x <= b.MaxX; x++ {
		for y := b.MinY; y <= b.MaxY; y++ {
			if _, err := fmt.Fprintf(bw, "%g\n", m.Get(x, y)); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// Load reads the MapViewer "old grid format". It ignores the stored
// blockSize field and re-chunks the data on the grid's own block size.
func Load(r io.Reader) (*GridMap, int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	if !sc.Scan() {
		return nil, 0, fmt.Errorf("gridmap: empty input")
	}
	fields := strings.Fields(sc.Text())
	if len(fields) < 6 {
		return nil, 0, fmt.Errorf("gridmap: malformed header %q", sc.Text())
	}
	n, errN := strconv.Atoi(fields[0])
	s, errS := strconv.Atoi(fields[1])
	e, errE := strconv.Atoi(fields[2])
	w, errW := strconv.Atoi(fields[3])
	_, errD := strconv.Atoi(fields[4]) // blockSize, intentionally ignored
	res, errR := strconv.Atoi(fields[5])
	if errN != nil || errS != nil || errE != nil || errW != nil || errD != nil || errR != nil {
		return nil, 0, fmt.Errorf("gridmap: malformed header %q", sc.Text())
	}

	out := New(DefaultBlockSize)
	for x := w; x <= e; x++ {
		for y := s; y <= n; y++ {
			if !sc.Scan() {
				return nil, 0, fmt.Errorf("gridmap: truncated data at x=%d y=%d", x, y)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(sc.Text()), 32)
			if err != nil {
				return nil, 0, fmt.Errorf("gridmap: bad value %q: %w", sc.Text(), err)
			}
			out.Set(x, y, float32(v))
		}
	}
	return out, res, sc.Err()
}

// ViewReader remaps cell addresses for an external viewer that wants to
// address this grid's updated-bounds region as a width-by-height array,
// optionally with the origin at the top-left corner instead of the
// native bottom-left. It is a pure reader: nothing about the underlying
// grid changes, and writes still go through Get/Set in native
// coordinates.
//
// Grounded on MapManagerLibrary/grid/GridMap.{h,cpp}'s
// getGridRefFromView/getGridRefFromTopLeftView, which let the original's
// view layer address a map region without it being copied or reshaped.
type ViewReader struct {
	grid     *GridMap
	originX  int
	originY  int
	width    int
	height   int
	topLeft  bool
}

// ViewReader returns a reader over m's current updated bounds. width and
// height override the view's reported size; cells outside the native
// grid's bounds read as the default value. topLeft places view row 0 at
// the native grid's maximum y instead of its minimum.
func (m *GridMap) ViewReader(width, height int, topLeft bool) *ViewReader {
	b := m.UpdatedBounds()
	return &ViewReader{grid: m, originX: b.MinX, originY: b.MinY, width: width, height: height, topLeft: topLeft}
}

// Width and Height report the view's reported dimensions.
func (v *ViewReader) Width() int  { return v.width }
func (v *ViewReader) Height() int { return v.height }

// At returns the value at view-relative (vx,vy).
func (v *ViewReader) At(vx, vy int) float32 {
	if vx < 0 || vx >= v.width || vy < 0 || vy >= v.height {
		return 0
	}
	y := vy
	if v.topLeft {
		y = v.height - 1 - vy
	}
	return v.grid.Get(v.originX+vx, v.originY+y)
}
