package spatial

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Grid buckets positions into square cells over [0, width) × [0, height).
// Positions outside the domain, including non-finite ones, are clamped into
// the nearest edge cell so that a transient excursion never indexes out of
// range.
type Grid struct {
	width    float64
	height   float64
	cellSize float64
	cols     int
	rows     int
	cells    [][]int
	items    []r2.Vec
}

// NewGrid builds a grid in linear time over positions.
func NewGrid(width, height, cellSize float64, positions []r2.Vec) *Grid {
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(height / cellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	g := &Grid{
		width:    width,
		height:   height,
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    make([][]int, cols*rows),
		items:    positions,
	}

	for i, p := range positions {
		idx := g.row(p.Y)*g.cols + g.col(p.X)
		g.cells[idx] = append(g.cells[idx], i)
	}

	return g
}

func (g *Grid) NearestByIdx(i int, r float64) []int {
	return g.nearest(g.items[i], r, i)
}

func (g *Grid) NearestByPos(pos r2.Vec, r float64) []int {
	return g.nearest(pos, r, -1)
}

// nearest scans every cell overlapping [pos-r, pos+r] and keeps the items
// strictly inside the circle. exclude < 0 disables self exclusion.
func (g *Grid) nearest(pos r2.Vec, r float64, exclude int) []int {
	neighbours := make([]int, 0, 24)
	rr := r * r

	x0, x1 := g.col(pos.X-r), g.col(pos.X+r)
	y0, y1 := g.row(pos.Y-r), g.row(pos.Y+r)

	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			for _, j := range g.cells[y*g.cols+x] {
				if j == exclude {
					continue
				}
				if within(pos, g.items[j], rr) {
					neighbours = append(neighbours, j)
				}
			}
		}
	}

	return neighbours
}

func (g *Grid) col(x float64) int { return clampCell(x/g.cellSize, g.cols) }
func (g *Grid) row(y float64) int { return clampCell(y/g.cellSize, g.rows) }

// clampCell floors v into [0, n-1]. NaN lands in cell 0.
func clampCell(v float64, n int) int {
	f := math.Floor(v)
	if !(f >= 0) {
		return 0
	}
	if f >= float64(n-1) {
		return n - 1
	}
	return int(f)
}

// Dims returns the number of columns and rows.
func (g *Grid) Dims() (cols, rows int) { return g.cols, g.rows }

// Splits returns the interior cell boundaries as line segments.
func (g *Grid) Splits() []Segment {
	splits := make([]Segment, 0, g.cols+g.rows)
	for x := 1; x < g.cols; x++ {
		cx := float64(x) * g.cellSize
		splits = append(splits, Segment{r2.Vec{X: cx}, r2.Vec{X: cx, Y: g.height}})
	}
	for y := 1; y < g.rows; y++ {
		cy := float64(y) * g.cellSize
		splits = append(splits, Segment{r2.Vec{Y: cy}, r2.Vec{X: g.width, Y: cy}})
	}
	return splits
}
