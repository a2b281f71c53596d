package viz

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/spherro/internal/spatial"
	"github.com/san-kum/spherro/internal/sph"
)

// Viewport maps a width×height domain with y pointing up onto a canvas.
type Viewport struct {
	Width, Height float64
	canvas        *Canvas
}

func NewViewport(c *Canvas, width, height float64) Viewport {
	return Viewport{Width: width, Height: height, canvas: c}
}

// Project returns the sub-pixel holding (x, y). ok is false for points
// outside the domain or non-finite coordinates.
func (v Viewport) Project(x, y float64) (px, py int, ok bool) {
	if !(x >= 0 && x <= v.Width && y >= 0 && y <= v.Height) {
		return 0, 0, false
	}
	dw, dh := v.canvas.Dots()
	px = int(math.Min(x/v.Width*float64(dw), float64(dw-1)))
	py = int(math.Min((1-y/v.Height)*float64(dh), float64(dh-1)))
	return px, py, true
}

// Particles plots a flat export in the sph.Stride layout, one dot per
// particle, tinted with the particle colour.
func (v Viewport) Particles(flat []float64) int {
	drawn := 0
	for i := 0; i+sph.Stride <= len(flat); i += sph.Stride {
		px, py, ok := v.Project(flat[i], flat[i+1])
		if !ok {
			continue
		}
		col := colorful.Color{R: flat[i+4], G: flat[i+5], B: flat[i+6]}
		v.canvas.SetColor(px, py, col)
		drawn++
	}
	return drawn
}

// Segments draws index split lines, such as grid cell boundaries.
func (v Viewport) Segments(segs []spatial.Segment) {
	for _, s := range segs {
		x0, y0, ok0 := v.Project(s.A.X, s.A.Y)
		x1, y1, ok1 := v.Project(s.B.X, s.B.Y)
		if ok0 && ok1 {
			v.canvas.DrawLine(x0, y0, x1, y1)
		}
	}
}

// Marker draws a small cross centred on (x, y).
func (v Viewport) Marker(x, y float64) {
	px, py, ok := v.Project(x, y)
	if !ok {
		return
	}
	v.canvas.DrawLine(px-2, py, px+2, py)
	v.canvas.DrawLine(px, py-2, px, py+2)
}
