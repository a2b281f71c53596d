package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/spherro/internal/sph"
)

// FrameToSVG draws a flat particle export (sph.Stride layout) over a
// width×height domain as coloured dots. The domain's y axis points up.
func FrameToSVG(data []float64, width, height, scale float64, radius float64) string {
	w := width * scale
	h := height * scale

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g>
`, w, h, w, h))

	for i := 0; i+sph.Stride <= len(data); i += sph.Stride {
		x, y := data[i], data[i+1]
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			continue
		}
		col := colorful.Color{R: data[i+4], G: data[i+5], B: data[i+6]}.Clamped()
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, x*scale, h-y*scale, radius*scale, col.Hex()))
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}
