package sph

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r2"
)

var (
	colorRest  = colorful.Color{R: 0, G: 0, B: 1}
	colorDense = colorful.Color{R: 1, G: 0, B: 0}
)

// Particle is one fluid sample. Rho and Pressure are overwritten every
// step before they are read; Color is for display only.
type Particle struct {
	Pos      r2.Vec
	Vel      r2.Vec
	Mass     float64
	Rho      float64
	Pressure float64
	Color    colorful.Color
}

// NewParticle returns a particle at rest at (x, y).
func NewParticle(x, y, mass float64) Particle {
	return Particle{
		Pos:   r2.Vec{X: x, Y: y},
		Mass:  mass,
		Color: colorRest,
	}
}

// KineticEnergy returns |v|², the ordering key for despawning.
func (p Particle) KineticEnergy() float64 {
	return r2.Norm2(p.Vel)
}

// IsFinite reports whether the position is free of NaN and Inf.
func (p Particle) IsFinite() bool {
	return isFinite(p.Pos.X) && isFinite(p.Pos.Y)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// densityColor blends from blue at zero density to red at rest density.
func densityColor(rho, rest float64) colorful.Color {
	t := rho / rest
	if !(t > 0) {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return colorRest.BlendRgb(colorDense, t)
}
