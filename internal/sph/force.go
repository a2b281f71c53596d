package sph

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Force is a point source that pushes particles within Radius away from Pos
// with an inverse-square falloff. A negative Power attracts.
type Force struct {
	Pos    r2.Vec
	Power  float64
	Radius float64
}

func NewForce(x, y, power, radius float64) Force {
	return Force{Pos: r2.Vec{X: x, Y: y}, Power: power, Radius: radius}
}

// kick returns the acceleration f imparts on a particle at p. The magnitude
// is capped at limit; a particle sitting on the source gets nothing.
func (f Force) kick(p r2.Vec, limit float64) r2.Vec {
	dir := r2.Sub(p, f.Pos)
	d2 := r2.Norm2(dir)
	if d2 == 0 {
		return r2.Vec{}
	}
	mag := math.Min(math.Abs(f.Power)/d2, limit)
	return r2.Scale(math.Copysign(mag, f.Power)/math.Sqrt(d2), dir)
}
