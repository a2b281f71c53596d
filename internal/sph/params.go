package sph

import (
	"fmt"
	"math"
)

// Params holds the solver constants. Lengths are in domain units, times
// in seconds.
type Params struct {
	H                  float64 // smoothing length; kernel support is 2H
	Viscosity          float64
	RestDensity        float64
	Stiffness          float64 // K in P = K((rho/rho0)^7 - 1)
	Gravity            float64 // acceleration along +y
	MinBounce          float64 // minimum outward speed after a wall hit
	Restitution        float64
	MaxForce           float64 // cap on the per-step velocity kick of one force
	PressureIterations int
	SpawnMass          float64
	SpawnJitter        float64 // radius of the spawn disc
}

// DefaultParams returns the tuning used for a 700×700 domain.
func DefaultParams() Params {
	const h = 35.0
	return Params{
		H:                  h,
		Viscosity:          10,
		RestDensity:        1.0 / (5 * 5 * 5),
		Stiffness:          10,
		Gravity:            -10000,
		MinBounce:          500,
		Restitution:        0.9,
		MaxForce:           2000,
		PressureIterations: 3,
		SpawnMass:          100,
		SpawnJitter:        0.25 * h,
	}
}

// Validate reports the first parameter outside its valid range.
func (p Params) Validate() error {
	switch {
	case !(p.H > 0) || math.IsInf(p.H, 0):
		return fmt.Errorf("%w: h must be positive, got %g", ErrInvalidParams, p.H)
	case !(p.RestDensity > 0):
		return fmt.Errorf("%w: rest density must be positive, got %g", ErrInvalidParams, p.RestDensity)
	case p.Viscosity < 0:
		return fmt.Errorf("%w: viscosity must be non-negative, got %g", ErrInvalidParams, p.Viscosity)
	case p.Restitution < 0 || p.Restitution > 1:
		return fmt.Errorf("%w: restitution must be in [0, 1], got %g", ErrInvalidParams, p.Restitution)
	case p.MinBounce < 0:
		return fmt.Errorf("%w: min bounce must be non-negative, got %g", ErrInvalidParams, p.MinBounce)
	case !(p.MaxForce > 0):
		return fmt.Errorf("%w: max force must be positive, got %g", ErrInvalidParams, p.MaxForce)
	case p.PressureIterations < 0:
		return fmt.Errorf("%w: pressure iterations must be non-negative, got %d", ErrInvalidParams, p.PressureIterations)
	case !(p.SpawnMass > 0):
		return fmt.Errorf("%w: spawn mass must be positive, got %g", ErrInvalidParams, p.SpawnMass)
	case p.SpawnJitter < 0:
		return fmt.Errorf("%w: spawn jitter must be non-negative, got %g", ErrInvalidParams, p.SpawnJitter)
	}
	return nil
}
