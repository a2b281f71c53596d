package sph

import (
	"errors"
	"fmt"
)

// Domain errors for universe construction and population events.
var (
	// ErrInvalidDomain indicates a non-positive or non-finite domain size.
	ErrInvalidDomain = errors.New("sph: invalid domain size")

	// ErrInvalidParams indicates solver parameters outside their valid range.
	ErrInvalidParams = errors.New("sph: invalid solver parameters")

	// ErrInvalidEvent indicates a negative count or a non-finite spawn position.
	ErrInvalidEvent = errors.New("sph: invalid population event")

	// ErrDespawnTooMany indicates a despawn request larger than the population.
	ErrDespawnTooMany = errors.New("sph: despawn count exceeds particle count")

	// ErrUnstable indicates the simulation diverged (non-finite positions).
	ErrUnstable = errors.New("sph: simulation unstable (state diverged)")
)

// DivergenceError reports the first particle found with a non-finite position.
type DivergenceError struct {
	Step     int
	Index    int
	Particle Particle
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("sph: particle %d diverged after step %d (pos=(%g, %g))",
		e.Index, e.Step, e.Particle.Pos.X, e.Particle.Pos.Y)
}

func (e *DivergenceError) Unwrap() error {
	return ErrUnstable
}
