// Package sph implements a 2-D smoothed-particle-hydrodynamics solver.
//
// A [Universe] owns a particle collection inside a fixed rectangle and
// advances it with [Universe.Step]. Each step runs five phases in order:
//
//  1. neighbour resolution (a fresh spatial index, frozen for the step)
//  2. density and pressure
//  3. non-pressure forces: external forces, viscosity, gravity
//  4. pressure correction, repeated Params.PressureIterations times
//  5. wall bounce
//
// and finally drains queued spawn/despawn events. Divergence is never
// handled inside Step; poll [Universe.IsUnstable] or [Universe.Validate].
//
// # Thread Safety
//
// A Universe is NOT safe for concurrent use. [WithWorkers] parallelises
// the per-particle work inside a phase, never across phases.
package sph

import (
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/spherro/internal/kernel"
	"github.com/san-kum/spherro/internal/spatial"
)

type Universe struct {
	width, height float64
	params        Params
	kernel        kernel.Kernel
	build         spatial.Builder
	workers       int
	seed          uint64
	rnd           *rand.Rand
	logger        *log.Logger

	particles []Particle
	forces    []Force
	events    []event
	report    EventReport

	time  float64
	steps int

	// Per-step scratch, indexed like particles.
	neighbours      [][]int
	forceNeighbours [][]int
	dv              []r2.Vec
}

// Option configures a Universe at construction.
type Option func(*Universe)

func WithParams(p Params) Option { return func(u *Universe) { u.params = p } }

// WithKernel replaces the cubic spline. The kernel must vanish for q >= 2.
func WithKernel(k kernel.Kernel) Option { return func(u *Universe) { u.kernel = k } }

// WithAccelerator selects the neighbour index built at the top of each step.
func WithAccelerator(b spatial.Builder) Option { return func(u *Universe) { u.build = b } }

// WithWorkers splits per-particle work across n goroutines.
func WithWorkers(n int) Option { return func(u *Universe) { u.workers = n } }

// WithSeed seeds the spawn jitter.
func WithSeed(seed uint64) Option { return func(u *Universe) { u.seed = seed } }

func WithLogger(l *log.Logger) Option { return func(u *Universe) { u.logger = l } }

// New creates a universe over [0, width] × [0, height] holding a copy of
// particles.
func New(width, height float64, particles []Particle, opts ...Option) (*Universe, error) {
	if !(width > 0) || !(height > 0) || math.IsInf(width, 0) || math.IsInf(height, 0) {
		return nil, fmt.Errorf("%w: %gx%g", ErrInvalidDomain, width, height)
	}

	u := &Universe{
		width:   width,
		height:  height,
		params:  DefaultParams(),
		kernel:  kernel.CubicSpline{},
		build:   gridBuilder,
		workers: 1,
		seed:    1,
	}
	for _, opt := range opts {
		opt(u)
	}

	if err := u.params.Validate(); err != nil {
		return nil, err
	}
	if u.logger == nil {
		u.logger = log.New(io.Discard)
	}
	if u.workers < 1 {
		u.workers = 1
	}
	u.rnd = rand.New(rand.NewSource(u.seed))

	u.particles = make([]Particle, len(particles))
	copy(u.particles, particles)

	return u, nil
}

func gridBuilder(w, h, cell float64, pos []r2.Vec) spatial.Accelerator {
	return spatial.NewGrid(w, h, cell, pos)
}

func (u *Universe) Width() float64     { return u.width }
func (u *Universe) Height() float64    { return u.height }
func (u *Universe) Params() Params     { return u.params }
func (u *Universe) Time() float64      { return u.time }
func (u *Universe) Steps() int         { return u.steps }
func (u *Universe) ParticleCount() int { return len(u.particles) }

// Particles returns a copy of the particle list.
func (u *Universe) Particles() []Particle {
	out := make([]Particle, len(u.particles))
	copy(out, u.particles)
	return out
}

// Particle returns the i-th particle.
func (u *Universe) Particle(i int) Particle { return u.particles[i] }

// AddForce registers a force for subsequent steps.
func (u *Universe) AddForce(f Force) { u.forces = append(u.forces, f) }

func (u *Universe) ClearForces() { u.forces = u.forces[:0] }

func (u *Universe) Forces() []Force {
	out := make([]Force, len(u.forces))
	copy(out, u.forces)
	return out
}

// IsUnstable reports whether any particle has a non-finite position.
func (u *Universe) IsUnstable() bool {
	return u.Validate() != nil
}

// Validate returns a *DivergenceError for the first non-finite particle.
func (u *Universe) Validate() error {
	for i, p := range u.particles {
		if !p.IsFinite() {
			return &DivergenceError{Step: u.steps, Index: i, Particle: p}
		}
	}
	return nil
}
