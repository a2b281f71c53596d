package sph

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/spherro/internal/kernel"
)

// Step advances the universe by dt. Phases run in a fixed order and each
// one is fully committed before the next starts; population events are
// applied last.
func (u *Universe) Step(dt float64) {
	u.resolveNeighbours()
	u.updateDensity()
	u.integrateNonPressure(dt)
	for k := 0; k < u.params.PressureIterations; k++ {
		u.updateDensity()
		u.integratePressure(dt)
	}
	u.updateBoundary()
	u.drainEvents()

	u.time += dt
	u.steps++
}

// resolveNeighbours snapshots positions, builds a fresh index and freezes
// the particle and force neighbour sets for the rest of the step.
func (u *Universe) resolveNeighbours() {
	n := len(u.particles)
	positions := make([]r2.Vec, n)
	for i := range u.particles {
		positions[i] = u.particles[i].Pos
	}

	acc := u.build(u.width, u.height, u.params.H, positions)
	r := kernel.Support * u.params.H

	u.neighbours = resize(u.neighbours, n)
	u.forEach(n, func(i int) {
		u.neighbours[i] = acc.NearestByIdx(i, r)
	})

	u.forceNeighbours = resize(u.forceNeighbours, len(u.forces))
	for k, f := range u.forces {
		u.forceNeighbours[k] = acc.NearestByPos(f.Pos, f.Radius)
	}
}

func resize(s [][]int, n int) [][]int {
	if cap(s) < n {
		return make([][]int, n)
	}
	return s[:n]
}

// updateDensity writes Rho, Pressure and Color of every particle. It reads
// only positions and masses, so it can write in place.
func (u *Universe) updateDensity() {
	p := u.params
	h3 := p.H * p.H * p.H

	u.forEach(len(u.particles), func(i int) {
		pi := &u.particles[i]
		rho := 0.0
		for _, j := range u.neighbours[i] {
			pj := &u.particles[j]
			q := r2.Norm(r2.Sub(pi.Pos, pj.Pos)) / p.H
			rho += pj.Mass * u.kernel.F(q) / h3
		}
		pi.Rho = rho
		pi.Pressure = p.Stiffness * (math.Pow(rho/p.RestDensity, 7) - 1)
		pi.Color = densityColor(rho, p.RestDensity)
	})
}

// gradW is the kernel gradient for the separation xij = x_i - x_j.
// Coincident particles get a zero gradient.
func (u *Universe) gradW(xij r2.Vec) r2.Vec {
	d := r2.Norm(xij)
	if d == 0 {
		return r2.Vec{}
	}
	h := u.params.H
	return r2.Scale(u.kernel.DF(d/h)/(h*h*h*d), xij)
}

// integrateNonPressure applies external forces, viscosity and gravity with
// a semi-implicit Euler step.
func (u *Universe) integrateNonPressure(dt float64) {
	n := len(u.particles)
	p := u.params

	u.dv = resizeVec(u.dv, n)
	for i := range u.dv {
		u.dv[i] = r2.Vec{}
	}

	limit := p.MaxForce / dt
	for k, f := range u.forces {
		for _, j := range u.forceNeighbours[k] {
			u.dv[j] = r2.Add(u.dv[j], f.kick(u.particles[j].Pos, limit))
		}
	}

	gravity := r2.Vec{Y: p.Gravity}
	eps := 0.01 * p.H * p.H

	u.forEach(n, func(i int) {
		pi := &u.particles[i]
		var lap r2.Vec
		for _, j := range u.neighbours[i] {
			pj := &u.particles[j]
			if pj.Rho == 0 {
				continue
			}
			xij := r2.Sub(pi.Pos, pj.Pos)
			w := r2.Dot(xij, u.gradW(xij)) / (r2.Norm2(xij) + eps)
			lap = r2.Add(lap, r2.Scale(pj.Mass/pj.Rho*w, r2.Sub(pi.Vel, pj.Vel)))
		}
		u.dv[i] = r2.Add(u.dv[i], r2.Add(r2.Scale(2*p.Viscosity, lap), gravity))
	})

	for i := range u.particles {
		pi := &u.particles[i]
		pi.Vel = r2.Add(pi.Vel, r2.Scale(dt, u.dv[i]))
		pi.Pos = r2.Add(pi.Pos, r2.Scale(dt, pi.Vel))
	}
}

// integratePressure applies the symmetric SPH pressure gradient as an
// acceleration. Particles without neighbours have zero density and feel
// no pressure.
func (u *Universe) integratePressure(dt float64) {
	n := len(u.particles)
	u.dv = resizeVec(u.dv, n)

	u.forEach(n, func(i int) {
		pi := &u.particles[i]
		if pi.Rho == 0 {
			u.dv[i] = r2.Vec{}
			return
		}
		var sum r2.Vec
		pri := pi.Pressure / (pi.Rho * pi.Rho)
		for _, j := range u.neighbours[i] {
			pj := &u.particles[j]
			if pj.Rho == 0 {
				continue
			}
			c := pj.Mass * (pri + pj.Pressure/(pj.Rho*pj.Rho))
			sum = r2.Add(sum, r2.Scale(c, u.gradW(r2.Sub(pi.Pos, pj.Pos))))
		}
		dP := r2.Scale(pi.Rho, sum)
		u.dv[i] = r2.Scale(-1/pi.Rho, dP)
	})

	for i := range u.particles {
		pi := &u.particles[i]
		a := u.dv[i]
		pi.Vel = r2.Add(pi.Vel, r2.Scale(dt, a))
		pi.Pos = r2.Add(pi.Pos, r2.Scale(dt*dt, a))
	}
}

func resizeVec(s []r2.Vec, n int) []r2.Vec {
	if cap(s) < n {
		return make([]r2.Vec, n)
	}
	return s[:n]
}

// updateBoundary reflects the velocity component of every particle outside
// the domain on that axis, with a minimum outward speed.
func (u *Universe) updateBoundary() {
	p := u.params
	for i := range u.particles {
		pi := &u.particles[i]
		pi.Vel.X = bounce(pi.Pos.X, pi.Vel.X, u.width, p.Restitution, p.MinBounce)
		pi.Vel.Y = bounce(pi.Pos.Y, pi.Vel.Y, u.height, p.Restitution, p.MinBounce)
	}
}

func bounce(x, v, upper, cor, minDV float64) float64 {
	switch {
	case x < 0:
		return math.Max(minDV, -cor*v)
	case x > upper:
		return math.Min(-minDV, -cor*v)
	default:
		return v
	}
}
