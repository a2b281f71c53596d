package metrics

import (
	"github.com/san-kum/spherro/internal/sph"
)

// Energy is the run average of the mean kinetic energy per particle.
type Energy struct {
	name    string
	total   float64
	samples int
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(ps []sph.Particle, t float64) {
	e.total += Measure(ps, t).KineticEnergy
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *Energy) Reset() {
	e.total = 0
	e.samples = 0
}

// Density is the run average of the mean particle density.
type Density struct {
	name    string
	total   float64
	samples int
}

func NewDensity() *Density {
	return &Density{name: "density"}
}

func (d *Density) Name() string { return d.name }

func (d *Density) Observe(ps []sph.Particle, t float64) {
	d.total += Measure(ps, t).MeanDensity
	d.samples++
}

func (d *Density) Value() float64 {
	if d.samples == 0 {
		return 0
	}
	return d.total / float64(d.samples)
}

func (d *Density) Reset() {
	d.total = 0
	d.samples = 0
}

// MaxSpeed is the highest particle speed seen during the run.
type MaxSpeed struct {
	name string
	max  float64
}

func NewMaxSpeed() *MaxSpeed {
	return &MaxSpeed{name: "max_speed"}
}

func (m *MaxSpeed) Name() string { return m.name }

func (m *MaxSpeed) Observe(ps []sph.Particle, t float64) {
	if s := Measure(ps, t).MaxSpeed; s > m.max {
		m.max = s
	}
}

func (m *MaxSpeed) Value() float64 { return m.max }

func (m *MaxSpeed) Reset() { m.max = 0 }
