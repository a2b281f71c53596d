// Package metrics summarises a particle population over a run.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/spherro/internal/sph"
)

// Metric accumulates one scalar over the observations of a run.
type Metric interface {
	Name() string
	Observe(ps []sph.Particle, t float64)
	Value() float64
	Reset()
}

// Sample is an instantaneous measurement of a population.
type Sample struct {
	Time          float64
	Particles     int
	KineticEnergy float64 // mean |v|² per particle
	MeanDensity   float64
	MaxSpeed      float64
	Stable        bool
}

// Measure computes a Sample. Particles with a non-finite position or speed
// are excluded from the averages and make the sample unstable.
func Measure(ps []sph.Particle, t float64) Sample {
	s := Sample{Time: t, Particles: len(ps), Stable: true}
	if len(ps) == 0 {
		return s
	}

	ke := make([]float64, 0, len(ps))
	rho := make([]float64, 0, len(ps))
	for _, p := range ps {
		e := p.KineticEnergy()
		if !p.IsFinite() || math.IsNaN(e) || math.IsInf(e, 0) {
			s.Stable = false
			continue
		}
		ke = append(ke, e)
		rho = append(rho, p.Rho)
		s.MaxSpeed = math.Max(s.MaxSpeed, math.Sqrt(e))
	}
	if len(ke) > 0 {
		s.KineticEnergy = stat.Mean(ke, nil)
		s.MeanDensity = stat.Mean(rho, nil)
	}
	return s
}

// Defaults returns the metrics recorded for every stored run.
func Defaults() []Metric {
	return []Metric{NewEnergy(), NewDensity(), NewMaxSpeed(), NewStability()}
}
