package metrics

import (
	"github.com/san-kum/spherro/internal/sph"
)

// Stability is the fraction of observations in which every particle
// position was finite.
type Stability struct {
	name       string
	violations int
	samples    int
}

func NewStability() *Stability {
	return &Stability{
		name: "stability",
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(ps []sph.Particle, t float64) {
	s.samples++
	for _, p := range ps {
		if !p.IsFinite() {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
