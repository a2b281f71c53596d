package sim

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/san-kum/spherro/internal/metrics"
	"github.com/san-kum/spherro/internal/sph"
	"github.com/san-kum/spherro/internal/storage"
)

type Simulator struct {
	u         *sph.Universe
	metrics   []metrics.Metric
	observers []Observer
	logger    *log.Logger
	flat      []float64
}

func New(u *sph.Universe, logger *log.Logger) *Simulator {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Simulator{
		u:         u,
		metrics:   make([]metrics.Metric, 0),
		observers: make([]Observer, 0),
		logger:    logger,
	}
}

func (s *Simulator) AddMetric(m metrics.Metric) { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer)     { s.observers = append(s.observers, o) }

func (s *Simulator) Universe() *sph.Universe { return s.u }

// Run advances the universe frame by frame until cfg.Frames is reached,
// the universe diverges, or ctx is cancelled. Divergence ends the run
// without an error; it is reported in Result.Err.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Samples: make([]metrics.Sample, 0, cfg.Frames+1),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	s.sample(result)
	if cfg.FrameEvery > 0 {
		s.frame(result)
	}

	for i := 0; i < cfg.Frames; i++ {
		select {
		case <-ctx.Done():
			s.finish(result)
			return result, ctx.Err()
		default:
		}

		for k := 0; k < cfg.Substeps; k++ {
			if cfg.Force != nil {
				s.u.ClearForces()
				s.u.AddForce(*cfg.Force)
			}
			s.u.Step(cfg.Dt)
			result.StepsTaken++

			for _, err := range s.u.LastReport().Rejected {
				s.logger.Warn("population event rejected", "err", err)
			}
		}

		keep := cfg.FrameEvery > 0 && (i+1)%cfg.FrameEvery == 0
		s.sample(result)
		if keep {
			s.frame(result)
		}
		for _, obs := range s.observers {
			obs.OnStep(s.u)
		}

		if err := s.u.Validate(); err != nil {
			s.logger.Error("simulation diverged", "err", err)
			result.Err = err
			// Keep the diverged state for inspection.
			if !keep && cfg.FrameEvery > 0 {
				s.frame(result)
			}
			break
		}
	}

	s.finish(result)
	return result, nil
}

func (s *Simulator) sample(result *Result) {
	ps := s.u.Particles()
	t := s.u.Time()

	result.Samples = append(result.Samples, metrics.Measure(ps, t))
	for _, m := range s.metrics {
		m.Observe(ps, t)
	}
}

// frame stores a copy of the flat particle export.
func (s *Simulator) frame(result *Result) {
	s.flat = s.u.AppendFlat(s.flat[:0])
	data := make([]float64, len(s.flat))
	copy(data, s.flat)
	result.Frames = append(result.Frames, storage.Frame{Step: s.u.Steps(), Time: s.u.Time(), Data: data})
}

func (s *Simulator) finish(result *Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Frames < 0 {
		return fmt.Errorf("frames must be non-negative, got %d", cfg.Frames)
	}
	if cfg.Substeps < 1 {
		return fmt.Errorf("substeps must be at least 1, got %d", cfg.Substeps)
	}
	return nil
}
