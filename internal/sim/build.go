package sim

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/san-kum/spherro/internal/config"
	"github.com/san-kum/spherro/internal/scene"
	"github.com/san-kum/spherro/internal/spatial"
	"github.com/san-kum/spherro/internal/sph"
)

// Build creates the universe described by cfg: the scene layout, solver
// parameters, accelerator, worker count and seed.
func Build(cfg *config.Config, logger *log.Logger) (*sph.Universe, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	layout, err := cfg.Layout()
	if err != nil {
		return nil, err
	}
	particles, err := scene.Generate(cfg.Domain.Width, cfg.Domain.Height, layout)
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}

	build, err := spatial.Lookup(cfg.Run.Accelerator)
	if err != nil {
		return nil, err
	}

	opts := []sph.Option{
		sph.WithParams(cfg.Params()),
		sph.WithAccelerator(build),
		sph.WithWorkers(cfg.Run.Workers),
		sph.WithSeed(cfg.Run.Seed),
	}
	if logger != nil {
		opts = append(opts, sph.WithLogger(logger))
	}
	return sph.New(cfg.Domain.Width, cfg.Domain.Height, particles, opts...)
}

// ForceOf returns the configured force, if any.
func ForceOf(cfg *config.Config) (sph.Force, bool) {
	if !cfg.HasForce() {
		return sph.Force{}, false
	}
	f := cfg.Force
	return sph.NewForce(f.X, f.Y, f.Power, f.Radius), true
}
