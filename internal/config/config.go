package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/spherro/internal/scene"
	"github.com/san-kum/spherro/internal/spatial"
	"github.com/san-kum/spherro/internal/sph"
)

const (
	DefaultWidth    = 700.0
	DefaultHeight   = 700.0
	DefaultDt       = 0.005
	DefaultSteps    = 400
	DefaultSubsteps = 2
	DefaultPower    = 2e8
	DefaultRadius   = 100.0
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Domain DomainConfig `yaml:"domain"`
	Scene  SceneConfig  `yaml:"scene"`
	Solver SolverConfig `yaml:"solver"`
	Force  ForceConfig  `yaml:"force"`
	Run    RunConfig    `yaml:"run"`
}

type DomainConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type SceneConfig struct {
	Strategy   string  `yaml:"strategy"`
	Count      int     `yaml:"count"`
	WidthFrac  float64 `yaml:"width_frac"`
	HeightFrac float64 `yaml:"height_frac"`
	Rows       int     `yaml:"rows"`
	Cols       int     `yaml:"cols"`
	Mass       float64 `yaml:"mass"`
}

type SolverConfig struct {
	H                  float64 `yaml:"h"`
	Viscosity          float64 `yaml:"viscosity"`
	RestDensity        float64 `yaml:"rest_density"`
	Stiffness          float64 `yaml:"stiffness"`
	Gravity            float64 `yaml:"gravity"`
	MinBounce          float64 `yaml:"min_bounce"`
	Restitution        float64 `yaml:"restitution"`
	MaxForce           float64 `yaml:"max_force"`
	PressureIterations int     `yaml:"pressure_iterations"`
	SpawnMass          float64 `yaml:"spawn_mass"`
	SpawnJitter        float64 `yaml:"spawn_jitter"`
}

// ForceConfig places one external force for the whole run. A zero Power
// means no force.
type ForceConfig struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Power  float64 `yaml:"power"`
	Radius float64 `yaml:"radius"`
}

type RunConfig struct {
	Dt          float64 `yaml:"dt"`
	Steps       int     `yaml:"steps"`
	Substeps    int     `yaml:"substeps"`
	Seed        uint64  `yaml:"seed"`
	Workers     int     `yaml:"workers"`
	Accelerator string  `yaml:"accelerator"`
	LogLevel    string  `yaml:"log_level"`
}

func DefaultConfig() *Config {
	p := sph.DefaultParams()
	l := scene.DefaultLayout(scene.DamBreak)
	return &Config{
		Domain: DomainConfig{Width: DefaultWidth, Height: DefaultHeight},
		Scene: SceneConfig{
			Strategy:   l.Strategy.String(),
			Count:      l.Count,
			WidthFrac:  l.WidthFrac,
			HeightFrac: l.HeightFrac,
			Rows:       l.Rows,
			Cols:       l.Cols,
			Mass:       l.Mass,
		},
		Solver: SolverConfig{
			H:                  p.H,
			Viscosity:          p.Viscosity,
			RestDensity:        p.RestDensity,
			Stiffness:          p.Stiffness,
			Gravity:            p.Gravity,
			MinBounce:          p.MinBounce,
			Restitution:        p.Restitution,
			MaxForce:           p.MaxForce,
			PressureIterations: p.PressureIterations,
			SpawnMass:          p.SpawnMass,
			SpawnJitter:        p.SpawnJitter,
		},
		Force: ForceConfig{X: 350, Y: 100, Power: DefaultPower, Radius: DefaultRadius},
		Run: RunConfig{
			Dt:          DefaultDt,
			Steps:       DefaultSteps,
			Substeps:    DefaultSubsteps,
			Seed:        1,
			Workers:     1,
			Accelerator: "grid",
			LogLevel:    "info",
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Params() sph.Params {
	s := c.Solver
	return sph.Params{
		H:                  s.H,
		Viscosity:          s.Viscosity,
		RestDensity:        s.RestDensity,
		Stiffness:          s.Stiffness,
		Gravity:            s.Gravity,
		MinBounce:          s.MinBounce,
		Restitution:        s.Restitution,
		MaxForce:           s.MaxForce,
		PressureIterations: s.PressureIterations,
		SpawnMass:          s.SpawnMass,
		SpawnJitter:        s.SpawnJitter,
	}
}

func (c *Config) Layout() (scene.Layout, error) {
	s, err := scene.ParseStrategy(c.Scene.Strategy)
	if err != nil {
		return scene.Layout{}, err
	}
	return scene.Layout{
		Strategy:   s,
		Count:      c.Scene.Count,
		WidthFrac:  c.Scene.WidthFrac,
		HeightFrac: c.Scene.HeightFrac,
		Rows:       c.Scene.Rows,
		Cols:       c.Scene.Cols,
		Mass:       c.Scene.Mass,
		Seed:       c.Run.Seed,
	}, nil
}

// HasForce reports whether the run carries an external force.
func (c *Config) HasForce() bool {
	return c.Force.Power != 0 && c.Force.Radius > 0
}

func (c *Config) Validate() error {
	if !(c.Domain.Width > 0) || !(c.Domain.Height > 0) {
		return fmt.Errorf("%w: domain %gx%g", ErrInvalidConfig, c.Domain.Width, c.Domain.Height)
	}
	if !(c.Run.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, c.Run.Dt)
	}
	if c.Run.Steps < 0 || c.Run.Substeps < 1 {
		return fmt.Errorf("%w: steps=%d substeps=%d", ErrInvalidConfig, c.Run.Steps, c.Run.Substeps)
	}
	if _, err := spatial.Lookup(c.Run.Accelerator); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	l, err := c.Layout()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := l.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
