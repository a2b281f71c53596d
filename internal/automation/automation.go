package automation

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/spherro/internal/config"
	"github.com/san-kum/spherro/internal/metrics"
	"github.com/san-kum/spherro/internal/sim"
	"github.com/san-kum/spherro/internal/sph"
)

// Scenario scripts population events and force changes against a preset.
type Scenario struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Preset      string  `yaml:"preset"`
	Frames      int     `yaml:"frames"`
	Actions     []Event `yaml:"actions"`
}

// Event fires after the given frame; queued spawns and despawns land at
// the end of the following solver step.
type Event struct {
	Frame       int          `yaml:"frame"`
	Spawn       *SpawnAction `yaml:"spawn,omitempty"`
	Despawn     int          `yaml:"despawn,omitempty"`
	Force       *ForceAction `yaml:"force,omitempty"`
	ClearForces bool         `yaml:"clear_forces,omitempty"`
}

type SpawnAction struct {
	Count int     `yaml:"count"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
}

type ForceAction struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Power  float64 `yaml:"power"`
	Radius float64 `yaml:"radius"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if scenario.Preset == "" {
		scenario.Preset = "dambreak"
	}

	return &scenario, nil
}

// script applies a scenario's events as frames complete.
type script struct {
	events []Event
	frame  int
	next   int
	errs   []error
}

func newScript(events []Event) *script {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Frame < sorted[j].Frame })
	return &script{events: sorted}
}

func (s *script) OnStep(u *sph.Universe) {
	s.frame++
	for s.next < len(s.events) && s.events[s.next].Frame <= s.frame {
		s.apply(u, s.events[s.next])
		s.next++
	}
}

func (s *script) apply(u *sph.Universe, ev Event) {
	if ev.ClearForces {
		u.ClearForces()
	}
	if f := ev.Force; f != nil {
		u.AddForce(sph.NewForce(f.X, f.Y, f.Power, f.Radius))
	}
	if sp := ev.Spawn; sp != nil {
		if err := u.QueueSpawn(sp.Count, sp.X, sp.Y); err != nil {
			s.errs = append(s.errs, fmt.Errorf("frame %d: %w", ev.Frame, err))
		}
	}
	if ev.Despawn != 0 {
		if err := u.QueueDespawn(ev.Despawn); err != nil {
			s.errs = append(s.errs, fmt.Errorf("frame %d: %w", ev.Frame, err))
		}
	}
}

// RunScenario executes a scenario and returns the run result. The preset's
// own force is placed once at the start; scenario events may replace it.
func RunScenario(ctx context.Context, scenario *Scenario, logger *log.Logger) (*sim.Result, *config.Config, error) {
	cfg := config.GetPreset(scenario.Preset)
	if cfg == nil {
		return nil, nil, fmt.Errorf("unknown preset: %s", scenario.Preset)
	}

	u, err := sim.Build(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if f, ok := sim.ForceOf(cfg); ok {
		u.AddForce(f)
	}

	frames := scenario.Frames
	if frames == 0 {
		frames = cfg.Run.Steps
	}

	sc := newScript(scenario.Actions)
	s := sim.New(u, logger)
	s.AddObserver(sc)
	for _, m := range metrics.Defaults() {
		s.AddMetric(m)
	}

	result, err := s.Run(ctx, sim.Config{Dt: cfg.Run.Dt, Frames: frames, Substeps: cfg.Run.Substeps, FrameEvery: 10})
	if err != nil {
		return result, cfg, err
	}
	if len(sc.errs) > 0 {
		return result, cfg, fmt.Errorf("scenario %s: %w", scenario.Name, sc.errs[0])
	}
	return result, cfg, nil
}

// ParameterSweep runs one preset across a range of a solver parameter.
type ParameterSweep struct {
	Preset    string
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	Frames    int
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue float64
	Steps      int
	Stable     bool
	MaxSpeed   float64
	Energy     float64
}

// sweepable maps parameter names to their field in the solver config.
func sweepable(s *config.SolverConfig, name string) (*float64, bool) {
	fields := map[string]*float64{
		"h":            &s.H,
		"viscosity":    &s.Viscosity,
		"rest_density": &s.RestDensity,
		"stiffness":    &s.Stiffness,
		"gravity":      &s.Gravity,
		"min_bounce":   &s.MinBounce,
		"restitution":  &s.Restitution,
		"max_force":    &s.MaxForce,
	}
	p, ok := fields[name]
	return p, ok
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, logger *log.Logger) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sweep.NumSteps)
	}
	base := config.GetPreset(sweep.Preset)
	if base == nil {
		return nil, fmt.Errorf("unknown preset: %s", sweep.Preset)
	}
	if _, ok := sweepable(&base.Solver, sweep.ParamName); !ok {
		return nil, fmt.Errorf("parameter %s cannot be swept", sweep.ParamName)
	}

	paramStep := 0.0
	if sweep.NumSteps > 1 {
		paramStep = (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep

		cfg := config.GetPreset(sweep.Preset)
		field, _ := sweepable(&cfg.Solver, sweep.ParamName)
		*field = paramVal

		u, err := sim.Build(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.ParamName, paramVal, err)
		}

		s := sim.New(u, logger)
		maxSpeed, energy := metrics.NewMaxSpeed(), metrics.NewEnergy()
		s.AddMetric(maxSpeed)
		s.AddMetric(energy)

		runCfg := sim.Config{Dt: cfg.Run.Dt, Frames: sweep.Frames, Substeps: cfg.Run.Substeps}
		if f, ok := sim.ForceOf(cfg); ok {
			runCfg.Force = &f
		}
		result, err := s.Run(ctx, runCfg)
		if err != nil {
			return nil, err
		}

		results = append(results, SweepResult{
			ParamValue: paramVal,
			Steps:      result.StepsTaken,
			Stable:     !result.Unstable(),
			MaxSpeed:   maxSpeed.Value(),
			Energy:     energy.Value(),
		})

		if logger != nil {
			logger.Info("sweep", "step", i+1, "of", sweep.NumSteps, sweep.ParamName, paramVal)
		}
	}

	return results, nil
}

// SweepStats counts stable and unstable sweep points.
func SweepStats(results []SweepResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
