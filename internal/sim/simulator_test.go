package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/spherro/internal/config"
	"github.com/san-kum/spherro/internal/metrics"
	"github.com/san-kum/spherro/internal/sph"
)

func smallConfig() *config.Config {
	cfg := config.GetPreset("dambreak_small")
	cfg.Run.Substeps = 1
	return cfg
}

func TestBuild(t *testing.T) {
	cfg := smallConfig()
	u, err := Build(cfg, nil)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if u.ParticleCount() != 100 {
		t.Errorf("expected 100 particles, got %d", u.ParticleCount())
	}
	if u.Width() != 700 || u.Params().H != 35 {
		t.Errorf("unexpected universe %vx%v h=%v", u.Width(), u.Height(), u.Params().H)
	}

	cfg.Run.Accelerator = "octree"
	if _, err := Build(cfg, nil); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestForceOf(t *testing.T) {
	cfg := config.DefaultConfig()
	f, ok := ForceOf(cfg)
	if !ok || f.Pos != (r2.Vec{X: 350, Y: 100}) || f.Power != 2e8 {
		t.Errorf("ForceOf() = %+v, %v", f, ok)
	}

	cfg.Force.Power = 0
	if _, ok := ForceOf(cfg); ok {
		t.Error("expected no force for zero power")
	}
}

func TestSimulatorRun(t *testing.T) {
	u, err := Build(smallConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}

	sim := New(u, nil)
	sim.AddMetric(metrics.NewStability())
	observed := 0
	sim.AddObserver(ObserverFunc(func(*sph.Universe) { observed++ }))

	result, err := sim.Run(context.Background(), Config{Dt: 0.005, Frames: 6, Substeps: 2, FrameEvery: 3})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.StepsTaken != 12 {
		t.Errorf("expected 12 steps, got %d", result.StepsTaken)
	}
	if len(result.Samples) != 7 {
		t.Errorf("expected 7 samples, got %d", len(result.Samples))
	}
	if observed != 6 {
		t.Errorf("expected 6 observer calls, got %d", observed)
	}

	if len(result.Frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(result.Frames))
	}
	for i, want := range []int{0, 6, 12} {
		if result.Frames[i].Step != want {
			t.Errorf("frame %d at step %d, want %d", i, result.Frames[i].Step, want)
		}
		if len(result.Frames[i].Data) != 100*sph.Stride {
			t.Errorf("frame %d has %d values", i, len(result.Frames[i].Data))
		}
	}

	if result.Unstable() {
		t.Errorf("unexpected divergence: %v", result.Err)
	}
	if result.Metrics["stability"] != 1 {
		t.Errorf("expected stability 1, got %f", result.Metrics["stability"])
	}
	if math.Abs(result.Samples[6].Time-0.06) > 1e-12 {
		t.Errorf("expected final time 0.06, got %f", result.Samples[6].Time)
	}
}

func TestSimulatorAppliesForce(t *testing.T) {
	u, err := sph.New(700, 700, []sph.Particle{sph.NewParticle(350, 400, 100)})
	if err != nil {
		t.Fatal(err)
	}
	f := sph.NewForce(350, 350, 2e8, 100)

	result, err := New(u, nil).Run(context.Background(), Config{Dt: 0.001, Frames: 1, Substeps: 1, Force: &f})
	if err != nil {
		t.Fatal(err)
	}
	if result.StepsTaken != 1 {
		t.Fatalf("expected 1 step, got %d", result.StepsTaken)
	}
	// 2e8/50² = 8e4 upward, against gravity of 1e4.
	if vy := u.Particle(0).Vel.Y; vy < 60 {
		t.Errorf("expected the force to push upward, vy = %f", vy)
	}
}

func TestSimulatorStopsOnDivergence(t *testing.T) {
	u, err := sph.New(700, 700, []sph.Particle{{Pos: r2.Vec{X: math.Inf(1), Y: 1}, Mass: 1}})
	if err != nil {
		t.Fatal(err)
	}

	result, err := New(u, nil).Run(context.Background(), Config{Dt: 0.005, Frames: 10, Substeps: 1, FrameEvery: 5})
	if err != nil {
		t.Fatalf("divergence should not be a run error: %v", err)
	}
	if !errors.Is(result.Err, sph.ErrUnstable) {
		t.Errorf("expected ErrUnstable, got %v", result.Err)
	}
	if result.StepsTaken != 1 {
		t.Errorf("expected the run to stop after 1 step, got %d", result.StepsTaken)
	}
	if len(result.Frames) != 2 {
		t.Errorf("expected the initial and diverged frames, got %d", len(result.Frames))
	}
}

func TestSimulatorCancel(t *testing.T) {
	u, err := Build(smallConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := New(u, nil).Run(ctx, Config{Dt: 0.005, Frames: 100, Substeps: 1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if result == nil || result.StepsTaken != 0 {
		t.Errorf("expected a partial result with no steps, got %+v", result)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []Config{
		{Dt: 0, Frames: 1, Substeps: 1},
		{Dt: 0.1, Frames: -1, Substeps: 1},
		{Dt: 0.1, Frames: 1, Substeps: 0},
	}
	for _, cfg := range tests {
		if err := validateConfig(cfg); err == nil {
			t.Errorf("expected error for %+v", cfg)
		}
	}
}

func TestEnsemble(t *testing.T) {
	cfg := smallConfig()
	cfg.Scene.Strategy = "random"
	cfg.Scene.Count = 50

	results, err := NewEnsemble(cfg, 3, 10, nil).Run(context.Background(), Config{Dt: 0.005, Frames: 2, Substeps: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.StepsTaken != 2 {
			t.Errorf("run %d took %d steps", i, r.StepsTaken)
		}
	}
	if results[0].Samples[0].KineticEnergy != 0 {
		t.Error("particles should start at rest")
	}
}

func TestEnsemblePropagatesBuildError(t *testing.T) {
	cfg := smallConfig()
	cfg.Scene.Strategy = "vortex"

	if _, err := NewEnsemble(cfg, 2, 0, nil).Run(context.Background(), Config{Dt: 0.005, Frames: 1, Substeps: 1}); err == nil {
		t.Error("expected build error")
	}
}
