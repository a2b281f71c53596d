package sim

import (
	"github.com/san-kum/spherro/internal/metrics"
	"github.com/san-kum/spherro/internal/sph"
	"github.com/san-kum/spherro/internal/storage"
)

// Observer is notified after every frame.
type Observer interface {
	OnStep(u *sph.Universe)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(u *sph.Universe)

func (f ObserverFunc) OnStep(u *sph.Universe) { f(u) }

// Config controls a headless run. One frame is Substeps solver steps of
// Dt; FrameEvery > 0 keeps a particle snapshot every that many frames.
type Config struct {
	Dt         float64
	Frames     int
	Substeps   int
	FrameEvery int
	Force      *sph.Force
}

type Result struct {
	Frames     []storage.Frame
	Samples    []metrics.Sample
	Metrics    map[string]float64
	StepsTaken int
	// Err is the divergence that stopped the run early, if any.
	Err error
}

func (r *Result) Unstable() bool { return r.Err != nil }
