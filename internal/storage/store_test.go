package storage

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/spherro/internal/config"
	"github.com/san-kum/spherro/internal/metrics"
)

func testRun() *Run {
	return &Run{
		Meta: RunMetadata{
			Scene:     "dambreak",
			Seed:      42,
			Dt:        0.005,
			Steps:     2,
			Particles: 2,
			Config:    config.DefaultConfig(),
			Metrics:   map[string]float64{"energy": 1.5},
		},
		Frames: []Frame{
			{Step: 0, Time: 0, Data: []float64{1, 2, 0, 0, 0, 0, 1, 3, 4, 0, 0, 0, 0, 1}},
			{Step: 2, Time: 0.01, Data: []float64{1, 1.9, 0, -10, 0.5, 0, 0.5, 3, math.NaN(), 0, -10, 1, 0, 0}},
		},
		Samples: []metrics.Sample{
			{Time: 0, Particles: 2, Stable: true},
			{Time: 0.01, Particles: 2, KineticEnergy: 100, MeanDensity: 0.004, MaxSpeed: 10},
		},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	run := testRun()
	runID, err := st.Save(run)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Scene != "dambreak" {
		t.Errorf("expected scene 'dambreak', got '%s'", meta.Scene)
	}
	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Metrics["energy"] != 1.5 {
		t.Errorf("expected energy 1.5, got %f", meta.Metrics["energy"])
	}
	if diff := cmp.Diff(config.DefaultConfig(), meta.Config); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	frames, err := st.LoadFrames(runID)
	if err != nil {
		t.Fatalf("load frames failed: %v", err)
	}
	if diff := cmp.Diff(run.Frames, frames, cmp.Comparer(func(a, b float64) bool {
		return a == b || (math.IsNaN(a) && math.IsNaN(b))
	})); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		t.Fatalf("load samples failed: %v", err)
	}
	if diff := cmp.Diff(run.Samples, samples); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreRejectsRaggedFrame(t *testing.T) {
	st := New(t.TempDir())
	run := testRun()
	run.Frames[0].Data = run.Frames[0].Data[:5]

	if _, err := st.Save(run); err == nil {
		t.Error("expected error for a frame that is not a whole number of particles")
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if _, err := st.Save(testRun()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	// Stray directories without metadata are ignored.
	if err := os.Mkdir(filepath.Join(tmpDir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestStoreList_MissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Errorf("List() = %v, %v; want empty, nil", runs, err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runID, err := st.Save(testRun())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{"metadata.json", "frames.csv", "metrics.csv"} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	run := testRun()
	run.Frames = run.Frames[:1]

	runID, err := st.Save(run)
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "export.json")
	if err := st.ExportJSON(runID, out); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var got ExportData
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Meta.ID != runID || len(got.Frames) != 1 || len(got.Samples) != 2 {
		t.Errorf("export = %+v", got)
	}
}
