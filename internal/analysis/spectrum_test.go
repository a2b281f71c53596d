package analysis

import (
	"math"
	"testing"
)

func sine(n int, dt, period float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 3 + math.Sin(2*math.Pi*float64(i)*dt/period)
	}
	return out
}

func TestDominantPeriod(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		dt     float64
		period float64
	}{
		{"slow", 256, 0.01, 0.64},
		{"fast", 128, 0.005, 0.04},
		{"odd length", 200, 0.1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DominantPeriod(sine(tt.n, tt.dt, tt.period), tt.dt)
			if !ok {
				t.Fatal("expected a period")
			}
			if math.Abs(got-tt.period)/tt.period > 0.05 {
				t.Errorf("period = %f, want %f", got, tt.period)
			}
		})
	}
}

func TestDominantPeriod_NoSignal(t *testing.T) {
	flat := make([]float64, 64)
	for i := range flat {
		flat[i] = 7
	}

	tests := map[string][]float64{
		"flat":  flat,
		"short": {1, 2, 3},
		"nan":   {1, math.NaN(), 1, 2, 1, 2},
	}
	for name, data := range tests {
		if _, ok := DominantPeriod(data, 0.1); ok {
			t.Errorf("%s: expected no period", name)
		}
	}
	if _, ok := DominantPeriod(sine(64, 0.1, 1), 0); ok {
		t.Error("zero dt: expected no period")
	}
}

func TestPowerSpectrumRemovesMean(t *testing.T) {
	ps := PowerSpectrum(sine(64, 1, 8))
	if len(ps) != 33 {
		t.Fatalf("len = %d, want 33", len(ps))
	}
	if ps[0] > 1e-9 {
		t.Errorf("DC bin = %g, want 0", ps[0])
	}
	if ps[8] < ps[7] || ps[8] < ps[9] {
		t.Errorf("expected a peak at bin 8: %v", ps[6:11])
	}
}
