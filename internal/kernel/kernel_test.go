package kernel

import (
	"math"
	"testing"
)

func TestCubicSplineOutsideSupport(t *testing.T) {
	k := CubicSpline{}
	for _, q := range []float64{2, 2.0001, 3, 10, math.Inf(1), -0.5} {
		if got := k.F(q); got != 0 {
			t.Errorf("F(%v) = %v, want 0", q, got)
		}
		if got := k.DF(q); got != 0 {
			t.Errorf("DF(%v) = %v, want 0", q, got)
		}
	}
}

func TestCubicSplineValues(t *testing.T) {
	k := CubicSpline{}
	tests := []struct {
		q     float64
		f, df float64
	}{
		{0, 2.0 / 3.0, 0},
		{0.5, 2.0/3.0 - 0.25 + 0.0625, -1 + 0.375},
		{1, 1.0 / 6.0, -0.5},
		{1.5, 0.125 / 6, -0.125},
	}

	for _, tt := range tests {
		if got := k.F(tt.q); math.Abs(got-tt.f) > 1e-12 {
			t.Errorf("F(%v) = %v, want %v", tt.q, got, tt.f)
		}
		if got := k.DF(tt.q); math.Abs(got-tt.df) > 1e-12 {
			t.Errorf("DF(%v) = %v, want %v", tt.q, got, tt.df)
		}
	}
}

func TestCubicSplineContinuity(t *testing.T) {
	k := CubicSpline{}
	const eps = 1e-9

	for _, q := range []float64{1, 2} {
		if d := math.Abs(k.F(q-eps) - k.F(q)); d > 1e-6 {
			t.Errorf("F discontinuous at %v: jump %v", q, d)
		}
		if d := math.Abs(k.DF(q-eps) - k.DF(q)); d > 1e-6 {
			t.Errorf("DF discontinuous at %v: jump %v", q, d)
		}
	}
}

func TestCubicSplineMonotone(t *testing.T) {
	k := CubicSpline{}
	prev := k.F(0)
	for q := 0.01; q < Support; q += 0.01 {
		cur := k.F(q)
		if cur > prev {
			t.Fatalf("F increased at q=%v: %v > %v", q, cur, prev)
		}
		if k.DF(q) > 0 {
			t.Fatalf("DF(%v) = %v, want <= 0", q, k.DF(q))
		}
		prev = cur
	}
}

func BenchmarkCubicSpline(b *testing.B) {
	k := CubicSpline{}
	for i := 0; i < b.N; i++ {
		q := float64(i%200) / 100
		_ = k.F(q) + k.DF(q)
	}
}
