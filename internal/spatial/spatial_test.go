package spatial

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	domainW = 300.0
	domainH = 200.0
)

var sortInts = cmpopts.SortSlices(func(a, b int) bool { return a < b })

// scatter places n points over the domain plus a margin on every side, so
// some positions fall outside [0, w) × [0, h).
func scatter(rnd *rand.Rand, n int) []r2.Vec {
	pts := make([]r2.Vec, n)
	for i := range pts {
		pts[i] = r2.Vec{
			X: rnd.Float64()*(domainW+40) - 20,
			Y: rnd.Float64()*(domainH+40) - 20,
		}
	}
	return pts
}

func accelerators(pts []r2.Vec, cell float64) map[string]Accelerator {
	return map[string]Accelerator{
		"grid":     NewGrid(domainW, domainH, cell, pts),
		"quadtree": NewQuadtree(pts),
	}
}

func TestNearestMatchesBruteForce(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))

	tests := []struct {
		name  string
		n     int
		cell  float64
		radii []float64
	}{
		{"empty", 0, 10, []float64{5}},
		{"single", 1, 10, []float64{5, 500}},
		{"sparse", 50, 35, []float64{10, 70}},
		{"dense", 800, 35, []float64{1, 35, 70, 120}},
		{"fine cells", 300, 3, []float64{2, 9, 40}},
		{"coarse cells", 300, 250, []float64{15, 70}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pts := scatter(rnd, tt.n)
			ref := NewBruteForce(pts)

			for name, acc := range accelerators(pts, tt.cell) {
				for _, r := range tt.radii {
					for i := range pts {
						want := ref.NearestByIdx(i, r)
						got := acc.NearestByIdx(i, r)
						if diff := cmp.Diff(want, got, sortInts, cmpopts.EquateEmpty()); diff != "" {
							t.Fatalf("%s NearestByIdx(%d, %v) mismatch (-want +got):\n%s", name, i, r, diff)
						}
					}

					for k := 0; k < 20; k++ {
						q := r2.Vec{X: rnd.Float64()*(domainW+100) - 50, Y: rnd.Float64()*(domainH+100) - 50}
						want := ref.NearestByPos(q, r)
						got := acc.NearestByPos(q, r)
						if diff := cmp.Diff(want, got, sortInts, cmpopts.EquateEmpty()); diff != "" {
							t.Fatalf("%s NearestByPos(%v, %v) mismatch (-want +got):\n%s", name, q, r, diff)
						}
					}
				}
			}
		})
	}
}

func TestNearestByIdxExcludesSelf(t *testing.T) {
	pts := []r2.Vec{{X: 10, Y: 10}, {X: 10, Y: 10}, {X: 11, Y: 10}, {X: 100, Y: 100}}

	for name, acc := range accelerators(pts, 10) {
		for i := range pts {
			for _, j := range acc.NearestByIdx(i, 50) {
				if j == i {
					t.Errorf("%s: NearestByIdx(%d) contains itself", name, i)
				}
			}
		}
		// Coincident points still see each other.
		if got := acc.NearestByIdx(0, 1); !cmp.Equal(got, []int{1}, sortInts) {
			t.Errorf("%s: NearestByIdx(0, 1) = %v, want [1]", name, got)
		}
	}
}

func TestNearestStrictRadius(t *testing.T) {
	pts := []r2.Vec{{X: 50, Y: 50}, {X: 60, Y: 50}}

	for name, acc := range accelerators(pts, 10) {
		if got := acc.NearestByIdx(0, 10); len(got) != 0 {
			t.Errorf("%s: point at exactly r returned: %v", name, got)
		}
		if got := acc.NearestByIdx(0, 10.0001); len(got) != 1 {
			t.Errorf("%s: point just inside r missing: %v", name, got)
		}
	}
}

func TestGridToleratesOutOfDomain(t *testing.T) {
	pts := []r2.Vec{
		{X: -5, Y: -5},
		{X: domainW, Y: domainH},
		{X: domainW + 1e6, Y: 3},
		{X: math.NaN(), Y: 1},
		{X: math.Inf(1), Y: math.Inf(-1)},
		{X: 1, Y: 1},
	}

	g := NewGrid(domainW, domainH, 35, pts)
	for i := range pts {
		_ = g.NearestByIdx(i, 70)
	}

	got := g.NearestByPos(r2.Vec{X: 0, Y: 0}, 10)
	if diff := cmp.Diff([]int{0, 5}, got, sortInts); diff != "" {
		t.Errorf("NearestByPos near origin (-want +got):\n%s", diff)
	}
	if got := g.NearestByPos(r2.Vec{X: domainW + 2, Y: domainH + 2}, 5); !cmp.Equal(got, []int{1}) {
		t.Errorf("NearestByPos past the corner = %v, want [1]", got)
	}
}

func TestGridDeterministicOrder(t *testing.T) {
	pts := scatter(rand.New(rand.NewSource(3)), 400)
	a := NewGrid(domainW, domainH, 35, pts)
	b := NewGrid(domainW, domainH, 35, pts)

	for i := range pts {
		if !cmp.Equal(a.NearestByIdx(i, 70), b.NearestByIdx(i, 70)) {
			t.Fatalf("order differs for %d", i)
		}
	}
}

func TestGridDimsAndSplits(t *testing.T) {
	tests := []struct {
		w, h, cell   float64
		cols, rows   int
		splitsWanted int
	}{
		{700, 700, 35, 20, 20, 38},
		{100, 50, 30, 4, 2, 4},
		{10, 10, 100, 1, 1, 0},
		{0, 0, 10, 1, 1, 0},
	}

	for _, tt := range tests {
		g := NewGrid(tt.w, tt.h, tt.cell, nil)
		cols, rows := g.Dims()
		if cols != tt.cols || rows != tt.rows {
			t.Errorf("Dims(%v×%v/%v) = %d×%d, want %d×%d", tt.w, tt.h, tt.cell, cols, rows, tt.cols, tt.rows)
		}
		if got := len(g.Splits()); got != tt.splitsWanted {
			t.Errorf("len(Splits()) = %d, want %d", got, tt.splitsWanted)
		}
	}
}

func TestQuadtreeSkipsNonFinite(t *testing.T) {
	pts := []r2.Vec{{X: math.NaN(), Y: 0}, {X: 1, Y: 1}, {X: math.Inf(1), Y: 2}}
	q := NewQuadtree(pts)

	if got := q.NearestByPos(r2.Vec{X: 1, Y: 1}, math.Inf(1)); !cmp.Equal(got, []int{1}) {
		t.Errorf("NearestByPos = %v, want [1]", got)
	}
	if got := q.NearestByIdx(0, 10); len(got) != 0 {
		t.Errorf("NaN query returned %v", got)
	}
}

func TestQuadtreeSplitsOnlyWhenCrowded(t *testing.T) {
	few := NewQuadtree([]r2.Vec{{X: 1}, {X: 2}, {X: 3}})
	if len(few.Splits()) != 0 {
		t.Errorf("expected a single leaf for 3 points, got %d splits", len(few.Splits()))
	}

	many := NewQuadtree(scatter(rand.New(rand.NewSource(11)), 100))
	if len(many.Splits()) == 0 {
		t.Error("expected splits for 100 points")
	}
}

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		b, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", name, err)
		}
		acc := b(10, 10, 5, []r2.Vec{{X: 1, Y: 1}, {X: 2, Y: 2}})
		if got := acc.NearestByIdx(0, 5); !cmp.Equal(got, []int{1}) {
			t.Errorf("%s: NearestByIdx = %v, want [1]", name, got)
		}
	}

	if _, err := Lookup("octree"); err == nil {
		t.Error("expected error for unknown accelerator")
	}
}

func BenchmarkGridBuildAndQuery(b *testing.B) {
	pts := scatter(rand.New(rand.NewSource(1)), 2000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g := NewGrid(domainW, domainH, 35, pts)
		for j := range pts {
			_ = g.NearestByIdx(j, 70)
		}
	}
}

func BenchmarkQuadtreeBuildAndQuery(b *testing.B) {
	pts := scatter(rand.New(rand.NewSource(1)), 2000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q := NewQuadtree(pts)
		for j := range pts {
			_ = q.NearestByIdx(j, 70)
		}
	}
}
