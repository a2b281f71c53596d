package spatial

import "gonum.org/v1/gonum/spatial/r2"

// BruteForce checks every item on every query.
type BruteForce struct {
	items []r2.Vec
}

func NewBruteForce(positions []r2.Vec) *BruteForce {
	return &BruteForce{items: positions}
}

func (b *BruteForce) NearestByIdx(i int, r float64) []int {
	return b.nearest(b.items[i], r, i)
}

func (b *BruteForce) NearestByPos(pos r2.Vec, r float64) []int {
	return b.nearest(pos, r, -1)
}

func (b *BruteForce) nearest(pos r2.Vec, r float64, exclude int) []int {
	var out []int
	rr := r * r
	for j, p := range b.items {
		if j != exclude && within(pos, p, rr) {
			out = append(out, j)
		}
	}
	return out
}
