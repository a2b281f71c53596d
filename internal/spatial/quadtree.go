package spatial

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	leafCapacity = 5
	maxDepth     = 16
)

// Quadtree recursively splits the bounding box of the snapshot into
// quadrants until a node holds fewer than leafCapacity items.
type Quadtree struct {
	root  *quadNode
	items []r2.Vec
}

type quadNode struct {
	bounds   r2.Box
	items    []int
	children [4]*quadNode
}

func (n *quadNode) leaf() bool { return n.children[0] == nil }

// NewQuadtree builds a tree over positions. Non-finite positions are left
// out: they can never be strictly within a finite radius.
func NewQuadtree(positions []r2.Vec) *Quadtree {
	idx := make([]int, 0, len(positions))
	box := r2.Box{
		Min: r2.Vec{X: math.Inf(1), Y: math.Inf(1)},
		Max: r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	for i, p := range positions {
		if !finite(p) {
			continue
		}
		idx = append(idx, i)
		box.Min.X = math.Min(box.Min.X, p.X)
		box.Min.Y = math.Min(box.Min.Y, p.Y)
		box.Max.X = math.Max(box.Max.X, p.X)
		box.Max.Y = math.Max(box.Max.Y, p.Y)
	}
	if len(idx) == 0 {
		box = r2.Box{}
	}

	q := &Quadtree{items: positions}
	q.root = q.construct(box, idx, 0)
	return q
}

func (q *Quadtree) construct(box r2.Box, idx []int, depth int) *quadNode {
	n := &quadNode{bounds: box}
	if len(idx) < leafCapacity || depth == maxDepth {
		n.items = idx
		return n
	}

	mid := r2.Scale(0.5, r2.Add(box.Min, box.Max))
	var parts [4][]int
	for _, i := range idx {
		k := quadrant(q.items[i], mid)
		parts[k] = append(parts[k], i)
	}

	quads := splitBox(box, mid)
	for k := range quads {
		n.children[k] = q.construct(quads[k], parts[k], depth+1)
	}
	return n
}

// quadrant orders children SW, SE, NW, NE. Points on a split line go to
// the upper side.
func quadrant(p, mid r2.Vec) int {
	k := 0
	if p.X >= mid.X {
		k |= 1
	}
	if p.Y >= mid.Y {
		k |= 2
	}
	return k
}

func splitBox(b r2.Box, mid r2.Vec) [4]r2.Box {
	return [4]r2.Box{
		{Min: b.Min, Max: mid},
		{Min: r2.Vec{X: mid.X, Y: b.Min.Y}, Max: r2.Vec{X: b.Max.X, Y: mid.Y}},
		{Min: r2.Vec{X: b.Min.X, Y: mid.Y}, Max: r2.Vec{X: mid.X, Y: b.Max.Y}},
		{Min: mid, Max: b.Max},
	}
}

func (q *Quadtree) NearestByIdx(i int, r float64) []int {
	return q.nearest(q.items[i], r, i)
}

func (q *Quadtree) NearestByPos(pos r2.Vec, r float64) []int {
	return q.nearest(pos, r, -1)
}

func (q *Quadtree) nearest(pos r2.Vec, r float64, exclude int) []int {
	out := make([]int, 0, 24)
	q.search(q.root, pos, r*r, exclude, &out)
	return out
}

func (q *Quadtree) search(n *quadNode, pos r2.Vec, rr float64, exclude int, out *[]int) {
	if boxDist2(n.bounds, pos) > rr {
		return
	}
	if n.leaf() {
		for _, j := range n.items {
			if j != exclude && within(pos, q.items[j], rr) {
				*out = append(*out, j)
			}
		}
		return
	}
	for _, c := range n.children {
		q.search(c, pos, rr, exclude, out)
	}
}

// boxDist2 is the squared distance from p to the closest point of b.
func boxDist2(b r2.Box, p r2.Vec) float64 {
	dx := math.Max(0, math.Max(b.Min.X-p.X, p.X-b.Max.X))
	dy := math.Max(0, math.Max(b.Min.Y-p.Y, p.Y-b.Max.Y))
	return dx*dx + dy*dy
}

// Splits returns the split lines of every interior node.
func (q *Quadtree) Splits() []Segment {
	var out []Segment
	var walk func(n *quadNode)
	walk = func(n *quadNode) {
		if n.leaf() {
			return
		}
		mid := r2.Scale(0.5, r2.Add(n.bounds.Min, n.bounds.Max))
		out = append(out,
			Segment{r2.Vec{X: mid.X, Y: n.bounds.Min.Y}, r2.Vec{X: mid.X, Y: n.bounds.Max.Y}},
			Segment{r2.Vec{X: n.bounds.Min.X, Y: mid.Y}, r2.Vec{X: n.bounds.Max.X, Y: mid.Y}},
		)
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(q.root)
	return out
}

func finite(p r2.Vec) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
