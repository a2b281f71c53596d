// Package spatial answers radius-bounded neighbour queries over a snapshot
// of 2-D positions.
//
// An accelerator never owns particle data. It is built from a slice of
// positions and returns indices into that slice:
//
//   - [Grid]: uniform bins over a fixed rectangular domain
//   - [Quadtree]: recursive subdivision of the points' bounding box
//   - [BruteForce]: the O(n²) reference
//
// All three return exactly the indices whose distance to the query point is
// strictly less than the radius. An accelerator must be discarded once the
// positions it was built from change.
package spatial

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// Accelerator is a neighbour query structure built over a position snapshot.
type Accelerator interface {
	// NearestByIdx returns the neighbours of item i within r, excluding i.
	NearestByIdx(i int, r float64) []int
	// NearestByPos returns every item within r of pos.
	NearestByPos(pos r2.Vec, r float64) []int
}

// Builder constructs an accelerator for a domain, cell size and snapshot.
type Builder func(width, height, cellSize float64, positions []r2.Vec) Accelerator

// Segment is a line segment, used to draw accelerator partitions.
type Segment struct {
	A, B r2.Vec
}

var builders = map[string]Builder{
	"grid": func(w, h, cell float64, pos []r2.Vec) Accelerator {
		return NewGrid(w, h, cell, pos)
	},
	"quadtree": func(_, _, _ float64, pos []r2.Vec) Accelerator {
		return NewQuadtree(pos)
	},
	"brute": func(_, _, _ float64, pos []r2.Vec) Accelerator {
		return NewBruteForce(pos)
	},
}

// Lookup returns the builder registered under name.
func Lookup(name string) (Builder, error) {
	b, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown accelerator: %s", name)
	}
	return b, nil
}

// Names lists the registered accelerator names.
func Names() []string {
	return []string{"grid", "quadtree", "brute"}
}

func within(p, q r2.Vec, r2max float64) bool {
	return r2.Norm2(r2.Sub(p, q)) < r2max
}
