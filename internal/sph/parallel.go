package sph

import "golang.org/x/sync/errgroup"

// minChunk keeps small populations on the calling goroutine.
const minChunk = 64

// forEach calls fn for every i in [0, n), split into contiguous chunks
// across the configured workers. fn must only write state owned by i.
func (u *Universe) forEach(n int, fn func(i int)) {
	workers := u.workers
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	chunk := (n + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				fn(i)
			}
			return nil
		})
	}
	_ = g.Wait()
}
