package sph

// Stride is the number of floats per particle in a flat export:
// x, y, vx, vy, r, g, b.
const Stride = 7

// AppendFlat appends every particle to dst in the flat Stride layout used
// by renderers and frame dumps, and returns the extended slice.
func (u *Universe) AppendFlat(dst []float64) []float64 {
	for i := range u.particles {
		p := &u.particles[i]
		dst = append(dst, p.Pos.X, p.Pos.Y, p.Vel.X, p.Vel.Y, p.Color.R, p.Color.G, p.Color.B)
	}
	return dst
}
