// Package kernel provides the SPH smoothing kernel.
//
// Kernels are evaluated on the normalised distance q = |x_ij| / H and are
// left unnormalised: callers divide by H³ themselves, so the same kernel
// family serves any dimensionality.
package kernel

// Kernel is a radially symmetric smoothing function and its derivative.
type Kernel interface {
	F(q float64) float64
	DF(q float64) float64
}

// CubicSpline is the cubic B-spline kernel with support [0, 2).
type CubicSpline struct{}

// Support is the kernel radius in units of the smoothing length.
const Support = 2.0

func (CubicSpline) F(q float64) float64 {
	switch {
	case q >= 0 && q < 1:
		return 2.0/3.0 + q*q*(q/2-1)
	case q >= 1 && q < 2:
		d := 2 - q
		return d * d * d / 6
	default:
		return 0
	}
}

func (CubicSpline) DF(q float64) float64 {
	switch {
	case q >= 0 && q < 1:
		return q * (-2 + 1.5*q)
	case q >= 1 && q < 2:
		d := 2 - q
		return -d * d / 2
	default:
		return 0
	}
}
