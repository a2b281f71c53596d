package analysis

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns the magnitude of each non-negative frequency bin of
// data after removing its mean. Bin k is k/(len(data)·dt) cycles per unit
// time.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}

	mean := stat.Mean(data, nil)
	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	coeff := fourier.NewFFT(len(data)).Coefficients(nil, centered)
	ps := make([]float64, len(coeff))
	for i, c := range coeff {
		ps[i] = cmplx.Abs(c)
	}
	return ps
}

// DominantPeriod finds the strongest oscillation in a series sampled every
// dt. It reports false for series that are too short, flat or non-finite.
func DominantPeriod(data []float64, dt float64) (float64, bool) {
	if len(data) < 4 || dt <= 0 {
		return 0, false
	}
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
	}

	ps := PowerSpectrum(data)
	best, peak := 0, 0.0
	for k := 1; k < len(ps); k++ {
		if ps[k] > peak {
			best, peak = k, ps[k]
		}
	}
	if best == 0 || peak < 1e-12 {
		return 0, false
	}

	fft := fourier.NewFFT(len(data))
	return dt / fft.Freq(best), true
}
