package features

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Spectrum returns the magnitude of every bin of a size-n forward DFT over
// the first n samples, zero padded when the buffer is shorter. Only the
// prefix is analysed; there is no framing across the rest of the signal.
func Spectrum(samples []float64, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	seq := make([]complex128, n)
	for i := 0; i < n && i < len(samples); i++ {
		seq[i] = complex(samples[i], 0)
	}
	coeffs := fourier.NewCmplxFFT(n).Coefficients(nil, seq)
	mags := make([]float64, len(coeffs))
	for i, c := range coeffs {
		mags[i] = cmplx.Abs(c)
	}
	return mags
}
