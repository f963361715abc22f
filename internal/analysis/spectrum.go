package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/impel/internal/impel"
)

// Bin is one frequency of a spectrum.
type Bin struct {
	Frequency float64 // cycles per second
	PeriodMs  float64
	Magnitude float64
}

// Spectrum returns the one-sided magnitude spectrum of samples taken every
// frameMs milliseconds. The mean is removed first, so the DC bin is
// omitted.
func Spectrum(samples []float64, frameMs impel.Time) []Bin {
	n := len(samples)
	if n < 2 || frameMs <= 0 {
		return nil
	}

	var mean float64
	for _, s := range samples {
		mean += s
	}
	mean /= float64(n)

	centered := make([]float64, n)
	for i, s := range samples {
		centered[i] = s - mean
	}

	spectrum := fft.FFTReal(centered)
	span := float64(n) * float64(frameMs)

	bins := make([]Bin, 0, n/2)
	for k := 1; k <= n/2; k++ {
		bins = append(bins, Bin{
			Frequency: float64(k) * 1000 / span,
			PeriodMs:  span / float64(k),
			Magnitude: cmplx.Abs(spectrum[k]) / float64(n),
		})
	}
	return bins
}

// DominantPeriod returns the period in milliseconds of the strongest bin.
// ok is false when the signal is too short or flat.
func DominantPeriod(samples []float64, frameMs impel.Time) (period float64, ok bool) {
	bins := Spectrum(samples, frameMs)

	best := -1
	for i, b := range bins {
		if best < 0 || b.Magnitude > bins[best].Magnitude {
			best = i
		}
	}
	if best < 0 || bins[best].Magnitude < 1e-12 {
		return 0, false
	}
	return bins[best].PeriodMs, true
}
