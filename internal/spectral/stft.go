// Package spectral implements the Spectral Core: the STFT pipeline, an
// HPSS-style harmonic/percussive approximation, 12-bin chroma folding,
// and spectral centroid/flux.
package spectral

import (
	"math/cmplx"

	"github.com/cwbudde/algo-dsp/dsp/window"
	"gonum.org/v1/gonum/dsp/fourier"
)

// STFT computes a single windowed FFT frame at a time. The engine keeps
// one STFT alive across frames so the FFT plan and window table are
// built once.
type STFT struct {
	fft    *fourier.FFT
	win    []float64
	size   int
	scaled []float64 // scratch buffer for the windowed signal
}

// NewSTFT builds an STFT of length size using a periodic Hann window,
// the same window family the teacher's real-time analyzer and feature
// extractor both use.
func NewSTFT(size int) *STFT {
	return &STFT{
		fft:    fourier.NewFFT(size),
		win:    window.Generate(window.TypeHann, size, window.WithPeriodic()),
		size:   size,
		scaled: make([]float64, size),
	}
}

// Size returns the transform length.
func (s *STFT) Size() int {
	return s.size
}

// Bins returns the number of non-redundant frequency bins ([0, Nyquist]).
func (s *STFT) Bins() int {
	return s.size/2 + 1
}

// Transform windows the tail of samples (or all of it, zero-padded on
// the right, if shorter than the transform size) and returns the complex
// spectrum's non-redundant half.
func (s *STFT) Transform(samples []float64) []complex128 {
	start := 0
	if len(samples) > s.size {
		start = len(samples) - s.size
	}
	for i := range s.scaled {
		idx := start + i
		if idx < len(samples) {
			s.scaled[i] = samples[idx] * s.win[i]
		} else {
			s.scaled[i] = 0
		}
	}
	return s.fft.Coefficients(nil, s.scaled)
}

// Magnitudes converts a complex spectrum to per-bin magnitude.
func Magnitudes(spec []complex128) []float64 {
	mags := make([]float64, len(spec))
	for i, c := range spec {
		mags[i] = cmplx.Abs(c)
	}
	return mags
}

// BinFrequency returns the center frequency in Hz of FFT bin i for a
// transform of the given size at sampleRate.
func BinFrequency(i, size int, sampleRate float64) float64 {
	return float64(i) * sampleRate / float64(size)
}
