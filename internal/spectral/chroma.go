package spectral

import "math"

const (
	chromaLowHz  = 80.0
	chromaHighHz = 5000.0
	chromaA4Hz   = 440.0
)

// Chroma folds a magnitude spectrum into 12 pitch-class bins by mapping
// each bin's frequency to the nearest semitone distance from A4 (440 Hz)
// modulo 12. Bins outside [80Hz, 5kHz] are excluded entirely: below 80Hz
// the semitone spacing is too coarse in FFT-bin terms to be meaningful,
// and above 5kHz harmonics dominate over fundamentals, both of which
// would otherwise smear energy into the wrong pitch class.
func Chroma(mags []float64, fftSize int, sampleRate float64) [12]float64 {
	var bins [12]float64
	for i, mag := range mags {
		freq := BinFrequency(i, fftSize, sampleRate)
		if freq < chromaLowHz || freq > chromaHighHz {
			continue
		}
		note := int(math.Round(12*math.Log2(freq/chromaA4Hz))) % 12
		if note < 0 {
			note += 12
		}
		bins[note] += mag
	}
	return bins
}

// Centroid computes the spectral centroid (brightness): the
// magnitude-weighted mean frequency of the spectrum, normalized to
// [0, 1] by dividing by the Nyquist frequency and clipping.
func Centroid(mags []float64, fftSize int, sampleRate float64) float64 {
	var weighted, total float64
	for i, mag := range mags {
		freq := BinFrequency(i, fftSize, sampleRate)
		weighted += freq * mag
		total += mag
	}
	if total == 0 {
		return 0
	}
	nyquist := sampleRate / 2
	if nyquist <= 0 {
		return 0
	}
	return clamp01((weighted / total) / nyquist)
}

// FluxRaw computes the raw spectral flux between two magnitude spectra:
// the half-wave rectified sum of bin-to-bin increases. The caller is
// responsible for scale-invariant normalization (a rolling mean of
// recent raw values, not this frame's own energy).
func FluxRaw(prev, curr []float64) float64 {
	var sum float64
	n := len(curr)
	for i := 0; i < n; i++ {
		var p float64
		if i < len(prev) {
			p = prev[i]
		}
		d := curr[i] - p
		if d > 0 {
			sum += d
		}
	}
	return sum
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
