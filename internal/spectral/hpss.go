package spectral

import "sort"

// HPSS approximates harmonic/percussive source separation with the
// classic median-filter technique (Fitzgerald 2010): the harmonic
// estimate at a bin is the median of that bin's magnitude across a short
// window of recent frames (harmonic content is stable over time,
// horizontal streaks in a spectrogram); the percussive estimate at a bin
// is the median of neighboring bins within the current frame (percussive
// content is broadband, vertical streaks). A soft Wiener-style mask then
// splits each frame's magnitude between the two.
//
// Running only a few frames of time history (rather than a whole track)
// keeps this usable in the real-time pipeline; it approximates full HPSS
// rather than reproducing it exactly, which is the documented tradeoff.
type HPSS struct {
	timeWindow int // number of frames of history for the harmonic median
	freqWindow int // number of neighboring bins for the percussive median
	power      float64

	history [][]float64 // ring buffer of recent magnitude frames
	pos     int
	filled  int
}

// NewHPSS builds an HPSS separator. timeWindow and freqWindow are odd
// window lengths (typical values: 17 frames, 17 bins); power is the
// mask's softness exponent (2 is the standard Wiener mask).
func NewHPSS(bins, timeWindow, freqWindow int, power float64) *HPSS {
	if timeWindow%2 == 0 {
		timeWindow++
	}
	if freqWindow%2 == 0 {
		freqWindow++
	}
	history := make([][]float64, timeWindow)
	for i := range history {
		history[i] = make([]float64, bins)
	}
	return &HPSS{
		timeWindow: timeWindow,
		freqWindow: freqWindow,
		power:      power,
		history:    history,
	}
}

// Separate pushes the current frame's magnitudes into the time history
// and returns the harmonic and percussive magnitude estimates for this
// frame.
func (h *HPSS) Separate(mags []float64) (harmonic, percussive []float64) {
	h.history[h.pos] = append([]float64(nil), mags...)
	h.pos = (h.pos + 1) % len(h.history)
	if h.filled < len(h.history) {
		h.filled++
	}

	bins := len(mags)
	harmonic = make([]float64, bins)
	percussive = make([]float64, bins)

	col := make([]float64, 0, h.filled)
	for b := 0; b < bins; b++ {
		col = col[:0]
		for k := 0; k < h.filled; k++ {
			col = append(col, h.history[k][b])
		}
		harmonic[b] = median(col)
	}

	halfFreq := h.freqWindow / 2
	row := make([]float64, 0, h.freqWindow)
	for b := 0; b < bins; b++ {
		row = row[:0]
		lo := b - halfFreq
		hi := b + halfFreq
		if lo < 0 {
			lo = 0
		}
		if hi >= bins {
			hi = bins - 1
		}
		for k := lo; k <= hi; k++ {
			row = append(row, mags[k])
		}
		percussive[b] = median(row)
	}

	for b := 0; b < bins; b++ {
		hp := pow(harmonic[b], h.power)
		pp := pow(percussive[b], h.power)
		denom := hp + pp
		if denom <= 0 {
			harmonic[b] = 0
			percussive[b] = 0
			continue
		}
		maskH := hp / denom
		maskP := pp / denom
		harmonic[b] = maskH * mags[b]
		percussive[b] = maskP * mags[b]
	}

	return harmonic, percussive
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func pow(x, p float64) float64 {
	if p == 2 {
		return x * x
	}
	if x <= 0 {
		return 0
	}
	result := 1.0
	for i := 0.0; i < p; i++ {
		result *= x
	}
	return result
}
