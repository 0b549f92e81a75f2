// Package tempo implements onset detection and BPM tracking from a
// stream of spectral flux values.
package tempo

import "math"

// OnsetDetector flags onsets from a stream of spectral flux values using
// an adaptive threshold (mean + k*stddev over a trailing window) and a
// refractory interval that suppresses re-triggering immediately after an
// onset fires.
type OnsetDetector struct {
	history     []float64
	pos         int
	filled      int
	k           float64
	refractory  int // frames
	sinceOnset  int
}

// NewOnsetDetector builds a detector. historyFrames is the number of
// frames of flux history used for the adaptive threshold (≈1s worth);
// k scales the standard deviation added to the mean; refractoryFrames is
// the minimum frame spacing enforced between onsets.
func NewOnsetDetector(historyFrames int, k float64, refractoryFrames int) *OnsetDetector {
	if historyFrames < 1 {
		historyFrames = 1
	}
	return &OnsetDetector{
		history:    make([]float64, historyFrames),
		k:          k,
		refractory: refractoryFrames,
		sinceOnset: refractoryFrames, // allow an onset immediately at startup
	}
}

// Update feeds the current frame's flux and reports whether an onset
// fired this frame.
func (d *OnsetDetector) Update(flux float64) bool {
	mean, stddev := d.stats()
	threshold := mean + d.k*stddev

	d.sinceOnset++

	fire := flux > threshold && d.sinceOnset >= d.refractory

	d.history[d.pos] = flux
	d.pos = (d.pos + 1) % len(d.history)
	if d.filled < len(d.history) {
		d.filled++
	}

	if fire {
		d.sinceOnset = 0
	}
	return fire
}

func (d *OnsetDetector) stats() (mean, stddev float64) {
	n := d.filled
	if n == 0 {
		return 0, 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += d.history[i]
	}
	mean = sum / float64(n)

	var variance float64
	for i := 0; i < n; i++ {
		diff := d.history[i] - mean
		variance += diff * diff
	}
	variance /= float64(n)
	stddev = math.Sqrt(variance)
	return
}
