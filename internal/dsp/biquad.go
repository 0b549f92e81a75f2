// Package dsp implements the three-band filter chain, AutoGain, and the
// per-band loudness tracking (RMS + smoothing + silence gate) described
// for the Band DSP component.
package dsp

import (
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

// butterworthQs are the per-section Q values for a 4th-order Butterworth
// response built from two cascaded 2nd-order sections (the standard
// cookbook pair: 1/(2*cos(pi/8)) and 1/(2*cos(3*pi/8))).
var butterworthQs = [2]float64{0.54119610, 1.30656296}

// BandFilter is a 4th-order lowpass or highpass built from two cascaded
// biquad.Section stages, each independently designed for a Butterworth Q.
type BandFilter struct {
	stages [2]*biquad.Section
}

// NewLowpass builds a 4th-order Butterworth lowpass at cutoffHz.
func NewLowpass(cutoffHz, sampleRate float64) *BandFilter {
	return &BandFilter{stages: [2]*biquad.Section{
		biquad.NewSection(design.Lowpass(cutoffHz, butterworthQs[0], sampleRate)),
		biquad.NewSection(design.Lowpass(cutoffHz, butterworthQs[1], sampleRate)),
	}}
}

// NewHighpass builds a 4th-order Butterworth highpass at cutoffHz.
func NewHighpass(cutoffHz, sampleRate float64) *BandFilter {
	return &BandFilter{stages: [2]*biquad.Section{
		biquad.NewSection(design.Highpass(cutoffHz, butterworthQs[0], sampleRate)),
		biquad.NewSection(design.Highpass(cutoffHz, butterworthQs[1], sampleRate)),
	}}
}

// ProcessSample pushes a single sample through both cascaded stages.
func (f *BandFilter) ProcessSample(x float64) float64 {
	x = f.stages[0].ProcessSample(x)
	x = f.stages[1].ProcessSample(x)
	return x
}

// BandChain is the low/mid/high split used by the Band DSP component.
// The mid band has no single bandpass primitive in the filter-design
// package available to this engine, so it is built the way a parametric
// EQ's mid band is built from primitives: a highpass cascaded with a
// lowpass.
type BandChain struct {
	Low  *BandFilter
	Mid  [2]*BandFilter // highpass then lowpass
	High *BandFilter
}

// NewBandChain builds the three band filters for the given crossover
// frequencies and sample rate.
func NewBandChain(lowCutoffHz, highCutoffHz, sampleRate float64) *BandChain {
	return &BandChain{
		Low:  NewLowpass(lowCutoffHz, sampleRate),
		Mid:  [2]*BandFilter{NewHighpass(lowCutoffHz, sampleRate), NewLowpass(highCutoffHz, sampleRate)},
		High: NewHighpass(highCutoffHz, sampleRate),
	}
}

// Process filters one sample into its low/mid/high components.
func (c *BandChain) Process(x float64) (low, mid, high float64) {
	low = c.Low.ProcessSample(x)
	mid = c.Mid[1].ProcessSample(c.Mid[0].ProcessSample(x))
	high = c.High.ProcessSample(x)
	return
}
