package dsp

import "math"

// BandConfig tunes one band's AutoGain and smoothing behavior.
type BandConfig struct {
	SampleRate       float64
	FramePeriod      float64 // seconds between frames, for deriving smoothing coefficients
	AutoGainHistory  int
	Percentile       float64
	AttackSeconds    float64
	DecaySeconds     float64
	Floor            float64
	SilenceThreshold float64
}

// coeff converts a time constant in seconds to a per-frame single-pole
// exponential coefficient for the given frame period.
func coeff(tau, framePeriod float64) float64 {
	if tau <= 0 {
		return 0
	}
	return math.Exp(-framePeriod / tau)
}

// Band tracks one frequency band's loudness: RMS of the filtered signal,
// an AutoGain ceiling, asymmetric attack/decay smoothing of the gained
// level, and a silence gate that zeroes the output below a threshold
// and leaves the AutoGain ceiling untouched while silent.
type Band struct {
	filter *BandFilter // optional; Process does not apply it
	gain   *AutoGain

	silence float64

	smoothed float64
}

// NewBand creates a band tracker. filter may be nil: Process always
// takes already-filtered samples, and the engine passes nil for all
// three bands, filtering them with BandChain.Process.
func NewBand(filter *BandFilter, cfg BandConfig) *Band {
	historyLen := cfg.AutoGainHistory
	if historyLen < 1 {
		historyLen = 1
	}
	return &Band{
		filter:  filter,
		gain:    NewAutoGain(historyLen, cfg.Percentile, coeff(cfg.AttackSeconds, cfg.FramePeriod), coeff(cfg.DecaySeconds, cfg.FramePeriod), cfg.Floor),
		silence: cfg.SilenceThreshold,
	}
}

// RMS computes the root-mean-square of a sample slice.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// Process takes the band's newest chunk of already-filtered samples,
// computes its RMS, updates AutoGain from that RMS, applies the user
// gain and asymmetric smoothing, and applies the silence gate. userGain
// is a linear multiplier (spec: 0-100, sensible 5-20); attackAlpha and
// decayAlpha are the live unit-interval smoothing factors from
// Parameters (1.0 instantaneous, 0 frozen). It returns the level in
// [0, 1].
func (b *Band) Process(filtered []float64, userGain, attackAlpha, decayAlpha float64) float64 {
	level := RMS(filtered)
	if level < b.silence {
		return 0
	}

	ceiling := b.gain.Update(level)
	normalized := level / ceiling
	if normalized > 1 {
		normalized = 1
	}

	target := normalized * userGain
	if target > 1 {
		target = 1
	}

	if target >= b.smoothed {
		b.smoothed += attackAlpha * (target - b.smoothed)
	} else {
		b.smoothed += decayAlpha * (target - b.smoothed)
	}

	return b.smoothed
}
