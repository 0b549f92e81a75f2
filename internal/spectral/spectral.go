package spectral

// fluxHistoryLen is the number of trailing raw-flux values averaged to
// scale-normalize the current frame's flux (spec: last 20 values).
const fluxHistoryLen = 20

// Frame is the output of one Spectral Core pass.
type Frame struct {
	Brightness float64 // spectral centroid, normalized to [0,1] by Nyquist
	// Flux is the scale-invariant, sensitivity-scaled flux clipped to
	// [0,1] for emission.
	Flux float64
	// FluxUnclipped is the same value before clipping; onset detection
	// consumes this stream, not the clipped emission value.
	FluxUnclipped float64
	Chroma        [12]float64
}

// Core is the Spectral Core component: STFT → HPSS approximation →
// chroma fold + centroid + flux, reused frame to frame so the FFT plan,
// window table, and HPSS history all persist across calls.
type Core struct {
	stft       *STFT
	hpss       *HPSS
	sampleRate float64

	prevPercussiveMags []float64

	fluxHistory [fluxHistoryLen]float64
	fluxPos     int
	fluxFilled  int
}

// NewCore builds a Spectral Core for the given FFT size and sample rate.
func NewCore(fftSize int, sampleRate float64) *Core {
	s := NewSTFT(fftSize)
	return &Core{
		stft:       s,
		hpss:       NewHPSS(s.Bins(), 17, 17, 2.0),
		sampleRate: sampleRate,
	}
}

// Process runs one window of time-domain samples through the full
// spectral chain. fluxSens is the live flux_sens parameter: it scales
// the scale-invariant flux before the emission value is clipped.
func (c *Core) Process(samples []float64, fluxSens float64) Frame {
	spec := c.stft.Transform(samples)
	mags := Magnitudes(spec)

	harmonic, percussive := c.hpss.Separate(mags)

	chroma := Chroma(harmonic, c.stft.Size(), c.sampleRate)
	brightness := Centroid(mags, c.stft.Size(), c.sampleRate)

	rawFlux := FluxRaw(c.prevPercussiveMags, percussive)
	c.prevPercussiveMags = percussive

	scaleInvariant := c.normalizeFlux(rawFlux)
	sensScaled := scaleInvariant * fluxSens

	return Frame{
		Brightness:    brightness,
		Flux:          clamp01(sensScaled),
		FluxUnclipped: sensScaled,
		Chroma:        chroma,
	}
}

// normalizeFlux divides rawFlux by the mean of the trailing
// fluxHistoryLen raw-flux values (itself included), producing a flux
// measure that is independent of the track's overall energy level
// rather than of this single frame's.
func (c *Core) normalizeFlux(rawFlux float64) float64 {
	c.fluxHistory[c.fluxPos] = rawFlux
	c.fluxPos = (c.fluxPos + 1) % len(c.fluxHistory)
	if c.fluxFilled < len(c.fluxHistory) {
		c.fluxFilled++
	}

	var sum float64
	for i := 0; i < c.fluxFilled; i++ {
		sum += c.fluxHistory[i]
	}
	mean := sum / float64(c.fluxFilled)
	if mean <= 0 {
		return 0
	}
	return rawFlux / mean
}
