package spectral

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sineWave(freq, sampleRate float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}
	return out
}

func TestChromaExcludesOutOfRangeBins(t *testing.T) {
	mags := make([]float64, 1025) // fftSize=2048 -> bins = 1025
	fftSize := 2048
	sampleRate := 48000.0

	// bin near 40 Hz, well under the 80 Hz floor
	lowBin := int(math.Round(40 * float64(fftSize) / sampleRate))
	mags[lowBin] = 1.0

	chroma := Chroma(mags, fftSize, sampleRate)
	var total float64
	for _, v := range chroma {
		total += v
	}
	assert.Equal(t, 0.0, total, "bin below 80Hz should be excluded entirely")
}

func TestCentroidOfPureToneNearItsFrequency(t *testing.T) {
	fftSize := 2048
	sampleRate := 48000.0
	core := NewCore(fftSize, sampleRate)

	samples := sineWave(1000, sampleRate, fftSize)
	frame := core.Process(samples, 1.0)

	assert.InDelta(t, 1000/(sampleRate/2), frame.Brightness, 0.05)
}

func TestFluxRawNonNegativeAndZeroForIdenticalFrames(t *testing.T) {
	mags := []float64{0.1, 0.2, 0.3, 0.1}
	flux := FluxRaw(mags, mags)
	require.Equal(t, 0.0, flux)

	quieter := []float64{0.05, 0.1, 0.1, 0.05}
	flux2 := FluxRaw(quieter, mags)
	assert.GreaterOrEqual(t, flux2, 0.0)
}

func TestCoreProcessStable(t *testing.T) {
	fftSize := 1024
	sampleRate := 48000.0
	core := NewCore(fftSize, sampleRate)

	for i := 0; i < 5; i++ {
		samples := sineWave(440+float64(i)*10, sampleRate, fftSize)
		frame := core.Process(samples, 1.0)
		assert.False(t, math.IsNaN(frame.Brightness))
		assert.False(t, math.IsNaN(frame.Flux))
		assert.GreaterOrEqual(t, frame.Flux, 0.0)
		assert.LessOrEqual(t, frame.Flux, 1.0)
		for _, c := range frame.Chroma {
			assert.False(t, math.IsNaN(c))
			assert.GreaterOrEqual(t, c, 0.0)
		}
	}
}
