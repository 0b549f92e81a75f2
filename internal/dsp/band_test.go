package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBandSilenceGateZeroesOutput(t *testing.T) {
	cfg := BandConfig{
		SampleRate:       48000,
		FramePeriod:      1024.0 / 48000.0,
		AutoGainHistory:  16,
		Percentile:       0.9,
		AttackSeconds:    0.1,
		DecaySeconds:     15,
		Floor:            1e-4,
		SilenceThreshold: 0.01,
	}
	b := NewBand(nil, cfg)

	silent := make([]float64, 1024)
	for i := 0; i < 5; i++ {
		level := b.Process(silent, 10, 1.0, 1.0)
		assert.Equal(t, 0.0, level)
	}
}

func TestBandOutputBounded(t *testing.T) {
	cfg := BandConfig{
		SampleRate:       48000,
		FramePeriod:      1024.0 / 48000.0,
		AutoGainHistory:  16,
		Percentile:       0.9,
		AttackSeconds:    0.1,
		DecaySeconds:     15,
		Floor:            1e-4,
		SilenceThreshold: 0,
	}
	b := NewBand(nil, cfg)

	loud := make([]float64, 1024)
	for i := range loud {
		if i%2 == 0 {
			loud[i] = 1
		} else {
			loud[i] = -1
		}
	}

	for i := 0; i < 200; i++ {
		level := b.Process(loud, 1.0, 1.0, 1.0)
		assert.GreaterOrEqual(t, level, 0.0)
		assert.LessOrEqual(t, level, 1.0)
	}
}
