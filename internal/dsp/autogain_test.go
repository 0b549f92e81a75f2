package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestAutoGainNeverBelowFloor(t *testing.T) {
	const floor = 1e-4
	ag := NewAutoGain(10, 0.9, 0.5, 0.999, floor)

	for i := 0; i < 100; i++ {
		ceiling := ag.Update(0)
		require.GreaterOrEqual(t, ceiling, floor)
	}
}

func TestAutoGainTracksSustainedLevel(t *testing.T) {
	ag := NewAutoGain(30, 0.9, 0.3, 0.99, 1e-4)

	var ceiling float64
	for i := 0; i < 200; i++ {
		ceiling = ag.Update(0.5)
	}
	assert.InDelta(t, 0.5, ceiling, 0.05)
}

func TestAutoGainAttackFasterThanDecay(t *testing.T) {
	ag := NewAutoGain(30, 0.9, 0.1, 0.999, 1e-4)

	for i := 0; i < 50; i++ {
		ag.Update(0.1)
	}
	// Sudden loud frame: ceiling should jump substantially within a few
	// frames (fast attack).
	var afterAttack float64
	for i := 0; i < 5; i++ {
		afterAttack = ag.Update(1.0)
	}
	assert.Greater(t, afterAttack, 0.3)

	// Now it drops back to quiet: ceiling should barely move in the same
	// number of frames (slow decay).
	ceilingAtDropStart := afterAttack
	var afterDecay float64
	for i := 0; i < 5; i++ {
		afterDecay = ag.Update(0.0)
	}
	assert.Greater(t, afterDecay, ceilingAtDropStart*0.8)
}

func TestAutoGainGainMatchesCeiling(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		floor := rapid.Float64Range(1e-6, 1e-2).Draw(t, "floor")
		ag := NewAutoGain(16, 0.9, 0.4, 0.99, floor)

		n := rapid.IntRange(1, 64).Draw(t, "n")
		for i := 0; i < n; i++ {
			mag := rapid.Float64Range(0, 2).Draw(t, "mag")
			ag.Update(mag)
		}

		ceiling := ag.Ceiling()
		if ceiling <= 0 {
			t.Fatalf("ceiling should never be non-positive, floor=%v", floor)
		}
		gain := ag.Gain()
		if math.Abs(gain*ceiling-1.0) > 1e-9 {
			t.Fatalf("gain*ceiling should be 1, got gain=%v ceiling=%v", gain, ceiling)
		}
	})
}
