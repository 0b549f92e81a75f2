package assembler

import (
	"testing"

	"github.com/loli/notedancer/internal/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func testConfig() Config {
	return Config{
		SilenceThreshold: 1e-4,
		FramePeriod:      1024.0 / 48000.0,
		AutoGainHistory:  16,
		AutoGainPercent:  0.9,
		AutoGainAttackS:  0.1,
		AutoGainDecayS:   15,
		AutoGainFloor:    1e-4,
	}
}

// loudWindowRMS is well above any test's SilenceThreshold, so it never
// triggers the whole-vector silence gate incidentally.
const loudWindowRMS = 1.0

func TestPackUnpackRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := FeatureFrame{
			Brightness: rapid.Float64Range(0, 20000).Draw(t, "brightness"),
			Flux:       rapid.Float64Range(0, 1).Draw(t, "flux"),
			Low:        rapid.Float64Range(0, 1).Draw(t, "low"),
			Mid:        rapid.Float64Range(0, 1).Draw(t, "mid"),
			High:       rapid.Float64Range(0, 1).Draw(t, "high"),
			BPM:        rapid.Float64Range(90, 180).Draw(t, "bpm"),
			IsBeat:     rapid.Bool().Draw(t, "isbeat"),
		}
		for i := range f.Notes {
			f.Notes[i] = rapid.Float64Range(0, 1).Draw(t, "note")
		}

		packed := Pack(f)
		if len(packed) != 76 {
			t.Fatalf("expected 76 bytes, got %d", len(packed))
		}
		got, ok := Unpack(packed)
		if !ok {
			t.Fatal("unpack failed")
		}
		// float32 round trip, allow the precision loss from the wire format
		approxEq := func(a, b float64) bool {
			d := a - b
			if d < 0 {
				d = -d
			}
			return d < 1e-3*(1+abs(a))
		}
		if !approxEq(got.Brightness, f.Brightness) || !approxEq(got.BPM, f.BPM) {
			t.Fatalf("round trip mismatch: got %+v want %+v", got, f)
		}
		if got.IsBeat != f.IsBeat {
			t.Fatalf("is_beat mismatch")
		}
	})
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestUnpackRejectsShortBuffer(t *testing.T) {
	_, ok := Unpack(make([]byte, 10))
	require.False(t, ok)
}

func TestCompetitiveModeLoudestNoteNearUnity(t *testing.T) {
	a := New(testConfig())
	var chroma [12]float64
	chroma[3] = 1.0
	chroma[7] = 0.2

	p := params.DefaultParameters()
	p.NormMode = params.NormCompetitive
	p.NoteSensitivity = 0 // gamma = 1/(1-0) = 1, a flat curve for an exact-ratio check

	frame := a.Assemble(0, 0, 0, 0, 0, 0, false, chroma, loudWindowRMS, p)
	assert.InDelta(t, 1.0, frame.Notes[3], 1e-9)
	assert.InDelta(t, 0.2, frame.Notes[7], 1e-9)
}

func TestNoiseFloorGatesQuietNotes(t *testing.T) {
	a := New(testConfig())
	var chroma [12]float64
	chroma[3] = 1.0  // dominant note
	chroma[0] = 0.01 // after the gamma curve, falls below the -30dBFS gate

	p := params.DefaultParameters()
	p.NormMode = params.NormCompetitive
	p.NoteSensitivity = 0.8 // gamma = 5

	frame := a.Assemble(0, 0, 0, 0, 0, 0, false, chroma, loudWindowRMS, p)
	assert.Equal(t, 0.0, frame.Notes[0])
}

func TestFixedModeZeroEnergyStaysZero(t *testing.T) {
	a := New(testConfig())
	var chroma [12]float64

	p := params.DefaultParameters()
	p.NormMode = params.NormFixed
	frame := a.Assemble(0, 0, 0, 0, 0, 0, false, chroma, loudWindowRMS, p)
	for _, n := range frame.Notes {
		assert.Equal(t, 0.0, n)
	}
}

func TestWindowSilenceGatesEntireVector(t *testing.T) {
	a := New(testConfig())
	var chroma [12]float64
	chroma[3] = 1.0

	p := params.DefaultParameters()
	p.NormMode = params.NormCompetitive

	frame := a.Assemble(0, 0, 0, 0, 0, 0, false, chroma, 0, p)
	for _, n := range frame.Notes {
		assert.Equal(t, 0.0, n)
	}
}
