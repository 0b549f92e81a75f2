// Package assembler combines the Band DSP, Spectral Core, and Onset/Tempo
// outputs into a single FeatureFrame and packs it to the wire format.
package assembler

import (
	"encoding/binary"
	"math"

	"github.com/loli/notedancer/internal/dsp"
	"github.com/loli/notedancer/internal/params"
)

const numFields = 19 // brightness, flux, low, mid, high, bpm, is_beat, notes[0..11]

// noiseFloor is the post-normalization noise-floor gate: any normalized
// note level below -30 dBFS collapses to 0.
var noiseFloor = math.Pow(10, -30.0/20.0)

// fixedFloorDB and fixedCeilingDB bound the fixed-mode dB-to-[0,1] map.
const (
	fixedFloorDB   = -40.0
	fixedCeilingDB = 0.0
)

// FeatureFrame is the engine's single analysis output per schedule tick.
type FeatureFrame struct {
	Brightness float64
	Flux       float64
	Low        float64
	Mid        float64
	High       float64
	BPM        float64
	IsBeat     bool
	Notes      [12]float64
}

// Assembler applies the configured note-normalization mode to raw chroma
// energy, then a noise-floor gate to the normalized output, folding in
// the three band levels and tempo estimate to produce one FeatureFrame
// per tick. It keeps per-note AutoGain state for statistical mode, since
// that mode tracks each of the 12 note classes' own ceiling
// independently.
type Assembler struct {
	silenceThreshold float64
	statGain         [12]*dsp.AutoGain
}

// Config tunes the assembler's statistical-mode AutoGain trackers and the
// silence threshold that gates the whole notes vector to zero.
type Config struct {
	SilenceThreshold float64
	FramePeriod      float64
	AutoGainHistory  int
	AutoGainPercent  float64
	AutoGainAttackS  float64
	AutoGainDecayS   float64
	AutoGainFloor    float64
}

// New builds an Assembler.
func New(cfg Config) *Assembler {
	a := &Assembler{silenceThreshold: cfg.SilenceThreshold}
	attackA := math.Exp(-cfg.FramePeriod / cfg.AutoGainAttackS)
	decayA := math.Exp(-cfg.FramePeriod / cfg.AutoGainDecayS)
	for i := range a.statGain {
		a.statGain[i] = dsp.NewAutoGain(cfg.AutoGainHistory, cfg.AutoGainPercent, attackA, decayA, cfg.AutoGainFloor)
	}
	return a
}

// Assemble builds a FeatureFrame from the component outputs and the
// live Parameters snapshot. windowRMS is the RMS of the full rolling
// window this tick analyzed: when it is below the configured silence
// threshold, notes is forced to the zero vector regardless of mode.
func (a *Assembler) Assemble(low, mid, high, brightness, flux, bpm float64, isBeat bool, chroma [12]float64, windowRMS float64, p params.Parameters) FeatureFrame {
	notes := a.normalizeNotes(chroma, windowRMS, p)

	return FeatureFrame{
		Brightness: brightness,
		Flux:       flux,
		Low:        low,
		Mid:        mid,
		High:       high,
		BPM:        bpm,
		IsBeat:     isBeat,
		Notes:      notes,
	}
}

func (a *Assembler) normalizeNotes(chroma [12]float64, windowRMS float64, p params.Parameters) [12]float64 {
	if windowRMS < a.silenceThreshold {
		return [12]float64{}
	}

	gamma := 1.0 / (1.0 - p.NoteSensitivity)

	var notes [12]float64
	switch p.NormMode {
	case params.NormFixed:
		notes = a.normalizeFixed(chroma)
	case params.NormStatistical:
		notes = a.normalizeStatistical(chroma, gamma)
	default:
		notes = a.normalizeCompetitive(chroma, gamma)
	}

	for i, v := range notes {
		if v < noiseFloor {
			notes[i] = 0
		}
	}
	return notes
}

// normalizeFixed maps each chroma bin's linear energy to a dBFS-like
// value, then linearly maps [fixedFloorDB, fixedCeilingDB] to [0, 1]
// with clipping.
func (a *Assembler) normalizeFixed(chroma [12]float64) [12]float64 {
	var out [12]float64
	for i, v := range chroma {
		d := 20 * math.Log10(math.Max(v, 1e-9))
		out[i] = clamp01((d - fixedFloorDB) / (fixedCeilingDB - fixedFloorDB))
	}
	return out
}

// normalizeCompetitive scales every note class against the frame's own
// maximum, raised to gamma, so the loudest note in a frame always reads
// near 1.0 and quieter classes fall off by gamma's curve.
func (a *Assembler) normalizeCompetitive(chroma [12]float64, gamma float64) [12]float64 {
	var max float64
	for _, v := range chroma {
		if v > max {
			max = v
		}
	}
	var out [12]float64
	if max <= 0 {
		return out
	}
	for i, v := range chroma {
		out[i] = math.Pow(clamp01(v/max), gamma)
	}
	return out
}

// normalizeStatistical tracks each note class's own AutoGain ceiling
// independently, so a note that is rarely present gets its own floor
// rather than being permanently dim relative to a frame dominated by a
// different note.
func (a *Assembler) normalizeStatistical(chroma [12]float64, gamma float64) [12]float64 {
	var out [12]float64
	for i, v := range chroma {
		ceiling := a.statGain[i].Update(v)
		if ceiling <= 0 {
			continue
		}
		out[i] = math.Pow(clamp01(v/ceiling), gamma)
	}
	return out
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

// Pack serializes a FeatureFrame to the 76-byte wire format: 19
// little-endian float32 values in fixed order (brightness, flux, low,
// mid, high, bpm, is_beat, notes[0..11]).
func Pack(f FeatureFrame) []byte {
	buf := make([]byte, numFields*4)
	offset := 0

	isBeat := float32(0)
	if f.IsBeat {
		isBeat = 1
	}

	scalars := []float32{
		float32(f.Brightness), float32(f.Flux), float32(f.Low), float32(f.Mid),
		float32(f.High), float32(f.BPM), isBeat,
	}
	for _, s := range scalars {
		binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(s))
		offset += 4
	}
	for _, n := range f.Notes {
		binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(float32(n)))
		offset += 4
	}
	return buf
}

// Unpack deserializes a 76-byte feature frame, mirroring Pack.
func Unpack(data []byte) (FeatureFrame, bool) {
	if len(data) < numFields*4 {
		return FeatureFrame{}, false
	}
	var f FeatureFrame
	offset := 0
	next := func() float64 {
		v := math.Float32frombits(binary.LittleEndian.Uint32(data[offset:]))
		offset += 4
		return float64(v)
	}

	f.Brightness = next()
	f.Flux = next()
	f.Low = next()
	f.Mid = next()
	f.High = next()
	f.BPM = next()
	f.IsBeat = next() != 0
	for i := range f.Notes {
		f.Notes[i] = next()
	}
	return f, true
}
