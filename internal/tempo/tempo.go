package tempo

import "math"

// The histogram covers inter-onset intervals from 0.2s (300 BPM) to
// 2.0s (30 BPM) in 20ms buckets, wide enough to catch anything from a
// double-time hi-hat to a half-time kick pattern.
const (
	minIOI      = 0.2
	maxIOI      = 2.0
	bucketWidth = 0.02
	numBuckets  = int((maxIOI - minIOI) / bucketWidth)
)

// Tracker estimates BPM from a stream of onset events by keeping a
// histogram of every inter-onset interval recorded since the tracker
// was created (intervals are never aged out) and taking the modal
// interval as the beat period, then hedging the resulting BPM into the
// configured range by doubling or halving (a detector that locks onto
// the half-time or double-time feel of a track is still "right", just
// off by a power of two) and smoothing frame to frame with a single
// pole so the reported BPM doesn't jump on every new onset.
type Tracker struct {
	framePeriod float64
	lastOnset   float64 // seconds since tracker start, -1 if none yet
	elapsed     float64

	histogram [numBuckets]int
	totalIOIs int

	minBPM, maxBPM float64
	smoothing      float64

	bpm      float64
	smoothed float64
	haveBPM  bool
}

// NewTracker builds a BPM tracker. framePeriod is the seconds between
// calls to Update; minBPM/maxBPM bound the hedged output; smoothing is
// the single-pole coefficient applied to BPM updates (closer to 1 is
// slower to change).
func NewTracker(framePeriod, minBPM, maxBPM, smoothing float64) *Tracker {
	return &Tracker{
		framePeriod: framePeriod,
		lastOnset:   -1,
		minBPM:      minBPM,
		maxBPM:      maxBPM,
		smoothing:   smoothing,
	}
}

// Update advances the tracker by one frame, reporting whether onset
// fired this frame and the current smoothed BPM estimate (0 until a
// BPM can be estimated).
func (t *Tracker) Update(onset bool) (bpm float64, isBeat bool) {
	t.elapsed += t.framePeriod

	if onset {
		if t.lastOnset >= 0 {
			ioi := t.elapsed - t.lastOnset
			t.recordIOI(ioi)
		}
		t.lastOnset = t.elapsed
	}

	if t.totalIOIs > 0 {
		t.bpm = t.hedge(60.0 / t.modalIOI())
		if !t.haveBPM {
			t.smoothed = t.bpm
			t.haveBPM = true
		} else {
			t.smoothed = t.smoothing*t.smoothed + (1-t.smoothing)*t.bpm
		}
	}

	return t.smoothed, onset
}

func (t *Tracker) recordIOI(ioi float64) {
	if ioi < minIOI || ioi >= maxIOI {
		return
	}
	bucket := int((ioi - minIOI) / bucketWidth)
	if bucket < 0 {
		bucket = 0
	}
	if bucket >= numBuckets {
		bucket = numBuckets - 1
	}
	t.histogram[bucket]++
	t.totalIOIs++
}

func (t *Tracker) modalIOI() float64 {
	best := 0
	bestCount := -1
	for i, count := range t.histogram {
		if count > bestCount {
			bestCount = count
			best = i
		}
	}
	return minIOI + (float64(best)+0.5)*bucketWidth
}

// hedge folds a raw BPM estimate into [minBPM, maxBPM] by repeated
// doubling or halving.
func (t *Tracker) hedge(bpm float64) float64 {
	for bpm < t.minBPM {
		bpm *= 2
	}
	for bpm > t.maxBPM {
		bpm /= 2
	}
	return clamp(bpm, t.minBPM, t.maxBPM)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
