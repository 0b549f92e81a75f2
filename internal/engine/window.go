// Package engine wires the rolling analysis window, the live parameter
// snapshot, and the frame scheduler together into the running pipeline.
package engine

// RollingWindow accumulates incoming chunks into a fixed-size analysis
// window and hands out a read-only view of the most recent samples. It
// downmixes multi-channel input to mono on push and advances by exactly
// one chunk per push (hop = chunk) by shifting the older samples toward
// the front of the buffer, so the buffer itself is always in time order;
// it plays the role of the teacher's real-time analyzer's single-chunk
// circular FFT buffer, generalized to a multi-chunk overlapping window.
type RollingWindow struct {
	size      int // window length in samples
	chunkSize int
	buf       []float64
	filled    int // samples written so far, saturates at size
}

// NewRollingWindow creates a window holding windowChunks*chunkSize samples.
func NewRollingWindow(chunkSize, windowChunks int) *RollingWindow {
	size := chunkSize * windowChunks
	return &RollingWindow{
		size:      size,
		chunkSize: chunkSize,
		buf:       make([]float64, size),
	}
}

// Push downmixes a chunk to mono and slides it into the window. If the
// chunk is shorter than chunkSize (a short read from capture), the
// missing samples are zero-padded and degraded is reported true.
func (w *RollingWindow) Push(samples []float32, channels int) (degraded bool) {
	if channels < 1 {
		channels = 1
	}
	frames := len(samples) / channels
	mono := make([]float64, w.chunkSize)

	n := frames
	if n > w.chunkSize {
		n = w.chunkSize
	}
	for i := 0; i < n; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(samples[i*channels+ch])
		}
		mono[i] = sum / float64(channels)
	}
	if n < w.chunkSize {
		degraded = true
		// remaining entries of mono stay zero
	}

	copy(w.buf, w.buf[w.chunkSize:])
	copy(w.buf[w.size-w.chunkSize:], mono)

	if w.filled < w.size {
		w.filled += w.chunkSize
		if w.filled > w.size {
			w.filled = w.size
		}
	}
	return degraded
}

// View returns the current window contents, oldest sample first. Until
// the window has been filled at least once, the unwritten prefix reads
// as zero (silence), which is the documented startup behavior rather
// than a degraded read.
func (w *RollingWindow) View() []float64 {
	return w.buf
}

// Ready reports whether the window has been filled by at least one full
// cycle of pushes.
func (w *RollingWindow) Ready() bool {
	return w.filled >= w.size
}

// Len returns the window length in samples.
func (w *RollingWindow) Len() int {
	return w.size
}
