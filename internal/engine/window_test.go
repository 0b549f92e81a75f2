package engine

import "testing"

func TestRollingWindowZeroPadsShortChunk(t *testing.T) {
	w := NewRollingWindow(4, 2)

	degraded := w.Push([]float32{1, 1}, 1) // short: 2 of 4 samples
	if !degraded {
		t.Fatal("expected degraded=true for a short chunk")
	}

	view := w.View()
	last4 := view[len(view)-4:]
	want := []float64{1, 1, 0, 0}
	for i, v := range want {
		if last4[i] != v {
			t.Fatalf("index %d: got %v want %v", i, last4[i], v)
		}
	}
}

func TestRollingWindowFullChunkNotDegraded(t *testing.T) {
	w := NewRollingWindow(4, 2)
	degraded := w.Push([]float32{1, 2, 3, 4}, 1)
	if degraded {
		t.Fatal("expected degraded=false for a full chunk")
	}
}

func TestRollingWindowDownmixesChannels(t *testing.T) {
	w := NewRollingWindow(2, 1)
	// stereo: L=1, R=-1 -> mono 0 ; L=1, R=1 -> mono 1
	w.Push([]float32{1, -1, 1, 1}, 2)

	view := w.View()
	if view[0] != 0 || view[1] != 1 {
		t.Fatalf("got %v, want [0 1]", view)
	}
}

func TestRollingWindowReadyAfterFullCycle(t *testing.T) {
	w := NewRollingWindow(2, 3)
	if w.Ready() {
		t.Fatal("should not be ready before any pushes")
	}
	w.Push([]float32{1, 1}, 1)
	w.Push([]float32{1, 1}, 1)
	if w.Ready() {
		t.Fatal("should not be ready before window is filled")
	}
	w.Push([]float32{1, 1}, 1)
	if !w.Ready() {
		t.Fatal("should be ready once window length worth of samples pushed")
	}
}

func TestRollingWindowSlidesOldestOut(t *testing.T) {
	w := NewRollingWindow(2, 2)
	w.Push([]float32{1, 1}, 1)
	w.Push([]float32{2, 2}, 1)
	w.Push([]float32{3, 3}, 1)

	view := w.View()
	want := []float64{2, 2, 3, 3}
	for i, v := range want {
		if view[i] != v {
			t.Fatalf("index %d: got %v want %v", i, view[i], v)
		}
	}
}
