// Package params holds the single piece of cross-thread mutable state
// in the engine: the live, mutex-guarded Parameters snapshot that the
// Control listener writes to and the Frame Scheduler reads from once per
// tick. It is its own package (rather than living in internal/engine or
// internal/assembler) because both of those packages need the type and
// neither should depend on the other.
package params

import "sync"

// NormMode selects how the Feature Assembler maps per-class energy onto
// the 12 chroma-note output levels.
type NormMode string

const (
	// NormFixed maps energy to a fixed dB reference level.
	NormFixed NormMode = "fixed"
	// NormCompetitive normalizes each frame against its own per-frame
	// maximum raised to a gamma curve.
	NormCompetitive NormMode = "competitive"
	// NormStatistical normalizes each note class against its own
	// AutoGain-tracked ceiling.
	NormStatistical NormMode = "statistical"
)

// Parameters is the single piece of cross-thread mutable state in the
// engine: a snapshot of user-tunable values, swapped atomically under
// one mutex by the Control listener and read once per frame by the
// scheduler. Nothing else in the pipeline is shared across goroutines.
type Parameters struct {
	NormMode NormMode

	// LowGain, MidGain, HighGain are linear multipliers applied to each
	// band's AutoGain-normalized level (0-100, sensible 5-20).
	LowGain  float64
	MidGain  float64
	HighGain float64

	// FluxSens scales the scale-invariant spectral flux before clipping
	// for emission (0-10, sensible 0.5-2).
	FluxSens float64

	// NoteSensitivity controls the contrast curve shared by the
	// competitive and statistical normalization modes: gamma = 1/(1-s).
	NoteSensitivity float64

	// Per-band output smoothing factors, unit interval: 1.0 is
	// instantaneous, 0 is frozen.
	LowAttack  float64
	LowDecay   float64
	MidAttack  float64
	MidDecay   float64
	HighAttack float64
	HighDecay  float64
}

// DefaultParameters returns the engine's startup parameter snapshot.
func DefaultParameters() Parameters {
	return Parameters{
		NormMode:        NormCompetitive,
		LowGain:         10,
		MidGain:         10,
		HighGain:        10,
		FluxSens:        1.0,
		NoteSensitivity: 0.8,
		LowAttack:       0.3,
		LowDecay:        0.05,
		MidAttack:       0.3,
		MidDecay:        0.05,
		HighAttack:      0.3,
		HighDecay:       0.05,
	}
}

// Store guards the live Parameters snapshot. Readers call Get and
// get a value copy; writers call Set (or Update for a field-by-field
// merge) under the same mutex. There is deliberately no finer-grained
// locking: the snapshot is small and swapped once per control message.
type Store struct {
	mu     sync.Mutex
	params Parameters
}

// NewStore creates a store seeded with the given parameters.
func NewStore(initial Parameters) *Store {
	return &Store{params: initial}
}

// Get returns a copy of the current parameters.
func (s *Store) Get() Parameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// Set replaces the entire snapshot.
func (s *Store) Set(p Parameters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = p
}

// Update applies fn to the stored snapshot in place while holding the
// mutex, letting callers merge individual validated fields without
// racing a concurrent Get.
func (s *Store) Update(fn func(p *Parameters)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.params)
}
