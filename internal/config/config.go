// Package config handles engine configuration file management.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EngineConfig holds the startup configuration for the analysis engine.
// It is read once at process start; the live Parameters protocol in
// internal/transport is the only way to change behavior afterward.
type EngineConfig struct {
	// SampleRate of the incoming audio, in Hz (default: 48000)
	SampleRate int `yaml:"sampleRate"`

	// ChunkSize is the number of samples per capture chunk (default: 1024)
	ChunkSize int `yaml:"chunkSize"`

	// WindowChunks is the number of chunks held in the rolling analysis
	// window (default: 6)
	WindowChunks int `yaml:"windowChunks"`

	// FFTSize is the transform length used by the spectral core (default: 2048)
	FFTSize int `yaml:"fftSize"`

	// LowCutoffHz / HighCutoffHz split the spectrum into low/mid/high bands.
	// LowCutoffHz must be <= 150 Hz; HighCutoffHz must be >= 4000 Hz.
	LowCutoffHz  float64 `yaml:"lowCutoffHz"`
	HighCutoffHz float64 `yaml:"highCutoffHz"`

	// SilenceThreshold below which a band is gated to zero (linear RMS)
	SilenceThreshold float64 `yaml:"silenceThreshold"`

	// FeatureAddr is the outbound UDP destination for feature frames
	FeatureAddr string `yaml:"featureAddr"`

	// ControlAddr is the inbound UDP listen address for parameter updates
	ControlAddr string `yaml:"controlAddr"`

	AutoGain AutoGainConfig `yaml:"autoGain"`
	Onset    OnsetConfig    `yaml:"onset"`
}

// AutoGainConfig tunes the per-band automatic gain controller.
type AutoGainConfig struct {
	// HistorySeconds is the length of the frame-maxima ring buffer
	HistorySeconds float64 `yaml:"historySeconds"`

	// Percentile is the soft-ceiling percentile taken from the history (0-1)
	Percentile float64 `yaml:"percentile"`

	// AttackSeconds / DecaySeconds are the asymmetric approach time constants
	AttackSeconds float64 `yaml:"attackSeconds"`
	DecaySeconds  float64 `yaml:"decaySeconds"`

	// Floor is the hard minimum ceiling, preventing divide-by-near-zero gain
	Floor float64 `yaml:"floor"`
}

// OnsetConfig tunes onset detection and tempo tracking.
type OnsetConfig struct {
	// ThresholdK scales the standard deviation added to the mean flux to
	// form the adaptive onset threshold (threshold = mean + k*stddev)
	ThresholdK float64 `yaml:"thresholdK"`

	// RefractorySeconds is the minimum spacing enforced between onsets
	RefractorySeconds float64 `yaml:"refractorySeconds"`

	// HistorySeconds is the length of the flux history used for the
	// adaptive threshold (the inter-onset-interval histogram is not
	// bounded by it)
	HistorySeconds float64 `yaml:"historySeconds"`

	// MinBPM / MaxBPM bound the hedged tempo estimate
	MinBPM float64 `yaml:"minBPM"`
	MaxBPM float64 `yaml:"maxBPM"`

	// SmoothingFactor is the single-pole smoothing applied to BPM updates
	SmoothingFactor float64 `yaml:"smoothingFactor"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *EngineConfig {
	return &EngineConfig{
		SampleRate:       48000,
		ChunkSize:        1024,
		WindowChunks:     6,
		FFTSize:          2048,
		LowCutoffHz:      150,
		HighCutoffHz:     4000,
		SilenceThreshold: 1e-4,
		FeatureAddr:      "127.0.0.1:5005",
		ControlAddr:      "127.0.0.1:5006",
		AutoGain: AutoGainConfig{
			HistorySeconds: 15,
			Percentile:     0.90,
			AttackSeconds:  0.1,
			DecaySeconds:   15,
			Floor:          1e-4,
		},
		Onset: OnsetConfig{
			ThresholdK:        1.5,
			RefractorySeconds: 0.1,
			HistorySeconds:    1.0,
			MinBPM:            90,
			MaxBPM:            180,
			SmoothingFactor:   0.2,
		},
	}
}

// Manager loads and (optionally) persists an EngineConfig from a YAML file
// on disk. The engine itself only ever reads the config once at startup;
// Save exists for operators who want to snapshot the effective config
// (e.g. after CLI flag overrides) for next time.
type Manager struct {
	configDir  string
	configPath string
	config     *EngineConfig
}

// NewManager creates a configuration manager rooted at configDir.
func NewManager(configDir string) *Manager {
	return &Manager{
		configDir:  configDir,
		configPath: filepath.Join(configDir, "notedancer.yaml"),
		config:     DefaultConfig(),
	}
}

// Load reads the configuration from disk, writing out defaults if no file
// exists yet.
func (m *Manager) Load() error {
	if err := os.MkdirAll(m.configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(m.configPath); os.IsNotExist(err) {
		m.config = DefaultConfig()
		return m.Save()
	}

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	m.config = cfg
	return nil
}

// Save writes the current configuration to disk.
func (m *Manager) Save() error {
	if err := os.MkdirAll(m.configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(m.config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Get returns the current configuration.
func (m *Manager) Get() *EngineConfig {
	return m.config
}

// GetPath returns the config file path.
func (m *Manager) GetPath() string {
	return m.configPath
}

// Update replaces the configuration and persists it.
func (m *Manager) Update(cfg *EngineConfig) error {
	m.config = cfg
	return m.Save()
}
