package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/loli/notedancer/internal/assembler"
	"github.com/loli/notedancer/internal/capture"
	"github.com/loli/notedancer/internal/config"
	"github.com/loli/notedancer/internal/dsp"
	"github.com/loli/notedancer/internal/logging"
	"github.com/loli/notedancer/internal/params"
	"github.com/loli/notedancer/internal/spectral"
	"github.com/loli/notedancer/internal/tempo"
)

// FrameSink receives one packed feature frame per schedule tick. The
// transport package's FeatureSender satisfies this; tests can substitute
// anything.
type FrameSink interface {
	Send(packed []byte)
}

// Scheduler is the Frame Scheduler (component G): it owns the Analysis
// thread, pulling chunks off the capture queue, pushing them into the
// rolling window, taking one Parameters snapshot per tick, running the
// Band DSP, Spectral Core, and Onset/Tempo stages, assembling a
// FeatureFrame, and handing it to the sink — all non-blocking and
// drop-tolerant on the way out, exactly the posture spec'd for the
// Frame Scheduler.
type Scheduler struct {
	cfg    *config.EngineConfig
	window *RollingWindow
	params *params.Store

	bands struct {
		chain *dsp.BandChain
		low   *dsp.Band
		mid   *dsp.Band
		high  *dsp.Band
	}
	spectralCore *spectral.Core
	onset        *tempo.OnsetDetector
	bpm          *tempo.Tracker
	assembler    *assembler.Assembler

	sink FrameSink
	log  *logging.Logger

	degradedStreak  int32
	degradedLogged  int32
	overBudgetLimit int32
}

// NewScheduler wires every component from cfg.
func NewScheduler(cfg *config.EngineConfig, sink FrameSink, log *logging.Logger) *Scheduler {
	s := &Scheduler{
		cfg:             cfg,
		window:          NewRollingWindow(cfg.ChunkSize, cfg.WindowChunks),
		params:          params.NewStore(params.DefaultParameters()),
		sink:            sink,
		log:             log,
		overBudgetLimit: 10,
	}

	sampleRate := float64(cfg.SampleRate)
	s.bands.chain = dsp.NewBandChain(cfg.LowCutoffHz, cfg.HighCutoffHz, sampleRate)

	framePeriod := float64(cfg.ChunkSize) / sampleRate
	bandCfg := dsp.BandConfig{
		SampleRate:       sampleRate,
		FramePeriod:      framePeriod,
		AutoGainHistory:  int(cfg.AutoGain.HistorySeconds / framePeriod),
		Percentile:       cfg.AutoGain.Percentile,
		AttackSeconds:    cfg.AutoGain.AttackSeconds,
		DecaySeconds:     cfg.AutoGain.DecaySeconds,
		Floor:            cfg.AutoGain.Floor,
		SilenceThreshold: cfg.SilenceThreshold,
	}
	s.bands.low = dsp.NewBand(nil, bandCfg)
	s.bands.mid = dsp.NewBand(nil, bandCfg)
	s.bands.high = dsp.NewBand(nil, bandCfg)

	s.spectralCore = spectral.NewCore(cfg.FFTSize, sampleRate)

	onsetHistory := int(cfg.Onset.HistorySeconds / framePeriod)
	refractory := int(cfg.Onset.RefractorySeconds / framePeriod)
	s.onset = tempo.NewOnsetDetector(onsetHistory, cfg.Onset.ThresholdK, refractory)
	s.bpm = tempo.NewTracker(framePeriod, cfg.Onset.MinBPM, cfg.Onset.MaxBPM, cfg.Onset.SmoothingFactor)

	s.assembler = assembler.New(assembler.Config{
		SilenceThreshold: cfg.SilenceThreshold,
		FramePeriod:      framePeriod,
		AutoGainHistory:  int(cfg.AutoGain.HistorySeconds / framePeriod),
		AutoGainPercent:  cfg.AutoGain.Percentile,
		AutoGainAttackS:  cfg.AutoGain.AttackSeconds,
		AutoGainDecayS:   cfg.AutoGain.DecaySeconds,
		AutoGainFloor:    cfg.AutoGain.Floor,
	})

	return s
}

// Params exposes the live parameter store so a Control listener can
// write to it.
func (s *Scheduler) Params() *params.Store {
	return s.params
}

// Run pulls chunks from the chunks channel until ctx is canceled or the
// channel is closed.
func (s *Scheduler) Run(ctx context.Context, chunks <-chan capture.Chunk) {
	budget := time.Duration(float64(s.cfg.ChunkSize) / float64(s.cfg.SampleRate) * float64(time.Second))

	for {
		chunk, ok := capture.Next(ctx, chunks)
		if !ok {
			return
		}
		start := time.Now()
		s.tick(chunk)
		s.trackBudget(time.Since(start), budget)
	}
}

func (s *Scheduler) tick(chunk capture.Chunk) {
	degraded := s.window.Push(chunk.Samples, chunk.Channels)
	if degraded {
		s.log.Debug("short capture chunk, zero-padded")
	}

	view := s.window.View()
	p := s.params.Get()

	// Band DSP filters only the newest chunk, not the whole window: the
	// filter chain carries state between calls, and re-running already
	// filtered samples through it every tick would both corrupt that
	// state and average the RMS over several chunks instead of one.
	latest := view[len(view)-s.cfg.ChunkSize:]
	low, mid, high := s.filterChunk(latest)

	lowLevel := s.bands.low.Process(low, p.LowGain, p.LowAttack, p.LowDecay)
	midLevel := s.bands.mid.Process(mid, p.MidGain, p.MidAttack, p.MidDecay)
	highLevel := s.bands.high.Process(high, p.HighGain, p.HighAttack, p.HighDecay)

	spectralFrame := s.spectralCore.Process(view, p.FluxSens)

	onset := s.onset.Update(spectralFrame.FluxUnclipped)
	bpm, isBeat := s.bpm.Update(onset)

	windowRMS := dsp.RMS(view)

	frame := s.assembler.Assemble(lowLevel, midLevel, highLevel, spectralFrame.Brightness, spectralFrame.Flux, bpm, isBeat, spectralFrame.Chroma, windowRMS, p)

	s.sink.Send(assembler.Pack(frame))
}

// filterChunk runs the newest chunk through the three-band filter
// chain, returning per-band filtered sample slices the same length as
// the chunk. Filter state persists in s.bands.chain across calls.
func (s *Scheduler) filterChunk(chunk []float64) (low, mid, high []float64) {
	low = make([]float64, len(chunk))
	mid = make([]float64, len(chunk))
	high = make([]float64, len(chunk))
	for i, x := range chunk {
		l, m, h := s.bands.chain.Process(x)
		low[i] = l
		mid[i] = m
		high[i] = h
	}
	return
}

func (s *Scheduler) trackBudget(elapsed, budget time.Duration) {
	if elapsed <= budget {
		atomic.StoreInt32(&s.degradedStreak, 0)
		atomic.StoreInt32(&s.degradedLogged, 0)
		return
	}
	streak := atomic.AddInt32(&s.degradedStreak, 1)
	if streak >= s.overBudgetLimit && atomic.CompareAndSwapInt32(&s.degradedLogged, 0, 1) {
		s.log.Warn("sustained over-budget analysis frames", "streak", streak, "budget", budget, "elapsed", elapsed)
	}
}
