// Command notedancer runs the real-time audio feature-extraction engine:
// it reads audio (from a live capture adapter or, for demos, a file
// decoded via ffmpeg), analyzes it into a compact feature frame every
// chunk, and streams that frame over UDP for a visualizer to consume.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loli/notedancer/internal/capture"
	"github.com/loli/notedancer/internal/config"
	"github.com/loli/notedancer/internal/engine"
	"github.com/loli/notedancer/internal/logging"
	"github.com/loli/notedancer/internal/transport"
	"github.com/spf13/pflag"
)

// Version is set at build time via ldflags.
var Version = "dev"

type cliFlags struct {
	ConfigDir   string
	InputFile   string
	FeatureAddr string
	ControlAddr string
	Verbose     bool
}

func main() {
	flags := parseFlags()
	log := logging.New(flags.Verbose)

	if flags.Verbose {
		log.Info("notedancer starting", "version", Version)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx, flags, log); err != nil {
		log.Fatal("fatal error", "err", err)
	}
}

func parseFlags() *cliFlags {
	f := &cliFlags{}
	pflag.StringVarP(&f.ConfigDir, "config", "c", "", "configuration directory (default: ~/.config/notedancer)")
	pflag.StringVarP(&f.InputFile, "input", "i", "", "decode audio from this file instead of live capture (demo mode)")
	pflag.StringVarP(&f.FeatureAddr, "feature-addr", "F", "", "override the outbound feature UDP address")
	pflag.StringVarP(&f.ControlAddr, "control-addr", "C", "", "override the inbound control UDP address")
	pflag.BoolVarP(&f.Verbose, "verbose", "v", false, "enable debug logging")
	pflag.Parse()

	if f.ConfigDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		f.ConfigDir = home + "/.config/notedancer"
	}
	return f
}

func run(ctx context.Context, flags *cliFlags, log *logging.Logger) error {
	configMgr := config.NewManager(flags.ConfigDir)
	if err := configMgr.Load(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := configMgr.Get()

	if flags.FeatureAddr != "" {
		cfg.FeatureAddr = flags.FeatureAddr
	}
	if flags.ControlAddr != "" {
		cfg.ControlAddr = flags.ControlAddr
	}

	sender, err := transport.NewFeatureSender(cfg.FeatureAddr, logging.Component(log, "transport"))
	if err != nil {
		return fmt.Errorf("failed to start feature sender: %w", err)
	}
	defer sender.Close()

	sched := engine.NewScheduler(cfg, sender, logging.Component(log, "engine"))

	control, err := transport.NewControlListener(cfg.ControlAddr, sched.Params(), logging.Component(log, "control"))
	if err != nil {
		return fmt.Errorf("failed to start control listener: %w", err)
	}
	defer control.Close()
	controlDone := make(chan struct{})
	go func() {
		defer close(controlDone)
		control.Run(ctx)
	}()

	var chunks <-chan capture.Chunk
	var source *capture.FileSource
	if flags.InputFile != "" {
		source, err = capture.NewFileSource(cfg.SampleRate, cfg.ChunkSize)
		if err != nil {
			return fmt.Errorf("failed to initialize file source: %w", err)
		}
		if err := source.Start(ctx, flags.InputFile); err != nil {
			return fmt.Errorf("failed to start file source: %w", err)
		}
		defer source.Close()
		chunks = source.Chunks()
		log.Info("decoding from file", "path", flags.InputFile)
	} else {
		log.Warn("no --input given and no live capture adapter wired; idling until a capture source is attached")
		idle := make(chan capture.Chunk)
		chunks = idle
	}

	log.Info("engine running", "feature_addr", cfg.FeatureAddr, "control_addr", cfg.ControlAddr)
	sched.Run(ctx, chunks)

	// Cooperative shutdown: the control listener polls ctx and closes its
	// socket on cancellation, but never block the process on it forever.
	select {
	case <-controlDone:
	case <-time.After(time.Second):
		log.Warn("control listener did not stop within the shutdown deadline")
	}

	log.Info("shutdown complete")
	return nil
}
