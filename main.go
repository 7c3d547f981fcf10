package main

import (
	"flag"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/calder-gfx/inkflow/app"
	"github.com/calder-gfx/inkflow/config"
)

func init() {
	// GLFW and GL demand the main OS thread.
	runtime.LockOSThread()
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxFrames := flag.Int("max-frames", 0, "Stop after N frames (0 = unlimited)")
	landmarkURL := flag.String("landmark-url", "", "Websocket endpoint of the hand detector (overrides config)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *landmarkURL != "" {
		cfg.Input.LandmarkURL = *landmarkURL
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	a, err := app.New(app.Options{
		Seed:      rngSeed,
		OutputDir: *outputDir,
		MaxFrames: *maxFrames,
	})
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	slog.Info("starting simulator",
		"seed", rngSeed,
		"sim_resolution", cfg.Sim.SimResolution,
		"dye_resolution", cfg.Sim.DyeResolution,
		"max_frames", *maxFrames,
	)

	a.Run()
}
