package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/siltlab/grainfall/config"
	"github.com/siltlab/grainfall/particles"
	"github.com/siltlab/grainfall/renderer"
	"github.com/siltlab/grainfall/sim"
	"github.com/siltlab/grainfall/ui"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per frame (higher = faster headless runs)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	opts := sim.Options{
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
	}

	if *headless {
		// Headless mode - pure CPU simulation, no raylib needed
		s, err := sim.New(opts)
		if err != nil {
			slog.Error("failed to build simulation", "error", err)
			os.Exit(1)
		}
		defer s.Close()

		slog.Info("starting headless simulation",
			"seed", rngSeed,
			"stats_window", *statsWindow,
			"max_ticks", *maxTicks,
			"steps_per_update", *stepsPerUpdate,
		)

		for {
			for i := 0; i < *stepsPerUpdate; i++ {
				s.Step()
			}
			if *maxTicks > 0 && s.Tick() >= *maxTicks {
				slog.Info("max ticks reached", "tick", s.Tick())
				return
			}
		}
	}

	// Graphical mode
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Grainfall")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	s, err := sim.New(opts)
	if err != nil {
		slog.Error("failed to build simulation", "error", err)
		os.Exit(1)
	}
	defer s.Close()

	worldW, worldH := s.WorldSize()
	rend := renderer.New(cfg.Derived.ScreenW32, cfg.Derived.ScreenH32, worldW, worldH)
	panel := ui.NewControlsPanel(10, 10, 180)
	panel.Toggle()
	hud := ui.NewStatsPanel(cfg.Derived.ScreenW32-250, 10)

	paused := false

	for !rl.WindowShouldClose() {
		// Input: mouse drag injects force into the field.
		if rl.IsMouseButtonDown(rl.MouseLeftButton) {
			pos := rl.GetMousePosition()
			delta := rl.GetMouseDelta()
			if delta.X != 0 || delta.Y != 0 {
				wx, wy := rend.ScreenToWorld(pos.X, pos.Y)
				s.InjectForce(wx, wy, float64(delta.X), float64(delta.Y))
			}
		}

		switch {
		case rl.IsKeyPressed(rl.KeySpace):
			paused = !paused
		case rl.IsKeyPressed(rl.KeyR):
			s.ResetAll()
		case rl.IsKeyPressed(rl.KeyS):
			pos := rl.GetMousePosition()
			wx, wy := rend.ScreenToWorld(pos.X, pos.Y)
			s.SpawnParticle(particles.KindSand, wx, wy)
		case rl.IsKeyPressed(rl.KeyD):
			pos := rl.GetMousePosition()
			wx, wy := rend.ScreenToWorld(pos.X, pos.Y)
			s.SpawnParticle(particles.KindDust, wx, wy)
		case rl.IsKeyPressed(rl.KeyTab):
			panel.Toggle()
		case rl.IsKeyPressed(rl.KeyI):
			hud.Toggle()
		}

		if !paused {
			for i := 0; i < *stepsPerUpdate; i++ {
				s.Step()
			}
		}
		s.RecordFrame()

		rl.BeginDrawing()
		rl.ClearBackground(rl.Color{R: 12, G: 14, B: 18, A: 255})

		rend.DrawField(s)
		rend.DrawParticles(s)
		hud.Draw(s)

		actions := panel.Draw(paused, float32(s.Viscosity()))
		if actions.TogglePause {
			paused = !paused
		}
		if actions.Reset {
			s.ResetAll()
		}
		if actions.SpawnSand {
			s.SpawnParticle(particles.KindSand, worldW/2, worldH/4)
		}
		if actions.SpawnDust {
			s.SpawnParticle(particles.KindDust, worldW/2, worldH/4)
		}
		s.SetViscosity(float64(actions.Viscosity))

		rl.DrawFPS(int32(cfg.Screen.Width)-90, 10)
		rl.EndDrawing()

		if *maxTicks > 0 && s.Tick() >= *maxTicks {
			break
		}
	}
}
