package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/wake/config"
	"github.com/pthm-cable/wake/game"
	"github.com/pthm-cable/wake/palette"
	"github.com/pthm-cable/wake/stream"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	serve := flag.String("serve", "", "Address for the websocket stream and /metrics (empty = use config, disabled if both empty)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Uint64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	addr := cfg.Stream.Addr
	if *serve != "" {
		addr = *serve
	}
	var srv *stream.Server
	if addr != "" {
		srv = stream.New(cfg.Stream, palette.New(cfg.Render))
	}

	opts := game.Options{
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
		Headless:       *headless,
		StepsPerUpdate: *stepsPerUpdate,
		Stream:         srv,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	eg, ctx := errgroup.WithContext(ctx)

	if srv != nil {
		eg.Go(func() error { return srv.Run(ctx, addr) })
	}

	var sceneErr error
	if *headless {
		// Headless mode - pure CPU simulation, no raylib window
		eg.Go(func() error {
			defer stop()
			return runHeadless(ctx, opts, *maxTicks)
		})
	} else {
		// raylib must stay on the main goroutine.
		sceneErr = runWindow(ctx, opts, *maxTicks)
		stop()
	}

	if err := finish(eg, sceneErr); err != nil {
		slog.Error("exiting with error", "error", err)
		os.Exit(1)
	}
}

// finish waits for the background goroutines and joins their error with the
// error from the scene run on the main goroutine.
func finish(eg *errgroup.Group, sceneErr error) error {
	return errors.Join(sceneErr, eg.Wait())
}

func runHeadless(ctx context.Context, opts game.Options, maxTicks uint64) error {
	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		return err
	}
	defer g.Unload()

	slog.Info("starting headless simulation",
		"seed", opts.Seed,
		"max_ticks", maxTicks,
		"steps_per_update", opts.StepsPerUpdate,
	)

	for ctx.Err() == nil {
		g.UpdateHeadless()

		if maxTicks > 0 && g.Tick() >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			return nil
		}
	}
	return nil
}

func runWindow(ctx context.Context, opts game.Options, maxTicks uint64) error {
	cfg := config.Cfg()
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Render.ScreenWidth), int32(cfg.Render.ScreenHeight), "Wake")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Render.TargetFPS))

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		return err
	}
	defer g.Unload()

	for !rl.WindowShouldClose() && ctx.Err() == nil {
		g.Update()
		g.Draw()

		if maxTicks > 0 && g.Tick() >= maxTicks {
			break
		}
	}
	return nil
}
