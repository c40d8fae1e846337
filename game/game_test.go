package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/wake/config"
	"github.com/pthm-cable/wake/telemetry"
)

func smallConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Fluid.GridSize = 32
	cfg.Fluid.TileSize = 8
	cfg.Fluid.ArenaSize = 2000
	cfg.Arena.Ships = 3
	cfg.Telemetry.StatsWindow = 0.5
	if err := cfg.Refresh(); err != nil {
		panic(err)
	}
	return cfg
}

func TestHeadlessRun(t *testing.T) {
	dir := t.TempDir()
	g, err := newGame(smallConfig(), Options{Seed: 7, Headless: true, OutputDir: dir, StepsPerUpdate: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 20; i++ {
		g.UpdateHeadless()
	}
	g.Unload()

	if g.Tick() != 100 {
		t.Errorf("expected 100 ticks, got %d", g.Tick())
	}
	if g.LastResult().Tick != 100 {
		t.Errorf("expected solver tick 100, got %d", g.LastResult().Tick)
	}

	for _, name := range []string{"telemetry.csv", "perf.csv", "config.yaml"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("expected %s: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("expected %s to have content", name)
		}
	}
}

func TestShipsStirTheWater(t *testing.T) {
	g, err := newGame(smallConfig(), Options{Seed: 3, Headless: true, StepsPerUpdate: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer g.Unload()

	for i := 0; i < 30; i++ {
		g.UpdateHeadless()
	}

	res := g.LastResult()
	if res.Bodies == 0 {
		t.Fatal("expected ships to inject wakes")
	}
	if res.Diagnostics.Energy <= 0 {
		t.Errorf("expected kinetic energy in the water, got %v", res.Diagnostics.Energy)
	}
}

func TestResetSkipsNextTick(t *testing.T) {
	g, err := newGame(smallConfig(), Options{Seed: 1, Headless: true, StepsPerUpdate: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer g.Unload()

	g.UpdateHeadless()
	g.Reset()
	g.UpdateHeadless()
	if !g.LastResult().Skipped {
		t.Error("expected the tick after reset to be skipped")
	}
	g.UpdateHeadless()
	if g.LastResult().Skipped {
		t.Error("expected ticks to resume after one skip")
	}
}

func TestCouplingRunsWithReadback(t *testing.T) {
	cfg := smallConfig()
	cfg.Coupling.Enabled = true
	g, err := newGame(cfg, Options{Seed: 5, Headless: true, StepsPerUpdate: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer g.Unload()

	for i := 0; i < 10; i++ {
		g.UpdateHeadless()
	}

	// Every on-grid ship has a snapshot from the previous tick.
	var got int
	for id := uint32(1); id <= uint32(cfg.Arena.Ships); id++ {
		if _, ok := g.Solver().Readback().Latest(id); ok {
			got++
		}
	}
	if got == 0 {
		t.Error("expected coupling snapshots after a few ticks")
	}
}

func TestNewGameRejectsBadGrid(t *testing.T) {
	cfg := smallConfig()
	cfg.Fluid.GridSize = 30 // skips Refresh, which would reject it first
	if _, err := newGame(cfg, Options{Headless: true}); err == nil {
		t.Error("expected an error for a grid that does not tile")
	}
}

func TestStatsCallbackReceivesWindows(t *testing.T) {
	var windows []uint64
	g, err := NewGameWithOptions(Options{
		Seed:           2,
		Headless:       true,
		StepsPerUpdate: 1,
		Config:         smallConfig(),
		StatsCallback: func(s telemetry.WindowStats) {
			windows = append(windows, s.WindowEndTick)
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer g.Unload()

	for i := 0; i < 65; i++ {
		g.UpdateHeadless()
	}

	if len(windows) != 2 || windows[0] != 30 || windows[1] != 60 {
		t.Errorf("expected windows ending at 30 and 60, got %v", windows)
	}
}
