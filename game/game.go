// Package game runs the combat scene: ships in the arena drive the fluid
// solver, and the published water is rendered, streamed and logged.
package game

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/wake/arena"
	"github.com/pthm-cable/wake/camera"
	"github.com/pthm-cable/wake/config"
	"github.com/pthm-cable/wake/fluid"
	"github.com/pthm-cable/wake/palette"
	"github.com/pthm-cable/wake/renderer"
	"github.com/pthm-cable/wake/stream"
	"github.com/pthm-cable/wake/telemetry"
	"github.com/pthm-cable/wake/ui"
)

// Options configures a Game.
type Options struct {
	Seed           int64
	LogStats       bool
	StatsWindowSec float64 // 0 uses the config value
	OutputDir      string
	Headless       bool
	StepsPerUpdate int
	Stream         *stream.Server // Optional frame sink

	// Config overrides the global config when set, so several games can
	// run side by side with different parameters.
	Config *config.Config

	// StatsCallback receives every flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// Game holds the complete scene state.
type Game struct {
	cfg *config.Config

	arena    *arena.Arena
	solver   *fluid.Solver
	coupling *arena.Coupling
	palette  *palette.Palette

	// Reused per tick
	bodies []fluid.Body
	ships  []arena.ShipView
	speeds []float64

	// Telemetry
	perfCollector *telemetry.PerfCollector
	collector     *telemetry.Collector
	outputManager *telemetry.OutputManager
	stream        *stream.Server
	logStats      bool
	statsCallback func(telemetry.WindowStats)
	lastResult    fluid.TickResult

	// Rendering, nil when headless
	water     *renderer.WaterSurface
	camera    *camera.Camera
	perfPanel *ui.PerfPanel
	legend    *ui.Legend

	// State
	tick           uint64
	paused         bool
	couplingOn     bool
	stepsPerUpdate int
	showPanel      bool
	showPerf       bool
}

// NewGameWithOptions creates a game from opts.Config, or the global config
// when it is nil.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	return newGame(cfg, opts)
}

func newGame(cfg *config.Config, opts Options) (*Game, error) {
	solver, err := fluid.New(fluid.FromConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("creating solver: %w", err)
	}

	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		solver.Close()
		return nil, err
	}
	if om != nil {
		if err := om.WriteConfig(cfg); err != nil {
			slog.Error("failed to write config", "error", err)
		}
	}

	g := &Game{
		cfg:            cfg,
		arena:          arena.New(cfg, opts.Seed),
		solver:         solver,
		palette:        palette.New(cfg.Render),
		perfCollector:  telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		collector:      telemetry.NewCollector(statsWindow, cfg.Derived.DT32),
		outputManager:  om,
		stream:         opts.Stream,
		logStats:       opts.LogStats,
		statsCallback:  opts.StatsCallback,
		couplingOn:     cfg.Coupling.Enabled,
		stepsPerUpdate: max(1, opts.StepsPerUpdate),
		showPanel:      true,
	}
	g.coupling = arena.NewCoupling(cfg.Coupling, solver.Readback())
	solver.SetPhaseTimer(g.perfCollector)

	if !opts.Headless {
		g.water = renderer.NewWaterSurface(g.palette)
		g.perfPanel = ui.NewPerfPanel(10, 120, 240)
		g.legend = ui.NewLegend(g.palette)
		g.camera = camera.New(float32(cfg.Render.ScreenWidth), float32(cfg.Render.ScreenHeight), float32(cfg.Fluid.ArenaSize))
	}

	slog.Info("scene created",
		"seed", opts.Seed,
		"ships", g.arena.Ships(),
		"grid", solver.Size(),
		"coupling", g.couplingOn,
		"headless", opts.Headless,
	)
	return g, nil
}

// Tick returns the number of completed simulation steps.
func (g *Game) Tick() uint64 { return g.tick }

// Solver returns the scene's fluid solver.
func (g *Game) Solver() *fluid.Solver { return g.solver }

// LastResult returns the most recent solver tick result.
func (g *Game) LastResult() fluid.TickResult { return g.lastResult }

// SetCoupling turns water-to-ship drift on or off.
func (g *Game) SetCoupling(on bool) {
	if on == g.couplingOn {
		return
	}
	g.couplingOn = on
	slog.Info("coupling toggled", "enabled", on, "tick", g.tick)
}

// Reset clears the water. Ships keep their course.
func (g *Game) Reset() {
	g.solver.Reset()
}

// Update handles input and runs stepsPerUpdate simulation steps, then
// uploads the published field for drawing.
func (g *Game) Update() {
	g.handleInput()

	if !g.paused {
		for i := 0; i < g.stepsPerUpdate; i++ {
			g.simulationStep()
		}
	}

	if g.water != nil {
		g.water.Update(g.solver.Published())
	}
}

// UpdateHeadless runs stepsPerUpdate simulation steps without input or
// rendering.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.simulationStep()
	}
}

// Unload releases the solver, output files and GPU resources.
func (g *Game) Unload() {
	g.solver.Close()
	if g.water != nil {
		g.water.Unload()
	}
	if g.outputManager != nil {
		if err := g.outputManager.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
	}
}

// simulationStep runs a single tick of the scene.
func (g *Game) simulationStep() {
	dt := g.cfg.Derived.DT32
	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseArena)
	g.arena.Update(dt)
	g.bodies = g.arena.BodiesInto(g.bodies[:0])

	start := time.Now()
	res := g.solver.Step(g.bodies)
	elapsed := time.Since(start)
	g.lastResult = res
	g.tick++

	// Snapshots requested last tick were fulfilled by this one.
	if g.couplingOn {
		g.perfCollector.StartPhase(telemetry.PhaseCoupling)
		g.coupling.Apply(g.arena, dt)
		g.coupling.Request(g.arena)
	}

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	telemetry.ObserveTick(res, elapsed.Seconds())
	g.collector.RecordTick(res)

	if g.stream != nil {
		g.ships = g.arena.ShipsInto(g.ships[:0])
		g.stream.Publish(g.solver.Published(), g.ships)
	}

	g.flushTelemetry()
	g.perfCollector.EndTick()
}
