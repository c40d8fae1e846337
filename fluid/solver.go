package fluid

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/pthm-cable/wake/config"
)

var (
	// ErrInvalidConfig is wrapped by every solver configuration error.
	ErrInvalidConfig = errors.New("invalid solver config")
	// ErrTileMismatch is returned when the grid cannot be split into whole tiles.
	ErrTileMismatch = errors.New("grid size is not a multiple of tile size")
	// ErrClosed is returned by Resize after Close.
	ErrClosed = errors.New("solver closed")
)

// Phase names reported to a PhaseTimer, in pipeline order.
const (
	PhaseInject     = "inject"
	PhaseAdvect     = "advect"
	PhaseDivergence = "divergence"
	PhaseRelax      = "relax"
	PhaseProject    = "project"
	PhasePublish    = "publish"
)

// PhaseTimer receives a call at the start of every pipeline phase. It is
// invoked from whichever goroutine runs the tick.
type PhaseTimer interface {
	StartPhase(name string)
}

// Config holds the solver parameters. They are fixed for the life of a Solver
// except GridSize, which Resize replaces.
type Config struct {
	GridSize          int
	TileSize          int
	JacobiIterations  int
	DT                float32
	Viscosity         float32
	PressureRetention float32
	ForceMultiplier   float32
	MaxVelocity       float32
	ClampWarnTicks    int
	ParallelThreshold int  // Tiles below which dispatch runs inline
	Workers           int  // 0 means GOMAXPROCS
	Diagnostics       bool // Compute energy and divergence every tick
}

// FromConfig builds a solver Config from the loaded application config.
func FromConfig(c *config.Config) Config {
	return Config{
		GridSize:          c.Fluid.GridSize,
		TileSize:          c.Fluid.TileSize,
		JacobiIterations:  c.Fluid.JacobiIterations,
		DT:                c.Derived.DT32,
		Viscosity:         float32(c.Fluid.Viscosity),
		PressureRetention: float32(c.Fluid.PressureRetention),
		ForceMultiplier:   float32(c.Wake.ForceMultiplier),
		MaxVelocity:       c.Derived.MaxVelocity32,
		ClampWarnTicks:    c.Fluid.ClampWarnTicks,
		ParallelThreshold: c.Fluid.ParallelThreshold,
		Diagnostics:       c.Fluid.Diagnostics,
	}
}

// Validate rejects parameters the pipeline cannot run with.
func (c Config) Validate() error {
	switch {
	case c.GridSize <= 0 || c.TileSize <= 0:
		return fmt.Errorf("%w: grid %d, tile %d", ErrInvalidConfig, c.GridSize, c.TileSize)
	case c.GridSize < c.TileSize || c.GridSize%c.TileSize != 0:
		return fmt.Errorf("%w: grid %d, tile %d", ErrTileMismatch, c.GridSize, c.TileSize)
	case c.JacobiIterations < 1:
		return fmt.Errorf("%w: jacobi iterations %d", ErrInvalidConfig, c.JacobiIterations)
	case c.DT <= 0:
		return fmt.Errorf("%w: dt %v", ErrInvalidConfig, c.DT)
	case c.Viscosity <= 0 || c.Viscosity >= 1:
		return fmt.Errorf("%w: viscosity %v outside (0,1)", ErrInvalidConfig, c.Viscosity)
	case c.PressureRetention < 0 || c.PressureRetention > 1:
		return fmt.Errorf("%w: pressure retention %v outside [0,1]", ErrInvalidConfig, c.PressureRetention)
	case c.MaxVelocity <= 0:
		return fmt.Errorf("%w: max velocity %v", ErrInvalidConfig, c.MaxVelocity)
	}
	return nil
}

// TickResult reports what one tick did.
type TickResult struct {
	Tick        uint64
	Skipped     bool // Buffers were reset; nothing was computed
	Bodies      int
	Clamped     int // Cells bounded by the magnitude clamp or NaN scrub
	Diagnostics Diagnostics
}

// Solver owns the grid and runs the per-tick pipeline
// Inject → Advect → Divergence → Relax×K → Project → Publish.
//
// All methods must be called from one host goroutine. Submit runs the tick on
// a separate goroutine; every other method waits for it first.
type Solver struct {
	cfg      Config
	grid     *Grid
	disp     *dispatcher
	readback *Readback
	timer    PhaseTimer

	bodies   []Body
	residual []float32

	tick     uint64
	skipNext bool
	closed   bool

	clamp   clampTracker
	clamped atomic.Int64

	// gen advances whenever the published buffer is about to be overwritten.
	gen       atomic.Uint64
	published Field

	inflight chan struct{}
	result   TickResult
}

// New validates cfg and allocates the grid and worker pool.
func New(cfg Config) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Solver{
		cfg:      cfg,
		readback: newReadback(),
		clamp:    clampTracker{warnAfter: cfg.ClampWarnTicks},
	}
	s.allocate(cfg.GridSize)

	slog.Info("fluid solver created",
		"grid", cfg.GridSize,
		"tile", cfg.TileSize,
		"workers", s.disp.numWorkers,
		"jacobi", cfg.JacobiIterations,
	)
	return s, nil
}

func (s *Solver) allocate(n int) {
	s.grid = NewGrid(n)
	s.disp = newDispatcher(n, s.cfg.TileSize, s.cfg.Workers, s.cfg.ParallelThreshold)
	s.residual = make([]float32, n*n)
	s.publish()
}

// Config returns the solver's active configuration.
func (s *Solver) Config() Config { return s.cfg }

// Size returns the current grid resolution.
func (s *Solver) Size() int { return s.cfg.GridSize }

// SetPhaseTimer installs t to receive phase boundaries. Pass nil to disable.
func (s *Solver) SetPhaseTimer(t PhaseTimer) {
	s.Sync()
	s.timer = t
}

// Readback returns the solver's asynchronous readback queue.
func (s *Solver) Readback() *Readback { return s.readback }

// RequestReadback queues a copy of region r for the end of the next tick.
func (s *Solver) RequestReadback(id uint32, r Region) {
	s.readback.Request(id, r)
}

// Step runs one tick synchronously and returns its result.
func (s *Solver) Step(bodies []Body) TickResult {
	s.Submit(bodies)
	return s.Sync()
}

// Submit starts a tick without waiting for it to finish. It only blocks while
// the previous tick completes, so ticks never overlap or reorder. bodies is
// copied and may be reused by the caller immediately.
func (s *Solver) Submit(bodies []Body) {
	s.Sync()
	if s.closed {
		s.result = TickResult{Skipped: true}
		return
	}

	s.bodies = append(s.bodies[:0], bodies...)
	done := make(chan struct{})
	s.inflight = done
	go func() {
		defer close(done)
		s.result = s.runTick()
	}()
}

// Sync waits for the in-flight tick, if any, and returns the last result.
func (s *Solver) Sync() TickResult {
	if s.inflight != nil {
		<-s.inflight
		s.inflight = nil
	}
	return s.result
}

// Published returns the field produced by the most recent completed tick.
func (s *Solver) Published() Field {
	s.Sync()
	return s.published
}

// Reset zeroes every buffer. The next tick is skipped.
func (s *Solver) Reset() {
	s.Sync()
	if s.closed {
		return
	}
	s.gen.Add(1)
	s.grid.Clear()
	s.readback.clear()
	s.clamp.reset()
	s.skipNext = true
	s.publish()
	slog.Info("fluid buffers reset", "tick", s.tick, "grid", s.cfg.GridSize)
}

// Resize reallocates the grid at resolution n. The next tick is skipped.
// On error the solver keeps its previous grid.
func (s *Solver) Resize(n int) error {
	s.Sync()
	if s.closed {
		return ErrClosed
	}

	next := s.cfg
	next.GridSize = n
	if err := next.Validate(); err != nil {
		return fmt.Errorf("resizing to %d: %w", n, err)
	}

	s.disp.stopWorkers()
	s.gen.Add(1)
	s.cfg = next
	s.allocate(n)
	s.readback.clear()
	s.clamp.reset()
	s.skipNext = true
	slog.Info("fluid grid resized", "tick", s.tick, "grid", n)
	return nil
}

// Close stops the worker pool and releases the grid. Close is idempotent.
func (s *Solver) Close() {
	s.Sync()
	if s.closed {
		return
	}
	s.disp.stopWorkers()
	s.gen.Add(1)
	s.grid = nil
	s.residual = nil
	s.published = Field{}
	s.closed = true
}

func (s *Solver) startPhase(name string) {
	if s.timer != nil {
		s.timer.StartPhase(name)
	}
}

// runTick executes the full pipeline once.
func (s *Solver) runTick() TickResult {
	s.tick++
	if s.skipNext {
		s.skipNext = false
		slog.Info("tick skipped while buffers settle", "tick", s.tick)
		return TickResult{Tick: s.tick, Skipped: true, Bodies: len(s.bodies)}
	}

	g := s.grid
	n := g.Size()
	c := &s.cfg
	s.clamped.Store(0)

	s.startPhase(PhaseInject)
	s.disp.dispatch(injectKernel(n, g.CurrentVelocity(), g.NextVelocity(), s.bodies, c.ForceMultiplier))
	g.SwapVelocity()

	// Advection writes into the buffer the previous tick published.
	s.startPhase(PhaseAdvect)
	s.gen.Add(1)
	s.disp.dispatch(advectKernel(n, g.CurrentVelocity(), g.NextVelocity(), c.DT, c.Viscosity, c.MaxVelocity, &s.clamped))
	g.SwapVelocity()

	s.startPhase(PhaseDivergence)
	s.disp.dispatch(divergenceKernel(n, g.CurrentVelocity(), g.Divergence()))

	var diag Diagnostics
	if c.Diagnostics {
		diag.DivergenceBefore = MeanAbs(g.Divergence())
	}

	s.startPhase(PhaseRelax)
	relax(s.disp, g, c.JacobiIterations, c.PressureRetention)

	s.startPhase(PhaseProject)
	s.disp.dispatch(projectKernel(n, g.CurrentVelocity(), g.CurrentPressure(), g.NextVelocity(), c.MaxVelocity, &s.clamped))
	g.SwapVelocity()

	s.startPhase(PhasePublish)
	s.publish()
	s.readback.fulfill(s.published)

	if c.Diagnostics {
		vel := g.CurrentVelocity()
		s.disp.dispatch(divergenceKernel(n, vel, s.residual))
		diag.DivergenceAfter = MeanAbs(s.residual)
		diag.Energy = KineticEnergy(vel)
		diag.PeakSpeed = PeakSpeed(vel)
	}

	clamped := int(s.clamped.Load())
	if s.clamp.observe(clamped) {
		slog.Warn("velocity clamping sustained",
			"tick", s.tick,
			"ticks", s.clamp.streak,
			"cells", clamped,
			"max_velocity", c.MaxVelocity,
		)
	}

	return TickResult{
		Tick:        s.tick,
		Bodies:      len(s.bodies),
		Clamped:     clamped,
		Diagnostics: diag,
	}
}

// publish points the published handle at the current velocity buffer.
func (s *Solver) publish() {
	s.published = Field{
		data:  s.grid.CurrentVelocity(),
		n:     s.grid.Size(),
		tick:  s.tick,
		gen:   s.gen.Load(),
		owner: &s.gen,
	}
}
