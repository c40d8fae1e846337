// Package config provides configuration loading and access for the wake solver.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure returned from Validate.
var ErrInvalid = errors.New("invalid config")

// Config holds all configuration parameters.
type Config struct {
	Fluid     FluidConfig     `yaml:"fluid"`
	Wake      WakeConfig      `yaml:"wake"`
	Arena     ArenaConfig     `yaml:"arena"`
	Coupling  CouplingConfig  `yaml:"coupling"`
	Render    RenderConfig    `yaml:"render"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Stream    StreamConfig    `yaml:"stream"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// FluidConfig holds solver parameters. All of them are fixed at scene start.
type FluidConfig struct {
	GridSize          int     `yaml:"grid_size"`          // N, cells per side
	ArenaSize         float64 `yaml:"arena_size"`         // World units covered by the grid
	Viscosity         float64 `yaml:"viscosity"`          // Per-tick velocity decay, (0,1)
	PressureRetention float64 `yaml:"pressure_retention"` // Warm-start scale for the previous pressure, [0,1]
	JacobiIterations  int     `yaml:"jacobi_iterations"`  // K
	TileSize          int     `yaml:"tile_size"`          // Cells per tile side
	TickRate          float64 `yaml:"tick_rate"`          // Ticks per second
	MaxVelocity       float64 `yaml:"max_velocity"`       // Per-cell magnitude bound
	ClampWarnTicks    int     `yaml:"clamp_warn_ticks"`   // Consecutive clamping ticks before warning
	ParallelThreshold int     `yaml:"parallel_threshold"` // Tiles below which dispatch runs inline
	Diagnostics       bool    `yaml:"diagnostics"`        // Compute energy/divergence every tick
}

// WakeConfig holds ship wake injection parameters.
type WakeConfig struct {
	ForceMultiplier float64 `yaml:"force_multiplier"`
	RadiusCells     float64 `yaml:"radius_cells"` // Splat radius in grid cells
	MinSpeed        float64 `yaml:"min_speed"`    // Ships slower than this leave no wake (world units/s)
}

// ArenaConfig holds the demo host simulation parameters.
type ArenaConfig struct {
	Ships      int     `yaml:"ships"`
	MinOrbit   float64 `yaml:"min_orbit"`   // Orbit radius range, world units
	MaxOrbit   float64 `yaml:"max_orbit"`
	MinSpeed   float64 `yaml:"min_speed"`   // Cruise speed range, world units/s
	MaxSpeed   float64 `yaml:"max_speed"`
	HullRadius float64 `yaml:"hull_radius"` // World units
}

// CouplingConfig holds the optional water-to-ship drift parameters.
type CouplingConfig struct {
	Enabled bool    `yaml:"enabled"`
	Drag    float64 `yaml:"drag"`   // Force per unit of relative velocity
	Region  int     `yaml:"region"` // Readback window side, cells
}

// RenderConfig holds visualization consumer settings.
type RenderConfig struct {
	ScreenWidth  int     `yaml:"screen_width"`
	ScreenHeight int     `yaml:"screen_height"`
	TargetFPS    int     `yaml:"target_fps"`
	MaxSpeed     float64 `yaml:"max_speed"` // Speed mapped to the top color band
	Bands        int     `yaml:"bands"`     // Color quantization steps
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"` // Seconds of simulation per stats window
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// StreamConfig holds websocket stream parameters.
type StreamConfig struct {
	Addr        string `yaml:"addr"`
	FrameEvery  int    `yaml:"frame_every"`  // Broadcast every N ticks
	ClientQueue int    `yaml:"client_queue"` // Frames buffered per client before dropping
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32          float32 // 1 / TickRate
	GridScale32   float32 // Grid cells per world unit
	TilesPerSide  int     // GridSize / TileSize
	MaxVelocity32 float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Defaults returns a fresh copy of the embedded defaults.
func Defaults() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate rejects configurations the solver cannot run. Grid/tile mismatches
// are caught here rather than at dispatch time.
func (c *Config) Validate() error {
	f := c.Fluid
	switch {
	case f.GridSize <= 0:
		return fmt.Errorf("%w: fluid.grid_size must be positive, got %d", ErrInvalid, f.GridSize)
	case f.TileSize <= 0:
		return fmt.Errorf("%w: fluid.tile_size must be positive, got %d", ErrInvalid, f.TileSize)
	case f.GridSize%f.TileSize != 0:
		return fmt.Errorf("%w: fluid.grid_size %d is not divisible by fluid.tile_size %d", ErrInvalid, f.GridSize, f.TileSize)
	case f.ArenaSize <= 0:
		return fmt.Errorf("%w: fluid.arena_size must be positive", ErrInvalid)
	case f.Viscosity <= 0 || f.Viscosity >= 1:
		return fmt.Errorf("%w: fluid.viscosity must be in (0,1), got %v", ErrInvalid, f.Viscosity)
	case f.PressureRetention < 0 || f.PressureRetention > 1:
		return fmt.Errorf("%w: fluid.pressure_retention must be in [0,1], got %v", ErrInvalid, f.PressureRetention)
	case f.JacobiIterations < 1:
		return fmt.Errorf("%w: fluid.jacobi_iterations must be at least 1", ErrInvalid)
	case f.TickRate <= 0:
		return fmt.Errorf("%w: fluid.tick_rate must be positive", ErrInvalid)
	case f.MaxVelocity <= 0:
		return fmt.Errorf("%w: fluid.max_velocity must be positive", ErrInvalid)
	case c.Wake.RadiusCells < 0:
		return fmt.Errorf("%w: wake.radius_cells must not be negative", ErrInvalid)
	case c.Render.Bands < 1:
		return fmt.Errorf("%w: render.bands must be at least 1", ErrInvalid)
	case c.Render.MaxSpeed <= 0:
		return fmt.Errorf("%w: render.max_speed must be positive", ErrInvalid)
	}
	return nil
}

// Refresh validates c and recomputes derived values after fields were
// changed in code.
func (c *Config) Refresh() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(1.0 / c.Fluid.TickRate)
	c.Derived.GridScale32 = float32(float64(c.Fluid.GridSize) / c.Fluid.ArenaSize)
	c.Derived.TilesPerSide = c.Fluid.GridSize / c.Fluid.TileSize
	c.Derived.MaxVelocity32 = float32(c.Fluid.MaxVelocity)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
