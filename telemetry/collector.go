package telemetry

import (
	"math"

	"github.com/pthm-cable/wake/fluid"
)

// Collector accumulates tick results within time windows and produces
// WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks uint64
	dt                  float32

	// Current window tracking
	windowStartTick uint64

	// Counters for current window
	ticks        int
	skipped      int
	clampTicks   int
	clampedCells int
	bodies       int

	// Per-tick samples for current window
	energies  []float64
	ratios    []float64
	divBefore float64
	divAfter  float64
	diagTicks int
	peakSpeed float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := uint64(math.Round(windowDurationSec / float64(dt)))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordTick folds one solver tick into the current window.
func (c *Collector) RecordTick(res fluid.TickResult) {
	c.ticks++
	c.bodies += res.Bodies
	if res.Skipped {
		c.skipped++
		return
	}
	if res.Clamped > 0 {
		c.clampTicks++
		c.clampedCells += res.Clamped
	}

	d := res.Diagnostics
	if d.DivergenceBefore == 0 && d.Energy == 0 {
		return
	}
	c.diagTicks++
	c.energies = append(c.energies, d.Energy)
	c.ratios = append(c.ratios, d.ResidualRatio())
	c.divBefore += d.DivergenceBefore
	c.divAfter += d.DivergenceAfter
	c.peakSpeed = math.Max(c.peakSpeed, float64(d.PeakSpeed))
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick uint64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// speeds are the cell speeds of the published field at window end; pass nil
// to skip the distribution.
func (c *Collector) Flush(currentTick uint64, ships int, speeds []float64) WindowStats {
	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),
		Ships:           ships,
		Ticks:           c.ticks,
		SkippedTicks:    c.skipped,
		ClampTicks:      c.clampTicks,
		ClampedCells:    c.clampedCells,
		PeakSpeedMax:    c.peakSpeed,
	}

	if c.ticks > 0 {
		stats.MeanBodies = float64(c.bodies) / float64(c.ticks)
	}
	if c.diagTicks > 0 {
		stats.DivBeforeMean = c.divBefore / float64(c.diagTicks)
		stats.DivAfterMean = c.divAfter / float64(c.diagTicks)
	}

	stats.EnergyMean, _, stats.EnergyP50, stats.EnergyP90, _ = ComputeDistribution(c.energies)
	_, _, stats.ResidualRatioP50, stats.ResidualRatioP90, _ = ComputeDistribution(c.ratios)
	stats.SpeedMean, stats.SpeedStd, stats.SpeedP50, _, stats.SpeedP99 = ComputeDistribution(speeds)

	// Reset for next window
	c.windowStartTick = currentTick
	c.ticks = 0
	c.skipped = 0
	c.clampTicks = 0
	c.clampedCells = 0
	c.bodies = 0
	c.energies = c.energies[:0]
	c.ratios = c.ratios[:0]
	c.divBefore = 0
	c.divAfter = 0
	c.diagTicks = 0
	c.peakSpeed = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() uint64 {
	return c.windowDurationTicks
}

// FieldSpeeds appends the speed of every cell of f to dst.
func FieldSpeeds(dst []float64, f fluid.Field) []float64 {
	n := f.Size()
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			dst = append(dst, float64(f.Speed(x, y)))
		}
	}
	return dst
}
