package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/wake/fluid"
)

func TestCollector_FlushAggregatesWindow(t *testing.T) {
	c := NewCollector(1.0, 0.1) // 10 ticks per window

	if c.WindowDurationTicks() != 10 {
		t.Fatalf("expected 10 ticks per window, got %d", c.WindowDurationTicks())
	}

	c.RecordTick(fluid.TickResult{Tick: 1, Skipped: true, Bodies: 2})
	for i := 2; i <= 10; i++ {
		c.RecordTick(fluid.TickResult{
			Tick:    uint64(i),
			Bodies:  2,
			Clamped: i % 2,
			Diagnostics: fluid.Diagnostics{
				Energy:           float64(i),
				DivergenceBefore: 1.0,
				DivergenceAfter:  0.25,
				PeakSpeed:        float32(i),
			},
		})
	}

	if c.ShouldFlush(9) {
		t.Error("window should not flush before 10 ticks")
	}
	if !c.ShouldFlush(10) {
		t.Error("window should flush at 10 ticks")
	}

	stats := c.Flush(10, 6, []float64{1, 2, 3, 4})

	if stats.Ticks != 10 || stats.SkippedTicks != 1 {
		t.Errorf("expected 10 ticks with 1 skipped, got %d/%d", stats.Ticks, stats.SkippedTicks)
	}
	if stats.ClampTicks != 4 || stats.ClampedCells != 4 {
		t.Errorf("expected 4 clamping ticks (odd ticks 3..9), got %d ticks %d cells", stats.ClampTicks, stats.ClampedCells)
	}
	if stats.MeanBodies != 2 {
		t.Errorf("expected 2 bodies per tick, got %v", stats.MeanBodies)
	}
	if math.Abs(stats.ResidualRatioP50-0.25) > 1e-9 {
		t.Errorf("expected residual ratio 0.25, got %v", stats.ResidualRatioP50)
	}
	if stats.PeakSpeedMax != 10 {
		t.Errorf("expected peak speed 10, got %v", stats.PeakSpeedMax)
	}
	if math.Abs(stats.EnergyMean-6) > 1e-9 {
		t.Errorf("expected mean energy 6, got %v", stats.EnergyMean)
	}
	if math.Abs(stats.SimTimeSec-1.0) > 1e-6 {
		t.Errorf("expected sim time 1.0, got %v", stats.SimTimeSec)
	}
	if stats.Ships != 6 || stats.SpeedP99 != 4 {
		t.Errorf("unexpected host fields %+v", stats)
	}

	next := c.Flush(20, 6, nil)
	if next.Ticks != 0 || next.EnergyMean != 0 || next.WindowStartTick != 10 {
		t.Errorf("expected counters reset after flush, got %+v", next)
	}
}
