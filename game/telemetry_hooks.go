package game

import (
	"log/slog"

	"github.com/pthm-cable/wake/telemetry"
)

// flushTelemetry closes the stats window when it is due, logging and writing
// both the solver stats and the perf breakdown.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	// Speeds are sampled only at window end; an overwritten field yields none.
	g.speeds = g.speeds[:0]
	if f := g.solver.Published(); f.Valid() {
		g.speeds = telemetry.FieldSpeeds(g.speeds, f)
	}

	stats := g.collector.Flush(g.tick, g.arena.Ships(), g.speeds)
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}
