package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pthm-cable/wake/fluid"
)

var (
	// SolverTicks counts solver ticks by outcome (computed, skipped).
	SolverTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wake_solver_ticks_total",
			Help: "Solver ticks by outcome",
		},
		[]string{"outcome"},
	)

	// SolverGauges tracks the latest per-tick solver diagnostics by type.
	SolverGauges = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wake_solver_gauges",
			Help: "Latest solver diagnostics by type",
		},
		[]string{"type"},
	)

	// ClampedCells counts cells bounded by the velocity clamp or NaN scrub.
	ClampedCells = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wake_solver_clamped_cells_total",
			Help: "Cells whose velocity was clamped or scrubbed",
		},
	)

	// TickSeconds tracks wall time per simulation tick.
	TickSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wake_tick_seconds",
			Help:    "Wall time per simulation tick in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
	)

	// StreamClients tracks connected stream viewers.
	StreamClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wake_stream_clients",
			Help: "Connected stream clients",
		},
	)

	// StreamFrames counts stream frames by outcome (sent, dropped).
	StreamFrames = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wake_stream_frames_total",
			Help: "Stream frames by outcome",
		},
		[]string{"outcome"},
	)
)

// ObserveTick exports one tick result to the metrics registry.
func ObserveTick(res fluid.TickResult, seconds float64) {
	TickSeconds.Observe(seconds)
	if res.Skipped {
		SolverTicks.WithLabelValues("skipped").Inc()
		return
	}
	SolverTicks.WithLabelValues("computed").Inc()
	ClampedCells.Add(float64(res.Clamped))

	d := res.Diagnostics
	SolverGauges.WithLabelValues("energy").Set(d.Energy)
	SolverGauges.WithLabelValues("divergence_before").Set(d.DivergenceBefore)
	SolverGauges.WithLabelValues("divergence_after").Set(d.DivergenceAfter)
	SolverGauges.WithLabelValues("peak_speed").Set(float64(d.PeakSpeed))
	SolverGauges.WithLabelValues("bodies").Set(float64(res.Bodies))
}
