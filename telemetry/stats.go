package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated solver statistics for a time window.
type WindowStats struct {
	WindowStartTick uint64  `csv:"-"`
	WindowEndTick   uint64  `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Host state at window end
	Ships      int     `csv:"ships"`
	MeanBodies float64 `csv:"mean_bodies"` // Wake-producing bodies per tick

	// Events during window
	Ticks        int `csv:"ticks"`
	SkippedTicks int `csv:"skipped_ticks"`
	ClampTicks   int `csv:"clamp_ticks"` // Ticks where at least one cell was bounded
	ClampedCells int `csv:"clamped_cells"`

	// Kinetic energy Σ|v|² per tick
	EnergyMean float64 `csv:"energy_mean"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`

	// Pressure solve quality
	DivBeforeMean    float64 `csv:"div_before_mean"`
	DivAfterMean     float64 `csv:"div_after_mean"`
	ResidualRatioP50 float64 `csv:"residual_ratio_p50"`
	ResidualRatioP90 float64 `csv:"residual_ratio_p90"`

	// Peak cell speed over the window
	PeakSpeedMax float64 `csv:"peak_speed_max"`

	// Cell speed distribution of the published field at window end
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP99  float64 `csv:"speed_p99"`
}

// Percentile returns the empirical p-th quantile of a sorted slice.
// p is clamped to [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	p = min(max(p, 0), 1)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// ComputeDistribution calculates mean, standard deviation and percentiles.
// values is not modified.
func ComputeDistribution(values []float64) (mean, std, p50, p90, p99 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)
	if len(values) > 1 {
		std = stat.PopStdDev(values, nil)
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)
	p99 = Percentile(sorted, 0.99)

	return mean, std, p50, p90, p99
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("window_start", s.WindowStartTick),
		slog.Uint64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("ships", s.Ships),
		slog.Float64("mean_bodies", s.MeanBodies),
		slog.Int("ticks", s.Ticks),
		slog.Int("skipped_ticks", s.SkippedTicks),
		slog.Int("clamp_ticks", s.ClampTicks),
		slog.Int("clamped_cells", s.ClampedCells),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_p50", s.EnergyP50),
		slog.Float64("energy_p90", s.EnergyP90),
		slog.Float64("div_before_mean", s.DivBeforeMean),
		slog.Float64("div_after_mean", s.DivAfterMean),
		slog.Float64("residual_ratio_p50", s.ResidualRatioP50),
		slog.Float64("residual_ratio_p90", s.ResidualRatioP90),
		slog.Float64("peak_speed_max", s.PeakSpeedMax),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_std", s.SpeedStd),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p99", s.SpeedP99),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"ships", s.Ships,
		"mean_bodies", s.MeanBodies,
		"skipped_ticks", s.SkippedTicks,
		"clamp_ticks", s.ClampTicks,
		"energy_mean", s.EnergyMean,
		"residual_ratio_p50", s.ResidualRatioP50,
		"peak_speed_max", s.PeakSpeedMax,
		"speed_p99", s.SpeedP99,
	)
}
