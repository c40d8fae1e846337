package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.0},
		{"below zero clamps", []float64{1, 2, 3}, -1, 1.0},
		{"above one clamps", []float64{1, 2, 3}, 2, 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeDistribution(t *testing.T) {
	values := []float64{4, 2, 8, 6}
	mean, std, p50, p90, p99 := ComputeDistribution(values)

	if math.Abs(mean-5) > 1e-9 {
		t.Errorf("mean = %v, want 5", mean)
	}
	// Population std of {2,4,6,8} is sqrt(5).
	if math.Abs(std-math.Sqrt(5)) > 1e-9 {
		t.Errorf("std = %v, want %v", std, math.Sqrt(5))
	}
	if p50 != 4 {
		t.Errorf("p50 = %v, want 4", p50)
	}
	if p90 != 8 || p99 != 8 {
		t.Errorf("p90/p99 = %v/%v, want 8", p90, p99)
	}
	if values[0] != 4 {
		t.Error("input must not be reordered")
	}
}

func TestComputeDistributionEmpty(t *testing.T) {
	mean, std, p50, p90, p99 := ComputeDistribution(nil)

	if mean != 0 || std != 0 || p50 != 0 || p90 != 0 || p99 != 0 {
		t.Error("empty slice should return all zeros")
	}
}
