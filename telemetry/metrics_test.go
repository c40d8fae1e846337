package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/pthm-cable/wake/fluid"
)

func TestObserveTick(t *testing.T) {
	computed := testutil.ToFloat64(SolverTicks.WithLabelValues("computed"))
	skipped := testutil.ToFloat64(SolverTicks.WithLabelValues("skipped"))
	clamped := testutil.ToFloat64(ClampedCells)

	ObserveTick(fluid.TickResult{Skipped: true}, 0.001)
	ObserveTick(fluid.TickResult{
		Bodies:      3,
		Clamped:     5,
		Diagnostics: fluid.Diagnostics{Energy: 42, PeakSpeed: 7},
	}, 0.002)

	if got := testutil.ToFloat64(SolverTicks.WithLabelValues("computed")) - computed; got != 1 {
		t.Errorf("expected 1 computed tick, got %v", got)
	}
	if got := testutil.ToFloat64(SolverTicks.WithLabelValues("skipped")) - skipped; got != 1 {
		t.Errorf("expected 1 skipped tick, got %v", got)
	}
	if got := testutil.ToFloat64(ClampedCells) - clamped; got != 5 {
		t.Errorf("expected 5 clamped cells, got %v", got)
	}
	if got := testutil.ToFloat64(SolverGauges.WithLabelValues("energy")); got != 42 {
		t.Errorf("expected energy gauge 42, got %v", got)
	}
	if got := testutil.ToFloat64(SolverGauges.WithLabelValues("bodies")); got != 3 {
		t.Errorf("expected bodies gauge 3, got %v", got)
	}
}
