package fluid

import "testing"

func TestRelax_WorkerCountIndependent(t *testing.T) {
	const n = 32
	solve := func(workers int) []float32 {
		g := NewGrid(n)
		d := newDispatcher(n, 8, workers, 0)
		defer d.stopWorkers()

		seedSmooth(g.CurrentVelocity(), n)
		d.dispatch(divergenceKernel(n, g.CurrentVelocity(), g.Divergence()))
		relax(d, g, 25, 1)
		return append([]float32(nil), g.CurrentPressure()...)
	}

	a := solve(1)
	b := solve(7)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("pressure %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestRelax_RetentionScalesWarmStart(t *testing.T) {
	const n = 8
	g := NewGrid(n)
	d := newDispatcher(n, 4, 1, 0)

	// Zero divergence: one sweep only averages the retained neighbors.
	for i := range g.CurrentPressure() {
		g.CurrentPressure()[i] = 2
	}
	relax(d, g, 1, 0.5)

	for i, p := range g.CurrentPressure() {
		if p != 1 {
			t.Fatalf("expected retained pressure 1 at %d, got %v", i, p)
		}
	}

	for i := range g.CurrentPressure() {
		g.CurrentPressure()[i] = 2
	}
	relax(d, g, 1, 0)
	for i, p := range g.CurrentPressure() {
		if p != 0 {
			t.Fatalf("expected cold start at %d, got %v", i, p)
		}
	}
}

func TestDivergence_UniformFlowIsFree(t *testing.T) {
	const n = 8
	g := NewGrid(n)
	d := newDispatcher(n, 4, 2, 0)
	defer d.stopWorkers()

	for i := 0; i < n*n; i++ {
		g.CurrentVelocity()[i*2] = 3
		g.CurrentVelocity()[i*2+1] = -1
	}
	d.dispatch(divergenceKernel(n, g.CurrentVelocity(), g.Divergence()))

	if m := MeanAbs(g.Divergence()); m != 0 {
		t.Errorf("expected zero divergence for uniform flow, got %v", m)
	}
}

// With clamped edges a uniform divergence only moves the constant pressure
// mode, by k*div/4 per tick. Retention r below one bounds it at
// k*div/(4*(1-r)); full retention lets it walk.
func TestRelax_RetentionBoundsConstantMode(t *testing.T) {
	const (
		n     = 16
		k     = 20
		div   = 0.01
		ticks = 1000
	)
	run := func(retention float32) []float32 {
		g := NewGrid(n)
		d := newDispatcher(n, 4, 2, 0)
		defer d.stopWorkers()
		for i := range g.Divergence() {
			g.Divergence()[i] = div
		}
		for i := 0; i < ticks; i++ {
			relax(d, g, k, retention)
		}
		return append([]float32(nil), g.CurrentPressure()...)
	}

	// Fixed point of p' = 0.5p - k*div/4.
	bound := float32(k * div / 2)
	for i, p := range run(0.5) {
		if p > 0 || -p > bound*1.001 {
			t.Fatalf("retention 0.5: expected pressure in [-%v, 0] at %d, got %v", bound, i, p)
		}
	}

	drifted := run(1)
	if want := float32(ticks * k * div / 4); -drifted[0] < want*0.9 {
		t.Errorf("retention 1: expected constant mode near -%v, got %v", want, drifted[0])
	}
}
