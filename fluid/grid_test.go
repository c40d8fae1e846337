package fluid

import "testing"

func fillPattern(buf []float32, base float32) {
	for i := range buf {
		buf[i] = base + float32(i)
	}
}

func TestGrid_SwapSentinels(t *testing.T) {
	g := NewGrid(8)

	fillPattern(g.CurrentVelocity(), 1000)
	fillPattern(g.NextVelocity(), -1000)
	fillPattern(g.CurrentPressure(), 500)
	fillPattern(g.NextPressure(), -500)

	g.SwapVelocity()
	g.SwapPressure()

	if got := g.CurrentVelocity()[3]; got != -997 {
		t.Errorf("expected current velocity to be the former write target, got %v", got)
	}
	if got := g.NextVelocity()[3]; got != 1003 {
		t.Errorf("expected former current velocity untouched, got %v", got)
	}
	if got := g.CurrentPressure()[7]; got != -493 {
		t.Errorf("expected current pressure to be the former write target, got %v", got)
	}

	// An even number of swaps returns to the original assignment.
	for i := 0; i < 5; i++ {
		g.SwapVelocity()
	}
	if got := g.CurrentVelocity()[0]; got != 1000 {
		t.Errorf("expected original buffer after an even number of swaps, got %v", got)
	}
}

func TestGrid_SwapDoesNotCopy(t *testing.T) {
	g := NewGrid(4)
	a := &g.CurrentVelocity()[0]
	b := &g.NextVelocity()[0]

	g.SwapVelocity()
	if &g.CurrentVelocity()[0] != b || &g.NextVelocity()[0] != a {
		t.Error("expected swap to exchange buffer identity without reallocation")
	}
}

func TestGrid_StageWritesOnlyTarget(t *testing.T) {
	const n = 8
	g := NewGrid(n)
	d := newDispatcher(n, 4, 2, 0)
	defer d.stopWorkers()

	src := g.CurrentVelocity()
	for i := range src {
		src[i] = 1
	}
	fillPattern(g.NextVelocity(), 9999)
	before := append([]float32(nil), src...)

	d.dispatch(injectKernel(n, g.CurrentVelocity(), g.NextVelocity(),
		[]Body{{Position: Vec2{4, 4}, Velocity: Vec2{2, 0}, Radius: 2}}, 0.5))
	g.SwapVelocity()

	for i := range before {
		if g.NextVelocity()[i] != before[i] {
			t.Fatalf("read buffer modified at %d: %v -> %v", i, before[i], g.NextVelocity()[i])
		}
	}
	for i, v := range g.CurrentVelocity() {
		if v >= 9999 {
			t.Fatalf("sentinel survived at %d: every cell should have been written", i)
		}
	}
}

func TestGrid_Clear(t *testing.T) {
	g := NewGrid(4)
	fillPattern(g.CurrentVelocity(), 1)
	fillPattern(g.NextPressure(), 1)
	fillPattern(g.Divergence(), 1)

	g.Clear()

	for _, buf := range [][]float32{g.CurrentVelocity(), g.NextVelocity(), g.CurrentPressure(), g.NextPressure(), g.Divergence()} {
		for i, v := range buf {
			if v != 0 {
				t.Fatalf("expected zero after clear, got %v at %d", v, i)
			}
		}
	}
}
