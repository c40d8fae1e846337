package arena

import (
	"math"
	"testing"

	"github.com/pthm-cable/wake/config"
	"github.com/pthm-cable/wake/fluid"
)

func emptyArena(t *testing.T) (*Arena, *config.Config) {
	t.Helper()
	cfg := config.Defaults()
	cfg.Arena.Ships = 0
	return New(cfg, 1), cfg
}

func TestWorldToGrid(t *testing.T) {
	a, _ := emptyArena(t)

	tests := []struct {
		name   string
		x, y   float32
		gx, gy float32
	}{
		{"center", 0, 0, 128, 128},
		{"top left", -1000, 1000, 0, 0},
		{"bottom right", 1000, -1000, 256, 256},
		{"up is lower grid y", 0, 500, 128, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gx, gy := a.WorldToGrid(tt.x, tt.y)
			if math.Abs(float64(gx-tt.gx)) > 1e-3 || math.Abs(float64(gy-tt.gy)) > 1e-3 {
				t.Errorf("expected (%v,%v), got (%v,%v)", tt.gx, tt.gy, gx, gy)
			}
			x, y := a.GridToWorld(gx, gy)
			if math.Abs(float64(x-tt.x)) > 1e-2 || math.Abs(float64(y-tt.y)) > 1e-2 {
				t.Errorf("round trip gave (%v,%v)", x, y)
			}
		})
	}
}

func TestNew_SpawnsConfiguredShips(t *testing.T) {
	cfg := config.Defaults()
	a := New(cfg, 7)
	if a.Ships() != cfg.Arena.Ships {
		t.Fatalf("expected %d ships, got %d", cfg.Arena.Ships, a.Ships())
	}

	views := a.ShipsInto(nil)
	for _, v := range views {
		if math.Abs(float64(v.X)) > 1000 || math.Abs(float64(v.Y)) > 1000 {
			t.Errorf("ship %d spawned outside the arena at (%v,%v)", v.ID, v.X, v.Y)
		}
		speed := math.Hypot(float64(v.VX), float64(v.VY))
		if speed < cfg.Arena.MinSpeed-1e-3 || speed > cfg.Arena.MaxSpeed+1e-3 {
			t.Errorf("ship %d speed %v outside cruise range", v.ID, speed)
		}
	}
}

func TestUpdate_FollowsOrbit(t *testing.T) {
	a, _ := emptyArena(t)
	a.Spawn(100, -50, 400, 80, 0, 1)

	for i := 0; i < 120; i++ {
		a.Update(1.0 / 60)
	}

	v := a.ShipsInto(nil)[0]
	r := math.Hypot(float64(v.X-100), float64(v.Y+50))
	if math.Abs(r-400) > 0.1 {
		t.Errorf("expected ship to stay on its 400 unit orbit, radius %v", r)
	}
	// 2 seconds at 80 u/s on a 400 orbit is 0.4 rad counter-clockwise.
	angle := math.Atan2(float64(v.Y+50), float64(v.X-100))
	if math.Abs(angle-0.4) > 1e-3 {
		t.Errorf("expected angle 0.4, got %v", angle)
	}
}

func TestBodiesInto(t *testing.T) {
	a, cfg := emptyArena(t)
	a.Spawn(0, 0, 200, 100, math.Pi/2, 1) // at (0,200) moving -X
	a.Spawn(0, 0, 300, 0.5, 0, 1)         // too slow to leave a wake
	a.Spawn(5000, 0, 100, 100, 0, 1)      // off the grid

	bodies := a.BodiesInto(nil)
	if len(bodies) != 1 {
		t.Fatalf("expected 1 wake body, got %d", len(bodies))
	}

	b := bodies[0]
	if math.Abs(float64(b.Position.X-128)) > 1e-3 || math.Abs(float64(b.Position.Y-102.4)) > 1e-3 {
		t.Errorf("unexpected grid position %+v", b.Position)
	}
	if math.Abs(float64(b.Velocity.X+100)) > 1e-3 || math.Abs(float64(b.Velocity.Y)) > 1e-3 {
		t.Errorf("unexpected velocity %+v", b.Velocity)
	}
	if b.Radius != float32(cfg.Wake.RadiusCells) {
		t.Errorf("expected radius %v, got %v", cfg.Wake.RadiusCells, b.Radius)
	}
}

func TestBodiesInto_FlipsVerticalVelocity(t *testing.T) {
	a, _ := emptyArena(t)
	a.Spawn(0, 0, 200, 100, 0, 1) // at (200,0) moving +Y in world

	bodies := a.BodiesInto(nil)
	if len(bodies) != 1 {
		t.Fatalf("expected 1 body, got %d", len(bodies))
	}
	if bodies[0].Velocity.Y >= 0 {
		t.Errorf("expected upward world motion to be negative grid Y, got %v", bodies[0].Velocity.Y)
	}
}

func TestCoupling_PushesShipsWithReadback(t *testing.T) {
	cfg := config.Defaults()
	cfg.Arena.Ships = 0
	cfg.Fluid.GridSize = 32
	cfg.Coupling.Enabled = true
	a := New(cfg, 1)
	a.SetGrid(float32(cfg.Fluid.ArenaSize), 32)
	a.Spawn(0, 0, 300, 100, 0, 1)

	solver, err := fluid.New(fluid.FromConfig(cfg))
	if err != nil {
		t.Fatal(err)
	}
	defer solver.Close()

	c := NewCoupling(cfg.Coupling, solver.Readback())
	dt := cfg.Derived.DT32

	if n := c.Apply(a, dt); n != 0 {
		t.Fatalf("expected no coupling before any readback, got %d", n)
	}

	var bodies []fluid.Body
	for i := 0; i < 5; i++ {
		a.Update(dt)
		bodies = a.BodiesInto(bodies[:0])
		c.Request(a)
		solver.Step(bodies)
	}

	if n := c.Apply(a, dt); n != 1 {
		t.Fatalf("expected 1 coupled ship, got %d", n)
	}

	query := a.shipFilter.Query()
	for query.Next() {
		_, _, _, _, drift := query.Get()
		if drift.VX == 0 && drift.VY == 0 {
			t.Error("expected water drag to produce drift")
		}
	}
}
