package arena

import (
	"github.com/pthm-cable/wake/config"
	"github.com/pthm-cable/wake/fluid"
)

// Coupling pushes ships with the water under them. Water velocity comes from
// the solver's asynchronous readback, so it is at least one tick old.
type Coupling struct {
	drag   float32
	region int
	rb     *fluid.Readback
}

// NewCoupling creates a coupling reading from rb.
func NewCoupling(cfg config.CouplingConfig, rb *fluid.Readback) *Coupling {
	return &Coupling{
		drag:   float32(cfg.Drag),
		region: max(1, cfg.Region),
		rb:     rb,
	}
}

// Request queues a readback of the cells under every ship.
func (c *Coupling) Request(a *Arena) {
	half := c.region / 2
	query := a.shipFilter.Query()
	for query.Next() {
		pos, _, hull, _, _ := query.Get()
		gx, gy := a.WorldToGrid(pos.X, pos.Y)
		if !a.inGrid(gx, gy) {
			c.rb.Forget(hull.ID)
			continue
		}
		c.rb.Request(hull.ID, fluid.Region{
			X: int(gx) - half,
			Y: int(gy) - half,
			W: c.region,
			H: c.region,
		})
	}
}

// Apply adds drag toward the sampled water velocity to every ship with a
// snapshot and returns how many ships were affected.
func (c *Coupling) Apply(a *Arena, dt float32) int {
	coupled := 0
	query := a.shipFilter.Query()
	for query.Next() {
		_, vel, hull, _, drift := query.Get()
		snap, ok := c.rb.Latest(hull.ID)
		if !ok || len(snap.Data) == 0 {
			continue
		}

		wx, wy := snap.Mean()
		wy = -wy // back to world orientation

		fx := (wx - vel.X) * c.drag
		fy := (wy - vel.Y) * c.drag
		drift.VX += fx * dt
		drift.VY += fy * dt
		coupled++
	}
	return coupled
}
