package fluid

import "math"

// clampVelocity bounds a cell's velocity magnitude to maxVel and zeroes any
// non-finite component. The bool reports whether the value was changed.
func clampVelocity(vx, vy, maxVel float32) (float32, float32, bool) {
	if !finite(vx) || !finite(vy) {
		return 0, 0, true
	}
	mag2 := vx*vx + vy*vy
	if mag2 <= maxVel*maxVel {
		return vx, vy, false
	}
	s := maxVel / float32(math.Sqrt(float64(mag2)))
	return vx * s, vy * s, true
}

func finite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}

// clampTracker turns per-tick clamp counts into a streak so sustained
// blow-up is reported once rather than every tick.
type clampTracker struct {
	warnAfter int
	streak    int
	warned    bool
}

// observe records one tick's clamp count and reports whether the streak has
// just reached the warning threshold.
func (c *clampTracker) observe(clamped int) bool {
	if clamped == 0 {
		c.streak = 0
		c.warned = false
		return false
	}
	c.streak++
	if c.warnAfter > 0 && c.streak >= c.warnAfter && !c.warned {
		c.warned = true
		return true
	}
	return false
}

func (c *clampTracker) reset() {
	c.streak = 0
	c.warned = false
}
