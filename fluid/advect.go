package fluid

import "sync/atomic"

// advectKernel moves velocity along itself: each cell traces back from its
// center by v*dt, samples src there, decays the result by viscosity and writes
// the bounded value into dst.
func advectKernel(n int, src, dst []float32, dt, viscosity, maxVel float32, clamped *atomic.Int64) tileKernel {
	return func(x0, y0, x1, y1 int) {
		var local int64
		for y := y0; y < y1; y++ {
			cy := float32(y) + 0.5
			for x := x0; x < x1; x++ {
				idx := (y*n + x) * 2
				px := float32(x) + 0.5 - src[idx]*dt
				py := cy - src[idx+1]*dt

				vx, vy := sampleBilinear(src, n, px, py)
				vx, vy, c := clampVelocity(vx*viscosity, vy*viscosity, maxVel)
				if c {
					local++
				}
				dst[idx] = vx
				dst[idx+1] = vy
			}
		}
		if local > 0 {
			clamped.Add(local)
		}
	}
}
