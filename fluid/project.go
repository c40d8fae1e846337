package fluid

import "sync/atomic"

// projectKernel subtracts the pressure gradient from vel and writes the
// bounded result into dst.
func projectKernel(n int, vel, pres, dst []float32, maxVel float32, clamped *atomic.Int64) tileKernel {
	return func(x0, y0, x1, y1 int) {
		var local int64
		for y := y0; y < y1; y++ {
			yb := clampIndex(y-1, n) * n
			yt := clampIndex(y+1, n) * n
			row := y * n
			for x := x0; x < x1; x++ {
				xl := clampIndex(x-1, n)
				xr := clampIndex(x+1, n)
				gx := 0.5 * (pres[row+xr] - pres[row+xl])
				gy := 0.5 * (pres[yt+x] - pres[yb+x])

				idx := (row + x) * 2
				vx, vy, c := clampVelocity(vel[idx]-gx, vel[idx+1]-gy, maxVel)
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
