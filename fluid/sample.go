package fluid

import "math"

// sampleBilinear reads the interleaved velocity field at grid-space point
// (px, py). The point is clamped to [0.5, n-0.5] on both axes so the four taps
// always land on real cells; edges clamp, they never wrap.
func sampleBilinear(vel []float32, n int, px, py float32) (float32, float32) {
	lo := float32(0.5)
	hi := float32(n) - 0.5
	// min and max propagate NaN, which would index out of range.
	if px != px {
		px = lo
	}
	if py != py {
		py = lo
	}
	px = min(max(px, lo), hi)
	py = min(max(py, lo), hi)

	fx := px - 0.5
	fy := py - 0.5
	x0 := int(math.Floor(float64(fx)))
	y0 := int(math.Floor(float64(fy)))
	tx := fx - float32(x0)
	ty := fy - float32(y0)
	x1 := min(x0+1, n-1)
	y1 := min(y0+1, n-1)

	i00 := (y0*n + x0) * 2
	i10 := (y0*n + x1) * 2
	i01 := (y1*n + x0) * 2
	i11 := (y1*n + x1) * 2

	w00 := (1 - tx) * (1 - ty)
	w10 := tx * (1 - ty)
	w01 := (1 - tx) * ty
	w11 := tx * ty

	vx := vel[i00]*w00 + vel[i10]*w10 + vel[i01]*w01 + vel[i11]*w11
	vy := vel[i00+1]*w00 + vel[i10+1]*w10 + vel[i01+1]*w01 + vel[i11+1]*w11
	return vx, vy
}
