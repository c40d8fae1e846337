package fluid

import "math"

// Body is a moving object that stirs the water this tick. Position and Radius
// are in grid cells; Velocity is in field units per second.
type Body struct {
	Position Vec2
	Velocity Vec2
	Radius   float32
}

// Vec2 is a 2D float32 vector.
type Vec2 struct {
	X, Y float32
}

// splatWeight is the Gaussian falloff of a body's wake: sigma is half the
// radius and the weight is exactly zero beyond the radius.
func splatWeight(d2, r float32) float32 {
	if r <= 0 || d2 > r*r {
		return 0
	}
	sigma := r * 0.5
	return float32(math.Exp(float64(-d2 / (2 * sigma * sigma))))
}

// injectKernel returns a kernel that copies src into dst and adds every
// body's splat. Each tile only visits the cells inside a body's bounding box.
func injectKernel(n int, src, dst []float32, bodies []Body, forceMult float32) tileKernel {
	return func(x0, y0, x1, y1 int) {
		for y := y0; y < y1; y++ {
			row := y * n * 2
			copy(dst[row+x0*2:row+x1*2], src[row+x0*2:row+x1*2])
		}

		for i := range bodies {
			b := &bodies[i]
			if b.Radius <= 0 {
				continue
			}
			bx0 := max(x0, int(math.Floor(float64(b.Position.X-b.Radius))))
			by0 := max(y0, int(math.Floor(float64(b.Position.Y-b.Radius))))
			bx1 := min(x1, int(math.Ceil(float64(b.Position.X+b.Radius)))+1)
			by1 := min(y1, int(math.Ceil(float64(b.Position.Y+b.Radius)))+1)
			if bx0 >= bx1 || by0 >= by1 {
				continue
			}

			fx := b.Velocity.X * forceMult
			fy := b.Velocity.Y * forceMult
			for y := by0; y < by1; y++ {
				dy := float32(y) + 0.5 - b.Position.Y
				for x := bx0; x < bx1; x++ {
					dx := float32(x) + 0.5 - b.Position.X
					w := splatWeight(dx*dx+dy*dy, b.Radius)
					if w == 0 {
						continue
					}
					idx := (y*n + x) * 2
					dst[idx] += w * fx
					dst[idx+1] += w * fy
				}
			}
		}
	}
}
