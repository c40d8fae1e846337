package fluid

// jacobiKernel performs one Jacobi sweep of the pressure Poisson equation.
// Neighbor reads are scaled by retain; the first sweep of a tick passes the
// pressure retention there and later sweeps pass 1.
func jacobiKernel(n int, src, dst, div []float32, retain float32) tileKernel {
	return func(x0, y0, x1, y1 int) {
		for y := y0; y < y1; y++ {
			yb := clampIndex(y-1, n) * n
			yt := clampIndex(y+1, n) * n
			row := y * n
			for x := x0; x < x1; x++ {
				xl := clampIndex(x-1, n)
				xr := clampIndex(x+1, n)
				sum := src[row+xl] + src[row+xr] + src[yt+x] + src[yb+x]
				dst[row+x] = 0.25 * (retain*sum - div[row+x])
			}
		}
	}
}

// relax runs k Jacobi iterations, swapping the pressure pair after each one so
// no iteration reads a value written during itself.
func relax(d *dispatcher, g *Grid, k int, retention float32) {
	n := g.Size()
	div := g.Divergence()
	for i := 0; i < k; i++ {
		retain := float32(1)
		if i == 0 {
			retain = retention
		}
		d.dispatch(jacobiKernel(n, g.CurrentPressure(), g.NextPressure(), div, retain))
		g.SwapPressure()
	}
}
