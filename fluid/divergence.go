package fluid

// divergenceKernel writes the central-difference divergence of vel into div.
// Neighbors past an edge clamp to the edge cell.
func divergenceKernel(n int, vel, div []float32) tileKernel {
	return func(x0, y0, x1, y1 int) {
		for y := y0; y < y1; y++ {
			yb := clampIndex(y-1, n)
			yt := clampIndex(y+1, n)
			for x := x0; x < x1; x++ {
				xl := clampIndex(x-1, n)
				xr := clampIndex(x+1, n)

				right := vel[(y*n+xr)*2]
				left := vel[(y*n+xl)*2]
				top := vel[(yt*n+x)*2+1]
				bottom := vel[(yb*n+x)*2+1]

				div[y*n+x] = 0.5 * ((right - left) + (top - bottom))
			}
		}
	}
}
