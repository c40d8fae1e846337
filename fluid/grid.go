// Package fluid implements the grid-based incompressible fluid solver that
// drives the combat arena water: wake injection, semi-Lagrangian advection,
// divergence, Jacobi pressure relaxation and gradient projection, each run as
// a tiled data-parallel dispatch over ping-pong buffers.
package fluid

// Grid owns the solver's fields. Velocity and pressure are double-buffered;
// divergence is single-buffered. Velocity is stored interleaved
// ([vx0, vy0, vx1, vy1, ...]) with cell (x, y) at index y*N + x.
//
// The Grid does no computation. Swapping flips an index; buffers are never
// copied or reallocated outside of construction.
type Grid struct {
	n int

	vel  [2][]float32
	pres [2][]float32
	div  []float32

	velCur  int
	presCur int
}

// NewGrid allocates an n×n grid with every field zeroed.
func NewGrid(n int) *Grid {
	cells := n * n
	return &Grid{
		n: n,
		vel: [2][]float32{
			make([]float32, cells*2),
			make([]float32, cells*2),
		},
		pres: [2][]float32{
			make([]float32, cells),
			make([]float32, cells),
		},
		div: make([]float32, cells),
	}
}

// Size returns N.
func (g *Grid) Size() int { return g.n }

// Cells returns N*N.
func (g *Grid) Cells() int { return g.n * g.n }

// CurrentVelocity returns the authoritative velocity buffer.
func (g *Grid) CurrentVelocity() []float32 { return g.vel[g.velCur] }

// NextVelocity returns the velocity scratch buffer a stage writes into.
func (g *Grid) NextVelocity() []float32 { return g.vel[1-g.velCur] }

// SwapVelocity makes the last write target current.
func (g *Grid) SwapVelocity() { g.velCur ^= 1 }

// CurrentPressure returns the authoritative pressure buffer.
func (g *Grid) CurrentPressure() []float32 { return g.pres[g.presCur] }

// NextPressure returns the pressure scratch buffer.
func (g *Grid) NextPressure() []float32 { return g.pres[1-g.presCur] }

// SwapPressure makes the last write target current.
func (g *Grid) SwapPressure() { g.presCur ^= 1 }

// Divergence returns the divergence field.
func (g *Grid) Divergence() []float32 { return g.div }

// Clear zeroes every buffer. Only reset and resize call this; clearing between
// ticks destroys the advected history.
func (g *Grid) Clear() {
	for i := range g.vel {
		clear(g.vel[i])
		clear(g.pres[i])
	}
	clear(g.div)
}

// clampIndex constrains i to [0, n-1]. Edge cells sample themselves in place
// of a missing neighbor.
func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
