package fluid

import (
	"math"
	"sync/atomic"
)

// Field is a read-only view of the velocity published by one tick. The view
// aliases solver memory, so it stays valid only until the next tick's
// advection starts writing; check Valid before reading a handle kept across
// ticks.
type Field struct {
	data []float32
	n    int
	tick uint64

	gen   uint64
	owner *atomic.Uint64
}

// Size returns the grid resolution N.
func (f Field) Size() int { return f.n }

// Tick returns the tick that produced the field.
func (f Field) Tick() uint64 { return f.tick }

// Valid reports whether the underlying buffer still holds this tick's data.
func (f Field) Valid() bool {
	return f.data != nil && f.owner != nil && f.owner.Load() == f.gen
}

// At returns the velocity of cell (x, y). Coordinates outside the grid clamp
// to the nearest edge cell.
func (f Field) At(x, y int) (vx, vy float32) {
	if f.data == nil {
		return 0, 0
	}
	x = clampIndex(x, f.n)
	y = clampIndex(y, f.n)
	idx := (y*f.n + x) * 2
	return f.data[idx], f.data[idx+1]
}

// Speed returns the velocity magnitude of cell (x, y).
func (f Field) Speed(x, y int) float32 {
	vx, vy := f.At(x, y)
	return float32(math.Sqrt(float64(vx*vx + vy*vy)))
}

// Sample bilinearly interpolates the field at grid-space point (px, py), the
// same interpolation advection uses.
func (f Field) Sample(px, py float32) (vx, vy float32) {
	if f.data == nil {
		return 0, 0
	}
	return sampleBilinear(f.data, f.n, px, py)
}

// CopyTo copies the interleaved velocity into dst and returns the number of
// float32 values written.
func (f Field) CopyTo(dst []float32) int {
	return copy(dst, f.data)
}
