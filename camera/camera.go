// Package camera maps the arena's world coordinates onto the screen with pan
// and zoom.
package camera

// Camera controls the viewport into the arena. The arena is centered on the
// world origin with Y growing upward; screen Y grows downward.
type Camera struct {
	// Position is the camera center in world coordinates
	X, Y float32

	// Zoom relative to the fit-to-viewport scale (1.0 = whole arena visible)
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// ArenaSize is the side of the square arena in world units
	ArenaSize float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera showing the whole arena.
func New(viewportW, viewportH, arenaSize float32) *Camera {
	return &Camera{
		Zoom:      1.0,
		ViewportW: viewportW,
		ViewportH: viewportH,
		ArenaSize: arenaSize,
		MinZoom:   1.0,
		MaxZoom:   8.0,
	}
}

// Scale returns screen pixels per world unit at the current zoom.
func (c *Camera) Scale() float32 {
	return min(c.ViewportW, c.ViewportH) / c.ArenaSize * c.Zoom
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	s := c.Scale()
	sx = c.ViewportW/2 + (wx-c.X)*s
	sy = c.ViewportH/2 - (wy-c.Y)*s
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	s := c.Scale()
	wx = c.X + (sx-c.ViewportW/2)/s
	wy = c.Y - (sy-c.ViewportH/2)/s
	return wx, wy
}

// ArenaRect returns the screen rectangle covered by the arena, top-left
// first. The grid's row 0 is the arena's top edge.
func (c *Camera) ArenaRect() (x, y, w, h float32) {
	half := c.ArenaSize / 2
	x, y = c.WorldToScreen(-half, half)
	side := c.ArenaSize * c.Scale()
	return x, y, side, side
}

// IsVisible returns true if a circle at (wx, wy) with given radius
// could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	s := c.Scale()
	halfW := c.ViewportW/(2*s) + radius
	halfH := c.ViewportH/(2*s) + radius
	return absf(wx-c.X) <= halfW && absf(wy-c.Y) <= halfH
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.clampCenter()
}

// Pan moves the camera by the given delta in screen pixels. The center stays
// inside the arena.
func (c *Camera) Pan(dx, dy float32) {
	s := c.Scale()
	c.X += dx / s
	c.Y -= dy / s
	c.clampCenter()
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
	c.clampCenter()
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset returns the camera to the default position and zoom.
func (c *Camera) Reset() {
	c.X, c.Y = 0, 0
	c.Zoom = 1.0
}

func (c *Camera) clampCenter() {
	half := c.ArenaSize / 2
	c.X = clamp(c.X, -half, half)
	c.Y = clamp(c.Y, -half, half)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
