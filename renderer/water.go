// Package renderer draws the published water field and ships with raylib.
package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/wake/fluid"
	"github.com/pthm-cable/wake/palette"
)

// WaterSurface renders the velocity field as a banded color texture
// stretched over the arena.
type WaterSurface struct {
	palette *palette.Palette

	tex         rl.Texture2D
	texSize     int
	vel         []float32
	pixels      []color.RGBA
	initialized bool
}

// NewWaterSurface creates a water surface renderer.
func NewWaterSurface(p *palette.Palette) *WaterSurface {
	return &WaterSurface{palette: p}
}

// Init creates the texture (must be called after raylib window is created).
func (w *WaterSurface) Init(n int) {
	if w.initialized && w.texSize == n {
		return
	}
	if w.initialized {
		rl.UnloadTexture(w.tex)
	}

	img := rl.GenImageColor(n, n, rl.Black)
	w.tex = rl.LoadTextureFromImage(img)
	// Point filtering keeps the band edges crisp.
	rl.SetTextureFilter(w.tex, rl.FilterPoint)
	rl.UnloadImage(img)

	w.texSize = n
	w.vel = make([]float32, n*n*2)
	w.initialized = true
}

// Update copies the field and uploads its colors. Invalid handles are
// ignored and the previous frame stays on screen.
func (w *WaterSurface) Update(f fluid.Field) {
	if !f.Valid() {
		return
	}
	w.Init(f.Size())
	f.CopyTo(w.vel)
	w.pixels = w.palette.ShadeInto(w.pixels, w.vel)
	rl.UpdateTexture(w.tex, w.pixels)
}

// Draw stretches the water texture over dst.
func (w *WaterSurface) Draw(dst rl.Rectangle) {
	if !w.initialized {
		return
	}
	src := rl.Rectangle{X: 0, Y: 0, Width: float32(w.texSize), Height: float32(w.texSize)}
	rl.DrawTexturePro(w.tex, src, dst, rl.Vector2{}, 0, rl.White)
}

// Unload frees GPU resources.
func (w *WaterSurface) Unload() {
	if !w.initialized {
		return
	}
	rl.UnloadTexture(w.tex)
	w.initialized = false
}
