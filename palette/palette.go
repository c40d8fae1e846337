// Package palette maps water speed to the banded deep-to-foam colors the
// viewers draw. It reads the published field and never touches the solver.
package palette

import (
	"image/color"
	"math"

	"github.com/pthm-cable/wake/config"
)

// Water colors from deepest (still) to foam (fastest).
var (
	Deep  = color.RGBA{R: 13, G: 38, B: 89, A: 255}
	Mid   = color.RGBA{R: 26, G: 77, B: 140, A: 255}
	Light = color.RGBA{R: 77, G: 128, B: 179, A: 255}
	Foam  = color.RGBA{R: 217, G: 230, B: 242, A: 255}
)

// Palette quantizes speed into bands and looks up each band's color.
type Palette struct {
	maxSpeed float32
	bands    int
	lut      []color.RGBA
}

// New builds a palette from the render config.
func New(cfg config.RenderConfig) *Palette {
	return NewPalette(float32(cfg.MaxSpeed), cfg.Bands)
}

// NewPalette builds a palette mapping [0, maxSpeed] onto bands colors.
func NewPalette(maxSpeed float32, bands int) *Palette {
	bands = max(1, bands)
	p := &Palette{
		maxSpeed: maxSpeed,
		bands:    bands,
		lut:      make([]color.RGBA, bands),
	}
	for b := range p.lut {
		var t float32
		if bands > 1 {
			t = float32(b) / float32(bands-1)
		}
		p.lut[b] = ramp(t)
	}
	return p
}

// Bands returns the number of color bands.
func (p *Palette) Bands() int { return p.bands }

// MaxSpeed returns the speed mapped to the top band.
func (p *Palette) MaxSpeed() float32 { return p.maxSpeed }

// Band returns the band index for speed, in [0, Bands()-1]. Speeds at or
// above MaxSpeed saturate to the top band.
func (p *Palette) Band(speed float32) int {
	if !(speed > 0) || p.maxSpeed <= 0 {
		return 0
	}
	t := speed / p.maxSpeed
	if t >= 1 {
		return p.bands - 1
	}
	return min(int(t*float32(p.bands)), p.bands-1)
}

// Color returns the band color for speed.
func (p *Palette) Color(speed float32) color.RGBA {
	return p.lut[p.Band(speed)]
}

// BandColor returns the color of band b.
func (p *Palette) BandColor(b int) color.RGBA {
	return p.lut[min(max(b, 0), p.bands-1)]
}

// BandsInto writes one band index per cell of an interleaved velocity buffer
// into dst and returns it, growing dst if needed.
func (p *Palette) BandsInto(dst []byte, vel []float32) []byte {
	cells := len(vel) / 2
	if cap(dst) < cells {
		dst = make([]byte, cells)
	}
	dst = dst[:cells]
	for i := range dst {
		vx, vy := vel[i*2], vel[i*2+1]
		dst[i] = byte(p.Band(float32(math.Sqrt(float64(vx*vx + vy*vy)))))
	}
	return dst
}

// ShadeInto writes one color per cell of an interleaved velocity buffer into
// dst and returns it, growing dst if needed.
func (p *Palette) ShadeInto(dst []color.RGBA, vel []float32) []color.RGBA {
	cells := len(vel) / 2
	if cap(dst) < cells {
		dst = make([]color.RGBA, cells)
	}
	dst = dst[:cells]
	for i := range dst {
		vx, vy := vel[i*2], vel[i*2+1]
		dst[i] = p.Color(float32(math.Sqrt(float64(vx*vx + vy*vy))))
	}
	return dst
}

// ramp blends deep→mid→light→foam over t in [0,1].
func ramp(t float32) color.RGBA {
	switch {
	case t <= 1.0/3:
		return lerp(Deep, Mid, t*3)
	case t <= 2.0/3:
		return lerp(Mid, Light, (t-1.0/3)*3)
	default:
		return lerp(Light, Foam, (t-2.0/3)*3)
	}
}

func lerp(a, b color.RGBA, t float32) color.RGBA {
	t = min(max(t, 0), 1)
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(float32(x) + (float32(y)-float32(x))*t)))
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}
