package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/wake/palette"
	"github.com/pthm-cable/wake/telemetry"
)

// PerfPanel shows the per-phase share of the average tick.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y, width int32) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders stats and returns the Y below the panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) int32 {
	r := p.renderer
	phases := telemetry.PhaseOrder()
	height := r.Theme.Padding*2 + r.Theme.LineHeight*int32(len(phases)+3) + int32(len(phases))*2
	r.DrawPanel(p.x, p.y, p.width, height)

	x := p.x + r.Theme.Padding
	y := r.DrawSectionHeader(x, p.y+r.Theme.Padding, "Tick breakdown")
	y = r.DrawLabelValue(x, y, "avg tick", formatMicros(stats.AvgTickDuration.Microseconds()))
	y = r.DrawLabelValue(x, y, "ticks/s", fmt.Sprintf("%.0f", stats.TicksPerSecond))

	for _, phase := range phases {
		pct := stats.PhasePct[phase]
		y = r.DrawBar(x, y, phase, float32(pct/100), 0.5, fmt.Sprintf("%.0f%%", pct), p.width-r.Theme.Padding*2)
	}
	return p.y + height
}

// Legend shows the palette bands and the speed range each covers.
type Legend struct {
	renderer *Renderer
	palette  *palette.Palette
}

// NewLegend creates a legend for p.
func NewLegend(p *palette.Palette) *Legend {
	return &Legend{renderer: NewRenderer(), palette: p}
}

// Draw renders the legend with its top-left corner at (x, y).
func (l *Legend) Draw(x, y, width int32) int32 {
	r := l.renderer
	bands := l.palette.Bands()
	height := r.Theme.Padding*2 + r.Theme.LineHeight*int32(bands+1) + 2
	r.DrawPanel(x, y, width, height)

	cx := x + r.Theme.Padding
	cy := r.DrawSectionHeader(cx, y+r.Theme.Padding, "Speed")
	step := l.palette.MaxSpeed() / float32(bands)
	for b := bands - 1; b >= 0; b-- {
		c := l.palette.BandColor(b)
		label := fmt.Sprintf("%.0f-%.0f", float32(b)*step, float32(b+1)*step)
		if b == bands-1 {
			label = fmt.Sprintf("%.0f+", float32(b)*step)
		}
		cy = r.DrawSwatch(cx, cy, rl.Color{R: c.R, G: c.G, B: c.B, A: c.A}, label)
	}
	return y + height
}
