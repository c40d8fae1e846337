// Wake preview tool - a single ship circling a small grid, with sliders for
// the wake and solver parameters.
//
// Usage: go run ./cmd/wakepreview
package main

import (
	"fmt"
	"log/slog"
	"math"
	"os"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/wake/config"
	"github.com/pthm-cable/wake/fluid"
	"github.com/pthm-cable/wake/palette"
	"github.com/pthm-cable/wake/renderer"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30
	gridSize     = 128
)

// WakeParams holds the tunable values.
type WakeParams struct {
	Force      float32
	Viscosity  float32
	Radius     float32
	Speed      float32 // Cells per second
	Iterations int
}

func defaultParams(cfg *config.Config) WakeParams {
	return WakeParams{
		Force:      float32(cfg.Wake.ForceMultiplier),
		Viscosity:  float32(cfg.Fluid.Viscosity),
		Radius:     float32(cfg.Wake.RadiusCells) / 2, // the preview grid is half the default
		Speed:      60,
		Iterations: cfg.Fluid.JacobiIterations,
	}
}

// overlay is what C copies to the clipboard.
type overlay struct {
	Fluid struct {
		Viscosity        float32 `yaml:"viscosity"`
		JacobiIterations int     `yaml:"jacobi_iterations"`
	} `yaml:"fluid"`
	Wake struct {
		ForceMultiplier float32 `yaml:"force_multiplier"`
	} `yaml:"wake"`
}

func (p WakeParams) yaml() string {
	var o overlay
	o.Fluid.Viscosity = p.Viscosity
	o.Fluid.JacobiIterations = p.Iterations
	o.Wake.ForceMultiplier = p.Force
	data, err := yaml.Marshal(o)
	if err != nil {
		return err.Error()
	}
	return string(data)
}

func newSolver(cfg *config.Config, p WakeParams) *fluid.Solver {
	sc := fluid.FromConfig(cfg)
	sc.GridSize = gridSize
	sc.ForceMultiplier = p.Force
	sc.Viscosity = p.Viscosity
	sc.JacobiIterations = p.Iterations
	s, err := fluid.New(sc)
	if err != nil {
		slog.Error("invalid preview parameters", "error", err)
		os.Exit(1)
	}
	return s
}

// slider draws a labeled slider and returns the new value.
func slider(x float32, y *float32, label, loText, hiText string, value, lo, hi float32, format string) float32 {
	rl.DrawText(label, int32(x), int32(*y), 14, rl.Gray)
	*y += 18
	v := gui.SliderBar(
		rl.Rectangle{X: x, Y: *y, Width: float32(panelWidth - 80), Height: 20},
		loText, hiText, value, lo, hi,
	)
	rl.DrawText(fmt.Sprintf(format, value), int32(x+float32(panelWidth-70)), int32(*y+2), 16, rl.DarkGray)
	*y += 35
	return v
}

func main() {
	cfg := config.Defaults()

	rl.InitWindow(windowWidth, windowHeight, "Wake Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Render.TargetFPS))

	params := defaultParams(cfg)
	solver := newSolver(cfg, params)
	defer func() { solver.Close() }()

	water := renderer.NewWaterSurface(palette.New(cfg.Render))
	defer water.Unload()

	var angle float32
	orbit := float32(gridSize) * 0.3
	running := true
	var res fluid.TickResult

	for !rl.WindowShouldClose() {
		dt := cfg.Derived.DT32
		sin, cos := math.Sincos(float64(angle))
		body := fluid.Body{
			Position: fluid.Vec2{X: gridSize/2 + orbit*float32(cos), Y: gridSize/2 + orbit*float32(sin)},
			Velocity: fluid.Vec2{X: -params.Speed * float32(sin), Y: params.Speed * float32(cos)},
			Radius:   params.Radius,
		}
		if running {
			angle += params.Speed / orbit * dt
			res = solver.Step([]fluid.Body{body})
		}
		water.Update(solver.Published())

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		water.Draw(rl.Rectangle{X: 10, Y: 10, Width: previewSize, Height: previewSize})
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)
		scale := float32(previewSize) / gridSize
		rl.DrawCircleLines(int32(10+body.Position.X*scale), int32(10+body.Position.Y*scale), body.Radius*scale, rl.Yellow)

		statsY := int32(previewSize + 25)
		d := res.Diagnostics
		rl.DrawText(fmt.Sprintf("Tick: %d  Energy: %.1f  Peak: %.1f", res.Tick, d.Energy, d.PeakSpeed), 15, statsY, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Divergence: %.4f -> %.4f  Clamped: %d", d.DivergenceBefore, d.DivergenceAfter, res.Clamped), 15, statsY+20, 16, rl.DarkGray)

		panelX := float32(previewSize + 20)
		panelY := float32(10)
		rl.DrawText("Wake Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		next := params
		next.Force = slider(panelX, &panelY, "Force multiplier", "0.05", "3.0", params.Force, 0.05, 3.0, "%.2f")
		next.Viscosity = slider(panelX, &panelY, "Viscosity (per-tick retention)", "0.90", "0.999", params.Viscosity, 0.90, 0.999, "%.3f")
		next.Iterations = int(slider(panelX, &panelY, "Jacobi iterations", "1", "80", float32(params.Iterations), 1, 80, "%.0f"))
		next.Radius = slider(panelX, &panelY, "Splat radius (cells)", "1", "16", params.Radius, 1, 16, "%.1f")
		next.Speed = slider(panelX, &panelY, "Ship speed (cells/s)", "0", "200", params.Speed, 0, 200, "%.0f")

		// Solver parameters are fixed per solver; rebuild on change.
		if next.Force != params.Force || next.Viscosity != params.Viscosity || next.Iterations != params.Iterations {
			solver.Close()
			solver = newSolver(cfg, next)
		}
		params = next

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, toggleText(running, "Stop", "Run")) {
			running = !running
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Clear Water") {
			solver.Reset()
		}
		panelY += 45

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = defaultParams(cfg)
			solver.Close()
			solver = newSolver(cfg, params)
		}
		panelY += 55

		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		text := params.yaml()
		rl.DrawText(text, int32(panelX), int32(panelY), 14, rl.Gray)

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(text)
		}

		rl.EndDrawing()
	}
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
