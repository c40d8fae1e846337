package game

import (
	"fmt"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/wake/arena"
)

const panelWidth = 220

// Draw renders the scene.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	ax, ay, aw, ah := g.camera.ArenaRect()
	vp := rl.Rectangle{X: ax, Y: ay, Width: aw, Height: ah}
	if g.water != nil {
		g.water.Draw(vp)
	}
	rl.DrawRectangleLinesEx(vp, 1, rl.DarkGray)

	g.drawShips()
	g.drawHUD()

	y := int32(120)
	if g.showPerf {
		y = g.perfPanel.Draw(g.perfCollector.Stats()) + 10
	}
	g.legend.Draw(10, y, 140)

	if g.showPanel {
		g.drawPanel()
	}

	rl.EndDrawing()
}

// drawShips renders every ship as an oriented triangle.
func (g *Game) drawShips() {
	scale := g.camera.Scale()
	g.ships = g.arena.ShipsInto(g.ships[:0])
	for _, s := range g.ships {
		if !g.camera.IsVisible(s.X, s.Y, s.Radius*1.5) {
			continue
		}
		sx, sy := g.camera.WorldToScreen(s.X, s.Y)
		// Screen Y is down, so the heading flips.
		drawOrientedTriangle(sx, sy, -s.Heading, max(4, s.Radius*scale), shipColor(s))
	}
}

func shipColor(s arena.ShipView) rl.Color {
	if s.ID%2 == 0 {
		return rl.Color{R: 230, G: 90, B: 70, A: 255}
	}
	return rl.Color{R: 240, G: 200, B: 80, A: 255}
}

// drawHUD renders tick, solver and perf counters.
func (g *Game) drawHUD() {
	res := g.lastResult
	perf := g.perfCollector.Stats()

	rl.DrawText(fmt.Sprintf("Tick: %d  Ships: %d  Speed: %dx [</>]", g.tick, g.arena.Ships(), g.stepsPerUpdate), 10, 10, 18, rl.White)
	rl.DrawText(fmt.Sprintf("Div: %.4f -> %.4f  Energy: %.1f  Peak: %.1f",
		res.Diagnostics.DivergenceBefore, res.Diagnostics.DivergenceAfter,
		res.Diagnostics.Energy, res.Diagnostics.PeakSpeed), 10, 32, 16, rl.LightGray)
	rl.DrawText(fmt.Sprintf("Tick: %v  TPS: %.0f  FPS: %.0f", perf.AvgTickDuration, perf.TicksPerSecond, perf.FPS), 10, 52, 16, rl.LightGray)

	if res.Clamped > 0 {
		rl.DrawText(fmt.Sprintf("CLAMPED %d", res.Clamped), 10, 72, 16, rl.Orange)
	}
	if g.paused {
		rl.DrawText("PAUSED", 10, 92, 18, rl.Yellow)
	}

	h := int32(rl.GetScreenHeight())
	rl.DrawText("[Space] pause  [R] reset  [C] coupling  [Tab] panel  [P] perf  [Arrows/Wheel] camera  [Home] recenter", 10, h-22, 14, rl.Gray)
}

// drawPanel renders the raygui control panel on the right edge.
func (g *Game) drawPanel() {
	x := float32(rl.GetScreenWidth()) - panelWidth - 10
	y := float32(10)

	rl.DrawRectangle(int32(x)-6, int32(y)-6, panelWidth+12, 190, rl.Color{R: 0, G: 0, B: 0, A: 180})
	rl.DrawText("Water", int32(x), int32(y), 18, rl.White)
	y += 28

	pauseText := "Pause"
	if g.paused {
		pauseText = "Resume"
	}
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: 100, Height: 26}, pauseText) {
		g.paused = !g.paused
	}
	if gui.Button(rl.Rectangle{X: x + 110, Y: y, Width: 100, Height: 26}, "Reset") {
		g.Reset()
	}
	y += 38

	on := gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: 18, Height: 18}, "Coupling", g.couplingOn)
	g.SetCoupling(on)
	y += 30

	rl.DrawText("Steps per frame", int32(x), int32(y), 14, rl.Gray)
	y += 18
	steps := gui.SliderBar(rl.Rectangle{X: x + 10, Y: y, Width: panelWidth - 60, Height: 18}, "1", "10", float32(g.stepsPerUpdate), 1, 10)
	g.stepsPerUpdate = int(math.Round(float64(steps)))
	y += 30

	rl.DrawText(fmt.Sprintf("Grid %d  K=%d", g.solver.Size(), g.cfg.Fluid.JacobiIterations), int32(x), int32(y), 14, rl.LightGray)
}

// drawOrientedTriangle draws a triangle pointing in the heading direction.
func drawOrientedTriangle(x, y, heading, radius float32, color rl.Color) {
	cos := float32(math.Cos(float64(heading)))
	sin := float32(math.Sin(float64(heading)))

	v1 := rl.Vector2{X: x + cos*radius*1.5, Y: y + sin*radius*1.5}

	backAngle := float64(heading) + math.Pi*0.8
	v2 := rl.Vector2{X: x + float32(math.Cos(backAngle))*radius, Y: y + float32(math.Sin(backAngle))*radius}

	backAngle = float64(heading) - math.Pi*0.8
	v3 := rl.Vector2{X: x + float32(math.Cos(backAngle))*radius, Y: y + float32(math.Sin(backAngle))*radius}

	// DrawTriangle requires counter-clockwise winding (v1, v3, v2)
	rl.DrawTriangle(v1, v3, v2, color)
	rl.DrawTriangleLines(v1, v2, v3, rl.White)
}
