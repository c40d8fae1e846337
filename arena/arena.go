// Package arena is the combat scene host: an ECS world of ships cruising the
// arena, converted each tick into wake bodies for the fluid solver.
package arena

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/wake/config"
	"github.com/pthm-cable/wake/fluid"
)

// driftDamping is the per-tick decay of water-induced drift velocity.
const driftDamping = 0.95

// normalizeAngle wraps angle to [-pi, pi].
func normalizeAngle(a float32) float32 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// ShipView is a read-only copy of a ship's state for renderers and streams.
type ShipView struct {
	ID      uint32
	X, Y    float32
	VX, VY  float32
	Radius  float32
	Heading float32
}

// Arena holds the ships of one combat scene.
type Arena struct {
	world *ecs.World
	rng   *rand.Rand

	shipMapper *ecs.Map5[Position, Velocity, Hull, Helm, Drift]
	shipFilter *ecs.Filter5[Position, Velocity, Hull, Helm, Drift]

	size      float32 // World units covered by the grid
	half      float32
	gridN     int
	gridScale float32 // Grid cells per world unit

	wakeRadius   float32 // Grid cells
	minWakeSpeed float32 // World units/s
	hullRadius   float32

	minOrbit, maxOrbit float32
	minSpeed, maxSpeed float32

	nextID     uint32
	ships      int
	tick       uint64
	debugEvery uint64 // Ticks between first-ship wake debug logs
}

// New creates an arena and spawns cfg.Arena.Ships ships from seed.
func New(cfg *config.Config, seed int64) *Arena {
	world := ecs.NewWorld()

	a := &Arena{
		world:        world,
		rng:          rand.New(rand.NewSource(seed)),
		shipMapper:   ecs.NewMap5[Position, Velocity, Hull, Helm, Drift](world),
		shipFilter:   ecs.NewFilter5[Position, Velocity, Hull, Helm, Drift](world),
		wakeRadius:   float32(cfg.Wake.RadiusCells),
		minWakeSpeed: float32(cfg.Wake.MinSpeed),
		hullRadius:   float32(cfg.Arena.HullRadius),
		minOrbit:     float32(cfg.Arena.MinOrbit),
		maxOrbit:     float32(cfg.Arena.MaxOrbit),
		minSpeed:     float32(cfg.Arena.MinSpeed),
		maxSpeed:     float32(cfg.Arena.MaxSpeed),
		debugEvery:   uint64(max(1, math.Round(cfg.Fluid.TickRate))),
	}
	a.SetGrid(float32(cfg.Fluid.ArenaSize), cfg.Fluid.GridSize)

	for i := 0; i < cfg.Arena.Ships; i++ {
		a.spawnRandom()
	}

	return a
}

// SetGrid updates the world-to-grid mapping, e.g. after the solver resizes.
func (a *Arena) SetGrid(arenaSize float32, n int) {
	a.size = arenaSize
	a.half = arenaSize / 2
	a.gridN = n
	a.gridScale = float32(n) / arenaSize
}

// spawnRandom places a ship on a random orbit that stays inside the arena.
func (a *Arena) spawnRandom() uint32 {
	orbit := a.minOrbit + a.rng.Float32()*(a.maxOrbit-a.minOrbit)
	slack := max(0, a.half-orbit-a.hullRadius)
	cx := (a.rng.Float32()*2 - 1) * slack * 0.5
	cy := (a.rng.Float32()*2 - 1) * slack * 0.5
	speed := a.minSpeed + a.rng.Float32()*(a.maxSpeed-a.minSpeed)
	angle := (a.rng.Float32()*2 - 1) * math.Pi

	dir := float32(1)
	if a.rng.Intn(2) == 0 {
		dir = -1
	}
	return a.Spawn(cx, cy, orbit, speed, angle, dir)
}

// Spawn adds a ship orbiting (cx, cy) and returns its ID.
func (a *Arena) Spawn(cx, cy, orbit, speed, angle, dir float32) uint32 {
	a.nextID++
	helm := Helm{CenterX: cx, CenterY: cy, Orbit: orbit, Speed: speed, Angle: angle, Dir: dir}
	pos, vel := helm.steer(Drift{})
	hull := Hull{ID: a.nextID, Radius: a.hullRadius}
	a.shipMapper.NewEntity(&pos, &vel, &hull, &helm, &Drift{})
	a.ships++
	return a.nextID
}

// steer returns the position and velocity of a ship on its orbit, displaced
// by drift.
func (h *Helm) steer(d Drift) (Position, Velocity) {
	sin, cos := math.Sincos(float64(h.Angle))
	s, c := float32(sin), float32(cos)
	pos := Position{
		X: h.CenterX + h.Orbit*c + d.OffsetX,
		Y: h.CenterY + h.Orbit*s + d.OffsetY,
	}
	vel := Velocity{
		X: -h.Dir*h.Speed*s + d.VX,
		Y: h.Dir*h.Speed*c + d.VY,
	}
	return pos, vel
}

// Ships returns the number of ships.
func (a *Arena) Ships() int { return a.ships }

// Tick returns the number of Update calls.
func (a *Arena) Tick() uint64 { return a.tick }

// Update advances every ship by dt seconds.
func (a *Arena) Update(dt float32) {
	a.tick++
	query := a.shipFilter.Query()
	for query.Next() {
		pos, vel, _, helm, drift := query.Get()

		if helm.Orbit > 0 {
			helm.Angle = normalizeAngle(helm.Angle + helm.Dir*helm.Speed/helm.Orbit*dt)
		}

		drift.OffsetX += drift.VX * dt
		drift.OffsetY += drift.VY * dt
		drift.VX *= driftDamping
		drift.VY *= driftDamping

		*pos, *vel = helm.steer(*drift)
	}
}

// WorldToGrid maps a world position to grid space. Grid Y grows downward.
func (a *Arena) WorldToGrid(x, y float32) (gx, gy float32) {
	gx = (x + a.half) * a.gridScale
	gy = float32(a.gridN) - (y+a.half)*a.gridScale
	return gx, gy
}

// GridToWorld is the inverse of WorldToGrid.
func (a *Arena) GridToWorld(gx, gy float32) (x, y float32) {
	x = gx/a.gridScale - a.half
	y = (float32(a.gridN)-gy)/a.gridScale - a.half
	return x, y
}

// inGrid reports whether grid-space point (gx, gy) lies on the grid.
func (a *Arena) inGrid(gx, gy float32) bool {
	n := float32(a.gridN)
	return gx >= 0 && gx < n && gy >= 0 && gy < n
}

// BodiesInto appends a wake body for every ship that is moving and on the
// grid. Velocity Y is flipped along with position.
func (a *Arena) BodiesInto(dst []fluid.Body) []fluid.Body {
	first := true
	query := a.shipFilter.Query()
	for query.Next() {
		pos, vel, hull, _, _ := query.Get()

		speed := float32(math.Hypot(float64(vel.X), float64(vel.Y)))
		if speed < a.minWakeSpeed {
			continue
		}
		gx, gy := a.WorldToGrid(pos.X, pos.Y)
		if !a.inGrid(gx, gy) {
			continue
		}

		if first && a.tick%a.debugEvery == 0 {
			slog.Debug("wake",
				"ship", hull.ID,
				"x", pos.X, "y", pos.Y,
				"vx", vel.X, "vy", vel.Y,
				"speed", speed,
			)
		}
		first = false

		dst = append(dst, fluid.Body{
			Position: fluid.Vec2{X: gx, Y: gy},
			Velocity: fluid.Vec2{X: vel.X, Y: -vel.Y},
			Radius:   a.wakeRadius,
		})
	}
	return dst
}

// ShipsInto appends a view of every ship to dst.
func (a *Arena) ShipsInto(dst []ShipView) []ShipView {
	query := a.shipFilter.Query()
	for query.Next() {
		pos, vel, hull, _, _ := query.Get()
		dst = append(dst, ShipView{
			ID:      hull.ID,
			X:       pos.X,
			Y:       pos.Y,
			VX:      vel.X,
			VY:      vel.Y,
			Radius:  hull.Radius,
			Heading: float32(math.Atan2(float64(vel.Y), float64(vel.X))),
		})
	}
	return dst
}
