package arena

// Position is a ship's world position. The arena is centered on the origin
// and +Y points up.
type Position struct {
	X, Y float32
}

// Velocity is a ship's world velocity in units per second.
type Velocity struct {
	X, Y float32
}

// Hull identifies a ship and its size.
type Hull struct {
	ID     uint32
	Radius float32 // World units
}

// Helm steers a ship around a circular orbit.
type Helm struct {
	CenterX, CenterY float32
	Orbit            float32 // Radius, world units
	Speed            float32 // Cruise speed, world units/s
	Angle            float32 // Current angle on the orbit, radians
	Dir              float32 // +1 counter-clockwise, -1 clockwise
}

// Drift is the displacement the water has pushed a ship off its orbit.
type Drift struct {
	VX, VY           float32 // Drift velocity, world units/s
	OffsetX, OffsetY float32 // Accumulated displacement, world units
}
