package fluid

import "sync"

// Region is a rectangle of cells, X/Y inclusive and W/H in cells.
type Region struct {
	X, Y, W, H int
}

// clip returns the part of r that lies inside an n×n grid.
func (r Region) clip(n int) Region {
	x0 := max(r.X, 0)
	y0 := max(r.Y, 0)
	x1 := min(r.X+r.W, n)
	y1 := min(r.Y+r.H, n)
	if x1 <= x0 || y1 <= y0 {
		return Region{X: x0, Y: y0}
	}
	return Region{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Snapshot is a host-side copy of a region of the published velocity.
type Snapshot struct {
	Region Region
	Tick   uint64    // Tick the data was copied from
	Data   []float32 // Interleaved, row-major within Region
}

// Mean returns the average velocity over the snapshot.
func (s Snapshot) Mean() (vx, vy float32) {
	cells := len(s.Data) / 2
	if cells == 0 {
		return 0, 0
	}
	for i := 0; i < cells; i++ {
		vx += s.Data[i*2]
		vy += s.Data[i*2+1]
	}
	return vx / float32(cells), vy / float32(cells)
}

// Readback queues region requests from the host and fulfills them after the
// next completed tick. The host never waits on the solver: Latest returns
// whatever was most recently copied, stamped with its tick.
type Readback struct {
	mu      sync.Mutex
	pending map[uint32]Region
	latest  map[uint32]Snapshot
}

func newReadback() *Readback {
	return &Readback{
		pending: make(map[uint32]Region),
		latest:  make(map[uint32]Snapshot),
	}
}

// Request asks for region r under id. A later request with the same id
// before the next tick completes replaces the earlier one.
func (rb *Readback) Request(id uint32, r Region) {
	rb.mu.Lock()
	rb.pending[id] = r
	rb.mu.Unlock()
}

// Latest returns the most recent snapshot for id.
func (rb *Readback) Latest(id uint32) (Snapshot, bool) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	s, ok := rb.latest[id]
	return s, ok
}

// Forget drops the pending request and snapshot for id.
func (rb *Readback) Forget(id uint32) {
	rb.mu.Lock()
	delete(rb.pending, id)
	delete(rb.latest, id)
	rb.mu.Unlock()
}

// fulfill copies every pending region out of the published field.
func (rb *Readback) fulfill(f Field) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	for id, r := range rb.pending {
		r = r.clip(f.n)
		data := make([]float32, 0, r.W*r.H*2)
		for y := r.Y; y < r.Y+r.H; y++ {
			start := (y*f.n + r.X) * 2
			data = append(data, f.data[start:start+r.W*2]...)
		}
		rb.latest[id] = Snapshot{Region: r, Tick: f.tick, Data: data}
		delete(rb.pending, id)
	}
}

// clear drops all requests and snapshots.
func (rb *Readback) clear() {
	rb.mu.Lock()
	clear(rb.pending)
	clear(rb.latest)
	rb.mu.Unlock()
}
