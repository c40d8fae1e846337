package fluid

import (
	"runtime"
	"sync"
)

// tileKernel processes the half-open cell rectangle [x0,x1) × [y0,y1).
// A kernel must only write cells inside its rectangle and must not write any
// buffer it reads.
type tileKernel func(x0, y0, x1, y1 int)

// tileChunk is a contiguous range of tile indices handed to one worker.
type tileChunk struct {
	start, end int
	kernel     tileKernel
}

// dispatcher runs a kernel over every tile of the grid and returns only once
// all tiles are done, which is the barrier between stages.
type dispatcher struct {
	n            int
	tile         int
	tilesPerSide int
	numTiles     int
	threshold    int // tiles below which dispatch runs inline
	numWorkers   int

	// Worker pool channels
	workChan chan tileChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newDispatcher(n, tile, workers, threshold int) *dispatcher {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	tps := n / tile
	return &dispatcher{
		n:            n,
		tile:         tile,
		tilesPerSide: tps,
		numTiles:     tps * tps,
		threshold:    threshold,
		numWorkers:   workers,
	}
}

// startWorkers launches persistent worker goroutines.
func (d *dispatcher) startWorkers() {
	if d.running {
		return
	}

	d.workChan = make(chan tileChunk, d.numWorkers)
	d.doneChan = make(chan struct{}, d.numWorkers)
	d.stopChan = make(chan struct{})
	d.running = true

	for i := 0; i < d.numWorkers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (d *dispatcher) stopWorkers() {
	if !d.running {
		return
	}

	close(d.stopChan)
	d.wg.Wait()
	close(d.workChan)
	close(d.doneChan)
	d.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (d *dispatcher) worker() {
	defer d.wg.Done()

	for {
		select {
		case <-d.stopChan:
			return
		case chunk, ok := <-d.workChan:
			if !ok {
				return
			}
			d.runTiles(chunk.start, chunk.end, chunk.kernel)
			d.doneChan <- struct{}{}
		}
	}
}

// runTiles executes kernel over tiles [start, end).
func (d *dispatcher) runTiles(start, end int, kernel tileKernel) {
	for t := start; t < end; t++ {
		tx := t % d.tilesPerSide
		ty := t / d.tilesPerSide
		x0 := tx * d.tile
		y0 := ty * d.tile
		kernel(x0, y0, x0+d.tile, y0+d.tile)
	}
}

// dispatch runs kernel over the whole grid and blocks until every tile has
// been processed.
func (d *dispatcher) dispatch(kernel tileKernel) {
	if d.numTiles < d.threshold || d.numWorkers == 1 {
		d.runTiles(0, d.numTiles, kernel)
		return
	}

	if !d.running {
		d.startWorkers()
	}

	chunkSize := (d.numTiles + d.numWorkers - 1) / d.numWorkers

	chunksDispatched := 0
	for w := 0; w < d.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > d.numTiles {
			end = d.numTiles
		}
		if start >= end {
			continue
		}

		d.workChan <- tileChunk{start: start, end: end, kernel: kernel}
		chunksDispatched++
	}

	for i := 0; i < chunksDispatched; i++ {
		<-d.doneChan
	}
}
