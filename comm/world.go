package comm

import (
	"fmt"
	"sync"
)

// World is an in-process multi-rank communicator: each rank runs on its own
// goroutine and synchronizes through a shared generation-counted barrier.
// It exists so that the rank-parallel code paths and reductions can be
// exercised in ordinary tests; a distributed run would substitute an MPI
// binding behind the same interface.
type World struct {
	size int

	mu      sync.Mutex
	cond    *sync.Cond
	arrived int
	gen     uint64

	// Per-rank reduction deposits, combined in rank order by the last
	// arrival so every rank sees a bit-identical result
	fparts [][]float64
	iparts []int
	fout   []float64
	iout   int
}

// NewWorld creates an in-process world of the given size
func NewWorld(size int) *World {
	if size < 1 {
		panic(fmt.Sprintf("comm: world size must be at least 1, got %d", size))
	}
	w := &World{
		size:   size,
		fparts: make([][]float64, size),
		iparts: make([]int, size),
	}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// Comm returns the communicator endpoint for the given rank
func (w *World) Comm(rank int) Communicator {
	if rank < 0 || rank >= w.size {
		panic(fmt.Sprintf("comm: rank %d out of range [0,%d)", rank, w.size))
	}
	return &worldComm{world: w, rank: rank}
}

// await blocks until all ranks have arrived at the current collective.
// finish runs once, on the last arrival, while the lock is held.
// Callers must hold w.mu.
func (w *World) await(finish func()) {
	gen := w.gen
	w.arrived++
	if w.arrived == w.size {
		if finish != nil {
			finish()
		}
		w.arrived = 0
		w.gen++
		w.cond.Broadcast()
		return
	}
	for gen == w.gen {
		w.cond.Wait()
	}
}

type worldComm struct {
	world *World
	rank  int
}

func (c *worldComm) Rank() int { return c.rank }

func (c *worldComm) Size() int { return c.world.size }

func (c *worldComm) Barrier() {
	w := c.world
	w.mu.Lock()
	w.await(nil)
	w.mu.Unlock()
}

func (c *worldComm) AllreduceFloat64s(op Op, xs []float64) {
	w := c.world
	w.mu.Lock()
	w.fparts[c.rank] = xs
	w.await(func() {
		w.fout = append(w.fout[:0], w.fparts[0]...)
		for r := 1; r < w.size; r++ {
			if len(w.fparts[r]) != len(w.fout) {
				panic(fmt.Sprintf("comm: allreduce length mismatch: rank %d has %d values, rank 0 has %d",
					r, len(w.fparts[r]), len(w.fout)))
			}
			combine(op, w.fout, w.fparts[r])
		}
		// The deposits are caller-owned slices; drop them once combined
		for r := range w.fparts {
			w.fparts[r] = nil
		}
	})
	copy(xs, w.fout)
	w.mu.Unlock()
}

func (c *worldComm) AllreduceInt(op Op, n int) int {
	w := c.world
	w.mu.Lock()
	w.iparts[c.rank] = n
	w.await(func() {
		out := w.iparts[0]
		for r := 1; r < w.size; r++ {
			v := w.iparts[r]
			switch op {
			case OpMax:
				if v > out {
					out = v
				}
			case OpMin:
				if v < out {
					out = v
				}
			default:
				out += v
			}
		}
		w.iout = out
	})
	n = w.iout
	w.mu.Unlock()
	return n
}
