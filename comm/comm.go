// Package comm provides the collective operations the dipole core needs
// from its rank-parallel runtime: barriers and all-to-all sum reductions.
// The core is written against the Communicator interface so that a serial
// run, an in-process test world, and an MPI binding are interchangeable.
package comm

// Op is an aggregation operation applied during a reduction
type Op int

const (
	OpSum Op = iota
	OpMax
	OpMin
)

// Communicator exposes the collective surface of one rank. All collective
// calls must be made by every rank of the world in the same order; after an
// Allreduce returns, every rank holds the identical reduced values.
type Communicator interface {
	// Rank returns this process's id in [0, Size)
	Rank() int

	// Size returns the number of ranks in the world
	Size() int

	// Barrier blocks until every rank has reached the same barrier
	Barrier()

	// AllreduceFloat64s reduces xs element-wise across all ranks,
	// in place, with a rank-ordered combination so every rank computes
	// bit-identical results
	AllreduceFloat64s(op Op, xs []float64)

	// AllreduceInt reduces a single integer across all ranks
	AllreduceInt(op Op, n int) int
}

// Serial is the single-rank communicator: barriers are no-ops and
// reductions return their input unchanged.
type Serial struct{}

func (Serial) Rank() int { return 0 }

func (Serial) Size() int { return 1 }

func (Serial) Barrier() {}

func (Serial) AllreduceFloat64s(op Op, xs []float64) {}

func (Serial) AllreduceInt(op Op, n int) int { return n }

// combine folds y into x element-wise under op
func combine(op Op, x, y []float64) {
	switch op {
	case OpMax:
		for i := range x {
			if y[i] > x[i] {
				x[i] = y[i]
			}
		}
	case OpMin:
		for i := range x {
			if y[i] < x[i] {
				x[i] = y[i]
			}
		}
	default:
		for i := range x {
			x[i] += y[i]
		}
	}
}
