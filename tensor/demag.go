package tensor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/spindyn/DipoleKernel/cells"
	"github.com/spindyn/DipoleKernel/comm"
	"github.com/spindyn/DipoleKernel/partitions"
)

// DemagFactor derives the dimensionless demagnetizing-factor tensor from
// the built store. Each rank sums its local rows weighted by
// V_atomic,j * N_j * N_i, the six partial sums and the local magnetic atom
// count are allreduced, and the global sums are normalized: divide by the
// atom count, subtract the isotropic self term 4*pi/3 from the diagonal,
// divide everything by -4*pi. The diagonal of the result sums to 1 for
// compact shapes, which is the standard sanity check on the build.
//
// The reduction is the only collective in the derivation: partial sums are
// computed purely locally, reduced once, then consumed. Every rank returns
// the identical tensor and atom count. On a rank that owns no cells s may
// be nil; such a rank contributes nothing locally but must still call in,
// or the reduction stalls the remaining ranks.
func DemagFactor(s *Store, ens *cells.Ensemble, rank *partitions.RankCells, c comm.Communicator) (*mat.SymDense, int) {
	rows := 0
	if s != nil {
		rows = s.NumLocalCells()
	}
	if rows != rank.NumLocalCells() {
		panic(fmt.Sprintf("tensor: store has %d rows but rank owns %d cells",
			rows, rank.NumLocalCells()))
	}

	sums := make([]float64, NumComps)

	numAtoms := 0
	for lc := 0; lc < rank.NumLocalCells(); lc++ {
		i := int(rank.Global(partitions.LocalCell(lc)))
		ni := ens.NumAtomsInCell[i]
		numAtoms += ni
		if ni == 0 {
			continue
		}
		for j := 0; j < ens.NumCells(); j++ {
			nj := ens.NumAtomsInCell[j]
			if nj == 0 {
				continue
			}
			// V_atomic,j * N_j * N_i reduces to V_j * N_i
			factor := ens.Volume[j] * float64(ni)
			for comp := Comp(0); comp < NumComps; comp++ {
				sums[comp] += factor * (s.intra[comp].At(lc, j) + s.inter[comp].At(lc, j))
			}
		}
	}

	// Reduce-then-use seam: merge the per-rank partials, then normalize
	c.AllreduceFloat64s(comm.OpSum, sums)
	numAtoms = c.AllreduceInt(comm.OpSum, numAtoms)

	if numAtoms == 0 {
		return mat.NewSymDense(3, nil), 0
	}

	floats.Scale(1.0/float64(numAtoms), sums)
	sums[XX] -= 4.0 * math.Pi / 3.0
	sums[YY] -= 4.0 * math.Pi / 3.0
	sums[ZZ] -= 4.0 * math.Pi / 3.0
	floats.Scale(-1.0/(4.0*math.Pi), sums)

	n := mat.NewSymDense(3, []float64{
		sums[XX], sums[XY], sums[XZ],
		sums[XY], sums[YY], sums[YZ],
		sums[XZ], sums[YZ], sums[ZZ],
	})
	return n, numAtoms
}
