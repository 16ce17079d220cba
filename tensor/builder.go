package tensor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/spindyn/DipoleKernel/cells"
	"github.com/spindyn/DipoleKernel/partitions"
)

// PairClass tags the two branches of the macrocell method: an exact
// atomistic sum for a cell interacting with itself, and the centroid
// point-dipole approximation for two distinct cells. The split is the
// accuracy/performance trade-off at the heart of the method, so it is
// kept explicit rather than folded into one formula.
type PairClass int

const (
	// SelfPair marks a cell paired with itself (intra term)
	SelfPair PairClass = iota

	// DistinctPair marks two different cells (inter term)
	DistinctPair
)

// Classify returns the branch taken for a (row cell, column cell) pair
func Classify(i, j partitions.GlobalCell) PairClass {
	if i == j {
		return SelfPair
	}
	return DistinctPair
}

// Builder performs the one-shot population of a Store from the macrocell
// geometry. It is the only writer of the Store; after Build returns the
// tensor is read-only for the rest of the run.
type Builder struct {
	// Macrocell geometry, read-only input
	Ensemble *cells.Ensemble

	// Cells owned by the calling rank; one tensor row per local cell
	Rank *partitions.RankCells
}

// Build fills every (local cell, global cell) entry of the store. Sizing
// disagreements between the store, the decomposition, and the geometry are
// fatal configuration errors and panic with the mismatched dimension named.
func (b *Builder) Build(s *Store) {
	ens := b.Ensemble
	numCells := ens.NumCells()

	if s.NumCells() != numCells {
		panic(fmt.Sprintf("tensor: store has %d columns but ensemble has %d cells",
			s.NumCells(), numCells))
	}
	if s.NumLocalCells() != b.Rank.NumLocalCells() {
		panic(fmt.Sprintf("tensor: store has %d rows but rank owns %d cells",
			s.NumLocalCells(), b.Rank.NumLocalCells()))
	}
	if len(ens.NumAtomsInCell) != numCells || len(ens.AtomCoords) != numCells ||
		len(ens.Volume) != numCells {
		panic(fmt.Sprintf("tensor: ensemble arrays disagree on cell count: atoms %d, coords %d, volumes %d, centroids %d",
			len(ens.NumAtomsInCell), len(ens.AtomCoords), len(ens.Volume), numCells))
	}
	for c := 0; c < numCells; c++ {
		if len(ens.AtomCoords[c]) != ens.NumAtomsInCell[c] {
			panic(fmt.Sprintf("tensor: cell %d groups %d coordinates but counts %d atoms",
				c, len(ens.AtomCoords[c]), ens.NumAtomsInCell[c]))
		}
	}

	for lc := 0; lc < b.Rank.NumLocalCells(); lc++ {
		i := b.Rank.Global(partitions.LocalCell(lc))
		if i < 0 || int(i) >= numCells {
			panic(fmt.Sprintf("tensor: local row %d maps to cell id %d, outside [0,%d)",
				lc, i, numCells))
		}
		if ens.NumAtomsInCell[i] == 0 {
			// Empty cells interact with nothing; the row stays zero
			continue
		}
		for j := 0; j < numCells; j++ {
			if ens.NumAtomsInCell[j] == 0 {
				continue
			}
			switch Classify(i, partitions.GlobalCell(j)) {
			case SelfPair:
				b.buildIntra(s, lc, int(i))
			case DistinctPair:
				b.buildInter(s, lc, int(i), j)
			}
		}
	}
}

// buildIntra computes the same-cell term by explicit pairwise summation
// over the cell's atoms, excluding atom self-interaction, normalized by
// the ordered pair count so the stored entry contracts against the cell's
// total moment.
func (b *Builder) buildIntra(s *Store, lc, c int) {
	atoms := b.Ensemble.AtomCoords[c]
	n := len(atoms)

	var k kernelSum
	for p := 0; p < n; p++ {
		for q := 0; q < n; q++ {
			if p == q {
				continue
			}
			k.add(r3.Sub(atoms[q], atoms[p]))
		}
	}

	norm := 1.0 / (float64(n) * float64(n))
	s.intra[XX].Set(lc, c, k.xx*norm)
	s.intra[XY].Set(lc, c, k.xy*norm)
	s.intra[XZ].Set(lc, c, k.xz*norm)
	s.intra[YY].Set(lc, c, k.yy*norm)
	s.intra[YZ].Set(lc, c, k.yz*norm)
	s.intra[ZZ].Set(lc, c, k.zz*norm)
}

// buildInter computes the distinct-cell term from the centroid separation,
// valid once cells are farther apart than the macrocell size.
func (b *Builder) buildInter(s *Store, lc, i, j int) {
	ens := b.Ensemble

	var k kernelSum
	k.add(r3.Sub(ens.Centroid[j], ens.Centroid[i]))

	s.inter[XX].Set(lc, j, k.xx)
	s.inter[XY].Set(lc, j, k.xy)
	s.inter[XZ].Set(lc, j, k.xz)
	s.inter[YY].Set(lc, j, k.yy)
	s.inter[YZ].Set(lc, j, k.yz)
	s.inter[ZZ].Set(lc, j, k.zz)
}

// kernelSum accumulates the six components of the rank-2 dipole kernel:
// diagonal (3 r_a^2 - r^2)/r^5, off-diagonal 3 r_a r_b / r^5.
type kernelSum struct {
	xx, xy, xz, yy, yz, zz float64
}

func (k *kernelSum) add(r r3.Vec) {
	r2 := r3.Dot(r, r)
	if r2 == 0 {
		panic("tensor: coincident positions in dipole kernel")
	}
	inv5 := 1.0 / (r2 * r2 * math.Sqrt(r2))

	k.xx += (3*r.X*r.X - r2) * inv5
	k.xy += 3 * r.X * r.Y * inv5
	k.xz += 3 * r.X * r.Z * inv5
	k.yy += (3*r.Y*r.Y - r2) * inv5
	k.yz += 3 * r.Y * r.Z * inv5
	k.zz += (3*r.Z*r.Z - r2) * inv5
}
