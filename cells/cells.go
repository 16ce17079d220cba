package cells

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Lattice is the immutable atomistic input handed over by the geometry
// subsystem: one coordinate and one material type id per atom.
type Lattice struct {
	Coords []r3.Vec // Atomic coordinates, length NumAtoms
	Types  []int    // Material type id per atom
}

// NumAtoms returns the number of atoms in the lattice
func (l *Lattice) NumAtoms() int {
	return len(l.Coords)
}

// Ensemble is the macrocell partition model: per-cell geometry and
// aggregate moments over a fixed set of macrocells. Geometry is static
// after construction; only the moments change between timesteps, written
// by the spin-dynamics engine and read by the field evaluator.
type Ensemble struct {
	// Macrocell edge length used for binning
	CellSize float64

	// Per-cell geometry, all length NumCells
	Centroid       []r3.Vec  // Mean atomic position, or bin center for empty cells
	Volume         []float64 // Macrocell volume
	NumAtomsInCell []int     // Magnetic atoms assigned to each cell

	// Per-cell atom groupings, indexed [cell][in-cell atom index]
	AtomCoords [][]r3.Vec // Coordinates of the atoms in each cell
	AtomIndex  [][]int    // Global atom index of each grouped atom

	// Per-atom cell assignment, length NumAtoms (-1 for atoms excluded
	// from the magnetic system)
	CellOf []int

	// Per-cell aggregate moment, refreshed every timestep
	Moment    []r3.Vec
	MomentMag []float64
}

// NumCells returns the total number of macrocells, including empty ones
func (e *Ensemble) NumCells() int {
	return len(e.Centroid)
}

// NumAtoms returns the number of atoms assigned to cells
func (e *Ensemble) NumAtoms() int {
	return len(e.CellOf)
}

// MagneticAtoms returns the total number of magnetic atoms across all cells
func (e *Ensemble) MagneticAtoms() int {
	n := 0
	for _, na := range e.NumAtomsInCell {
		n += na
	}
	return n
}

// AccumulateMoments rebuilds the per-cell aggregate moments from per-atom
// spin directions and moment magnitudes. The spin-dynamics engine calls
// this between field evaluations; the dipole core only reads the result.
func (e *Ensemble) AccumulateMoments(spins []r3.Vec, mu []float64) error {
	if len(spins) != len(e.CellOf) {
		return fmt.Errorf("spin array length %d != atom count %d", len(spins), len(e.CellOf))
	}
	if len(mu) != len(e.CellOf) {
		return fmt.Errorf("moment magnitude array length %d != atom count %d", len(mu), len(e.CellOf))
	}
	for c := range e.Moment {
		e.Moment[c] = r3.Vec{}
		e.MomentMag[c] = 0
	}
	for a, c := range e.CellOf {
		if c < 0 {
			continue
		}
		e.Moment[c] = r3.Add(e.Moment[c], r3.Scale(mu[a], spins[a]))
		e.MomentMag[c] += mu[a]
	}
	return nil
}

// SetUniformMoment sets every occupied cell's moment to m scaled by its
// atom count, as for a uniformly magnetized sample. Empty cells stay zero.
func (e *Ensemble) SetUniformMoment(m r3.Vec) {
	for c := range e.Moment {
		n := float64(e.NumAtomsInCell[c])
		e.Moment[c] = r3.Scale(n, m)
		e.MomentMag[c] = n * r3.Norm(m)
	}
}
