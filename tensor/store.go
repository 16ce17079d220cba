// Package tensor implements the macrocell dipole interaction tensor: its
// dense six-component storage, the one-shot geometric build, the per-step
// field contraction, and the demagnetizing-factor diagnostic derived from
// the globally reduced tensor.
package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Comp enumerates the six independent components of the symmetric 3x3
// dipole tensor. Only the upper triangle is stored; the lower triangle is
// implied by symmetry.
type Comp int

const (
	XX Comp = iota
	XY
	XZ
	YY
	YZ
	ZZ

	// NumComps is the number of stored components per tensor set
	NumComps
)

// String returns the component label
func (c Comp) String() string {
	switch c {
	case XX:
		return "xx"
	case XY:
		return "xy"
	case XZ:
		return "xz"
	case YY:
		return "yy"
	case YZ:
		return "yz"
	case ZZ:
		return "zz"
	}
	return fmt.Sprintf("Comp(%d)", int(c))
}

// Store holds the dipole interaction tensor between every local cell row
// and every global cell column: six intra components (same-cell atomistic
// self term) and six inter components (distinct-cell point-dipole term).
// It is filled once by the Builder and read-only afterwards.
type Store struct {
	numLocalCells int
	numCells      int

	intra [NumComps]*mat.Dense
	inter [NumComps]*mat.Dense
}

// EstimateBytes returns the memory the tensor will occupy:
// 6 components x 2 sets x 8 bytes per entry. The engine reports this
// before allocation so oversized runs can be vetoed up front.
func EstimateBytes(numLocalCells, numCells int) int64 {
	return 6 * 2 * 8 * int64(numLocalCells) * int64(numCells)
}

// NewStore allocates the twelve component matrices, zero-initialized.
// Non-positive dimensions indicate a broken decomposition and panic.
func NewStore(numLocalCells, numCells int) *Store {
	if numLocalCells <= 0 || numCells <= 0 {
		panic(fmt.Sprintf("tensor: invalid store dimensions %d x %d",
			numLocalCells, numCells))
	}
	s := &Store{
		numLocalCells: numLocalCells,
		numCells:      numCells,
	}
	for c := Comp(0); c < NumComps; c++ {
		s.intra[c] = mat.NewDense(numLocalCells, numCells, nil)
		s.inter[c] = mat.NewDense(numLocalCells, numCells, nil)
	}
	return s
}

// NumLocalCells returns the number of tensor rows
func (s *Store) NumLocalCells() int { return s.numLocalCells }

// NumCells returns the number of tensor columns
func (s *Store) NumCells() int { return s.numCells }

// Intra returns the intra-cell matrix for one component
func (s *Store) Intra(c Comp) *mat.Dense { return s.intra[c] }

// Inter returns the inter-cell matrix for one component
func (s *Store) Inter(c Comp) *mat.Dense { return s.inter[c] }

// Zero clears every component matrix
func (s *Store) Zero() {
	for c := Comp(0); c < NumComps; c++ {
		s.intra[c].Zero()
		s.inter[c].Zero()
	}
}

// Equal reports whether two stores hold identical tensors
func (s *Store) Equal(o *Store) bool {
	if s.numLocalCells != o.numLocalCells || s.numCells != o.numCells {
		return false
	}
	for c := Comp(0); c < NumComps; c++ {
		if !mat.Equal(s.intra[c], o.intra[c]) || !mat.Equal(s.inter[c], o.inter[c]) {
			return false
		}
	}
	return true
}
