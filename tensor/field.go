package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Evaluate contracts the tensor against the current per-cell moments,
// writing the dipole field for every local cell into fields:
//
//	field_i = sum_j (intra_ij + inter_ij) . moment_j
//
// where the six stored scalars expand into the symmetric 3x3 block. The
// contraction runs in ascending column order on every call, so repeated
// evaluation with unchanged moments is bit-for-bit reproducible. No
// allocation is performed; both slices are caller-owned.
func (s *Store) Evaluate(moments, fields []r3.Vec) {
	if len(moments) != s.numCells {
		panic(fmt.Sprintf("tensor: moment array length %d != cell count %d",
			len(moments), s.numCells))
	}
	if len(fields) != s.numLocalCells {
		panic(fmt.Sprintf("tensor: field array length %d != local cell count %d",
			len(fields), s.numLocalCells))
	}

	for lc := 0; lc < s.numLocalCells; lc++ {
		axx := s.intra[XX].RawRowView(lc)
		axy := s.intra[XY].RawRowView(lc)
		axz := s.intra[XZ].RawRowView(lc)
		ayy := s.intra[YY].RawRowView(lc)
		ayz := s.intra[YZ].RawRowView(lc)
		azz := s.intra[ZZ].RawRowView(lc)

		bxx := s.inter[XX].RawRowView(lc)
		bxy := s.inter[XY].RawRowView(lc)
		bxz := s.inter[XZ].RawRowView(lc)
		byy := s.inter[YY].RawRowView(lc)
		byz := s.inter[YZ].RawRowView(lc)
		bzz := s.inter[ZZ].RawRowView(lc)

		var hx, hy, hz float64
		for j := 0; j < s.numCells; j++ {
			m := moments[j]
			txx := axx[j] + bxx[j]
			txy := axy[j] + bxy[j]
			txz := axz[j] + bxz[j]
			tyy := ayy[j] + byy[j]
			tyz := ayz[j] + byz[j]
			tzz := azz[j] + bzz[j]

			hx += txx*m.X + txy*m.Y + txz*m.Z
			hy += txy*m.X + tyy*m.Y + tyz*m.Z
			hz += txz*m.X + tyz*m.Y + tzz*m.Z
		}
		fields[lc] = r3.Vec{X: hx, Y: hy, Z: hz}
	}
}
