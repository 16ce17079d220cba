package tensor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/spindyn/DipoleKernel/cells"
	"github.com/spindyn/DipoleKernel/partitions"
)

// singleRankLayout decomposes numCells onto one rank
func singleRankLayout(t *testing.T, numCells int) *partitions.Layout {
	t.Helper()
	layout, err := (&partitions.Builder{NumCells: numCells, NumRanks: 1}).Build()
	require.NoError(t, err)
	return layout
}

// twoCellEnsemble places one atom at the origin and one at (0,0,d), each in
// its own macrocell of volume vol
func twoCellEnsemble(d, vol float64) *cells.Ensemble {
	size := math.Cbrt(vol)
	return &cells.Ensemble{
		CellSize:       size,
		Centroid:       []r3.Vec{{}, {Z: d}},
		Volume:         []float64{vol, vol},
		NumAtomsInCell: []int{1, 1},
		AtomCoords:     [][]r3.Vec{{{}}, {{Z: d}}},
		AtomIndex:      [][]int{{0}, {1}},
		CellOf:         []int{0, 1},
		Moment:         make([]r3.Vec, 2),
		MomentMag:      make([]float64, 2),
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, SelfPair, Classify(3, 3))
	assert.Equal(t, DistinctPair, Classify(3, 4))
}

func TestTwoCellInterKernel(t *testing.T) {
	const d = 10.0
	ens := twoCellEnsemble(d, 1.0)
	layout := singleRankLayout(t, 2)

	s := NewStore(2, 2)
	(&Builder{Ensemble: ens, Rank: layout.Local(0)}).Build(s)

	// Separation along z: zz = 2/d^3, xx = yy = -1/d^3, off-diagonals zero
	d3 := d * d * d
	assert.InDelta(t, 2/d3, s.Inter(ZZ).At(0, 1), 1e-15)
	assert.InDelta(t, -1/d3, s.Inter(XX).At(0, 1), 1e-15)
	assert.InDelta(t, -1/d3, s.Inter(YY).At(0, 1), 1e-15)
	assert.Zero(t, s.Inter(XY).At(0, 1))
	assert.Zero(t, s.Inter(XZ).At(0, 1))
	assert.Zero(t, s.Inter(YZ).At(0, 1))

	// The kernel is even in the separation, so the reverse pair matches
	assert.Equal(t, s.Inter(ZZ).At(0, 1), s.Inter(ZZ).At(1, 0))
	assert.Equal(t, s.Inter(XX).At(0, 1), s.Inter(XX).At(1, 0))
}

func TestSingleAtomIntraIsZero(t *testing.T) {
	ens := twoCellEnsemble(10.0, 1.0)
	layout := singleRankLayout(t, 2)

	s := NewStore(2, 2)
	(&Builder{Ensemble: ens, Rank: layout.Local(0)}).Build(s)

	// One atom has no pair partner: no self-interaction term
	for c := Comp(0); c < NumComps; c++ {
		assert.Zero(t, s.Intra(c).At(0, 0), "component %s", c)
		assert.Zero(t, s.Intra(c).At(1, 1), "component %s", c)
	}
}

func TestIntraPairValue(t *testing.T) {
	// Two atoms in one cell separated by a along z. The ordered pairwise
	// sum counts the pair twice, and the 1/N^2 normalization divides by 4:
	// zz = 2 * (2/a^3) / 4 = 1/a^3.
	const a = 2.0
	ens := &cells.Ensemble{
		CellSize:       4,
		Centroid:       []r3.Vec{{Z: a / 2}},
		Volume:         []float64{64},
		NumAtomsInCell: []int{2},
		AtomCoords:     [][]r3.Vec{{{}, {Z: a}}},
		AtomIndex:      [][]int{{0, 1}},
		CellOf:         []int{0, 0},
		Moment:         make([]r3.Vec, 1),
		MomentMag:      make([]float64, 1),
	}
	layout := singleRankLayout(t, 1)

	s := NewStore(1, 1)
	(&Builder{Ensemble: ens, Rank: layout.Local(0)}).Build(s)

	a3 := a * a * a
	assert.InDelta(t, 1/a3, s.Intra(ZZ).At(0, 0), 1e-15)
	assert.InDelta(t, -0.5/a3, s.Intra(XX).At(0, 0), 1e-15)
	assert.InDelta(t, -0.5/a3, s.Intra(YY).At(0, 0), 1e-15)
	assert.Zero(t, s.Intra(XY).At(0, 0))

	// The diagonal of the dipole kernel is traceless
	trace := s.Intra(XX).At(0, 0) + s.Intra(YY).At(0, 0) + s.Intra(ZZ).At(0, 0)
	assert.InDelta(t, 0, trace, 1e-15)
}

func TestZeroAtomCellContributesNothing(t *testing.T) {
	// Middle cell is empty; it must produce no tensor entries and no
	// NaN/Inf anywhere.
	ens := &cells.Ensemble{
		CellSize:       1,
		Centroid:       []r3.Vec{{}, {Z: 5}, {Z: 10}},
		Volume:         []float64{1, 1, 1},
		NumAtomsInCell: []int{1, 0, 1},
		AtomCoords:     [][]r3.Vec{{{}}, {}, {{Z: 10}}},
		AtomIndex:      [][]int{{0}, {}, {1}},
		CellOf:         []int{0, 2},
		Moment:         make([]r3.Vec, 3),
		MomentMag:      make([]float64, 3),
	}
	layout := singleRankLayout(t, 3)

	s := NewStore(3, 3)
	(&Builder{Ensemble: ens, Rank: layout.Local(0)}).Build(s)

	for c := Comp(0); c < NumComps; c++ {
		for lc := 0; lc < 3; lc++ {
			for j := 0; j < 3; j++ {
				vIntra := s.Intra(c).At(lc, j)
				vInter := s.Inter(c).At(lc, j)
				assert.False(t, math.IsNaN(vIntra) || math.IsInf(vIntra, 0))
				assert.False(t, math.IsNaN(vInter) || math.IsInf(vInter, 0))
				if lc == 1 || j == 1 {
					assert.Zero(t, vIntra)
					assert.Zero(t, vInter)
				}
			}
		}
	}
}

func TestBuildRejectsSizeMismatch(t *testing.T) {
	ens := twoCellEnsemble(10.0, 1.0)
	layout := singleRankLayout(t, 2)
	b := &Builder{Ensemble: ens, Rank: layout.Local(0)}

	// Store column count disagrees with the ensemble
	assert.Panics(t, func() { b.Build(NewStore(2, 3)) })

	// Store row count disagrees with the rank's cell set
	assert.Panics(t, func() { b.Build(NewStore(1, 2)) })

	// Coordinate group length disagrees with the atom count
	broken := twoCellEnsemble(10.0, 1.0)
	broken.AtomCoords[0] = nil
	assert.Panics(t, func() {
		(&Builder{Ensemble: broken, Rank: layout.Local(0)}).Build(NewStore(2, 2))
	})
}
