package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateBytes(t *testing.T) {
	// 6 components x 2 sets x 8 bytes x rows x cols
	assert.Equal(t, int64(6*2*8*10*40), EstimateBytes(10, 40))
	assert.Equal(t, int64(96), EstimateBytes(1, 1))
}

func TestNewStoreDimensions(t *testing.T) {
	s := NewStore(2, 5)
	assert.Equal(t, 2, s.NumLocalCells())
	assert.Equal(t, 5, s.NumCells())

	for c := Comp(0); c < NumComps; c++ {
		r, cols := s.Intra(c).Dims()
		assert.Equal(t, 2, r)
		assert.Equal(t, 5, cols)
		r, cols = s.Inter(c).Dims()
		assert.Equal(t, 2, r)
		assert.Equal(t, 5, cols)
	}
}

func TestNewStoreRejectsBadDimensions(t *testing.T) {
	assert.Panics(t, func() { NewStore(0, 4) })
	assert.Panics(t, func() { NewStore(4, 0) })
	assert.Panics(t, func() { NewStore(-1, -1) })
}

func TestStoreZeroAndEqual(t *testing.T) {
	a := NewStore(2, 3)
	b := NewStore(2, 3)
	assert.True(t, a.Equal(b))

	a.Intra(XY).Set(1, 2, 0.5)
	assert.False(t, a.Equal(b))

	a.Zero()
	assert.True(t, a.Equal(b))

	c := NewStore(3, 3)
	assert.False(t, a.Equal(c))
}

func TestCompString(t *testing.T) {
	assert.Equal(t, "xx", XX.String())
	assert.Equal(t, "yz", YZ.String())
}
