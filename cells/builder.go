package cells

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Builder bins atoms into macrocells on a regular grid. The grid covers the
// bounding box of the lattice; every grid cell is kept, occupied or not, so
// that cell ids form a dense enumeration.
type Builder struct {
	// Macrocell edge length
	CellSize float64

	// Material type ids to exclude from the magnetic system. Atoms of
	// these types are not binned and carry no moment.
	NonMagneticTypes map[int]bool
}

// Assemble partitions the lattice into macrocells and returns the ensemble
// consumed by the dipole tensor builder.
func (b *Builder) Assemble(lat *Lattice) (*Ensemble, error) {
	if b.CellSize <= 0 {
		return nil, fmt.Errorf("macrocell size must be positive, got %g", b.CellSize)
	}
	if len(lat.Types) != len(lat.Coords) {
		return nil, fmt.Errorf("atom type array length %d != coordinate array length %d",
			len(lat.Types), len(lat.Coords))
	}
	if lat.NumAtoms() == 0 {
		return nil, fmt.Errorf("lattice contains no atoms")
	}

	// Bounding box of the lattice
	min, max := lat.Coords[0], lat.Coords[0]
	for _, p := range lat.Coords {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		min.Z = math.Min(min.Z, p.Z)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
		max.Z = math.Max(max.Z, p.Z)
	}

	// Grid dimensions, at least one cell per axis
	nx := gridDim(max.X-min.X, b.CellSize)
	ny := gridDim(max.Y-min.Y, b.CellSize)
	nz := gridDim(max.Z-min.Z, b.CellSize)
	numCells := nx * ny * nz

	ens := &Ensemble{
		CellSize:       b.CellSize,
		Centroid:       make([]r3.Vec, numCells),
		Volume:         make([]float64, numCells),
		NumAtomsInCell: make([]int, numCells),
		AtomCoords:     make([][]r3.Vec, numCells),
		AtomIndex:      make([][]int, numCells),
		CellOf:         make([]int, lat.NumAtoms()),
		Moment:         make([]r3.Vec, numCells),
		MomentMag:      make([]float64, numCells),
	}

	for a, p := range lat.Coords {
		if b.NonMagneticTypes[lat.Types[a]] {
			ens.CellOf[a] = -1
			continue
		}
		ix := binIndex(p.X-min.X, b.CellSize, nx)
		iy := binIndex(p.Y-min.Y, b.CellSize, ny)
		iz := binIndex(p.Z-min.Z, b.CellSize, nz)
		c := ix + nx*(iy+ny*iz)

		ens.CellOf[a] = c
		ens.NumAtomsInCell[c]++
		ens.AtomCoords[c] = append(ens.AtomCoords[c], p)
		ens.AtomIndex[c] = append(ens.AtomIndex[c], a)
		ens.Centroid[c] = r3.Add(ens.Centroid[c], p)
	}

	// Finalize per-cell geometry
	vol := b.CellSize * b.CellSize * b.CellSize
	for c := 0; c < numCells; c++ {
		ens.Volume[c] = vol
		if n := ens.NumAtomsInCell[c]; n > 0 {
			ens.Centroid[c] = r3.Scale(1/float64(n), ens.Centroid[c])
		} else {
			// Empty cell: geometric bin center
			ix := c % nx
			iy := (c / nx) % ny
			iz := c / (nx * ny)
			ens.Centroid[c] = r3.Vec{
				X: min.X + (float64(ix)+0.5)*b.CellSize,
				Y: min.Y + (float64(iy)+0.5)*b.CellSize,
				Z: min.Z + (float64(iz)+0.5)*b.CellSize,
			}
		}
	}

	return ens, nil
}

// gridDim returns the number of bins covering an extent
func gridDim(extent, size float64) int {
	n := int(math.Ceil(extent / size))
	if n < 1 {
		n = 1
	}
	return n
}

// binIndex clamps coordinates on the upper boundary into the last bin
func binIndex(offset, size float64, n int) int {
	i := int(offset / size)
	if i < 0 {
		i = 0
	}
	if i >= n {
		i = n - 1
	}
	return i
}
