package partitions

import (
	"fmt"
	"math"
)

// Builder constructs the static cell decomposition consumed by the dipole
// tensor. Decomposition happens once, before the tensor is built; the core
// only ever reads the resulting Layout.
type Builder struct {
	// Global number of macrocells to distribute
	NumCells int

	// Number of ranks to distribute them across
	NumRanks int

	// Decomposition strategy
	Strategy Strategy
}

// Strategy defines how cells are assigned to ranks
type Strategy int

const (
	// Block assigns consecutive cell ids to each rank
	Block Strategy = iota

	// RoundRobin distributes cell ids cyclically across ranks
	RoundRobin
)

// String returns the config-file spelling of the strategy
func (s Strategy) String() string {
	switch s {
	case Block:
		return "block"
	case RoundRobin:
		return "roundrobin"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy converts the config-file spelling into a Strategy
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "block", "":
		return Block, nil
	case "roundrobin":
		return RoundRobin, nil
	}
	return Block, fmt.Errorf("unknown decomposition strategy %q", name)
}

// Build creates a validated Layout from the builder parameters
func (b *Builder) Build() (*Layout, error) {
	if b.NumCells < 0 {
		return nil, fmt.Errorf("negative cell count %d", b.NumCells)
	}
	if b.NumRanks < 1 {
		return nil, fmt.Errorf("need at least one rank, got %d", b.NumRanks)
	}

	// Assign cells to ranks
	cellToRank := b.assignCells()

	// Create the per-rank cell sets
	ranks := make([]RankCells, b.NumRanks)
	for r := range ranks {
		ranks[r] = RankCells{
			Rank: r,
			rows: make(map[GlobalCell]LocalCell),
		}
	}
	for c, r := range cellToRank {
		rc := &ranks[r]
		rc.rows[GlobalCell(c)] = LocalCell(len(rc.Cells))
		rc.Cells = append(rc.Cells, GlobalCell(c))
	}

	layout := &Layout{
		Ranks:      ranks,
		NumCells:   b.NumCells,
		NumRanks:   b.NumRanks,
		CellToRank: cellToRank,
	}

	// Validate the layout
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cell decomposition: %w", err)
	}

	return layout, nil
}

// assignCells maps each global cell id to its owning rank
func (b *Builder) assignCells() []int {
	cellToRank := make([]int, b.NumCells)

	switch b.Strategy {
	case RoundRobin:
		// Distribute cells cyclically
		for c := 0; c < b.NumCells; c++ {
			cellToRank[c] = c % b.NumRanks
		}

	default:
		// Block decomposition: consecutive cells per rank
		cellsPerRank := int(math.Ceil(float64(b.NumCells) / float64(b.NumRanks)))
		if cellsPerRank < 1 {
			cellsPerRank = 1
		}
		for c := 0; c < b.NumCells; c++ {
			r := c / cellsPerRank
			if r >= b.NumRanks {
				r = b.NumRanks - 1
			}
			cellToRank[c] = r
		}
	}

	return cellToRank
}
