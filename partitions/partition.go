package partitions

import (
	"fmt"
)

// GlobalCell identifies a macrocell in the global enumeration [0, NumCells).
// It is a distinct type from LocalCell so that a global id can never be used
// to index a rank-local tensor row by accident.
type GlobalCell int

// LocalCell indexes a tensor row owned by the calling rank, in
// [0, NumLocalCells). Only these rows of the dipole tensor are stored on a
// given rank.
type LocalCell int

// RankCells represents the set of macrocells owned by one rank
// in the static decomposition
type RankCells struct {
	// Rank that owns these cells
	Rank int

	// Cell membership: local row index -> global cell id
	Cells []GlobalCell

	// Reverse map: global cell id -> local row index
	rows map[GlobalCell]LocalCell
}

// Layout manages the complete decomposition of the cell set across ranks
type Layout struct {
	// Per-rank cell ownership
	Ranks []RankCells

	// Global sizing information
	NumCells int // Total number of macrocells across all ranks
	NumRanks int // Total number of ranks

	// Cell to rank mapping
	CellToRank []int // Length NumCells: cell c belongs to rank CellToRank[c]
}

// Methods for RankCells

// NumLocalCells returns the number of tensor rows this rank stores
func (rc *RankCells) NumLocalCells() int {
	return len(rc.Cells)
}

// Global returns the global cell id stored at local row lc
func (rc *RankCells) Global(lc LocalCell) GlobalCell {
	return rc.Cells[lc]
}

// Row returns the local row index for global cell c, if this rank owns it
func (rc *RankCells) Row(c GlobalCell) (LocalCell, bool) {
	lc, ok := rc.rows[c]
	return lc, ok
}

// Methods for Layout

// Owner returns the rank owning global cell c, or -1 if c is out of range
func (l *Layout) Owner(c GlobalCell) int {
	if c < 0 || int(c) >= len(l.CellToRank) {
		return -1
	}
	return l.CellToRank[c]
}

// Local returns the cell set owned by the given rank
func (l *Layout) Local(rank int) *RankCells {
	if rank < 0 || rank >= len(l.Ranks) {
		return nil
	}
	return &l.Ranks[rank]
}

// Validate checks decomposition consistency: every cell owned exactly once,
// local rows consistent with CellToRank
func (l *Layout) Validate() error {
	if len(l.CellToRank) != l.NumCells {
		return fmt.Errorf("CellToRank length %d != NumCells %d",
			len(l.CellToRank), l.NumCells)
	}
	seen := make([]bool, l.NumCells)
	total := 0
	for r := range l.Ranks {
		rc := &l.Ranks[r]
		if rc.Rank != r {
			return fmt.Errorf("rank slot %d holds rank id %d", r, rc.Rank)
		}
		for lc, c := range rc.Cells {
			if c < 0 || int(c) >= l.NumCells {
				return fmt.Errorf("rank %d row %d: cell id %d out of range [0,%d)",
					r, lc, c, l.NumCells)
			}
			if seen[c] {
				return fmt.Errorf("cell %d owned by more than one rank", c)
			}
			seen[c] = true
			if l.CellToRank[c] != r {
				return fmt.Errorf("cell %d: CellToRank says rank %d, found in rank %d",
					c, l.CellToRank[c], r)
			}
			if row, ok := rc.Row(c); !ok || row != LocalCell(lc) {
				return fmt.Errorf("rank %d: reverse map inconsistent for cell %d", r, c)
			}
			total++
		}
	}
	if total != l.NumCells {
		return fmt.Errorf("ranks own %d cells in total, expected %d", total, l.NumCells)
	}
	return nil
}
