// Package config reads the simulation configuration file consumed by the
// drivers. The dipole core itself owns no CLI or environment surface; the
// orchestrating program parses the file and passes the resulting values in.
package config

import (
	"fmt"

	"gopkg.in/gcfg.v1"

	"github.com/spindyn/DipoleKernel/partitions"
)

// DipoleConfig is the [dipole] section
type DipoleConfig struct {
	// Required when Enabled
	MacroCellSize float64

	// Optional
	Enabled       bool
	Decomposition string
	Ranks         int
}

// CheckInit validates the section and fills defaults
func (c *DipoleConfig) CheckInit() error {
	if c.Enabled && c.MacroCellSize <= 0 {
		return fmt.Errorf(
			"Need to specify a positive MacroCellSize when the dipole field is enabled",
		)
	}
	if _, err := partitions.ParseStrategy(c.Decomposition); err != nil {
		return err
	}
	if c.Decomposition == "" {
		c.Decomposition = "block"
	}
	if c.Ranks == 0 {
		c.Ranks = 1
	}
	if c.Ranks < 0 {
		return fmt.Errorf("Need a positive rank count, got %d", c.Ranks)
	}
	return nil
}

// Strategy returns the decomposition strategy named by the section
func (c *DipoleConfig) Strategy() partitions.Strategy {
	s, err := partitions.ParseStrategy(c.Decomposition)
	if err != nil {
		// CheckInit already vetted the spelling
		panic(err)
	}
	return s
}

// SimConfig is the whole configuration file
type SimConfig struct {
	Dipole DipoleConfig
}

// ReadFile parses and validates a gcfg configuration file
func ReadFile(path string) (*SimConfig, error) {
	sc := &SimConfig{}
	if err := gcfg.ReadFileInto(sc, path); err != nil {
		return nil, err
	}
	if err := sc.Dipole.CheckInit(); err != nil {
		return nil, err
	}
	return sc, nil
}
