package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileSchema mirrors the CLI option surface in YAML form. Cache slots hold
// the same "N1,N2,N3" triples as the flags.
type fileSchema struct {
	Caches  map[string]string `yaml:"caches"`
	Options struct {
		TLBSim     *bool  `yaml:"tlb-sim"`
		TLBPageSim *bool  `yaml:"tlb-page-sim"`
		TLBVASSize *int   `yaml:"tlb-vas-size"`
		TLBRepPol  *int   `yaml:"tlb-rep-pol"`
		TLBSeed    *int64 `yaml:"tlb-seed"`
	} `yaml:"options"`
}

// LoadFile applies a YAML configuration file to c. Files are applied before
// flags, so flags win on conflict.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var f fileSchema
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for name, val := range f.Caches {
		if err := c.SetSlot(name, val); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	opts := f.Options
	if opts.TLBSim != nil {
		c.SimTLB = *opts.TLBSim
	}
	if opts.TLBPageSim != nil {
		c.SimPages = *opts.TLBPageSim
	}
	if opts.TLBVASSize != nil {
		c.VASBits = *opts.TLBVASSize
	}
	if opts.TLBRepPol != nil {
		c.RepPol = *opts.TLBRepPol
	}
	if opts.TLBSeed != nil {
		c.Seed = *opts.TLBSeed
	}
	return nil
}
