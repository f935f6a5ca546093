package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

var (
	// ErrBadTriple is returned when an option value is not exactly three
	// comma-separated decimal integers.
	ErrBadTriple = errors.New("expected three comma-separated integers")
	// ErrOverflow is returned when a parsed value does not fit the
	// descriptor's 32-bit field.
	ErrOverflow = errors.New("one of the cache parameters was too large and overflowed")
)

// Slot is one named cache or TLB configuration slot. Supplied tracks
// whether the user set it, which gates both the override-wins rule for CPU
// caches and the enable flag for TLB levels.
type Slot struct {
	Descriptor
	Supplied bool
}

// Config is the full option surface of the simulator before resolution
// against the auto-detector.
type Config struct {
	I1, D1, L2, LL    Slot
	ITLB, DTLB, L2TLB Slot

	SimTLB   bool
	SimPages bool
	VASBits  int
	RepPol   int
	Seed     int64
}

// New returns a Config carrying the documented defaults.
func New() *Config {
	return &Config{
		SimTLB:  true,
		VASBits: 32,
		RepPol:  1, // LRU
	}
}

// ParseTriple parses a "N1,N2,N3" option value into a descriptor. The three
// fields are parsed as 64-bit integers and must fit into 32 bits.
func ParseTriple(val string) (Descriptor, error) {
	parts := strings.Split(val, ",")
	if len(parts) != 3 {
		return Descriptor{}, ErrBadTriple
	}
	var fields [3]int32
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return Descriptor{}, ErrBadTriple
		}
		if n > math.MaxInt32 || n < math.MinInt32 {
			return Descriptor{}, ErrOverflow
		}
		fields[i] = int32(n)
	}
	return Descriptor{Size: fields[0], Assoc: fields[1], LineSize: fields[2]}, nil
}

// SetSlot binds one --<name>=<value> cache option. CPU cache slots are
// validated immediately; TLB slots are not, as the simulator's set-count
// rules do not apply to them until level construction.
func (c *Config) SetSlot(name, value string) error {
	var slot *Slot
	cpu := false
	switch name {
	case "I1":
		slot, cpu = &c.I1, true
	case "D1":
		slot, cpu = &c.D1, true
	case "L2":
		slot, cpu = &c.L2, true
	case "LL":
		slot, cpu = &c.LL, true
	case "iTLB":
		slot = &c.ITLB
	case "dTLB":
		slot = &c.DTLB
	case "L2TLB":
		slot = &c.L2TLB
	default:
		return fmt.Errorf("unknown cache option %q", name)
	}

	d, err := ParseTriple(value)
	if err != nil {
		return fmt.Errorf("--%s=%s: %w", name, value, err)
	}
	if cpu {
		if err := d.CheckCache(); err != nil {
			return fmt.Errorf("--%s=%s: %w", name, value, err)
		}
	}
	slot.Descriptor = d
	slot.Supplied = true
	return nil
}

// ParseYesNo parses the yes|no boolean option grammar.
func ParseYesNo(name, value string) (bool, error) {
	switch value {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	}
	return false, fmt.Errorf("--%s=%s: expected yes or no", name, value)
}

// Normalize applies the recoverable-option rules: an out-of-range
// replacement policy warns and resets to LRU; a non-positive virtual
// address space size is a configuration error.
func (c *Config) Normalize(log zerolog.Logger) error {
	if c.VASBits <= 0 {
		return fmt.Errorf("virtual address size has to be bigger than 0, got %d", c.VASBits)
	}
	if c.RepPol < 0 || c.RepPol > 2 {
		log.Warn().Int("tlb-rep-pol", c.RepPol).Msg("not a valid replacement policy value, setting to LRU")
		c.RepPol = 1
	}
	return nil
}
