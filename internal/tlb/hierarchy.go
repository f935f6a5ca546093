package tlb

import (
	"fmt"
	"math/rand"
	"time"
)

// Kind tags a reference as an instruction fetch or a data access.
type Kind uint8

const (
	Instruction Kind = iota
	Data
)

// LevelID indexes the three reserved levels of the hierarchy.
type LevelID int

const (
	ITLB LevelID = iota
	DTLB
	L2TLB
	levelCount
)

func (id LevelID) String() string {
	switch id {
	case ITLB:
		return "iTLB"
	case DTLB:
		return "dTLB"
	case L2TLB:
		return "L2TLB"
	}
	return "?"
}

// LevelSpec is the geometry of one level as configured. Assoc uses the
// shared signed convention (-1 FA, 0 DM, N>0 N-way).
type LevelSpec struct {
	PageSize uint64
	Assoc    int
	Entries  int
}

// Config gathers everything the hierarchy needs at construction. A nil
// level spec leaves that level disabled.
type Config struct {
	ITLB  *LevelSpec
	DTLB  *LevelSpec
	L2TLB *LevelSpec

	Policy   Policy
	VASBits  int
	SimTLB   bool
	SimPages bool

	// Seed feeds the Random policy generator; 0 derives one from the clock.
	Seed int64
}

// Hierarchy orchestrates the L1 TLBs and the unified L2TLB. Instruction
// references go to the iTLB, data references to the dTLB; any L1 miss
// consults the L2TLB when it is enabled. References must be delivered
// sequentially; the hierarchy holds no locks.
type Hierarchy struct {
	levels [levelCount]*Level

	policy   Policy
	simTLB   bool
	simPages bool
	vasBits  int
	rng      *rand.Rand

	// t1 accumulates iTLB+dTLB misses, t2 accumulates L2TLB misses.
	t1 uint64
	t2 uint64
}

// NewHierarchy validates the enabled level specs and allocates their entry
// arrays. Geometry errors are configuration errors, not panics.
func NewHierarchy(cfg Config) (*Hierarchy, error) {
	if cfg.VASBits <= 0 {
		return nil, fmt.Errorf("virtual address space size must be bigger than 0, got %d", cfg.VASBits)
	}
	if !cfg.Policy.Valid() {
		return nil, fmt.Errorf("invalid replacement policy %d", int(cfg.Policy))
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	h := &Hierarchy{
		policy:   cfg.Policy,
		simTLB:   cfg.SimTLB,
		simPages: cfg.SimPages,
		vasBits:  cfg.VASBits,
		rng:      rand.New(rand.NewSource(seed)),
	}
	specs := [levelCount]*LevelSpec{cfg.ITLB, cfg.DTLB, cfg.L2TLB}
	for id, spec := range specs {
		if spec == nil {
			continue
		}
		lvl, err := NewLevel(LevelID(id).String(), spec.PageSize, spec.Assoc, spec.Entries, cfg.VASBits)
		if err != nil {
			return nil, err
		}
		h.levels[id] = lvl
	}
	return h, nil
}

// Level returns the given level, or nil when it is disabled.
func (h *Hierarchy) Level(id LevelID) *Level { return h.levels[id] }

// Policy returns the replacement policy in effect.
func (h *Hierarchy) Policy() Policy { return h.policy }

// VASBits returns the configured virtual address space size in bits.
func (h *Hierarchy) VASBits() int { return h.vasBits }

// SimTLB reports whether hit/miss simulation is on.
func (h *Hierarchy) SimTLB() bool { return h.simTLB }

// SimPages reports whether the page-access log is on.
func (h *Hierarchy) SimPages() bool { return h.simPages }

// L1Misses returns t1, the combined iTLB+dTLB miss count.
func (h *Hierarchy) L1Misses() uint64 { return h.t1 }

// L2Misses returns t2, the L2TLB miss count.
func (h *Hierarchy) L2Misses() uint64 { return h.t2 }

// Reference feeds one virtual address reference into the hierarchy.
// Instruction references route to the iTLB, data references to the dTLB;
// a disabled L1 makes the reference a no-op.
func (h *Hierarchy) Reference(addr uint64, kind Kind) {
	var l1 *Level
	switch kind {
	case Instruction:
		l1 = h.levels[ITLB]
	case Data:
		l1 = h.levels[DTLB]
	}
	if l1 == nil {
		return
	}
	h.visit(l1, addr, true)
}

// visit runs the per-level protocol: decode, look up, log the page, and on
// an L1 miss cascade into the L2TLB. An entry is installed in the L1 only
// when both the L1 and the L2 missed; an L2 hit leaves the L1 untouched.
func (h *Hierarchy) visit(l *Level, addr uint64, isL1 bool) Result {
	p := l.decode(addr)

	res := Miss
	if h.simTLB {
		res = l.lookup(p, h.policy)
	}
	if h.simPages {
		l.pages.Record(p.vpn)
	}
	if !h.simTLB || res == Hit {
		return res
	}

	if isL1 {
		h.t1++
		if l2 := h.levels[L2TLB]; l2 != nil {
			if h.visit(l2, addr, false) == Hit {
				// L2 hit: the L1 keeps its current contents.
				return Miss
			}
		}
	} else {
		h.t2++
	}

	l.install(p, h.policy, h.rng)
	return Miss
}
