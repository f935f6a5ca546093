package tlb

import (
	"errors"
	"fmt"
)

// Associativity encoding shared with the CLI: -1 is fully associative,
// 0 is direct mapped, N>0 is N-way set associative.
const (
	FullyAssociative = -1
	DirectMapped     = 0
)

// Result of a single-level lookup. A lookup never installs on a miss;
// installation is decided by the hierarchy, which needs the L2 outcome first.
type Result uint8

const (
	Miss Result = iota
	Hit
)

var (
	ErrPageSize   = errors.New("tlb page size is not a power of two")
	ErrEntries    = errors.New("tlb entry count must be at least 1")
	ErrAssoc      = errors.New("tlb associativity must be -1, 0 or a positive even number")
	ErrAssocSplit = errors.New("tlb entry count is not a multiple of associativity")
	ErrSetCount   = errors.New("tlb set count is not a power of two")
	ErrAddrSpace  = errors.New("tlb page does not fit in the virtual address space")
)

// Geometry holds the precomputed shape of one TLB level.
type Geometry struct {
	PageSize uint64
	Assoc    int
	Entries  int
	Sets     int

	OffsetBits uint
	VPNMask    uint64
	IndexMask  uint64
	TagMask    uint64
}

type entry struct {
	tag   uint64
	count int
	valid bool
}

// Level is one indexed array of TLB entries with hit/miss counters and an
// optional page-access log.
type Level struct {
	name    string
	geom    Geometry
	entries []entry

	hits   uint64
	misses uint64

	pages PageLog
}

// NewLevel validates the geometry and allocates the entry array. The entry
// array is allocated exactly once and lives until program end.
func NewLevel(name string, pageSize uint64, assoc, entries, vasBits int) (*Level, error) {
	if !isPowerOfTwo(pageSize) {
		return nil, fmt.Errorf("%s: %w", name, ErrPageSize)
	}
	if entries < 1 {
		return nil, fmt.Errorf("%s: %w", name, ErrEntries)
	}
	if assoc < FullyAssociative || (assoc > 0 && assoc%2 != 0) {
		return nil, fmt.Errorf("%s: %w", name, ErrAssoc)
	}

	g := Geometry{
		PageSize:   pageSize,
		Assoc:      assoc,
		Entries:    entries,
		OffsetBits: log2(pageSize),
	}
	if vasBits <= 0 || uint(vasBits) <= g.OffsetBits {
		return nil, fmt.Errorf("%s: %w", name, ErrAddrSpace)
	}
	vpnBits := uint(vasBits) - g.OffsetBits
	g.VPNMask = ((uint64(1) << vpnBits) - 1) << g.OffsetBits

	switch {
	case assoc == FullyAssociative:
		// No index split: the tag is the whole VPN.
		g.Sets = 1
	case assoc == DirectMapped:
		if !isPowerOfTwo(uint64(entries)) {
			return nil, fmt.Errorf("%s: %w", name, ErrSetCount)
		}
		g.Sets = entries
		g.IndexMask = uint64(entries) - 1
		g.TagMask = ((uint64(1) << vpnBits) - 1) &^ g.IndexMask
	default:
		if entries%assoc != 0 {
			return nil, fmt.Errorf("%s: %w", name, ErrAssocSplit)
		}
		g.Sets = entries / assoc
		if !isPowerOfTwo(uint64(g.Sets)) {
			return nil, fmt.Errorf("%s: %w", name, ErrSetCount)
		}
		g.IndexMask = uint64(g.Sets) - 1
		g.TagMask = ((uint64(1) << vpnBits) - 1) &^ g.IndexMask
	}

	return &Level{
		name:    name,
		geom:    g,
		entries: make([]entry, entries),
	}, nil
}

// scope returns the slice of entries the replacement policy may touch for
// the given set index: the whole array for FA, one slot for DM, one set of
// assoc contiguous entries for N-way.
func (l *Level) scope(set uint64) (base, n int) {
	switch {
	case l.geom.Assoc == FullyAssociative:
		return 0, l.geom.Entries
	case l.geom.Assoc == DirectMapped:
		return int(set), 1
	default:
		return int(set) * l.geom.Assoc, l.geom.Assoc
	}
}

// lookup scans the scope for the decoded tag. On a hit the policy's on-hit
// bookkeeping is applied. On a miss only the miss counter moves.
func (l *Level) lookup(p addrParts, pol Policy) Result {
	base, n := l.scope(p.set)
	for i := base; i < base+n; i++ {
		e := &l.entries[i]
		if e.valid && e.tag == p.tag {
			l.hits++
			switch pol {
			case PolicyLFU:
				e.count++
			case PolicyLRU:
				l.touchLRU(i)
			}
			return Hit
		}
	}
	l.misses++
	return Miss
}

// Name returns the level's display name.
func (l *Level) Name() string { return l.name }

// Geometry returns the level's precomputed shape.
func (l *Level) Geometry() Geometry { return l.geom }

// Hits returns the cumulative hit count.
func (l *Level) Hits() uint64 { return l.hits }

// Misses returns the cumulative miss count.
func (l *Level) Misses() uint64 { return l.misses }

// Pages returns the level's page-access log.
func (l *Level) Pages() *PageLog { return &l.pages }

// Describe formats the level configuration in words.
func (l *Level) Describe() string {
	switch {
	case l.geom.Assoc == FullyAssociative:
		return fmt.Sprintf("%d B, %d E, fully associative", l.geom.PageSize, l.geom.Entries)
	case l.geom.Assoc == DirectMapped:
		return fmt.Sprintf("%d B, %d E, direct mapped", l.geom.PageSize, l.geom.Entries)
	default:
		return fmt.Sprintf("%d B, %d E, %d-way associative", l.geom.PageSize, l.geom.Entries, l.geom.Assoc)
	}
}
