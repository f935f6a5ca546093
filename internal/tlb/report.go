package tlb

import (
	"fmt"
	"io"
)

// percentify formats n as a percentage of total with one decimal.
func percentify(n, total uint64) string {
	if total == 0 {
		return "--"
	}
	return fmt.Sprintf("%.1f%%", float64(n)*100/float64(total))
}

func assocLabel(assoc int) string {
	switch {
	case assoc == FullyAssociative:
		return "Fully Associative"
	case assoc == DirectMapped:
		return "Direct Mapped"
	default:
		return fmt.Sprintf("%d-Way Associative", assoc)
	}
}

func levelTitle(id LevelID) string {
	switch id {
	case ITLB:
		return "iTLB  (L1 Instruction TLB)"
	case DTLB:
		return "dTLB  (L1 Data TLB)"
	default:
		return "L2TLB (L2 Unified TLB)"
	}
}

// WriteReport dumps the final simulation report: TLB characteristics,
// per-level statistics and, when the page log is on, the pages accessed.
// Page-log memory is released after the dump.
func (h *Hierarchy) WriteReport(w io.Writer) {
	fmt.Fprintf(w, "---TLB characteristics---\n")
	fmt.Fprintf(w, "Virtual Address Size:     %d bits\n", h.vasBits)
	fmt.Fprintf(w, "Replacement Policy:       %s\n\n", h.policy)

	for id := ITLB; id < levelCount; id++ {
		l := h.levels[id]
		if l == nil {
			continue
		}
		fmt.Fprintf(w, "TLB type:          %s\n", levelTitle(id))
		fmt.Fprintf(w, "Associativity:     %s\n", assocLabel(l.geom.Assoc))
		fmt.Fprintf(w, "Page Size:         %d bytes\n", l.geom.PageSize)
		fmt.Fprintf(w, "Entries:           %d\n\n", l.geom.Entries)
	}

	if h.simTLB {
		fmt.Fprintf(w, "---Results---\n\n")
		for id := ITLB; id < levelCount; id++ {
			l := h.levels[id]
			if l == nil {
				continue
			}
			fmt.Fprintf(w, "---%s Stats---\n", l.name)
			fmt.Fprintf(w, "Total Accesses:   %d\n", l.hits+l.misses)
			fmt.Fprintf(w, "Hits:             %d\n", l.hits)
			fmt.Fprintf(w, "Misses:           %d\n", l.misses)
			fmt.Fprintf(w, "Hit ratio:        %s\n", percentify(l.hits, l.hits+l.misses))
			fmt.Fprintf(w, "Miss ratio:       %s\n\n", percentify(l.misses, l.hits+l.misses))
		}
	}

	if h.simPages {
		fmt.Fprintf(w, "---Pages Accessed---\n")
		for id := ITLB; id < levelCount; id++ {
			l := h.levels[id]
			if l == nil {
				continue
			}
			fmt.Fprintf(w, "\n%s Pages Accessed\n", l.name)
			fmt.Fprintf(w, "Pages Accessed In total:   %d\n", l.pages.Total())
			i := 0
			for n := l.pages.Head(); n != nil; n = n.Next {
				i++
				fmt.Fprintf(w, "%d) Page %08x, accessed %d times\n", i, n.VPN, n.Count)
			}
			l.pages.Release()
		}
	}
}
