package tlb

// PageNode records one distinct virtual page and its access count.
type PageNode struct {
	VPN   uint64
	Count uint64
	Next  *PageNode
}

// PageLog accumulates the distinct VPNs a level has seen. New pages are
// prepended, so traversal runs from most recently first-seen back to the
// oldest. The list is intentionally O(distinct pages) per record: the
// feature is opt-in and expected workloads touch few thousand pages.
type PageLog struct {
	head  *PageNode
	total int
}

// Record notes one access to vpn, creating a node on first observation.
func (pl *PageLog) Record(vpn uint64) {
	for n := pl.head; n != nil; n = n.Next {
		if n.VPN == vpn {
			n.Count++
			return
		}
	}
	pl.head = &PageNode{VPN: vpn, Count: 1, Next: pl.head}
	pl.total++
}

// Head returns the most recently first-seen page, or nil.
func (pl *PageLog) Head() *PageNode { return pl.head }

// Total returns the number of distinct pages recorded.
func (pl *PageLog) Total() int { return pl.total }

// Release drops the accumulated list. Called after the final dump.
func (pl *PageLog) Release() {
	pl.head = nil
	pl.total = 0
}
