package tlb

// addrParts is the result of splitting a virtual address against one
// level's geometry.
//
//	virtual address:  |      VPN      | offset |
//	VPN:              |   tag   | set index    |
//
// For fully associative levels tag == vpn and set is meaningless.
type addrParts struct {
	vpn uint64
	tag uint64
	set uint64
}

// decode splits addr into (vpn, tag, set index) for this level. The VPN is
// clipped to the configured virtual address space before the split.
func (l *Level) decode(addr uint64) addrParts {
	vpn := (addr & l.geom.VPNMask) >> l.geom.OffsetBits
	switch {
	case l.geom.Assoc == FullyAssociative:
		return addrParts{vpn: vpn, tag: vpn}
	case l.geom.Assoc == DirectMapped:
		return addrParts{vpn: vpn, tag: vpn >> log2(uint64(l.geom.Entries)), set: vpn & l.geom.IndexMask}
	default:
		return addrParts{vpn: vpn, tag: vpn >> log2(uint64(l.geom.Sets)), set: vpn & l.geom.IndexMask}
	}
}
