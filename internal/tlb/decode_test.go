package tlb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFullyAssociative(t *testing.T) {
	l, err := NewLevel("iTLB", 4096, FullyAssociative, 64, 32)
	require.NoError(t, err)

	p := l.decode(0x0040_3A74)
	assert.Equal(t, uint64(0x403), p.vpn)
	// in FA the tag is the whole VPN
	assert.Equal(t, uint64(0x403), p.tag)
}

func TestDecodeDirectMapped(t *testing.T) {
	l, err := NewLevel("iTLB", 4096, DirectMapped, 4, 32)
	require.NoError(t, err)

	p := l.decode(0x10000) // VPN 16
	assert.Equal(t, uint64(16), p.vpn)
	assert.Equal(t, uint64(4), p.tag)
	assert.Equal(t, uint64(0), p.set)
}

func TestDecodeNWay(t *testing.T) {
	l, err := NewLevel("dTLB", 4096, 2, 4, 32)
	require.NoError(t, err)
	require.Equal(t, 2, l.geom.Sets)

	p := l.decode(0x5000) // VPN 5
	assert.Equal(t, uint64(5), p.vpn)
	assert.Equal(t, uint64(2), p.tag)
	assert.Equal(t, uint64(1), p.set)
}

func TestDecodeClipsToAddressSpace(t *testing.T) {
	l, err := NewLevel("iTLB", 4096, FullyAssociative, 4, 32)
	require.NoError(t, err)

	// bits above the 32-bit virtual address space are discarded
	p := l.decode(0x1_0000_1000)
	assert.Equal(t, uint64(1), p.vpn)
}

func TestDecodeRoundTrip(t *testing.T) {
	addrs := []uint64{0x0, 0x1000, 0x7FFF_F000, 0x1234_5678, 0xFFFF_FFFF}

	cases := []struct {
		name    string
		assoc   int
		entries int
	}{
		{"fully associative", FullyAssociative, 16},
		{"direct mapped", DirectMapped, 8},
		{"4-way", 4, 32},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l, err := NewLevel("tlb", 4096, tc.assoc, tc.entries, 32)
			require.NoError(t, err)
			for _, a := range addrs {
				p := l.decode(a)
				var got uint64
				switch {
				case tc.assoc == FullyAssociative:
					got = p.tag
				case tc.assoc == DirectMapped:
					got = p.tag*uint64(tc.entries) + p.set
				default:
					got = p.tag*uint64(l.geom.Sets) + p.set
				}
				assert.Equal(t, p.vpn, got, "addr %#x", a)
			}
		})
	}
}

func TestGeometryMasks(t *testing.T) {
	l, err := NewLevel("dTLB", 4096, 2, 64, 32)
	require.NoError(t, err)

	g := l.Geometry()
	assert.Equal(t, uint(12), g.OffsetBits)
	assert.Equal(t, uint64(0xFFFF_F000), g.VPNMask)
	assert.Equal(t, 32, g.Sets)
	assert.Equal(t, uint64(0x1F), g.IndexMask)
	assert.Equal(t, uint64(0xF_FFE0), g.TagMask)
}
