package config

import (
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDetector hands out a fixed topology and records the all-user-defined
// hint it was given.
type fakeDetector struct {
	i1, d1, l2, ll Descriptor
	allUserDefined bool
	called         bool
}

func (f *fakeDetector) DetectCaches(i1, d1, l2, ll, itlb, dtlb, l2tlb *Descriptor, allUserDefined bool) {
	f.called = true
	f.allUserDefined = allUserDefined
	*i1, *d1, *l2, *ll = f.i1, f.d1, f.l2, f.ll
}

func validTopology() fakeDetector {
	d := Descriptor{Size: 32768, Assoc: 8, LineSize: 64}
	return fakeDetector{i1: d, d1: d, l2: Descriptor{Size: 262144, Assoc: 8, LineSize: 64}, ll: Descriptor{Size: 8388608, Assoc: 16, LineSize: 64}}
}

func discard() zerolog.Logger { return zerolog.New(io.Discard) }

func TestResolveUsesDetectedValues(t *testing.T) {
	det := validTopology()
	r, err := New().Resolve(&det, discard())
	require.NoError(t, err)
	assert.True(t, det.called)
	assert.False(t, det.allUserDefined)
	assert.Equal(t, det.i1, r.I1)
	assert.Equal(t, det.ll, r.LL)
}

func TestResolveUserOverrideWins(t *testing.T) {
	det := validTopology()
	c := New()
	require.NoError(t, c.SetSlot("L2", "524288,8,64"))

	r, err := c.Resolve(&det, discard())
	require.NoError(t, err)
	assert.Equal(t, Descriptor{Size: 524288, Assoc: 8, LineSize: 64}, r.L2)
	assert.Equal(t, det.i1, r.I1)
}

func TestResolveInvalidAutoDetectedIsFatal(t *testing.T) {
	det := validTopology()
	det.d1 = Descriptor{Size: 1000, Assoc: 2, LineSize: 64}

	_, err := New().Resolve(&det, discard())
	assert.ErrorIs(t, err, ErrSetCount)
}

func TestResolveInvalidAutoDetectedToleratedWithOverride(t *testing.T) {
	det := validTopology()
	det.d1 = Descriptor{Size: 1000, Assoc: 2, LineSize: 64}

	c := New()
	require.NoError(t, c.SetSlot("D1", "65536,2,64"))

	r, err := c.Resolve(&det, discard())
	require.NoError(t, err)
	assert.Equal(t, Descriptor{Size: 65536, Assoc: 2, LineSize: 64}, r.D1)
}

func TestResolveEnablesSuppliedTLBs(t *testing.T) {
	det := validTopology()
	c := New()
	require.NoError(t, c.SetSlot("iTLB", "4096,-1,64"))
	require.NoError(t, c.SetSlot("L2TLB", "4096,4,512"))

	r, err := c.Resolve(&det, discard())
	require.NoError(t, err)

	assert.True(t, r.EnableITLB)
	assert.Equal(t, Descriptor{Size: 4096, Assoc: -1, LineSize: 64}, r.ITLB)
	assert.False(t, r.EnableDTLB)
	assert.Equal(t, Undefined, r.DTLB)
	assert.True(t, r.EnableL2TLB)
}

func TestResolveAllUserDefinedHint(t *testing.T) {
	det := validTopology()
	c := New()
	for _, opt := range []string{"I1", "D1", "L2", "LL"} {
		require.NoError(t, c.SetSlot(opt, "65536,2,64"))
	}
	_, err := c.Resolve(&det, discard())
	require.NoError(t, err)
	assert.True(t, det.allUserDefined)
}
