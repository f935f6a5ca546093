package trace

import (
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skaparelos/tlbgrind/internal/tlb"
)

type recordingSink struct {
	addrs []uint64
	kinds []tlb.Kind
}

func (r *recordingSink) Reference(addr uint64, kind tlb.Kind) {
	r.addrs = append(r.addrs, addr)
	r.kinds = append(r.kinds, kind)
}

func TestReadDeliversInOrder(t *testing.T) {
	input := strings.Join([]string{
		"==1234== lackey output",
		"I  0400d7d4,8",
		" L 04f00a48,8",
		" S 04001020,4",
		" M 0421c7f0,4",
		"",
		"--1234-- done",
	}, "\n")

	var sink recordingSink
	stats, err := Read(strings.NewReader(input), &sink, zerolog.New(io.Discard))
	require.NoError(t, err)

	assert.Equal(t, []uint64{0x0400d7d4, 0x04f00a48, 0x04001020, 0x0421c7f0}, sink.addrs)
	assert.Equal(t, []tlb.Kind{tlb.Instruction, tlb.Data, tlb.Data, tlb.Data}, sink.kinds)

	assert.Equal(t, uint64(1), stats.Instructions)
	assert.Equal(t, uint64(1), stats.Loads)
	assert.Equal(t, uint64(1), stats.Stores)
	assert.Equal(t, uint64(1), stats.Modifies)
	assert.Equal(t, uint64(4), stats.References())
	assert.Equal(t, uint64(0), stats.Malformed)
}

func TestReadAccepts0xPrefix(t *testing.T) {
	var sink recordingSink
	_, err := Read(strings.NewReader("I 0x1000,4\n"), &sink, zerolog.New(io.Discard))
	require.NoError(t, err)
	require.Len(t, sink.addrs, 1)
	assert.Equal(t, uint64(0x1000), sink.addrs[0])
}

func TestReadSkipsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		"I 1000,4",
		"bogus line here",
		"X 2000,4",
		"I nothex,4",
		"I",
		"I 2000,4",
	}, "\n")

	var sink recordingSink
	stats, err := Read(strings.NewReader(input), &sink, zerolog.New(io.Discard))
	require.NoError(t, err)

	assert.Equal(t, uint64(2), stats.Instructions)
	assert.Equal(t, uint64(4), stats.Malformed)
	assert.Len(t, sink.addrs, 2)
}

func TestReadEmptyInput(t *testing.T) {
	var sink recordingSink
	stats, err := Read(strings.NewReader(""), &sink, zerolog.New(io.Discard))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stats.References())
	assert.Empty(t, sink.addrs)
}
