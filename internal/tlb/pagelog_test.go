package tlb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageLogRecord(t *testing.T) {
	var pl PageLog
	pl.Record(7)
	pl.Record(7)
	pl.Record(3)

	assert.Equal(t, 2, pl.Total())
	assert.Equal(t, uint64(3), pl.Head().VPN)
	assert.Equal(t, uint64(1), pl.Head().Count)
	assert.Equal(t, uint64(7), pl.Head().Next.VPN)
	assert.Equal(t, uint64(2), pl.Head().Next.Count)
}

func TestPageLogRelease(t *testing.T) {
	var pl PageLog
	pl.Record(1)
	pl.Record(2)
	pl.Release()

	assert.Nil(t, pl.Head())
	assert.Equal(t, 0, pl.Total())
}
