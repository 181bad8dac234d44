package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hashOf(b byte) []byte {
	h := make([]byte, HashSize)
	for i := range h {
		h[i] = b
	}
	return h
}

func TestPrevoutKeyEqualityIgnoresInsertID(t *testing.T) {
	a := NewPrevout(hashOf(0x11), 0)
	b := NewPrevout(hashOf(0x11), 0)

	require.NotEqual(t, a.InsertID, b.InsertID, "two fresh prevouts must draw distinct insert ids")
	assert.Equal(t, a.PrevoutKey, b.PrevoutKey, "identity must ignore insert_id")
	assert.True(t, a.PrevoutKey == b.PrevoutKey)
}

func TestPrevoutKeyLessOrdersByHashThenIndex(t *testing.T) {
	low := NewPrevoutKey(hashOf(0x01), 5)
	high := NewPrevoutKey(hashOf(0x02), 0)
	assert.True(t, low.Less(high))
	assert.False(t, high.Less(low))

	sameHashLow := NewPrevoutKey(hashOf(0x01), 0)
	sameHashHigh := NewPrevoutKey(hashOf(0x01), 5)
	assert.True(t, sameHashLow.Less(sameHashHigh))
}

func TestPrevoutKeyUnsignedByteOrdering(t *testing.T) {
	// 0x01 < 0x80 under unsigned byte comparison; a signed comparison (as in
	// the original source) would instead put 0x80 (== -128 signed) first.
	low := NewPrevoutKey(hashOf(0x01), 0)
	high := NewPrevoutKey(hashOf(0x80), 0)
	assert.True(t, low.Less(high))
}

func TestGlobalInsertIDMonotonic(t *testing.T) {
	a := NewPrevout(hashOf(0x01), 0)
	b := NewPrevout(hashOf(0x02), 0)
	assert.Less(t, a.InsertID, b.InsertID)
}

func TestLoadUTXOAdvancesCounterPastSuppliedID(t *testing.T) {
	future := globalInsertID.Load() + 1000
	_ = NewPrevoutWithInsertID(future, hashOf(0x03), 0)

	next := NewPrevout(hashOf(0x04), 0)
	assert.Greater(t, next.InsertID, future)
}
