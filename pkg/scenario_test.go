package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// This file exercises the end-to-end scenarios against the Registry's
// external interface (registry.go), each starting from a fresh registry.

func TestScenarioBasicRoundTrip(t *testing.T) {
	r := NewRegistry()
	h := r.CreateCache()
	require.Equal(t, Handle(0), h)

	hash := hashOf(0x11)
	r.CacheUTXO(h, hash, 0, 42)

	assert.Equal(t, TransactionOutputID(42), r.GetCachedUTXO(h, hash, 0))
	assert.Equal(t, NotFound, r.GetCachedUTXO(h, hash, 1))
}

func TestScenarioMasterFallback(t *testing.T) {
	r := NewRegistry()
	p := r.CreateCache()
	c := r.CreateCache()
	r.SetMasterCache(c, p)

	hash := hashOf(0x22)
	r.CacheUTXO(p, hash, 3, 99)

	assert.Equal(t, TransactionOutputID(99), r.GetCachedUTXO(c, hash, 3))

	r.InvalidateUTXO(c, hash, 3)
	assert.Equal(t, TransactionOutputID(99), r.GetCachedUTXO(c, hash, 3), "invalidation not yet applied")

	r.CommitDrain(p, c)
	assert.Equal(t, NotFound, r.GetCachedUTXO(c, hash, 3))
}

func TestScenarioLRUEviction(t *testing.T) {
	r := NewRegistry()
	h := r.CreateCache()
	r.SetMaxItemCount(h, 2)

	hashA, hashB, hashC := hashOf(0xA1), hashOf(0xB1), hashOf(0xC1)
	r.CacheUTXO(h, hashA, 0, 1)
	r.CacheUTXO(h, hashB, 0, 2)
	r.CacheUTXO(h, hashC, 0, 3)

	assert.Equal(t, NotFound, r.GetCachedUTXO(h, hashA, 0))
	assert.Equal(t, TransactionOutputID(2), r.GetCachedUTXO(h, hashB, 0))
	assert.Equal(t, TransactionOutputID(3), r.GetCachedUTXO(h, hashC, 0))
}

func TestScenarioCommitOrderDeleteThenInsert(t *testing.T) {
	r := NewRegistry()
	p := r.CreateCache()
	c := r.CreateCache()
	r.SetMasterCache(c, p)

	hash := hashOf(0x44)
	r.CacheUTXO(p, hash, 0, 1)

	r.InvalidateUTXO(c, hash, 0)
	r.CacheUTXO(c, hash, 0, 2)

	r.CommitDrain(p, c)

	assert.Equal(t, TransactionOutputID(2), r.GetCachedUTXO(p, hash, 0))
}

func TestScenarioPruneHalf(t *testing.T) {
	r := NewRegistry()
	h := r.CreateCache()

	hashes := make([][]byte, 10)
	for i := 0; i < 10; i++ {
		hashes[i] = hashOf(byte(i + 1))
		r.CacheUTXO(h, hashes[i], 0, TransactionOutputID(i))
	}

	r.PruneHalf(h)

	require.Equal(t, 5, r.Snapshot(h).Len)
	for i := 0; i < 5; i++ {
		assert.Equal(t, NotFound, r.GetCachedUTXO(h, hashes[i], 0))
	}
	for i := 5; i < 10; i++ {
		assert.Equal(t, TransactionOutputID(i), r.GetCachedUTXO(h, hashes[i], 0))
	}
}

func TestScenarioHandleHygiene(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, NotFound, r.GetCachedUTXO(NoHandle, hashOf(0x01), 0))
	assert.Equal(t, NotFound, r.GetCachedUTXO(Handle(999), hashOf(0x01), 0))

	require.Nil(t, r.cacheAt(Handle(7)))
	assert.NotPanics(t, func() {
		r.CacheUTXO(Handle(7), hashOf(0x01), 0, 5)
	})
	assert.Equal(t, NotFound, r.GetCachedUTXO(Handle(7), hashOf(0x01), 0))
}
