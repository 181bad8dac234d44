package cache

// cache.go implements a single cache layer: a primary map, an age index, a
// pending-invalidation set, and an optional master borrow.
//
// No mutex guards a Cache's own state. A cache and its master form a single
// logical mutation domain, and that serialization is the caller's
// contract — the natural redesign for concurrent mutation is a single
// writer per cache, not fine-grained locks retrofitted onto the dual index
// (see DESIGN.md). The Registry's slot table has its own mutex
// (registry.go) guarding only lifecycle operations, which is a separate
// concern.
//
// © 2025 utxocache authors. MIT License.

// unboundedMaxItems mirrors the original JNI source's 2^31-1 "no limit"
// sentinel: int32 max, the native ceiling that layer used.
const unboundedMaxItems uint64 = (1 << 31) - 1

// Cache is a single layer of the layered UTXO cache.
type Cache struct {
	handle      Handle
	idx         layerIndex
	invalidated map[PrevoutKey]struct{}
	master      *Cache
	maxItems    uint64

	metrics metricsSink
	log     logFn
}

// logFn lets Cache emit lifecycle/eviction/commit log lines without taking a
// hard dependency on *zap.Logger's concrete type inside this file; registry.go
// constructs the closure from the configured *zap.Logger.
type logFn func(msg string, fields ...any)

func newCache(handle Handle, metrics metricsSink, log logFn, maxItems uint64) *Cache {
	return &Cache{
		handle:      handle,
		idx:         newLayerIndex(),
		invalidated: make(map[PrevoutKey]struct{}),
		maxItems:    maxItems,
		metrics:     metrics,
		log:         log,
	}
}

// Len returns the number of live keys in this layer (not counting master).
func (c *Cache) Len() int {
	return c.idx.len()
}

// setMaster replaces the master reference. Does not mutate the map.
func (c *Cache) setMaster(master *Cache) {
	c.master = master
}

// setMaxItemCount updates the capacity bound. Does not immediately evict;
// the next mutating operation enforces it.
func (c *Cache) setMaxItemCount(n uint64) {
	c.maxItems = n
}

// cacheUTXO evicts to make room unconditionally first, then
// inserts-or-updates — the original source's ensure_capacity() runs before
// the duplicate check, so a key that is itself the eviction victim (e.g.
// max_item_count == 1 and the sole entry is re-cached) is evicted and then
// reinserted fresh rather than updated in place: it draws a new insert_id
// and counts as an insert, not an update. Duplicate inserts that survive
// eviction preserve the existing insert_id and discard the caller-supplied
// Prevout's own id — the "newly supplied prevout is a duplicate, release
// it" step in the original source, which in Go simply means p is never
// stored.
func (c *Cache) cacheUTXO(p Prevout, id TransactionOutputID) {
	c.ensureCapacity(c.maxItems)

	if c.idx.has(p.PrevoutKey) {
		c.idx.updateValue(p.PrevoutKey, id)
		c.observeUpdate()
		return
	}

	c.idx.insertNew(p, id)
	c.observeInsert()
}

// getCachedUTXO does a local lookup, then a recursive walk up the master
// chain on miss, then returns NotFound. It is side-effect free with respect
// to age order — this is insertion-order eviction, not access-order LRU.
func (c *Cache) getCachedUTXO(key PrevoutKey) TransactionOutputID {
	if id, ok := c.idx.get(key); ok {
		c.observeHit()
		return id
	}
	c.observeMiss()
	if c.master != nil {
		return c.master.getCachedUTXO(key)
	}
	return NotFound
}

// invalidateUTXO queues key for removal on the next commit. Map semantics
// make repeated invalidation of the same key idempotent.
func (c *Cache) invalidateUTXO(key PrevoutKey) {
	if _, already := c.invalidated[key]; !already {
		c.invalidated[key] = struct{}{}
		c.observeInvalidation()
	}
}

// ensureCapacity evicts the oldest entry while size >= target and target >=
// 1. No-op when target < 1.
func (c *Cache) ensureCapacity(target uint64) {
	if target < 1 {
		return
	}
	for uint64(c.idx.len()) >= target {
		if !c.evictOldest() {
			return
		}
	}
}

// pruneHalf evicts oldest entries until size <= floor(current_size / 2).
// This is deliberately NOT ensureCapacity(size/2) — see DESIGN.md for why
// that reproduces an off-by-one present in the original source.
func (c *Cache) pruneHalf() {
	target := c.idx.len() / 2
	for c.idx.len() > target {
		if !c.evictOldest() {
			return
		}
	}
}

// evictOldest removes the single oldest-insert_id entry, reporting whether
// anything was removed (false only when the layer is already empty).
func (c *Cache) evictOldest() bool {
	key, ok := c.idx.oldestKey()
	if !ok {
		return false
	}
	c.idx.remove(key)
	c.observeEviction()
	return true
}

func (c *Cache) observeHit()          { c.metrics.incHit(c.handle); c.syncLen() }
func (c *Cache) observeMiss()         { c.metrics.incMiss(c.handle) }
func (c *Cache) observeInsert()       { c.metrics.incInsert(c.handle); c.syncLen() }
func (c *Cache) observeUpdate()       { c.metrics.incUpdate(c.handle) }
func (c *Cache) observeInvalidation() { c.metrics.incInvalidation(c.handle) }
func (c *Cache) observeCommit()       { c.metrics.incCommit(c.handle); c.syncLen() }

func (c *Cache) observeEviction() {
	c.metrics.incEviction(c.handle)
	if c.log != nil {
		c.log("evicted oldest entry", "cache", int32(c.handle), "remaining", c.idx.len())
	}
	c.syncLen()
}

func (c *Cache) syncLen() {
	c.metrics.setLen(c.handle, c.idx.len())
}
