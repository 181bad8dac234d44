package cache

// commit.go implements the two commit variants: commitSelf (apply a
// cache's own pending invalidations to itself) and commitDrain (drain a
// child's accumulated mutations and invalidations into its parent). The
// drain ordering — invalidations before inserts — is the one place
// correctness depends on sequencing rather than on a single data
// structure's invariants.
//
// © 2025 utxocache authors. MIT License.

// commitSelf applies a cache's own pending invalidations: for each key in
// invalidated, remove it from the map/age index if present, then clear
// invalidated.
func (c *Cache) commitSelf() {
	for key := range c.invalidated {
		c.idx.remove(key)
	}
	c.invalidated = make(map[PrevoutKey]struct{})
	c.observeCommit()
}

// commitDrain folds child's state into parent, then empties child. The
// required order is invalidations first, then inserts/updates — a child may
// invalidate a key inherited from its master while concurrently caching a
// fresh entry under the same identity, and processing invalidations first
// preserves "delete then re-insert" semantics.
func commitDrain(parent, child *Cache) {
	for key := range child.invalidated {
		parent.idx.remove(key)
	}

	// Collect first, then apply: child.idx must not be mutated by
	// parent.ensureCapacity (which only ever touches parent's own index,
	// but iterating and evicting the very tree being iterated would still
	// be unsafe practice) and ascend()'s callback runs during iteration of
	// child.idx itself.
	type pending struct {
		key      PrevoutKey
		insertID uint64
		id       TransactionOutputID
	}
	var toApply []pending
	child.idx.ascend(func(e cacheEntry) bool {
		toApply = append(toApply, pending{key: e.Key, insertID: e.InsertID, id: e.ID})
		return true
	})

	for _, e := range toApply {
		if parent.idx.has(e.key) {
			parent.idx.updateValue(e.key, e.id)
			continue
		}
		parent.ensureCapacity(parent.maxItems)
		parent.idx.insertNew(Prevout{PrevoutKey: e.key, InsertID: e.insertID}, e.id)
	}

	child.idx.clear()
	child.invalidated = make(map[PrevoutKey]struct{})

	parent.observeCommit()
	child.observeCommit()
}
