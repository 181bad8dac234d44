package cache

// index.go is the dual-index wrapper: the primary map (ordered by prevout
// identity) and the age index (ordered solely by insert_id) are never
// touched directly by Cache — every mutation goes through layerIndex so the
// two structures cannot drift out of lockstep.
//
// Both indexes are backed by github.com/google/btree's generic BTreeG, the
// Go-ecosystem descendant of the cpp-btree library the original JNI source
// uses for exactly this purpose (btree::btree_map / btree::btree_set). A
// B-tree gives real ordered iteration — Min() for oldest-first eviction,
// Ascend for drain — without a hand-rolled linked list.
//
// © 2025 utxocache authors. MIT License.

import (
	"github.com/google/btree"
)

// btreeDegree matches the source's btree_node_size constant in spirit: a
// modest branching factor tuned for in-memory use, not disk pages.
const btreeDegree = 32

// cacheEntry is a primary-map row. Ordering (via lessCacheEntry) considers
// only Key, never InsertID or ID — two entries with the same Key always
// compare equal under the btree's Less, which keeps unique identity
// mechanically enforced by the B-tree itself rather than by caller
// discipline.
type cacheEntry struct {
	Key      PrevoutKey
	InsertID uint64
	ID       TransactionOutputID
}

func lessCacheEntry(a, b cacheEntry) bool {
	return a.Key.Less(b.Key)
}

// ageEntry is an age-index row: just enough to locate the owning key once
// the oldest insert_id has been found. It carries no ID field because the
// age index is never read for the cached value — only for "which key is
// oldest".
type ageEntry struct {
	Key      PrevoutKey
	InsertID uint64
}

func lessAgeEntry(a, b ageEntry) bool {
	if a.InsertID != b.InsertID {
		return a.InsertID < b.InsertID
	}
	// insert_id is globally unique, so this tie-break is unreachable in
	// practice; kept only so the btree's total order is well-defined.
	return a.Key.Less(b.Key)
}

// layerIndex is the owned storage of a single cache layer: the primary map
// and the age index, kept in lockstep.
type layerIndex struct {
	primary *btree.BTreeG[cacheEntry]
	age     *btree.BTreeG[ageEntry]
}

func newLayerIndex() layerIndex {
	return layerIndex{
		primary: btree.NewG(btreeDegree, lessCacheEntry),
		age:     btree.NewG(btreeDegree, lessAgeEntry),
	}
}

// len returns the number of live keys. Both trees always agree by
// construction, so either's Len() would do; primary is canonical.
func (idx *layerIndex) len() int {
	return idx.primary.Len()
}

// get returns the cached id for key, if present.
func (idx *layerIndex) get(key PrevoutKey) (TransactionOutputID, bool) {
	e, ok := idx.primary.Get(cacheEntry{Key: key})
	if !ok {
		return NotFound, false
	}
	return e.ID, true
}

// has reports membership without copying out the id.
func (idx *layerIndex) has(key PrevoutKey) bool {
	_, ok := idx.primary.Get(cacheEntry{Key: key})
	return ok
}

// insertNew adds a brand-new key, owning insertID, to both indexes. Callers
// must have already confirmed the key is absent (via get/has) — insertNew
// does not check, to avoid a redundant lookup on the hot insert path.
func (idx *layerIndex) insertNew(p Prevout, id TransactionOutputID) {
	idx.primary.ReplaceOrInsert(cacheEntry{Key: p.PrevoutKey, InsertID: p.InsertID, ID: id})
	idx.age.ReplaceOrInsert(ageEntry{Key: p.PrevoutKey, InsertID: p.InsertID})
}

// updateValue overwrites the id for an existing key, preserving its original
// insert_id: age index entries are not rewritten on value update. The age
// tree is untouched because it never stores ID.
func (idx *layerIndex) updateValue(key PrevoutKey, id TransactionOutputID) {
	existing, ok := idx.primary.Get(cacheEntry{Key: key})
	if !ok {
		return
	}
	existing.ID = id
	idx.primary.ReplaceOrInsert(existing)
}

// remove deletes key from both indexes if present, reporting whether
// anything was removed.
func (idx *layerIndex) remove(key PrevoutKey) bool {
	e, ok := idx.primary.Delete(cacheEntry{Key: key})
	if !ok {
		return false
	}
	idx.age.Delete(ageEntry{Key: e.Key, InsertID: e.InsertID})
	return true
}

// oldestKey returns the key with the smallest insert_id, the eviction
// victim.
func (idx *layerIndex) oldestKey() (PrevoutKey, bool) {
	e, ok := idx.age.Min()
	if !ok {
		return PrevoutKey{}, false
	}
	return e.Key, true
}

// ascend iterates the primary map in identity order, invoking fn for each
// entry until fn returns false or the tree is exhausted. Used by commit
// drain, which needs every (key, id) pair in the child.
func (idx *layerIndex) ascend(fn func(cacheEntry) bool) {
	idx.primary.Ascend(func(e cacheEntry) bool {
		return fn(e)
	})
}

// clear empties both indexes, as commit drain does to the child once its
// state has been folded into the parent.
func (idx *layerIndex) clear() {
	idx.primary.Clear(false)
	idx.age.Clear(false)
}
