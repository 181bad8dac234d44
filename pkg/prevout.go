package cache

// prevout.go defines the identity of a cached entry: a reference to a
// specific output of a specific transaction, plus the insertion-order tag
// that drives eviction. The split between PrevoutKey (identity) and Prevout
// (identity + insert_id) exists so that Go's derived `==` can be used for
// identity comparisons without accidentally folding insert_id into it — the
// original source's prevout::operator== does not have this guarantee (see
// DESIGN.md).
//
// © 2025 utxocache authors. MIT License.

import (
	"bytes"
	"sync/atomic"
)

// HashSize is the fixed length of a transaction hash.
const HashSize = 32

// TransactionOutputID is the authoritative store's handle for an output.
// NotFound is reserved and must never be cached.
type TransactionOutputID int64

// NotFound is returned by lookups that miss the entire master chain.
const NotFound TransactionOutputID = -1

// PrevoutKey is the identity of a prevout: a transaction hash plus an output
// index. Two keys are equal iff their fields are equal — Go's struct `==`
// on a comparable, insert_id-free type, which is exactly the identity
// comparison this cache's lookups need.
type PrevoutKey struct {
	TransactionHash [HashSize]byte
	OutputIndex     int32
}

// Less reports whether k sorts strictly before other: lexicographic over
// TransactionHash (treated as unsigned bytes — the documented resolution of
// the source's signed-byte comparison, see DESIGN.md), then by OutputIndex.
func (k PrevoutKey) Less(other PrevoutKey) bool {
	if c := bytes.Compare(k.TransactionHash[:], other.TransactionHash[:]); c != 0 {
		return c < 0
	}
	return k.OutputIndex < other.OutputIndex
}

// NewPrevoutKey builds a PrevoutKey from a raw hash slice. hash must be
// exactly HashSize bytes; shorter inputs are zero-padded, longer ones
// truncated, by the underlying copy.
func NewPrevoutKey(hash []byte, outputIndex int32) PrevoutKey {
	var k PrevoutKey
	copy(k.TransactionHash[:], hash)
	k.OutputIndex = outputIndex
	return k
}

// Prevout is the full identity plus the age tag used by the cache's age
// index. insert_id is intentionally excluded from PrevoutKey so it can never
// leak into identity comparisons or map/set keys built on PrevoutKey alone.
type Prevout struct {
	PrevoutKey
	InsertID uint64
}

// globalInsertID is the process-wide monotonic counter driving age order.
// Every Prevout constructed anywhere in the process — across every cache —
// draws from this single source, which is what makes age order total across
// the whole registry, not just within one cache.
var globalInsertID atomic.Uint64

// nextInsertID returns the next value of the global counter, equivalent to
// the source's `PREVOUT_ID++` post-increment.
func nextInsertID() uint64 {
	return globalInsertID.Add(1) - 1
}

// advancePastInsertID ensures the global counter is strictly greater than id,
// the lock-free compare-and-swap loop the source calls atomic_set_max.
// Used by the bulk-load constructor so that any subsequently auto-assigned
// insert_id is guaranteed greater than every previously loaded id.
func advancePastInsertID(id uint64) {
	target := id + 1
	for {
		cur := globalInsertID.Load()
		if cur >= target {
			return
		}
		if globalInsertID.CompareAndSwap(cur, target) {
			return
		}
	}
}

// NewPrevout builds a Prevout with an auto-assigned, strictly increasing
// insert_id — the hot-path constructor used by CacheUTXO. InvalidateUTXO and
// GetCachedUTXO build a bare PrevoutKey instead and draw no insert_id.
func NewPrevout(hash []byte, outputIndex int32) Prevout {
	return Prevout{
		PrevoutKey: NewPrevoutKey(hash, outputIndex),
		InsertID:   nextInsertID(),
	}
}

// NewPrevoutWithInsertID is the bulk-load constructor: the caller supplies
// insert_id directly (e.g. when replaying a persisted cache snapshot) and the
// global counter is advanced so later auto-assigned ids stay strictly
// greater than any id loaded this way.
func NewPrevoutWithInsertID(insertID uint64, hash []byte, outputIndex int32) Prevout {
	advancePastInsertID(insertID)
	return Prevout{
		PrevoutKey: NewPrevoutKey(hash, outputIndex),
		InsertID:   insertID,
	}
}
