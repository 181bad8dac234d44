package cache

// registry.go implements a fixed-size process-wide table of cache slots
// addressed by small integer handles, providing lifecycle and lookup. It
// also owns dangling-master resolution: rather than refusing to delete a
// referenced cache, the registry tracks back-references and auto-clears a
// dangling master on destroy, because DeleteCache has no return value with
// which to signal a denial (see DESIGN.md for the alternative considered).
//
// © 2025 utxocache authors. MIT License.

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// maxCaches is the fixed slot count. Kept as a literal table rather than a
// growable slab: the external handle range 0..255 is part of the wire
// contract any host-language binding built on top of this package would
// rely on, and no caller here benefits from growing past 256, so the
// simpler fixed array is kept (see DESIGN.md).
const maxCaches = 256

// Handle is a small integer identifying a cache slot. NoHandle (-1) is the
// sentinel for "no cache" / "operation failed" throughout the external
// interface.
type Handle int32

// NoHandle is returned by CreateCache when the registry is full, and is a
// valid "clear the master" argument to SetMasterCache.
const NoHandle Handle = -1

func (h Handle) valid() bool {
	return h >= 0 && h < maxCaches
}

// Registry is the process-wide table of cache instances.
type Registry struct {
	mu           sync.Mutex
	slots        [maxCaches]*Cache
	referencedBy [maxCaches]map[Handle]struct{} // slots that name this slot as master

	logger  *zap.Logger
	metrics metricsSink
	promReg *prometheus.Registry
	cfg     *config
}

// NewRegistry allocates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	cfg := applyOptions(opts)

	var promReg *prometheus.Registry
	if cfg.promRegistry != nil {
		promReg = cfg.promRegistry
	}

	r := &Registry{
		logger:  cfg.logger,
		metrics: newMetricsSink(promReg),
		promReg: promReg,
		cfg:     cfg,
	}
	r.logger.Debug("utxocache registry initialized", zap.Int("slots", maxCaches))
	return r
}

func (r *Registry) logf(msg string, fields ...any) {
	if r.logger == nil {
		return
	}
	zapFields := make([]zap.Field, 0, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		key, _ := fields[i].(string)
		zapFields = append(zapFields, zap.Any(key, fields[i+1]))
	}
	r.logger.Debug(msg, zapFields...)
}

// Destroy releases every non-empty slot.
func (r *Registry) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.slots {
		r.slots[i] = nil
		r.referencedBy[i] = nil
	}
	r.logger.Debug("utxocache registry destroyed")
}

// CreateCache scans from index 0 for the first empty slot, placing a new,
// empty, masterless cache there with the registry's configured default
// capacity. Returns NoHandle when full.
func (r *Registry) CreateCache() Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := 0; i < maxCaches; i++ {
		if r.slots[i] == nil {
			h := Handle(i)
			r.slots[i] = newCache(h, r.metrics, r.logf, r.cfg.defaultMaxItems)
			r.logf("cache created", "handle", i)
			return h
		}
	}
	return NoHandle
}

// DeleteCache validates handle bounds and, if occupied, releases the slot.
// Any cache whose master was this handle has its master reference cleared
// first (the dangling-master resolution described above).
func (r *Registry) DeleteCache(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteCacheLocked(h)
}

func (r *Registry) deleteCacheLocked(h Handle) {
	if !h.valid() || r.slots[h] == nil {
		return
	}

	for referrer := range r.referencedBy[h] {
		if r.slots[referrer] != nil {
			r.slots[referrer].setMaster(nil)
		}
	}
	r.referencedBy[h] = nil

	if master := r.slots[h].master; master != nil {
		if refs := r.referencedBy[master.handle]; refs != nil {
			delete(refs, h)
		}
	}

	r.slots[h] = nil
	r.logf("cache deleted", "handle", int32(h))
}

// SetMasterCache assigns child's master borrow to masterHandle, or clears it
// when masterHandle == NoHandle.
func (r *Registry) SetMasterCache(child, masterHandle Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !child.valid() || r.slots[child] == nil {
		return
	}
	if masterHandle != NoHandle && (!masterHandle.valid() || r.slots[masterHandle] == nil) {
		return
	}

	// masterHandle is now known valid (or NoHandle); only now is it safe to
	// drop the child's existing back-reference — otherwise an invalid
	// masterHandle would leave referencedBy desynced from child.master.
	if old := r.slots[child].master; old != nil {
		if refs := r.referencedBy[old.handle]; refs != nil {
			delete(refs, child)
		}
	}

	if masterHandle == NoHandle {
		r.slots[child].setMaster(nil)
		return
	}

	r.slots[child].setMaster(r.slots[masterHandle])
	if r.referencedBy[masterHandle] == nil {
		r.referencedBy[masterHandle] = make(map[Handle]struct{})
	}
	r.referencedBy[masterHandle][child] = struct{}{}
}

// SetMaxItemCount updates handle's capacity bound.
func (r *Registry) SetMaxItemCount(h Handle, n uint64) {
	r.mu.Lock()
	c := r.cacheAt(h)
	r.mu.Unlock()
	if c != nil {
		c.setMaxItemCount(n)
	}
}

// CacheUTXO auto-assigns an insert_id and stores (hash, outputIndex) -> id
// in handle's layer.
func (r *Registry) CacheUTXO(h Handle, hash []byte, outputIndex int32, id TransactionOutputID) {
	r.mu.Lock()
	c := r.cacheAt(h)
	r.mu.Unlock()
	if c == nil {
		return
	}
	c.cacheUTXO(NewPrevout(hash, outputIndex), id)
}

// LoadUTXO is the bulk-load path: the caller supplies insert_id directly
// (e.g. replaying a persisted snapshot), advancing the global counter past
// it so later auto-assigned ids stay strictly greater.
func (r *Registry) LoadUTXO(h Handle, insertID uint64, hash []byte, outputIndex int32, id TransactionOutputID) {
	r.mu.Lock()
	c := r.cacheAt(h)
	r.mu.Unlock()
	if c == nil {
		return
	}
	c.cacheUTXO(NewPrevoutWithInsertID(insertID, hash, outputIndex), id)
}

// GetCachedUTXO resolves (hash, outputIndex) against handle, falling back
// through the master chain. Returns NotFound on a full miss or an invalid
// handle.
func (r *Registry) GetCachedUTXO(h Handle, hash []byte, outputIndex int32) TransactionOutputID {
	r.mu.Lock()
	c := r.cacheAt(h)
	r.mu.Unlock()
	if c == nil {
		return NotFound
	}
	return c.getCachedUTXO(NewPrevoutKey(hash, outputIndex))
}

// InvalidateUTXO queues (hash, outputIndex) for removal from handle on its
// next commit.
func (r *Registry) InvalidateUTXO(h Handle, hash []byte, outputIndex int32) {
	r.mu.Lock()
	c := r.cacheAt(h)
	r.mu.Unlock()
	if c == nil {
		return
	}
	c.invalidateUTXO(NewPrevoutKey(hash, outputIndex))
}

// CommitSelf applies handle's own pending invalidations to itself.
func (r *Registry) CommitSelf(h Handle) {
	r.mu.Lock()
	c := r.cacheAt(h)
	r.mu.Unlock()
	if c == nil {
		return
	}
	c.commitSelf()
}

// CommitDrain drains child's accumulated mutations and invalidations into
// parent, emptying child. Both handles must be valid, occupied slots.
func (r *Registry) CommitDrain(parentHandle, childHandle Handle) {
	r.mu.Lock()
	parent := r.cacheAt(parentHandle)
	child := r.cacheAt(childHandle)
	r.mu.Unlock()
	if parent == nil || child == nil {
		return
	}
	commitDrain(parent, child)
	r.logf("commit drain", "parent", int32(parentHandle), "child", int32(childHandle))
}

// PruneHalf evicts handle's oldest entries until its size is at most half
// what it was when this call began.
func (r *Registry) PruneHalf(h Handle) {
	r.mu.Lock()
	c := r.cacheAt(h)
	r.mu.Unlock()
	if c == nil {
		return
	}
	c.pruneHalf()
}

// Snapshot returns handle's observability counters, or a zero CacheStats for
// an invalid or empty handle.
func (r *Registry) Snapshot(h Handle) CacheStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !h.valid() || r.slots[h] == nil {
		return CacheStats{}
	}
	return r.metrics.snapshot(h)
}

// cacheAt returns the cache at h, or nil for an invalid/empty slot. Callers
// must hold r.mu while calling this (it only reads r.slots), then are free
// to release the lock before mutating the returned *Cache — a single
// *Cache's own state has no internal lock; per-cache mutation serialization
// is the caller's contract (see DESIGN.md).
func (r *Registry) cacheAt(h Handle) *Cache {
	if !h.valid() {
		return nil
	}
	return r.slots[h]
}
