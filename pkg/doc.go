// Package cache implements a layered, copy-on-write UTXO lookup cache: a
// fixed pool of named cache instances, each optionally chained to a parent
// ("master") cache for staged reads, supporting insert, lookup, a deferred
// invalidation queue, bounded-capacity oldest-first eviction, and atomic
// commit of a child's delta into its parent.
//
// The cache resolves a prevout — a (transaction hash, output index) pair —
// to a transaction_output_id, the authoritative on-disk store's handle for
// that output. It is a pure value-store: it has no opinion about what a
// UTXO means, when to cache one, or when to invalidate one.
//
// © 2025 utxocache authors. MIT License.
package cache
