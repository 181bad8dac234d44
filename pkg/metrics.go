package cache

// metrics.go is a thin abstraction over Prometheus, adapted from
// arena-cache's pkg/metrics.go: a metricsSink interface with a no-op default
// and a Prometheus-backed implementation enabled via a functional option.
// Labels are keyed by cache handle rather than shard index, since this
// package has no internal sharding — the registry's 256 slots play that
// role at a coarser grain.
//
// © 2025 utxocache authors. MIT License.

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsSink is the internal interface Cache and Registry talk to. Never
// exposed outside the package.
type metricsSink interface {
	incHit(handle Handle)
	incMiss(handle Handle)
	incInsert(handle Handle)
	incUpdate(handle Handle)
	incEviction(handle Handle)
	incInvalidation(handle Handle)
	incCommit(handle Handle)
	setLen(handle Handle, n int)

	// snapshot returns the accumulated counters for a handle; used by
	// Registry.Snapshot regardless of whether Prometheus export is wired.
	snapshot(handle Handle) CacheStats
}

// CacheStats is the observability surface returned by Registry.Snapshot,
// independent of whether a Prometheus registry was ever supplied.
type CacheStats struct {
	Len           int
	Hits          uint64
	Misses        uint64
	Inserts       uint64
	Updates       uint64
	Evictions     uint64
	Invalidations uint64
	Commits       uint64
}

/* ---------------- no-op sink ---------------- */

// countingMetrics counts everything in plain Go counters but never talks to
// Prometheus. It is the default sink and also the implementation backing
// Registry.Snapshot's numbers even when Prometheus export is disabled —
// counting is cheap; only the HTTP export is optional.
type countingMetrics struct {
	counters [maxCaches]cacheCounters
}

type cacheCounters struct {
	hits, misses                   uint64
	inserts, updates                uint64
	evictions, invalidations, commits uint64
	length                          int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{}
}

func (m *countingMetrics) incHit(h Handle)           { m.counters[h].hits++ }
func (m *countingMetrics) incMiss(h Handle)          { m.counters[h].misses++ }
func (m *countingMetrics) incInsert(h Handle)        { m.counters[h].inserts++ }
func (m *countingMetrics) incUpdate(h Handle)        { m.counters[h].updates++ }
func (m *countingMetrics) incEviction(h Handle)      { m.counters[h].evictions++ }
func (m *countingMetrics) incInvalidation(h Handle)  { m.counters[h].invalidations++ }
func (m *countingMetrics) incCommit(h Handle)        { m.counters[h].commits++ }
func (m *countingMetrics) setLen(h Handle, n int)    { m.counters[h].length = n }

func (m *countingMetrics) snapshot(h Handle) CacheStats {
	c := m.counters[h]
	return CacheStats{
		Len:           c.length,
		Hits:          c.hits,
		Misses:        c.misses,
		Inserts:       c.inserts,
		Updates:       c.updates,
		Evictions:     c.evictions,
		Invalidations: c.invalidations,
		Commits:       c.commits,
	}
}

/* ---------------- Prometheus-backed sink ---------------- */

// promMetrics mirrors arena-cache's promMetrics: CounterVec/GaugeVec per
// metric, labeled by handle, wrapping an inner countingMetrics so Snapshot
// still works without scraping Prometheus.
type promMetrics struct {
	inner *countingMetrics

	hits, misses                     *prometheus.CounterVec
	inserts, updates                 *prometheus.CounterVec
	evictions, invalidations, commits *prometheus.CounterVec
	length                            *prometheus.GaugeVec
}

func newPromMetrics(reg *prometheus.Registry) *promMetrics {
	label := []string{"cache"}
	pm := &promMetrics{
		inner: newCountingMetrics(),
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "utxocache", Name: "hits_total", Help: "Cache hits.",
		}, label),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "utxocache", Name: "misses_total", Help: "Cache misses (including master-chain misses).",
		}, label),
		inserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "utxocache", Name: "inserts_total", Help: "New keys inserted.",
		}, label),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "utxocache", Name: "updates_total", Help: "Existing keys overwritten.",
		}, label),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "utxocache", Name: "evictions_total", Help: "Entries evicted by capacity or prune_half.",
		}, label),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "utxocache", Name: "invalidations_total", Help: "Keys queued for invalidation.",
		}, label),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "utxocache", Name: "commits_total", Help: "Self-commits and drain-commits performed.",
		}, label),
		length: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "utxocache", Name: "items", Help: "Live keys in the cache.",
		}, label),
	}
	reg.MustRegister(pm.hits, pm.misses, pm.inserts, pm.updates, pm.evictions, pm.invalidations, pm.commits, pm.length)
	return pm
}

func (m *promMetrics) incHit(h Handle) {
	m.inner.incHit(h)
	m.hits.WithLabelValues(strconv.Itoa(int(h))).Inc()
}
func (m *promMetrics) incMiss(h Handle) {
	m.inner.incMiss(h)
	m.misses.WithLabelValues(strconv.Itoa(int(h))).Inc()
}
func (m *promMetrics) incInsert(h Handle) {
	m.inner.incInsert(h)
	m.inserts.WithLabelValues(strconv.Itoa(int(h))).Inc()
}
func (m *promMetrics) incUpdate(h Handle) {
	m.inner.incUpdate(h)
	m.updates.WithLabelValues(strconv.Itoa(int(h))).Inc()
}
func (m *promMetrics) incEviction(h Handle) {
	m.inner.incEviction(h)
	m.evictions.WithLabelValues(strconv.Itoa(int(h))).Inc()
}
func (m *promMetrics) incInvalidation(h Handle) {
	m.inner.incInvalidation(h)
	m.invalidations.WithLabelValues(strconv.Itoa(int(h))).Inc()
}
func (m *promMetrics) incCommit(h Handle) {
	m.inner.incCommit(h)
	m.commits.WithLabelValues(strconv.Itoa(int(h))).Inc()
}
func (m *promMetrics) setLen(h Handle, n int) {
	m.inner.setLen(h, n)
	m.length.WithLabelValues(strconv.Itoa(int(h))).Set(float64(n))
}
func (m *promMetrics) snapshot(h Handle) CacheStats {
	return m.inner.snapshot(h)
}

// newMetricsSink picks the implementation: Prometheus-backed when reg is
// non-nil, a plain counter otherwise. Snapshot() always works either way.
func newMetricsSink(reg *prometheus.Registry) metricsSink {
	if reg == nil {
		return newCountingMetrics()
	}
	return newPromMetrics(reg)
}
