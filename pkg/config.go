package cache

// config.go defines the functional options passed to NewRegistry, adapted
// from arena-cache's pkg/config.go Option[K, V] pattern. Handles in this
// package are plain int32s rather than generic K/V, so the options collapse
// to non-generic Option values over a single config struct.
//
// © 2025 utxocache authors. MIT License.

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// config bundles every knob that influences Registry behaviour. All fields
// are immutable once the Registry is constructed.
type config struct {
	logger          *zap.Logger
	promRegistry    *prometheus.Registry
	defaultMaxItems uint64
}

func defaultConfig() *config {
	return &config{
		logger:          zap.NewNop(),
		defaultMaxItems: unboundedMaxItems,
	}
}

// Option is a functional option applied to NewRegistry.
type Option func(*config)

// WithLogger plugs an external zap.Logger. Lookups and invalidations
// (get_cached_utxo / invalidate_utxo) never log; cache_utxo logs only when it
// evicts. The other events emitted are registry and cache lifecycle,
// evictions, and drain commits.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics enables Prometheus metrics collection for every cache the
// registry manages. Passing nil disables Prometheus export (the default);
// Registry.Snapshot still returns accurate counters either way.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(c *config) {
		c.promRegistry = reg
	}
}

// WithDefaultMaxItemCount sets the max_item_count every newly created cache
// starts with (effectively unbounded otherwise). Individual caches may
// still override it via SetMaxItemCount.
func WithDefaultMaxItemCount(n uint64) Option {
	return func(c *config) {
		if n > 0 {
			c.defaultMaxItems = n
		}
	}
}

func applyOptions(opts []Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
