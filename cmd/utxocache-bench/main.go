package main

// main.go implements the utxocache-bench CLI: it drives an in-process
// Registry with a synthetic workload (uniform or Zipfian key popularity,
// mirroring real chain-sync access patterns where a small set of recent
// outputs dominate lookups) and reports throughput and the cache's counters
// (hits, misses, inserts, ...), or — given -target — fetches a live snapshot
// from a running process that serves /debug/utxocache/snapshot instead of
// running its own workload.
//
// Build-time flag: `-ldflags "-X main.version=vX.Y.Z"`.
//
// © 2025 utxocache authors. MIT License.

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	cache "github.com/chainkit/utxocache/pkg"
)

var version = "dev"

type options struct {
	version  bool
	target   string
	n        int
	dist     string
	zipfS    float64
	zipfV    float64
	seed     int64
	maxItems uint64
	json     bool
}

func parseFlags() *options {
	opts := &options{}
	flag.BoolVar(&opts.version, "version", false, "print version and exit")
	flag.StringVar(&opts.target, "target", "", "fetch a live snapshot from this base URL instead of running a local workload")
	flag.IntVar(&opts.n, "n", 1_000_000, "number of operations to run")
	flag.StringVar(&opts.dist, "dist", "uniform", "key popularity distribution: uniform or zipf")
	flag.Float64Var(&opts.zipfS, "zipfs", 1.2, "zipf s parameter (>1)")
	flag.Float64Var(&opts.zipfV, "zipfv", 1.0, "zipf v parameter (>=1)")
	flag.Int64Var(&opts.seed, "seed", time.Now().UnixNano(), "PRNG seed")
	flag.Uint64Var(&opts.maxItems, "max-items", 1<<20, "cache capacity bound")
	flag.BoolVar(&opts.json, "json", false, "emit JSON instead of text")
	flag.Parse()
	return opts
}

func main() {
	opts := parseFlags()

	if opts.version {
		fmt.Println(version)
		return
	}

	if opts.target != "" {
		if err := fetchAndPrint(opts); err != nil {
			fatal(err)
		}
		return
	}

	if err := runWorkload(opts); err != nil {
		fatal(err)
	}
}

func fetchAndPrint(opts *options) error {
	res, err := http.Get(opts.target + "/debug/utxocache/snapshot?handle=0")
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", res.Status)
	}

	var stats cache.CacheStats
	if err := json.NewDecoder(res.Body).Decode(&stats); err != nil {
		return err
	}
	return printStats(opts, stats)
}

func runWorkload(opts *options) error {
	r := cache.NewRegistry(cache.WithDefaultMaxItemCount(opts.maxItems))
	h := r.CreateCache()

	rnd := rand.New(rand.NewSource(opts.seed))

	var draw func() uint64
	switch opts.dist {
	case "uniform":
		draw = rnd.Uint64
	case "zipf":
		if opts.zipfS <= 1.0 || opts.zipfV < 1.0 {
			return fmt.Errorf("zipfs must be >1 and zipfv >=1")
		}
		z := rand.NewZipf(rnd, opts.zipfS, opts.zipfV, ^uint64(0)>>1)
		draw = z.Uint64
	default:
		return fmt.Errorf("unknown dist: %s", opts.dist)
	}

	start := time.Now()
	for i := 0; i < opts.n; i++ {
		k := draw()
		hash := hashFromUint64(k)
		if i%8 == 0 {
			r.CacheUTXO(h, hash, 0, cache.TransactionOutputID(i))
		} else {
			r.GetCachedUTXO(h, hash, 0)
		}
	}
	elapsed := time.Since(start)

	stats := r.Snapshot(h)
	opsPerSec := float64(opts.n) / elapsed.Seconds()

	if opts.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"ops":           opts.n,
			"elapsed":       elapsed.String(),
			"ops_per_sec":   opsPerSec,
			"stats":         stats,
		})
	}

	fmt.Printf("ops:          %d\n", opts.n)
	fmt.Printf("elapsed:      %s\n", elapsed)
	fmt.Printf("ops/sec:      %.0f\n", opsPerSec)
	return printStats(opts, stats)
}

func printStats(opts *options, stats cache.CacheStats) error {
	if opts.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	fmt.Printf("len:          %d\n", stats.Len)
	fmt.Printf("hits:         %d\n", stats.Hits)
	fmt.Printf("misses:       %d\n", stats.Misses)
	fmt.Printf("inserts:      %d\n", stats.Inserts)
	fmt.Printf("updates:      %d\n", stats.Updates)
	fmt.Printf("evictions:    %d\n", stats.Evictions)
	fmt.Printf("invalidations:%d\n", stats.Invalidations)
	fmt.Printf("commits:      %d\n", stats.Commits)
	return nil
}

func hashFromUint64(v uint64) []byte {
	h := make([]byte, cache.HashSize)
	for i := 0; i < 8; i++ {
		h[i] = byte(v >> (8 * i))
	}
	return h
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "utxocache-bench:", err)
	os.Exit(1)
}
