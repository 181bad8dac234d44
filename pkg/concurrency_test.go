package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// TestRegistryConcurrentHandlesAreIndependent exercises the registry's
// concurrency contract: its own mutex only guards slot lifecycle, so
// distinct handles may be driven concurrently by distinct goroutines as
// long as each handle is owned by exactly one goroutine at a time (the
// single-writer-per-cache rule; see DESIGN.md).
func TestRegistryConcurrentHandlesAreIndependent(t *testing.T) {
	r := NewRegistry()

	const workers = 16
	const opsPerWorker = 500

	handles := make([]Handle, workers)
	for i := range handles {
		handles[i] = r.CreateCache()
		require.NotEqual(t, NoHandle, handles[i])
	}

	g, _ := errgroup.WithContext(context.Background())
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			h := handles[w]
			for i := 0; i < opsPerWorker; i++ {
				hash := hashFromWorkerOp(w, i)
				r.CacheUTXO(h, hash, 0, TransactionOutputID(i))
				if got := r.GetCachedUTXO(h, hash, 0); got != TransactionOutputID(i) {
					return assertionError(w, i, got)
				}
			}
			return nil
		})
	}

	require.NoError(t, g.Wait())

	for w := 0; w < workers; w++ {
		assert.Equal(t, opsPerWorker, r.Snapshot(handles[w]).Len)
	}
}

func hashFromWorkerOp(worker, op int) []byte {
	h := make([]byte, HashSize)
	h[0] = byte(worker)
	h[1] = byte(op >> 8)
	h[2] = byte(op)
	return h
}

type mismatchError struct {
	worker, op int
	got        TransactionOutputID
}

func (e *mismatchError) Error() string {
	return "worker/op mismatch"
}

func assertionError(worker, op int, got TransactionOutputID) error {
	return &mismatchError{worker: worker, op: op, got: got}
}
