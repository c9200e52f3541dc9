package subscription

import (
	"context"
	"sync"
)

// DedupStore remembers processed webhook deliveries per subscription.
//
// Seen records the key and reports whether it was already present, in one
// atomic step. Dedup is an optimization on top of transition idempotency,
// not a correctness requirement: when the store is unavailable the guard
// proceeds and relies on Apply being safe to replay.
type DedupStore interface {
	Seen(ctx context.Context, subscriptionID, key string) (bool, error)
}

// dedupWindow is how many delivery keys are remembered per subscription.
const dedupWindow = 32

// MemoryDedup keeps the last N delivery keys per subscription in memory.
type MemoryDedup struct {
	mu   sync.Mutex
	seen map[string]*ring
}

type ring struct {
	keys  []string
	index map[string]struct{}
	next  int
}

// NewMemoryDedup returns an in-process dedup store.
func NewMemoryDedup() *MemoryDedup {
	return &MemoryDedup{seen: make(map[string]*ring)}
}

func (d *MemoryDedup) Seen(ctx context.Context, subscriptionID, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	r, ok := d.seen[subscriptionID]
	if !ok {
		r = &ring{
			keys:  make([]string, dedupWindow),
			index: make(map[string]struct{}, dedupWindow),
		}
		d.seen[subscriptionID] = r
	}

	if _, dup := r.index[key]; dup {
		return true, nil
	}

	// Evict the oldest key once the window is full.
	if old := r.keys[r.next]; old != "" {
		delete(r.index, old)
	}
	r.keys[r.next] = key
	r.index[key] = struct{}{}
	r.next = (r.next + 1) % dedupWindow
	return false, nil
}
