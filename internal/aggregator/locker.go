package aggregator

import (
	"sort"
	"sync"

	"github.com/puzpuzpuz/xsync/v4"
)

type keyedMutex struct {
	mu   sync.Mutex
	refs int
}

// Locker serializes work on the same collection ids inside the process.
// Entries are reference counted and removed once nobody holds or waits for them
type Locker struct {
	locks *xsync.Map[string, *keyedMutex]
}

// NewLocker creates an empty locker
func NewLocker() *Locker {
	return &Locker{locks: xsync.NewMap[string, *keyedMutex]()}
}

// Lock acquires the ids in sorted order and returns the function releasing them
func (l *Locker) Lock(ids []string) func() {
	keys := uniqueSorted(ids)
	held := make([]*keyedMutex, 0, len(keys))
	for _, key := range keys {
		entry := l.acquire(key)
		entry.mu.Lock()
		held = append(held, entry)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(keys) - 1; i >= 0; i-- {
				held[i].mu.Unlock()
				l.release(keys[i])
			}
		})
	}
}

func (l *Locker) acquire(key string) *keyedMutex {
	entry, _ := l.locks.Compute(key, func(old *keyedMutex, loaded bool) (*keyedMutex, xsync.ComputeOp) {
		if !loaded {
			old = &keyedMutex{}
		}
		old.refs++
		return old, xsync.UpdateOp
	})
	return entry
}

func (l *Locker) release(key string) {
	l.locks.Compute(key, func(old *keyedMutex, loaded bool) (*keyedMutex, xsync.ComputeOp) {
		if !loaded {
			return old, xsync.CancelOp
		}
		old.refs--
		if old.refs <= 0 {
			return old, xsync.DeleteOp
		}
		return old, xsync.UpdateOp
	})
}

// Size returns the number of ids currently held or waited for
func (l *Locker) Size() int {
	return l.locks.Size()
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		keys = append(keys, id)
	}
	sort.Strings(keys)
	return keys
}
