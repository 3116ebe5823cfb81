package checkpoint

import (
	"sort"
	"sync"
	"time"
)

type entry struct {
	version   uint64
	timestamp time.Time
	done      bool
}

// Tracker computes the checkpoint of transactions that complete out of order.
// The checkpoint only moves over the contiguous prefix of dispatched versions
// that have all completed
type Tracker struct {
	mu        sync.Mutex
	last      uint64
	timestamp time.Time
	pending   []entry
}

// NewTracker creates a tracker whose checkpoint starts at last
func NewTracker(last uint64) *Tracker {
	return &Tracker{last: last}
}

// Dispatch registers a version as in flight. Versions must be dispatched in stream order.
// It returns false for a version at or below the current checkpoint or the last dispatched one,
// which the tracker ignores
func (t *Tracker) Dispatch(version uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if version <= t.last {
		return false
	}
	if n := len(t.pending); n > 0 && version <= t.pending[n-1].version {
		return false
	}

	t.pending = append(t.pending, entry{version: version})
	return true
}

// Complete marks a dispatched version as committed and returns the checkpoint after it.
// advanced is true when the checkpoint moved
func (t *Tracker) Complete(version uint64, timestamp time.Time) (uint64, time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := sort.Search(len(t.pending), func(i int) bool { return t.pending[i].version >= version })
	if i == len(t.pending) || t.pending[i].version != version {
		return t.last, t.timestamp, false
	}
	t.pending[i].done = true
	t.pending[i].timestamp = timestamp

	advanced := false
	for len(t.pending) > 0 && t.pending[0].done {
		t.last = t.pending[0].version
		t.timestamp = t.pending[0].timestamp
		t.pending = t.pending[1:]
		advanced = true
	}

	return t.last, t.timestamp, advanced
}

// Lookup reports whether the version is dispatched above the checkpoint and whether it completed
func (t *Tracker) Lookup(version uint64) (dispatched bool, completed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := sort.Search(len(t.pending), func(i int) bool { return t.pending[i].version >= version })
	if i == len(t.pending) || t.pending[i].version != version {
		return false, false
	}
	return true, t.pending[i].done
}

// LastDispatched returns the highest dispatched version, the checkpoint when nothing is in flight
func (t *Tracker) LastDispatched() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n := len(t.pending); n > 0 {
		return t.pending[n-1].version
	}
	return t.last
}

// Checkpoint returns the current checkpoint
func (t *Tracker) Checkpoint() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// InFlight returns the number of dispatched versions waiting for the checkpoint to pass them
func (t *Tracker) InFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
