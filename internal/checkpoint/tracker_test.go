package checkpoint

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_OutOfOrderCompletion(t *testing.T) {
	ts100 := time.Unix(1000, 0)
	ts101 := time.Unix(1001, 0)

	tracker := NewTracker(99)
	require.True(t, tracker.Dispatch(100))
	require.True(t, tracker.Dispatch(101))

	version, _, advanced := tracker.Complete(101, ts101)
	assert.False(t, advanced)
	assert.Equal(t, uint64(99), version)

	version, ts, advanced := tracker.Complete(100, ts100)
	assert.True(t, advanced)
	assert.Equal(t, uint64(101), version)
	assert.Equal(t, ts101, ts)
	assert.Equal(t, 0, tracker.InFlight())
}

func TestTracker_Dispatch(t *testing.T) {
	tests := []struct {
		name     string
		versions []uint64
		accepted []bool
	}{
		{
			name:     "increasing versions",
			versions: []uint64{10, 11, 15},
			accepted: []bool{true, true, true},
		},
		{
			name:     "versions at or below the checkpoint are ignored",
			versions: []uint64{5, 9, 10},
			accepted: []bool{false, false, true},
		},
		{
			name:     "redelivered versions are ignored",
			versions: []uint64{12, 11, 12, 13},
			accepted: []bool{true, false, false, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewTracker(9)
			for i, version := range tt.versions {
				assert.Equal(t, tt.accepted[i], tracker.Dispatch(version), "version %d", version)
			}
		})
	}
}

func TestTracker_LookupAndLastDispatched(t *testing.T) {
	tracker := NewTracker(99)
	assert.Equal(t, uint64(99), tracker.LastDispatched())

	require.True(t, tracker.Dispatch(100))
	require.True(t, tracker.Dispatch(102))
	assert.Equal(t, uint64(102), tracker.LastDispatched())

	dispatched, completed := tracker.Lookup(102)
	assert.True(t, dispatched)
	assert.False(t, completed)

	// 101 was never dispatched and can no longer be
	dispatched, _ = tracker.Lookup(101)
	assert.False(t, dispatched)
	assert.False(t, tracker.Dispatch(101))

	_, _, advanced := tracker.Complete(102, time.Unix(1002, 0))
	assert.False(t, advanced)
	dispatched, completed = tracker.Lookup(102)
	assert.True(t, dispatched)
	assert.True(t, completed)

	_, _, advanced = tracker.Complete(100, time.Unix(1000, 0))
	assert.True(t, advanced)
	dispatched, _ = tracker.Lookup(102)
	assert.False(t, dispatched)
	assert.Equal(t, uint64(102), tracker.LastDispatched())
}

func TestTracker_GapsInVersions(t *testing.T) {
	tracker := NewTracker(0)
	for _, version := range []uint64{3, 7, 20} {
		require.True(t, tracker.Dispatch(version))
	}

	_, _, advanced := tracker.Complete(7, time.Time{})
	assert.False(t, advanced)

	version, _, advanced := tracker.Complete(3, time.Time{})
	assert.True(t, advanced)
	assert.Equal(t, uint64(7), version)
	assert.Equal(t, 1, tracker.InFlight())
}

func TestTracker_CompleteUnknownVersion(t *testing.T) {
	tracker := NewTracker(50)
	require.True(t, tracker.Dispatch(51))

	version, _, advanced := tracker.Complete(49, time.Time{})
	assert.False(t, advanced)
	assert.Equal(t, uint64(50), version)

	version, _, advanced = tracker.Complete(52, time.Time{})
	assert.False(t, advanced)
	assert.Equal(t, uint64(50), version)
}

func TestTracker_ConcurrentCompletion(t *testing.T) {
	const n = 500
	tracker := NewTracker(0)
	for v := uint64(1); v <= n; v++ {
		require.True(t, tracker.Dispatch(v))
	}

	var wg sync.WaitGroup
	for v := uint64(n); v >= 1; v-- {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			tracker.Complete(v, time.Time{})
		}(v)
	}
	wg.Wait()

	assert.Equal(t, uint64(n), tracker.Checkpoint())
	assert.Equal(t, 0, tracker.InFlight())
}
