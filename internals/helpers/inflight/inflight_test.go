package inflight

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTrackerLifecycle(t *testing.T) {
	tr := New(time.Minute)

	require.Equal(t, Idle, tr.State("approve:TXN-1"))
	require.True(t, tr.Begin("approve:TXN-1"))
	require.Equal(t, InFlight, tr.State("approve:TXN-1"))

	// second caller is refused while the first runs
	require.False(t, tr.Begin("approve:TXN-1"))

	tr.Finish("approve:TXN-1", nil)
	require.Equal(t, Succeeded, tr.State("approve:TXN-1"))

	require.True(t, tr.Begin("approve:TXN-1"))
	tr.Finish("approve:TXN-1", errors.New("boom"))
	require.Equal(t, Failed, tr.State("approve:TXN-1"))
}

func TestTrackerForgetsFinishedEntries(t *testing.T) {
	tr := New(time.Second)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return now }

	require.True(t, tr.Begin("k"))
	tr.Finish("k", nil)
	now = now.Add(2 * time.Second)
	require.Equal(t, Idle, tr.State("k"))

	require.True(t, tr.Begin("other"))
	_, kept := tr.entries["k"]
	require.False(t, kept)
}

func TestTrackerOnlyOneConcurrentBegin(t *testing.T) {
	tr := New(time.Minute)
	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tr.Begin("submit:holder") {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), wins)
}
