package offline_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/recipekit/pkg/netstatus"
	"github.com/dmitrymomot/recipekit/pkg/offline"
)

// drain collects events until none arrive for a short while.
func drain(ch <-chan offline.Event) []offline.Event {
	var out []offline.Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-time.After(50 * time.Millisecond):
			return out
		}
	}
}

func kinds(evs []offline.Event) []offline.EventKind {
	out := make([]offline.EventKind, len(evs))
	for i, ev := range evs {
		out[i] = ev.Kind
	}
	return out
}

func TestQueue_Events(t *testing.T) {
	t.Parallel()

	q, _ := newQueue(t)
	sub := q.Subscribe(context.Background())

	id := q.Add(recipeUpdate("42"))
	q.MoveToFailed(id, "boom")
	q.Retry(id)
	q.Complete(id)

	got := drain(sub.Events())
	assert.Equal(t, []offline.EventKind{
		offline.EventOperationQueued,
		offline.EventOperationFailed,
		offline.EventOperationRetried,
		offline.EventOperationCompleted,
	}, kinds(got))
	for _, ev := range got {
		assert.Equal(t, id, ev.OperationID)
	}
	assert.Equal(t, 1, got[0].PendingCount)
	assert.Equal(t, 1, got[1].FailedCount)
	assert.Equal(t, 0, got[3].PendingCount)
}

func TestQueue_NetworkRestored(t *testing.T) {
	t.Parallel()

	q, _ := newQueue(t)
	sub := q.Subscribe(context.Background())

	require.True(t, q.SetNetworkStatus(netstatus.Offline))
	assert.False(t, q.IsOnline())
	q.Add(recipeUpdate("1"))
	q.Add(recipeUpdate("2"))
	assert.Equal(t, 2, q.PendingCount())

	require.True(t, q.SetNetworkStatus(netstatus.Online))
	assert.Equal(t, 2, q.PendingCount(), "restoring the network does not touch pending")

	var restored []offline.Event
	for _, ev := range drain(sub.Events()) {
		if ev.Kind == offline.EventNetworkRestored {
			restored = append(restored, ev)
		}
	}
	require.Len(t, restored, 1)
	assert.Equal(t, 2, restored[0].PendingCount)
	require.NotNil(t, restored[0].Network)
	assert.Equal(t, netstatus.Offline, restored[0].Network.From)
	assert.Equal(t, netstatus.Online, restored[0].Network.To)
}

func TestQueue_NetworkRestoredNeedsPendingWork(t *testing.T) {
	t.Parallel()

	q, _ := newQueue(t)
	sub := q.Subscribe(context.Background())

	id := q.Add(recipeUpdate("1"))
	q.MoveToFailed(id, "boom")
	require.True(t, q.SetNetworkStatus(netstatus.Offline))
	require.True(t, q.SetNetworkStatus(netstatus.Online))

	assert.Equal(t, []offline.EventKind{
		offline.EventOperationQueued,
		offline.EventOperationFailed,
		offline.EventNetworkChanged,
		offline.EventNetworkChanged,
	}, kinds(drain(sub.Events())))
}

func TestQueue_RestoredSignal(t *testing.T) {
	t.Parallel()

	q, _ := newQueue(t, offline.WithEventBuffer(2))
	stalled := q.Subscribe(context.Background()) // never read
	defer stalled.Close()

	require.True(t, q.SetNetworkStatus(netstatus.Offline))
	for i := range 10 {
		q.Add(recipeUpdate(fmt.Sprint(i)))
	}
	require.True(t, q.SetNetworkStatus(netstatus.Online))

	// offline change, 10 queued, online change, restored: 13 events into a buffer of 2.
	assert.Equal(t, uint64(11), q.DroppedEvents())

	select {
	case <-q.Restored():
	case <-time.After(time.Second):
		t.Fatal("restore signal lost behind a full subscriber")
	}

	// Several restores before anyone listens coalesce into one signal.
	for range 3 {
		require.True(t, q.SetNetworkStatus(netstatus.Offline))
		require.True(t, q.SetNetworkStatus(netstatus.Online))
	}
	select {
	case <-q.Restored():
	default:
		t.Fatal("expected a pending restore signal")
	}
	select {
	case <-q.Restored():
		t.Fatal("restore signals should coalesce")
	default:
	}
}

func TestQueue_RestoredSignalNeedsPendingWork(t *testing.T) {
	t.Parallel()

	q, _ := newQueue(t)
	require.True(t, q.SetNetworkStatus(netstatus.Offline))
	require.True(t, q.SetNetworkStatus(netstatus.Online))

	select {
	case <-q.Restored():
		t.Fatal("no pending work, no restore signal")
	default:
	}
	assert.Zero(t, q.DroppedEvents())
}

func TestQueue_SetNetworkStatus(t *testing.T) {
	t.Parallel()

	q, clock := newQueue(t)
	start := q.LastOnlineTime()
	assert.Equal(t, netstatus.Online, q.NetworkStatus())

	clock.Advance(time.Minute)
	require.True(t, q.SetNetworkStatus(netstatus.Slow))
	assert.True(t, q.IsOnline(), "slow still counts as online")
	assert.Equal(t, clock.Now(), q.LastOnlineTime())

	assert.False(t, q.SetNetworkStatus(netstatus.Slow), "no change")
	require.True(t, q.SetNetworkStatus(netstatus.Offline))

	clock.Advance(time.Minute)
	assert.False(t, q.SetNetworkStatus(netstatus.Slow), "slow is unreachable from offline")
	assert.Equal(t, netstatus.Offline, q.NetworkStatus())
	assert.Equal(t, start.Add(time.Minute), q.LastOnlineTime())

	assert.False(t, q.SetNetworkStatus("unknown"))
}

func TestQueue_CheckNetworkStatus(t *testing.T) {
	t.Parallel()

	t.Run("without detector", func(t *testing.T) {
		t.Parallel()
		q, _ := newQueue(t)
		assert.False(t, q.CheckNetworkStatus(context.Background()))
	})

	t.Run("reachable", func(t *testing.T) {
		t.Parallel()
		d := netstatus.NewDetector(netstatus.ProberFunc(func(context.Context) (time.Duration, error) {
			return time.Millisecond, nil
		}))
		q, _ := newQueue(t, offline.WithDetector(d))
		assert.True(t, q.CheckNetworkStatus(context.Background()))
	})

	t.Run("unreachable", func(t *testing.T) {
		t.Parallel()
		d := netstatus.NewDetector(netstatus.ProberFunc(func(context.Context) (time.Duration, error) {
			return 0, errors.New("dial tcp: connection refused")
		}))
		q, _ := newQueue(t, offline.WithDetector(d))
		assert.False(t, q.CheckNetworkStatus(context.Background()))
	})
}

func TestQueue_InitializeNetworkDetection(t *testing.T) {
	t.Parallel()

	reachable := netstatus.ProberFunc(func(context.Context) (time.Duration, error) {
		return time.Millisecond, nil
	})
	d := netstatus.NewDetector(reachable,
		netstatus.WithInitialStatus(netstatus.Offline),
		netstatus.WithPollInterval(time.Hour),
	)
	defer d.Close()

	q, _ := newQueue(t)
	require.ErrorIs(t, q.InitializeNetworkDetection(context.Background(), nil), offline.ErrNilDetector)

	q.Add(recipeUpdate("1"))
	sub := q.Subscribe(context.Background())

	// The first probe succeeds, moving the detector and the queue online.
	require.NoError(t, q.InitializeNetworkDetection(context.Background(), d))
	assert.True(t, d.Running())
	require.ErrorIs(t, q.InitializeNetworkDetection(context.Background(), d), offline.ErrDetectionInitialized)

	require.Eventually(t, func() bool { return q.IsOnline() }, time.Second, 5*time.Millisecond)
	assert.Contains(t, kinds(drain(sub.Events())), offline.EventNetworkRestored)

	require.NoError(t, q.Close())
	assert.False(t, d.Running(), "closing the queue stops polling it started")

	d.Set(netstatus.Offline)
	time.Sleep(20 * time.Millisecond)
	assert.True(t, q.IsOnline(), "closed queue no longer follows the detector")
}

func TestQueue_InitializeAdoptsDetectorStatus(t *testing.T) {
	t.Parallel()

	d := netstatus.NewDetector(nil, netstatus.WithInitialStatus(netstatus.Offline))
	defer d.Close()

	q, _ := newQueue(t)
	require.NoError(t, q.InitializeNetworkDetection(context.Background(), d))
	assert.Equal(t, netstatus.Offline, q.NetworkStatus())
}

func TestQueue_InitializeAfterClose(t *testing.T) {
	t.Parallel()

	q := offline.New()
	require.NoError(t, q.Close())
	err := q.InitializeNetworkDetection(context.Background(), netstatus.NewDetector(nil))
	require.ErrorIs(t, err, offline.ErrClosed)
}
