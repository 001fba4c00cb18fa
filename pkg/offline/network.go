package offline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/recipekit/pkg/logger"
	"github.com/dmitrymomot/recipekit/pkg/netstatus"
	"github.com/dmitrymomot/recipekit/pkg/statemachine"
)

func (q *Queue) NetworkStatus() netstatus.Status {
	return q.network.Current()
}

func (q *Queue) IsOnline() bool {
	return q.NetworkStatus().IsOnline()
}

// LastOnlineTime is the last moment the queue saw an online status.
func (q *Queue) LastOnlineTime() time.Time {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastOnline
}

// SetNetworkStatus applies a network status. It publishes EventNetworkChanged
// for every accepted move, and EventNetworkRestored when the move goes from
// offline to online while operations are pending. Disallowed moves, such as
// offline to slow, are ignored and reported as false.
func (q *Queue) SetNetworkStatus(status netstatus.Status) bool {
	if !status.Valid() {
		q.log.Warn("ignoring unknown network status", logger.NetworkStatus(status))
		return false
	}

	q.mu.Lock()
	now := q.now()
	from, err := q.network.Transition(status)
	if q.network.Current().IsOnline() {
		q.lastOnline = now
	}
	if err != nil {
		q.mu.Unlock()
		if statemachine.IsNoTransitionAvailableError(err) {
			q.log.Debug("network status transition not allowed",
				slog.String("from", from.String()),
				slog.String("to", status.String()),
			)
		}
		return false
	}

	change := netstatus.Change{From: from, To: status, At: now}
	changed := q.event(EventNetworkChanged, "")
	changed.Network = &change
	evs := []Event{changed}
	restored := change.Restored() && len(q.pending) > 0
	if restored {
		ev := q.event(EventNetworkRestored, "")
		ev.Network = &change
		evs = append(evs, ev)
	}
	q.mu.Unlock()

	q.log.Info("network status changed",
		slog.String("from", from.String()),
		logger.NetworkStatus(status),
	)
	if restored {
		q.log.Info("network restored with pending operations", logger.Count(changed.PendingCount))
	}
	q.publish(evs...)
	if restored {
		q.signalRestored()
	}
	q.persist()
	return true
}

// CheckNetworkStatus probes the service through the configured detector.
// It never fails: errors, timeouts and a missing detector all yield false.
func (q *Queue) CheckNetworkStatus(ctx context.Context) bool {
	q.mu.Lock()
	d := q.detector
	q.mu.Unlock()

	if d == nil {
		q.log.DebugContext(ctx, "no network detector configured")
		return false
	}
	return d.Check(ctx)
}

// InitializeNetworkDetection adopts the detector's current status, follows its
// changes and starts its polling. Detection stops when ctx is cancelled or the
// queue is closed. It may be called once per queue.
func (q *Queue) InitializeNetworkDetection(ctx context.Context, d *netstatus.Detector) error {
	if d == nil {
		return ErrNilDetector
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	if q.stopDetection != nil {
		q.mu.Unlock()
		return ErrDetectionInitialized
	}
	ctx, cancel := context.WithCancel(ctx)
	sub := d.Subscribe(ctx)

	q.detector = d
	q.stopDetection = cancel
	status := d.Status()
	q.network.Restore(status)
	if status.IsOnline() {
		q.lastOnline = q.now()
	}
	q.wg.Add(1)
	q.mu.Unlock()

	go func() {
		defer q.wg.Done()
		for change := range sub.Events() {
			q.SetNetworkStatus(change.To)
		}
	}()

	err := d.Start(ctx)
	started := err == nil
	if err != nil && !errors.Is(err, netstatus.ErrAlreadyStarted) {
		cancel()
		q.wg.Wait()
		q.mu.Lock()
		q.stopDetection = nil
		q.mu.Unlock()
		return err
	}

	q.mu.Lock()
	q.stopDetection = func() {
		cancel()
		if started {
			d.Stop()
		}
	}
	q.mu.Unlock()

	q.log.Info("network detection initialized", logger.NetworkStatus(status))
	return nil
}
