package syncdriver

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/recipekit/pkg/logger"
	"github.com/dmitrymomot/recipekit/pkg/offline"
)

// Result summarises one sync run.
type Result struct {
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Retried   int `json:"retried"`
	// Remaining is the pending count when the run ended.
	Remaining int `json:"remaining"`
}

// Driver replays pending operations of a queue.
type Driver struct {
	queue            *offline.Queue
	replayer         Replayer
	breaker          *Breaker
	retryFailed      bool
	operationTimeout time.Duration
	interval         time.Duration
	log              *slog.Logger

	mu      sync.Mutex
	running bool
	// missed is set when a Sync is refused because another one is running.
	missed bool
	rerun  chan struct{}
}

// Option configures a Driver.
type Option func(*Driver)

// WithRetryFailed retries failed operations that still have budget before each run.
func WithRetryFailed(enabled bool) Option {
	return func(d *Driver) { d.retryFailed = enabled }
}

// WithOperationTimeout bounds each replay.
func WithOperationTimeout(timeout time.Duration) Option {
	return func(d *Driver) {
		if timeout > 0 {
			d.operationTimeout = timeout
		}
	}
}

// WithInterval makes Run also sync periodically. Zero disables it.
func WithInterval(interval time.Duration) Option {
	return func(d *Driver) {
		if interval >= 0 {
			d.interval = interval
		}
	}
}

func WithBreaker(b *Breaker) Option {
	return func(d *Driver) {
		if b != nil {
			d.breaker = b
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.log = l
		}
	}
}

// New creates a driver for queue.
func New(queue *offline.Queue, replayer Replayer, opts ...Option) (*Driver, error) {
	if queue == nil {
		return nil, ErrNilQueue
	}
	if replayer == nil {
		return nil, ErrNilReplayer
	}

	d := &Driver{
		queue:            queue,
		replayer:         replayer,
		breaker:          NewBreaker(0, 0, 0),
		operationTimeout: 30 * time.Second,
		log:              logger.Discard(),
		rerun:            make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With(logger.Component("syncdriver"))
	return d, nil
}

// Breaker exposes the driver's circuit breaker.
func (d *Driver) Breaker() *Breaker {
	return d.breaker
}

// Syncing reports whether a run is in flight.
func (d *Driver) Syncing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

func (d *Driver) acquire() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		d.missed = true
		return false
	}
	d.running = true
	return true
}

// release ends a run and asks Run for another one when a sync was refused meanwhile.
func (d *Driver) release() {
	d.mu.Lock()
	missed := d.missed
	d.running, d.missed = false, false
	d.mu.Unlock()

	if missed {
		select {
		case d.rerun <- struct{}{}:
		default:
		}
	}
}

// Sync replays every pending operation once, in queue order.
func (d *Driver) Sync(ctx context.Context) (Result, error) {
	if !d.queue.IsOnline() {
		return Result{}, ErrOffline
	}
	if !d.acquire() {
		return Result{}, ErrSyncInProgress
	}
	d.queue.SetSyncInProgress(true)
	defer func() {
		d.queue.SetSyncInProgress(false)
		d.release()
	}()

	var res Result
	if d.retryFailed {
		res.Retried = len(d.queue.RetryAll())
	}

	start := time.Now()
	var err error
	for _, op := range d.queue.Pending() {
		if err = ctx.Err(); err != nil {
			break
		}
		if !d.queue.IsOnline() {
			err = ErrOffline
			break
		}
		if !d.breaker.Allow() {
			err = ErrCircuitOpen
			break
		}

		switch d.replay(ctx, op) {
		case outcomeCompleted:
			res.Completed++
		case outcomeFailed:
			res.Failed++
		}
	}
	res.Remaining = d.queue.PendingCount()

	d.log.InfoContext(ctx, "sync finished",
		slog.Int("completed", res.Completed),
		slog.Int("failed", res.Failed),
		slog.Int("retried", res.Retried),
		slog.Int("remaining", res.Remaining),
		logger.Duration(time.Since(start)),
	)
	if err != nil {
		d.log.WarnContext(ctx, "sync stopped early", logger.Error(err))
	}
	return res, err
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeCompleted
	outcomeFailed
)

func (d *Driver) replay(ctx context.Context, op offline.Operation) outcome {
	// Gone since the pending list was read.
	if !d.queue.UpdateStatus(op.ID, offline.StatusSyncing, "") {
		return outcomeSkipped
	}

	rctx, cancel := context.WithTimeout(ctx, d.operationTimeout)
	err := d.replayer.Replay(rctx, op)
	cancel()

	switch {
	case err == nil:
		d.breaker.Success()
		d.queue.Complete(op.ID)
		return outcomeCompleted
	case ctx.Err() != nil:
		// Interrupted, not failed.
		d.queue.UpdateStatus(op.ID, offline.StatusPending, "")
		return outcomeSkipped
	default:
		if !errors.Is(err, ErrReplayRejected) {
			d.breaker.Failure()
		}
		d.log.WarnContext(ctx, "operation replay failed",
			logger.OperationID(op.ID),
			logger.OperationType(string(op.Type)),
			logger.RetryCount(op.RetryCount),
			logger.Error(err),
		)
		d.queue.MoveToFailed(op.ID, err.Error())
		return outcomeFailed
	}
}

// Run syncs whenever the queue signals that the network came back with
// pending work, after a sync that was refused because another one was
// running, and on every interval tick while online. Restore signals are kept
// by the queue until Run receives them, so a restore that happens during a
// long sync is handled right after it. Run returns when ctx is cancelled.
func (d *Driver) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if d.interval > 0 {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-d.queue.Restored():
			d.trigger(ctx, "network restored")
		case <-d.rerun:
			if d.queue.IsOnline() && d.queue.PendingCount() > 0 {
				d.trigger(ctx, "missed sync")
			}
		case <-tick:
			if d.queue.IsOnline() && d.queue.PendingCount() > 0 {
				d.trigger(ctx, "interval")
			}
		}
	}
}

func (d *Driver) trigger(ctx context.Context, reason string) {
	d.log.DebugContext(ctx, "sync triggered", slog.String("reason", reason))
	_, err := d.Sync(ctx)
	if err != nil && !errors.Is(err, ErrSyncInProgress) && !errors.Is(err, context.Canceled) {
		d.log.WarnContext(ctx, "triggered sync failed", logger.Error(err))
	}
}
