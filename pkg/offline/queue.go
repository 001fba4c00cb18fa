package offline

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/recipekit/pkg/events"
	"github.com/dmitrymomot/recipekit/pkg/logger"
	"github.com/dmitrymomot/recipekit/pkg/netstatus"
	"github.com/dmitrymomot/recipekit/pkg/snapshot"
	"github.com/dmitrymomot/recipekit/pkg/statemachine"
)

// Queue holds pending and failed sync operations. Safe for concurrent use.
type Queue struct {
	mu             sync.Mutex
	pending        []Operation
	failed         []Operation
	cleanups       map[string]func()
	network        *statemachine.Machine[netstatus.Status]
	lastOnline     time.Time
	syncInProgress bool
	offlineCapable bool
	closed         bool

	detector      *netstatus.Detector
	stopDetection func()
	wg            sync.WaitGroup

	bus         *events.Bus[Event]
	eventBuffer int
	restored    chan struct{}

	storage        snapshot.Storage
	snapshots      *snapshot.Store[Snapshot]
	snapshotKey    string
	persistTimeout time.Duration
	saveMu         sync.Mutex

	defaultMaxRetries int
	now               func() time.Time
	newID             func() string
	log               *slog.Logger
}

// New creates an empty queue. The network is assumed online until told otherwise.
func New(opts ...Option) *Queue {
	q := &Queue{
		cleanups:          make(map[string]func()),
		restored:          make(chan struct{}, 1),
		snapshotKey:       DefaultSnapshotKey,
		persistTimeout:    2 * time.Second,
		defaultMaxRetries: DefaultMaxRetries,
		now:               time.Now,
		newID:             uuid.NewString,
		log:               logger.Discard(),
	}
	for _, opt := range opts {
		opt(q)
	}

	q.log = q.log.With(logger.Component("offline"))
	q.bus = events.NewBus(q.eventBuffer, events.WithDropHandler(func(ev Event) {
		q.log.Warn("queue event dropped by a full subscriber",
			slog.String("kind", string(ev.Kind)),
			slog.Uint64("dropped_total", q.bus.Dropped()),
		)
	}))
	q.network = netstatus.NewMachine(netstatus.Online)
	q.lastOnline = q.now()
	q.snapshots = snapshot.NewStore[Snapshot](q.storage, q.snapshotKey, SnapshotVersion,
		snapshot.WithClock(q.now),
	)
	return q
}

// NewFromConfig creates a queue from environment settings. Extra options win.
func NewFromConfig(cfg Config, opts ...Option) *Queue {
	return New(append(cfg.Options(), opts...)...)
}

// Subscribe streams queue events until ctx is cancelled or the queue is closed.
func (q *Queue) Subscribe(ctx context.Context) events.Subscription[Event] {
	return q.bus.Subscribe(ctx)
}

// Add enqueues a single operation and returns its generated id.
func (q *Queue) Add(in NewOperation) string {
	q.mu.Lock()
	op := q.build(in)
	q.pending = append(q.pending, op)
	ev := q.event(EventOperationQueued, op.ID)
	q.mu.Unlock()

	q.log.Debug("operation queued",
		logger.OperationID(op.ID),
		logger.OperationType(string(op.Type)),
		logger.ResourceType(op.ResourceType),
	)
	q.publish(ev)
	q.persist()
	return op.ID
}

// AddBatch enqueues all operations at once and returns their ids in input order.
func (q *Queue) AddBatch(in []NewOperation) []string {
	if len(in) == 0 {
		return []string{}
	}

	q.mu.Lock()
	ids := make([]string, 0, len(in))
	evs := make([]Event, 0, len(in))
	for _, item := range in {
		op := q.build(item)
		q.pending = append(q.pending, op)
		ids = append(ids, op.ID)
	}
	for _, id := range ids {
		evs = append(evs, q.event(EventOperationQueued, id))
	}
	q.mu.Unlock()

	q.log.Debug("operations queued", logger.Count(len(ids)))
	q.publish(evs...)
	q.persist()
	return ids
}

// build must be called with q.mu held.
func (q *Queue) build(in NewOperation) Operation {
	now := q.now()
	maxRetries := q.defaultMaxRetries
	if in.MaxRetries != nil && *in.MaxRetries >= 0 {
		maxRetries = *in.MaxRetries
	}
	return Operation{
		ID:           q.newID(),
		Type:         in.Type,
		ResourceType: in.ResourceType,
		ResourceID:   in.ResourceID,
		Payload:      slices.Clone(in.Payload),
		Status:       StatusPending,
		MaxRetries:   maxRetries,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// RemovePending drops an operation from pending. Unknown ids are ignored.
func (q *Queue) RemovePending(id string) bool {
	q.mu.Lock()
	i := indexOf(q.pending, id)
	if i < 0 {
		q.mu.Unlock()
		return false
	}
	q.pending = slices.Delete(q.pending, i, i+1)
	cleanup := q.takeCleanup(id)
	q.mu.Unlock()

	q.log.Debug("pending operation removed", logger.OperationID(id))
	runCleanups(cleanup)
	q.persist()
	return true
}

// UpdateStatus rewrites the status and error of an operation in place,
// whichever collection holds it. It never moves the operation.
func (q *Queue) UpdateStatus(id string, status Status, errMsg string) bool {
	if !status.Valid() {
		q.log.Warn("ignoring unknown operation status",
			logger.OperationID(id),
			slog.String("status", string(status)),
		)
		return false
	}

	q.mu.Lock()
	op := q.find(id)
	if op == nil {
		q.mu.Unlock()
		return false
	}
	op.Status = status
	op.Error = errMsg
	op.UpdatedAt = q.now()
	q.mu.Unlock()

	q.persist()
	return true
}

// MoveToFailed moves an operation from pending to failed, recording errMsg.
func (q *Queue) MoveToFailed(id, errMsg string) bool {
	q.mu.Lock()
	i := indexOf(q.pending, id)
	if i < 0 {
		q.mu.Unlock()
		return false
	}
	op := q.pending[i]
	q.pending = slices.Delete(q.pending, i, i+1)
	op.Status = StatusFailed
	op.Error = errMsg
	op.UpdatedAt = q.now()
	q.failed = append(q.failed, op)
	ev := q.event(EventOperationFailed, id)
	q.mu.Unlock()

	q.log.Info("operation failed",
		logger.OperationID(id),
		logger.RetryCount(op.RetryCount),
		slog.String("error", errMsg),
	)
	q.publish(ev)
	q.persist()
	return true
}

// MoveToPending moves an operation from failed back to pending without
// spending retry budget.
func (q *Queue) MoveToPending(id string) bool {
	q.mu.Lock()
	ok := q.revive(id, false)
	q.mu.Unlock()

	if ok {
		q.persist()
	}
	return ok
}

// Retry moves a failed operation back to pending and counts the attempt.
// Operations that reached their retry ceiling are left untouched.
func (q *Queue) Retry(id string) bool {
	q.mu.Lock()
	ok := q.revive(id, true)
	var ev Event
	if ok {
		ev = q.event(EventOperationRetried, id)
	}
	q.mu.Unlock()

	if !ok {
		return false
	}
	q.log.Debug("operation retried", logger.OperationID(id))
	q.publish(ev)
	q.persist()
	return true
}

// RetryAll retries every failed operation that still has retry budget and
// returns their ids. Exhausted operations stay in failed; their RetryCount is
// not reset.
func (q *Queue) RetryAll() []string {
	q.mu.Lock()
	ids := []string{}
	for _, op := range slices.Clone(q.failed) {
		if op.Retryable() && q.revive(op.ID, true) {
			ids = append(ids, op.ID)
		}
	}
	evs := make([]Event, 0, len(ids))
	for _, id := range ids {
		evs = append(evs, q.event(EventOperationRetried, id))
	}
	q.mu.Unlock()

	if len(ids) == 0 {
		return ids
	}
	q.log.Info("failed operations retried", logger.Count(len(ids)))
	q.publish(evs...)
	q.persist()
	return ids
}

// revive must be called with q.mu held.
func (q *Queue) revive(id string, countAttempt bool) bool {
	i := indexOf(q.failed, id)
	if i < 0 {
		return false
	}
	op := q.failed[i]
	if countAttempt {
		if !op.Retryable() {
			return false
		}
		op.RetryCount++
	}
	q.failed = slices.Delete(q.failed, i, i+1)
	op.Status = StatusPending
	op.Error = ""
	op.UpdatedAt = q.now()
	q.pending = append(q.pending, op)
	return true
}

// Complete removes a successfully replayed operation from pending.
func (q *Queue) Complete(id string) bool {
	q.mu.Lock()
	i := indexOf(q.pending, id)
	if i < 0 {
		q.mu.Unlock()
		return false
	}
	q.pending = slices.Delete(q.pending, i, i+1)
	cleanup := q.takeCleanup(id)
	ev := q.event(EventOperationCompleted, id)
	q.mu.Unlock()

	q.log.Debug("operation completed", logger.OperationID(id))
	runCleanups(cleanup)
	q.publish(ev)
	q.persist()
	return true
}

// ClearFailed discards every failed operation.
func (q *Queue) ClearFailed() int {
	q.mu.Lock()
	cleared := q.failed
	q.failed = nil
	cleanups := make([]func(), 0, len(cleared))
	for _, op := range cleared {
		cleanups = append(cleanups, q.takeCleanup(op.ID)...)
	}
	q.mu.Unlock()

	if len(cleared) == 0 {
		return 0
	}
	q.log.Info("failed operations cleared", logger.Count(len(cleared)))
	runCleanups(cleanups)
	q.persist()
	return len(cleared)
}

// RemoveFailed discards one failed operation.
func (q *Queue) RemoveFailed(id string) bool {
	q.mu.Lock()
	i := indexOf(q.failed, id)
	if i < 0 {
		q.mu.Unlock()
		return false
	}
	q.failed = slices.Delete(q.failed, i, i+1)
	cleanup := q.takeCleanup(id)
	q.mu.Unlock()

	q.log.Debug("failed operation removed", logger.OperationID(id))
	runCleanups(cleanup)
	q.persist()
	return true
}

// OnRemove registers fn to run once when the operation leaves the queue or
// the queue is closed. It replaces any earlier handler for the same id.
// Returns false if the operation is unknown.
func (q *Queue) OnRemove(id string, fn func()) bool {
	if fn == nil {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.find(id) == nil {
		return false
	}
	q.cleanups[id] = fn
	return true
}

// SetSyncInProgress flags that a sync driver is replaying operations.
func (q *Queue) SetSyncInProgress(v bool) {
	q.mu.Lock()
	q.syncInProgress = v
	q.mu.Unlock()
}

func (q *Queue) SyncInProgress() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.syncInProgress
}

// SetOfflineCapable records whether the client may work offline. Persisted.
func (q *Queue) SetOfflineCapable(v bool) {
	q.mu.Lock()
	changed := q.offlineCapable != v
	q.offlineCapable = v
	q.mu.Unlock()

	if changed {
		q.persist()
	}
}

func (q *Queue) OfflineCapable() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.offlineCapable
}

// Close stops network detection, runs pending cleanup handlers and ends all
// subscriptions. The queue content is kept.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	stop := q.stopDetection
	q.stopDetection = nil
	cleanups := make([]func(), 0, len(q.cleanups))
	for id, fn := range q.cleanups {
		cleanups = append(cleanups, fn)
		delete(q.cleanups, id)
	}
	q.mu.Unlock()

	if stop != nil {
		stop()
	}
	q.wg.Wait()
	runCleanups(cleanups)
	return q.bus.Close()
}

// find must be called with q.mu held.
func (q *Queue) find(id string) *Operation {
	if i := indexOf(q.pending, id); i >= 0 {
		return &q.pending[i]
	}
	if i := indexOf(q.failed, id); i >= 0 {
		return &q.failed[i]
	}
	return nil
}

// takeCleanup must be called with q.mu held.
func (q *Queue) takeCleanup(id string) []func() {
	fn, ok := q.cleanups[id]
	if !ok {
		return nil
	}
	delete(q.cleanups, id)
	return []func(){fn}
}

func runCleanups(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}

// event must be called with q.mu held so the counts match the change.
func (q *Queue) event(kind EventKind, id string) Event {
	return Event{
		Kind:         kind,
		OperationID:  id,
		PendingCount: len(q.pending),
		FailedCount:  len(q.failed),
		At:           q.now(),
	}
}

func (q *Queue) publish(evs ...Event) {
	for _, ev := range evs {
		q.bus.Publish(context.Background(), ev)
	}
}

// DroppedEvents returns how many event deliveries were skipped because a
// subscriber's buffer was full.
func (q *Queue) DroppedEvents() uint64 {
	return q.bus.Dropped()
}

// Restored delivers a signal whenever the network comes back while operations
// are pending. Signals coalesce into one and are kept until received, so none
// is lost while the consumer is busy. It is meant for a single consumer such
// as a sync driver; observers that need every event use Subscribe.
func (q *Queue) Restored() <-chan struct{} {
	return q.restored
}

func (q *Queue) signalRestored() {
	select {
	case q.restored <- struct{}{}:
	default:
	}
}
