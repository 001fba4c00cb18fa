package offline

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/recipekit/pkg/logger"
	"github.com/dmitrymomot/recipekit/pkg/snapshot"
)

// SnapshotVersion is the schema version of Snapshot.
const SnapshotVersion = 1

// Snapshot is the part of the queue that survives a restart.
type Snapshot struct {
	PendingOperations []Operation `json:"pending_operations"`
	FailedOperations  []Operation `json:"failed_operations"`
	OfflineCapable    bool        `json:"offline_capable"`
	LastOnlineTime    time.Time   `json:"last_online_time"`
}

// Snapshot captures the persisted subset of the queue.
func (q *Queue) Snapshot() Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Snapshot{
		PendingOperations: cloneAll(q.pending),
		FailedOperations:  cloneAll(q.failed),
		OfflineCapable:    q.offlineCapable,
		LastOnlineTime:    q.lastOnline,
	}
}

// Restore replaces the queue content with s. Operations interrupted while
// syncing go back to pending, statuses are aligned with the collection that
// holds them, and an id seen twice keeps its first occurrence. Cleanup
// handlers of operations that disappear are run.
func (q *Queue) Restore(s Snapshot) {
	seen := make(map[string]struct{})
	normalize := func(ops []Operation, status Status) []Operation {
		out := make([]Operation, 0, len(ops))
		for _, op := range ops {
			if op.ID == "" {
				continue
			}
			if _, dup := seen[op.ID]; dup {
				continue
			}
			seen[op.ID] = struct{}{}
			op = op.clone()
			op.Status = status
			if op.RetryCount < 0 {
				op.RetryCount = 0
			}
			out = append(out, op)
		}
		return out
	}
	pending := normalize(s.PendingOperations, StatusPending)
	failed := normalize(s.FailedOperations, StatusFailed)

	q.mu.Lock()
	q.pending = pending
	q.failed = failed
	q.offlineCapable = s.OfflineCapable
	if !s.LastOnlineTime.IsZero() {
		q.lastOnline = s.LastOnlineTime
	}
	var cleanups []func()
	for id, fn := range q.cleanups {
		if _, ok := seen[id]; !ok {
			cleanups = append(cleanups, fn)
			delete(q.cleanups, id)
		}
	}
	q.mu.Unlock()

	runCleanups(cleanups)
}

// Export encodes the snapshot into a versioned document.
func (q *Queue) Export() ([]byte, error) {
	return q.snapshots.Encode(q.Snapshot())
}

// Import restores a document produced by Export. On error the queue is unchanged.
func (q *Queue) Import(data []byte) error {
	s, err := q.snapshots.Decode(data)
	if err != nil {
		return err
	}
	q.Restore(s)
	q.persist()
	return nil
}

// Load restores the queue from storage. A missing snapshot is not an error.
// A corrupted or unreadable snapshot is logged and the queue keeps its
// current, default state; only storage failures are returned.
func (q *Queue) Load(ctx context.Context) error {
	if q.storage == nil {
		return ErrPersistenceDisabled
	}

	s, err := q.snapshots.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, snapshot.ErrNotFound):
		q.log.DebugContext(ctx, "no offline queue snapshot", logger.SnapshotKey(q.snapshotKey))
		return nil
	case errors.Is(err, snapshot.ErrCorrupted),
		errors.Is(err, snapshot.ErrUnsupportedVersion),
		errors.Is(err, snapshot.ErrNameMismatch):
		q.log.WarnContext(ctx, "discarding unreadable offline queue snapshot",
			logger.SnapshotKey(q.snapshotKey),
			logger.Error(err),
		)
		return nil
	default:
		return err
	}

	q.Restore(s)
	q.log.InfoContext(ctx, "offline queue restored",
		logger.Count(len(s.PendingOperations)+len(s.FailedOperations)),
	)
	return nil
}

// Save writes the current snapshot to storage. Saves are serialized so the
// last call always stores the latest state.
func (q *Queue) Save(ctx context.Context) error {
	if q.storage == nil {
		return ErrPersistenceDisabled
	}
	q.saveMu.Lock()
	defer q.saveMu.Unlock()
	return q.snapshots.Save(ctx, q.Snapshot())
}

func (q *Queue) persist() {
	if q.storage == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), q.persistTimeout)
	defer cancel()
	if err := q.Save(ctx); err != nil {
		q.log.Error("failed to persist offline queue", logger.Error(err))
	}
}
