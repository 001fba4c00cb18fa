package offline

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/recipekit/pkg/netstatus"
	"github.com/dmitrymomot/recipekit/pkg/snapshot"
)

// Option configures a Queue.
type Option func(*Queue)

// WithDefaultMaxRetries sets the retry ceiling for operations that do not set one.
func WithDefaultMaxRetries(n int) Option {
	return func(q *Queue) {
		if n >= 0 {
			q.defaultMaxRetries = n
		}
	}
}

// WithPersistence saves a snapshot to storage after every mutation.
func WithPersistence(storage snapshot.Storage) Option {
	return func(q *Queue) { q.storage = storage }
}

// WithSnapshotKey changes the storage key of the snapshot.
func WithSnapshotKey(key string) Option {
	return func(q *Queue) {
		if key != "" {
			q.snapshotKey = key
		}
	}
}

// WithPersistTimeout bounds each automatic save.
func WithPersistTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.persistTimeout = d
		}
	}
}

func WithEventBuffer(n int) Option {
	return func(q *Queue) { q.eventBuffer = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) {
		if l != nil {
			q.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		if now != nil {
			q.now = now
		}
	}
}

// WithIDGenerator replaces the uuid-based operation id generator.
func WithIDGenerator(gen func() string) Option {
	return func(q *Queue) {
		if gen != nil {
			q.newID = gen
		}
	}
}

// WithDetector sets the detector used by CheckNetworkStatus without
// subscribing to its changes. InitializeNetworkDetection does both.
func WithDetector(d *netstatus.Detector) Option {
	return func(q *Queue) { q.detector = d }
}
