package feature

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/recipekit/pkg/environment"
	"github.com/dmitrymomot/recipekit/pkg/snapshot"
)

// Option configures a Store.
type Option func(*Store)

// WithClientID sets the stable client identifier used for rollout bucketing.
// Without it the store uses a random id that does not survive the session.
func WithClientID(id string) Option {
	return func(s *Store) {
		if id != "" {
			s.clientID = id
		}
	}
}

// WithUserSegment sets the initial segment. A persisted segment replaces it on Load.
func WithUserSegment(segment string) Option {
	return func(s *Store) {
		if segment != "" {
			s.segment = segment
		}
	}
}

// WithDevelopmentMode sets the initial developer-mode switch.
func WithDevelopmentMode(enabled bool) Option {
	return func(s *Store) { s.devMode = enabled }
}

// WithEnvironment turns developer mode on by default in development.
func WithEnvironment(env environment.Environment) Option {
	return func(s *Store) { s.devMode = env.IsDevelopment() }
}

// WithPersistence saves the client state to storage after every change.
func WithPersistence(storage snapshot.Storage) Option {
	return func(s *Store) { s.storage = storage }
}

func WithSnapshotKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.snapshotKey = key
		}
	}
}

func WithPersistTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.persistTimeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}
