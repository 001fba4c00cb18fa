package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Migration upgrades the data of an envelope from one version to the next.
type Migration func(data json.RawMessage) (json.RawMessage, error)

type envelope struct {
	Name    string          `json:"name"`
	Version int             `json:"version"`
	SavedAt time.Time       `json:"saved_at"`
	Data    json.RawMessage `json:"data"`
}

type storeOptions struct {
	migrations map[int]Migration
	now        func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

// WithMigration registers fn to upgrade data saved at version from to version from+1.
func WithMigration(from int, fn Migration) StoreOption {
	return func(o *storeOptions) {
		if fn != nil {
			o.migrations[from] = fn
		}
	}
}

// WithClock overrides the clock used for SavedAt stamps.
func WithClock(now func() time.Time) StoreOption {
	return func(o *storeOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// Store reads and writes a single typed snapshot through a Storage.
type Store[T any] struct {
	storage Storage
	name    string
	version int
	opts    *storeOptions
}

// NewStore creates a store for the snapshot called name at the given schema version.
// The name doubles as the storage key.
func NewStore[T any](storage Storage, name string, version int, opts ...StoreOption) *Store[T] {
	o := &storeOptions{
		migrations: make(map[int]Migration),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return &Store[T]{
		storage: storage,
		name:    name,
		version: version,
		opts:    o,
	}
}

func (s *Store[T]) Name() string { return s.name }

func (s *Store[T]) Version() int { return s.version }

// Load reads the snapshot. A missing snapshot yields ErrNotFound.
func (s *Store[T]) Load(ctx context.Context) (T, error) {
	var zero T

	raw, err := s.storage.Load(ctx, s.name)
	if err != nil {
		return zero, err
	}
	return s.Decode(raw)
}

// Save overwrites the snapshot with v.
func (s *Store[T]) Save(ctx context.Context, v T) error {
	raw, err := s.Encode(v)
	if err != nil {
		return err
	}
	return s.storage.Save(ctx, s.name, raw)
}

// Clear removes the snapshot.
func (s *Store[T]) Clear(ctx context.Context) error {
	return s.storage.Delete(ctx, s.name)
}

// Encode wraps v in an envelope without touching storage.
func (s *Store[T]) Encode(v T) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrEncode, err)
	}
	raw, err := json.Marshal(envelope{
		Name:    s.name,
		Version: s.version,
		SavedAt: s.opts.now().UTC(),
		Data:    data,
	})
	if err != nil {
		return nil, errors.Join(ErrEncode, err)
	}
	return raw, nil
}

// Decode unwraps an envelope produced by Encode, applying migrations as needed.
func (s *Store[T]) Decode(raw []byte) (T, error) {
	var zero T

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, errors.Join(ErrCorrupted, err)
	}
	if env.Name != s.name {
		return zero, fmt.Errorf("%w: got %q, want %q", ErrNameMismatch, env.Name, s.name)
	}
	if env.Version > s.version || env.Version < 1 {
		return zero, fmt.Errorf("%w: %d (supported up to %d)", ErrUnsupportedVersion, env.Version, s.version)
	}

	data := env.Data
	for v := env.Version; v < s.version; v++ {
		migrate, ok := s.opts.migrations[v]
		if !ok {
			return zero, fmt.Errorf("%w: no migration from version %d", ErrUnsupportedVersion, v)
		}
		var err error
		if data, err = migrate(data); err != nil {
			return zero, errors.Join(ErrCorrupted, err)
		}
	}

	var v T
	if len(data) == 0 {
		return zero, fmt.Errorf("%w: empty data", ErrCorrupted)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return zero, errors.Join(ErrCorrupted, err)
	}
	return v, nil
}
