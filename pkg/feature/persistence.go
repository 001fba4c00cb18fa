package feature

import (
	"context"
	"errors"
	"maps"

	"github.com/dmitrymomot/recipekit/pkg/logger"
	"github.com/dmitrymomot/recipekit/pkg/snapshot"
)

// SnapshotVersion is the schema version of Snapshot.
const SnapshotVersion = 1

// Snapshot is the client state that survives a restart. Flag definitions
// are not part of it.
type Snapshot struct {
	UserSegment     string                `json:"user_segment"`
	Experiments     map[string]Experiment `json:"experiments"`
	Overrides       map[string]bool       `json:"overrides"`
	DevelopmentMode bool                  `json:"development_mode"`
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	experiments := make(map[string]Experiment, len(s.experiments))
	for id, e := range s.experiments {
		experiments[id] = e.clone()
	}
	return Snapshot{
		UserSegment:     s.segment,
		Experiments:     experiments,
		Overrides:       maps.Clone(s.overrides),
		DevelopmentMode: s.devMode,
	}
}

// Restore replaces the client state with snap.
func (s *Store) Restore(snap Snapshot) {
	experiments := make(map[string]Experiment, len(snap.Experiments))
	for id, e := range snap.Experiments {
		if id == "" {
			continue
		}
		e.ID = id
		experiments[id] = e.clone()
	}
	overrides := maps.Clone(snap.Overrides)
	if overrides == nil {
		overrides = make(map[string]bool)
	}
	segment := snap.UserSegment
	if segment == "" {
		segment = DefaultSegment
	}

	s.mu.Lock()
	s.segment = segment
	s.experiments = experiments
	s.overrides = overrides
	s.devMode = snap.DevelopmentMode
	s.mu.Unlock()
}

// Export encodes the client state into a versioned document.
func (s *Store) Export() ([]byte, error) {
	return s.snapshots.Encode(s.Snapshot())
}

// Import restores a document produced by Export. On error the store is unchanged.
func (s *Store) Import(data []byte) error {
	snap, err := s.snapshots.Decode(data)
	if err != nil {
		return err
	}
	s.Restore(snap)
	s.persist()
	return nil
}

// Load restores the client state from storage. Missing or unreadable
// snapshots leave the defaults in place; only storage failures are returned.
func (s *Store) Load(ctx context.Context) error {
	if s.storage == nil {
		return ErrPersistenceDisabled
	}

	snap, err := s.snapshots.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, snapshot.ErrNotFound):
		return nil
	case errors.Is(err, snapshot.ErrCorrupted),
		errors.Is(err, snapshot.ErrUnsupportedVersion),
		errors.Is(err, snapshot.ErrNameMismatch):
		s.log.WarnContext(ctx, "discarding unreadable feature snapshot",
			logger.SnapshotKey(s.snapshotKey),
			logger.Error(err),
		)
		return nil
	default:
		return err
	}

	s.Restore(snap)
	s.log.InfoContext(ctx, "feature state restored",
		logger.Segment(snap.UserSegment),
		logger.Count(len(snap.Experiments)),
	)
	return nil
}

// Save writes the client state to storage.
func (s *Store) Save(ctx context.Context) error {
	if s.storage == nil {
		return ErrPersistenceDisabled
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return s.snapshots.Save(ctx, s.Snapshot())
}

func (s *Store) persist() {
	if s.storage == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
	defer cancel()
	if err := s.Save(ctx); err != nil {
		s.log.Error("failed to persist feature state", logger.Error(err))
	}
}
