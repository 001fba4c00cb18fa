package feature

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/recipekit/pkg/logger"
	"github.com/dmitrymomot/recipekit/pkg/rollout"
	"github.com/dmitrymomot/recipekit/pkg/snapshot"
)

// Store evaluates feature flags for one client. Safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	flags       map[string]Flag
	order       []string
	overrides   map[string]bool
	experiments map[string]Experiment
	segment     string
	devMode     bool
	clientID    string

	storage        snapshot.Storage
	snapshots      *snapshot.Store[Snapshot]
	snapshotKey    string
	persistTimeout time.Duration
	saveMu         sync.Mutex

	now func() time.Time
	log *slog.Logger
}

// New creates a store with no flag definitions.
func New(opts ...Option) *Store {
	s := &Store{
		flags:          make(map[string]Flag),
		overrides:      make(map[string]bool),
		experiments:    make(map[string]Experiment),
		segment:        DefaultSegment,
		snapshotKey:    DefaultSnapshotKey,
		persistTimeout: 2 * time.Second,
		now:            time.Now,
		log:            logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clientID == "" {
		s.clientID = uuid.NewString()
	}
	s.log = s.log.With(logger.Component("feature"))
	s.snapshots = snapshot.NewStore[Snapshot](s.storage, s.snapshotKey, SnapshotVersion,
		snapshot.WithClock(s.now),
	)
	return s
}

// NewFromConfig creates a store from environment settings. Extra options win.
func NewFromConfig(cfg Config, opts ...Option) *Store {
	return New(append(cfg.Options(), opts...)...)
}

// ClientID returns the identifier used for rollout bucketing.
func (s *Store) ClientID() string {
	return s.clientID
}

// SetFeatures replaces all flag definitions. Invalid or duplicate
// definitions leave the current set untouched.
func (s *Store) SetFeatures(flags []Flag) error {
	next := make(map[string]Flag, len(flags))
	order := make([]string, 0, len(flags))
	for _, f := range flags {
		if err := f.validate(); err != nil {
			return err
		}
		if _, dup := next[f.Key]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateFlag, f.Key)
		}
		next[f.Key] = f.clone()
		order = append(order, f.Key)
	}

	s.mu.Lock()
	s.flags = next
	s.order = order
	s.mu.Unlock()

	s.log.Debug("feature flags replaced", logger.Count(len(order)))
	return nil
}

// Flags returns the flag definitions in the order they were set.
func (s *Store) Flags() []Flag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Flag, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.flags[key].clone())
	}
	return out
}

// Flag returns the definition of key.
func (s *Store) Flag(key string) (Flag, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.flags[key]
	if !ok {
		return Flag{}, false
	}
	return f.clone(), true
}

// IsEnabled evaluates key for this client.
func (s *Store) IsEnabled(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.evaluate(key)
}

// evaluate must be called with s.mu held.
func (s *Store) evaluate(key string) bool {
	if s.devMode {
		if v, ok := s.overrides[key]; ok {
			return v
		}
	}

	f, ok := s.flags[key]
	switch {
	case !ok:
		return false
	case f.Expired(s.now()):
		return false
	case !f.Enabled:
		return false
	case len(f.UserSegments) > 0 && !inSegment(s.segment, f.UserSegments):
		return false
	case f.RolloutPercentage != nil:
		return rollout.InRollout(s.clientID, *f.RolloutPercentage)
	}
	return true
}

// Variant returns the variant of key when the flag is enabled and defines one.
func (s *Store) Variant(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.evaluate(key) {
		return "", false
	}
	f := s.flags[key]
	return f.Variant, f.Variant != ""
}

// EnabledFeatures lists the defined keys that evaluate to enabled.
func (s *Store) EnabledFeatures() []string {
	return s.partition(true)
}

// DisabledFeatures lists the defined keys that evaluate to disabled.
func (s *Store) DisabledFeatures() []string {
	return s.partition(false)
}

func (s *Store) partition(enabled bool) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []string{}
	for _, key := range s.order {
		if s.evaluate(key) == enabled {
			out = append(out, key)
		}
	}
	return out
}

// IsInRollout reports whether this client falls inside percentage.
func (s *Store) IsInRollout(percentage int) bool {
	return rollout.InRollout(s.clientID, percentage)
}

// SetUserSegment sets the client's single active segment. An empty segment
// resets it to DefaultSegment.
func (s *Store) SetUserSegment(segment string) {
	if segment == "" {
		segment = DefaultSegment
	}
	s.mu.Lock()
	changed := s.segment != segment
	s.segment = segment
	s.mu.Unlock()

	if changed {
		s.log.Info("user segment changed", logger.Segment(segment))
		s.persist()
	}
}

func (s *Store) UserSegment() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.segment
}

// IsInSegment reports whether the active segment is listed or the list
// contains SegmentAll.
func (s *Store) IsInSegment(segments []string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return inSegment(s.segment, segments)
}

func inSegment(segment string, segments []string) bool {
	return slices.Contains(segments, segment) || slices.Contains(segments, SegmentAll)
}

// SetDevelopmentMode toggles whether overrides are applied.
func (s *Store) SetDevelopmentMode(enabled bool) {
	s.mu.Lock()
	changed := s.devMode != enabled
	s.devMode = enabled
	s.mu.Unlock()

	if changed {
		s.log.Info("feature development mode changed", slog.Bool("enabled", enabled))
		s.persist()
	}
}

func (s *Store) DevelopmentMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.devMode
}

// SetOverride forces key to enabled while developer mode is on.
func (s *Store) SetOverride(key string, enabled bool) {
	if key == "" {
		return
	}
	s.mu.Lock()
	s.overrides[key] = enabled
	s.mu.Unlock()

	s.log.Debug("feature override set", logger.FeatureKey(key), slog.Bool("enabled", enabled))
	s.persist()
}

// RemoveOverride drops the override of key. Unknown keys are ignored.
func (s *Store) RemoveOverride(key string) bool {
	s.mu.Lock()
	_, ok := s.overrides[key]
	delete(s.overrides, key)
	s.mu.Unlock()

	if ok {
		s.persist()
	}
	return ok
}

func (s *Store) ClearOverrides() {
	s.mu.Lock()
	n := len(s.overrides)
	clear(s.overrides)
	s.mu.Unlock()

	if n > 0 {
		s.log.Debug("feature overrides cleared", logger.Count(n))
		s.persist()
	}
}

func (s *Store) HasOverride(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.overrides[key]
	return ok
}

// Overrides returns a copy of the override map.
func (s *Store) Overrides() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.overrides)
}
