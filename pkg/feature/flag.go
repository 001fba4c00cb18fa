package feature

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"
)

// SegmentAll matches every user segment.
const SegmentAll = "all"

// DefaultSegment is the segment of a client that was never assigned one.
const DefaultSegment = "default"

// Flag is a feature definition.
type Flag struct {
	Key         string `json:"key" yaml:"key"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	// Variant names the treatment served when the flag is enabled.
	Variant      string   `json:"variant,omitempty" yaml:"variant,omitempty"`
	UserSegments []string `json:"user_segments,omitempty" yaml:"user_segments,omitempty"`
	// RolloutPercentage limits the flag to a share of clients, 0 to 100.
	RolloutPercentage *int       `json:"rollout_percentage,omitempty" yaml:"rollout_percentage,omitempty"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

// Percentage is a helper for Flag.RolloutPercentage.
func Percentage(p int) *int {
	return &p
}

// Expired reports whether the flag expired before now.
func (f Flag) Expired(now time.Time) bool {
	return f.ExpiresAt != nil && now.After(*f.ExpiresAt)
}

func (f Flag) validate() error {
	if f.Key == "" {
		return errors.Join(ErrInvalidFlag, errors.New("key cannot be empty"))
	}
	if p := f.RolloutPercentage; p != nil && (*p < 0 || *p > 100) {
		return errors.Join(ErrInvalidFlag, fmt.Errorf("flag %q: rollout percentage %d is outside 0..100", f.Key, *p))
	}
	return nil
}

func (f Flag) clone() Flag {
	f.UserSegments = slices.Clone(f.UserSegments)
	if f.RolloutPercentage != nil {
		p := *f.RolloutPercentage
		f.RolloutPercentage = &p
	}
	if f.ExpiresAt != nil {
		t := *f.ExpiresAt
		f.ExpiresAt = &t
	}
	return f
}

// ExperimentNameKey is the metadata key JoinExperiment reads the display
// name of an experiment from.
const ExperimentNameKey = "name"

// Experiment records that the client joined an experiment with a variant.
type Experiment struct {
	ID string `json:"id"`
	// Name is metadata[ExperimentNameKey] when it is a non-empty string at
	// join time, otherwise the ID.
	Name      string         `json:"name,omitempty"`
	Variant   string         `json:"variant"`
	StartedAt time.Time      `json:"started_at"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func (e Experiment) clone() Experiment {
	e.Metadata = maps.Clone(e.Metadata)
	return e
}
