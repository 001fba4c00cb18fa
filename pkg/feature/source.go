package feature

import (
	"context"
	"errors"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/recipekit/pkg/logger"
)

// Source supplies flag definitions for a session.
type Source interface {
	Flags(ctx context.Context) ([]Flag, error)
}

// StaticSource serves a fixed list of flags.
type StaticSource []Flag

func (s StaticSource) Flags(context.Context) ([]Flag, error) {
	return slices.Clone(s), nil
}

// FileSource reads flags from a YAML document with a top-level flags list.
type FileSource struct {
	Path string
}

func (s FileSource) Flags(ctx context.Context) ([]Flag, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, errors.Join(ErrSourceFailed, err)
	}
	return ParseFlags(data)
}

// ParseFlags decodes a YAML flag document.
func ParseFlags(data []byte) ([]Flag, error) {
	var doc struct {
		Flags []Flag `yaml:"flags"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Join(ErrSourceFailed, err)
	}
	if doc.Flags == nil {
		doc.Flags = []Flag{}
	}
	return doc.Flags, nil
}

// Refresh replaces the flag definitions with those read from src.
// On error the current definitions stay in place.
func (s *Store) Refresh(ctx context.Context, src Source) error {
	flags, err := src.Flags(ctx)
	if err != nil {
		return err
	}
	return s.SetFeatures(flags)
}

// Poll refreshes from src every interval until ctx is cancelled. Failed
// refreshes are logged and retried on the next tick.
func (s *Store) Poll(ctx context.Context, src Source, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Refresh(ctx, src); err != nil {
				s.log.WarnContext(ctx, "feature flag refresh failed", logger.Error(err))
			}
		}
	}
}
