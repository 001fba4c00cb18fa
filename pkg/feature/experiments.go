package feature

import (
	"cmp"
	"log/slog"
	"maps"
	"slices"
)

// JoinExperiment records that the client joined experiment id with variant.
// Joining again replaces the record and restarts StartedAt. The experiment
// name is taken from metadata[ExperimentNameKey] and falls back to id; the
// metadata is stored as given.
func (s *Store) JoinExperiment(id, variant string, metadata map[string]any) {
	if id == "" {
		return
	}
	name := id
	if n, ok := metadata[ExperimentNameKey].(string); ok && n != "" {
		name = n
	}

	s.mu.Lock()
	s.experiments[id] = Experiment{
		ID:        id,
		Name:      name,
		Variant:   variant,
		StartedAt: s.now(),
		Metadata:  maps.Clone(metadata),
	}
	s.mu.Unlock()

	s.log.Info("experiment joined", slog.String("experiment", id), slog.String("variant", variant))
	s.persist()
}

// LeaveExperiment removes the record of experiment id.
func (s *Store) LeaveExperiment(id string) bool {
	s.mu.Lock()
	_, ok := s.experiments[id]
	delete(s.experiments, id)
	s.mu.Unlock()

	if ok {
		s.log.Info("experiment left", slog.String("experiment", id))
		s.persist()
	}
	return ok
}

func (s *Store) ExperimentVariant(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.experiments[id]
	return e.Variant, ok
}

func (s *Store) IsInExperiment(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.experiments[id]
	return ok
}

// Experiments returns the joined experiments ordered by id.
func (s *Store) Experiments() []Experiment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Experiment, 0, len(s.experiments))
	for _, e := range s.experiments {
		out = append(out, e.clone())
	}
	slices.SortFunc(out, func(a, b Experiment) int { return cmp.Compare(a.ID, b.ID) })
	return out
}
