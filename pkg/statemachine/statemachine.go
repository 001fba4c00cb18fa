package statemachine

import (
	"fmt"
	"sync"
)

// Guard decides at runtime whether a declared edge may be taken.
type Guard[S comparable] func(from, to S) bool

// Hook observes a completed transition.
type Hook[S comparable] func(from, to S)

type edge[S comparable] struct {
	guards []Guard[S]
}

// Machine is a concurrency-safe finite-state machine over states of type S.
// Edges are stored as [from][to] for O(1) lookups.
type Machine[S comparable] struct {
	initial S
	current S
	edges   map[S]map[S]edge[S]
	hooks   []Hook[S]
	mu      sync.RWMutex
}

// New creates a machine positioned at initial with no edges declared.
func New[S comparable](initial S) *Machine[S] {
	return &Machine[S]{
		initial: initial,
		current: initial,
		edges:   make(map[S]map[S]edge[S]),
	}
}

// Allow declares edges from one state to each of the given targets.
// Returns the machine to allow chained declarations.
func (m *Machine[S]) Allow(from S, to ...S) *Machine[S] {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, target := range to {
		m.addEdge(from, target, nil)
	}
	return m
}

// AllowIf declares a single guarded edge. All guards must pass.
func (m *Machine[S]) AllowIf(from, to S, guards ...Guard[S]) *Machine[S] {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.addEdge(from, to, guards)
	return m
}

func (m *Machine[S]) addEdge(from, to S, guards []Guard[S]) {
	targets, ok := m.edges[from]
	if !ok {
		targets = make(map[S]edge[S])
		m.edges[from] = targets
	}
	e := targets[to]
	e.guards = append(e.guards, guards...)
	targets[to] = e
}

// OnTransition registers a hook invoked after every successful transition.
func (m *Machine[S]) OnTransition(h Hook[S]) {
	if h == nil {
		return
	}
	m.mu.Lock()
	m.hooks = append(m.hooks, h)
	m.mu.Unlock()
}

func (m *Machine[S]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Can reports whether Transition(to) would succeed right now.
func (m *Machine[S]) Can(to S) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.check(to) == nil
}

// Transition moves the machine into state to and returns the state it left.
func (m *Machine[S]) Transition(to S) (S, error) {
	m.mu.Lock()
	from := m.current
	if err := m.check(to); err != nil {
		m.mu.Unlock()
		return from, err
	}
	m.current = to
	hooks := m.hooks
	m.mu.Unlock()

	for _, h := range hooks {
		h(from, to)
	}
	return from, nil
}

// check must be called with the lock held.
func (m *Machine[S]) check(to S) error {
	from := m.current
	if from == to {
		return ErrSameState
	}
	e, ok := m.edges[from][to]
	if !ok {
		return &ErrNoTransitionAvailable{From: fmt.Sprint(from), To: fmt.Sprint(to)}
	}
	for _, g := range e.guards {
		if g != nil && !g(from, to) {
			return &ErrTransitionRejected{From: fmt.Sprint(from), To: fmt.Sprint(to)}
		}
	}
	return nil
}

// Restore forces the machine into state s without consulting edges or hooks.
// Meant for rehydrating persisted state.
func (m *Machine[S]) Restore(s S) {
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
}

// Reset returns the machine to its initial state without running hooks.
func (m *Machine[S]) Reset() {
	m.Restore(m.initial)
}
