// Package statemachine provides a small, generic finite-state machine keyed by
// target state.
//
// Machines are declared with a whitelist of edges. Callers ask to move the
// machine into a state; the move succeeds only when an edge from the current
// state exists and every guard registered for that edge agrees. Transition
// hooks run after the state changed and outside of the internal lock, so they
// may read the machine freely.
//
// # Usage
//
//	type Light string
//
//	m := statemachine.New[Light]("red").
//		Allow("red", "green").
//		Allow("green", "yellow").
//		Allow("yellow", "red")
//
//	m.OnTransition(func(from, to Light) {
//		log.Printf("%s -> %s", from, to)
//	})
//
//	if _, err := m.Transition("green"); err != nil {
//		// statemachine.IsNoTransitionAvailableError(err) for undeclared edges
//	}
//
// # Errors
//
// ErrSameState is returned when the machine is already in the requested state.
// Undeclared edges yield *ErrNoTransitionAvailable and guard vetoes yield
// *ErrTransitionRejected; use the Is* helpers to tell them apart.
package statemachine
