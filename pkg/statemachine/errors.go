package statemachine

import (
	"errors"
	"fmt"
)

var ErrSameState = errors.New("statemachine: already in requested state")

// ErrNoTransitionAvailable indicates no edge is declared between two states.
type ErrNoTransitionAvailable struct {
	From string
	To   string
}

func (e *ErrNoTransitionAvailable) Error() string {
	return fmt.Sprintf("no transition available from state '%s' to state '%s'", e.From, e.To)
}

// ErrTransitionRejected indicates a guard vetoed a declared edge.
type ErrTransitionRejected struct {
	From string
	To   string
}

func (e *ErrTransitionRejected) Error() string {
	return fmt.Sprintf("transition from state '%s' to state '%s' was rejected by guards", e.From, e.To)
}

func IsNoTransitionAvailableError(err error) bool {
	var e *ErrNoTransitionAvailable
	return errors.As(err, &e)
}

func IsTransitionRejectedError(err error) bool {
	var e *ErrTransitionRejected
	return errors.As(err, &e)
}
