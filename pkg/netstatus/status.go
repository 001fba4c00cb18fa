package netstatus

import (
	"fmt"
	"time"

	"github.com/dmitrymomot/recipekit/pkg/statemachine"
)

// Status is the connectivity state of the client.
type Status string

const (
	Online  Status = "online"
	Offline Status = "offline"
	Slow    Status = "slow"
)

// IsOnline is false only for Offline; a slow connection is still a connection.
func (s Status) IsOnline() bool {
	return s != Offline
}

func (s Status) Valid() bool {
	switch s {
	case Online, Offline, Slow:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// Parse converts s into a Status.
func Parse(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

// Change describes an accepted status transition.
type Change struct {
	From Status    `json:"from"`
	To   Status    `json:"to"`
	At   time.Time `json:"at"`
}

// Restored reports whether the change reconnected an offline client.
func (c Change) Restored() bool {
	return c.From == Offline && c.To.IsOnline()
}

// NewMachine returns a state machine carrying the connectivity transition table.
func NewMachine(initial Status) *statemachine.Machine[Status] {
	return statemachine.New(initial).
		Allow(Online, Offline, Slow).
		Allow(Slow, Online, Offline).
		Allow(Offline, Online)
}
