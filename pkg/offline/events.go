package offline

import (
	"time"

	"github.com/dmitrymomot/recipekit/pkg/netstatus"
)

// EventKind names a queue event.
type EventKind string

const (
	EventOperationQueued    EventKind = "operation_queued"
	EventOperationFailed    EventKind = "operation_failed"
	EventOperationRetried   EventKind = "operation_retried"
	EventOperationCompleted EventKind = "operation_completed"
	EventNetworkChanged     EventKind = "network_changed"
	// EventNetworkRestored fires when the network comes back with pending work.
	EventNetworkRestored EventKind = "network_restored"
)

// Event is published by the queue after a state change has been applied.
type Event struct {
	Kind         EventKind         `json:"kind"`
	OperationID  string            `json:"operation_id,omitempty"`
	Network      *netstatus.Change `json:"network,omitempty"`
	PendingCount int               `json:"pending_count"`
	FailedCount  int               `json:"failed_count"`
	At           time.Time         `json:"at"`
}
