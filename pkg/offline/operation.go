package offline

import (
	"bytes"
	"encoding/json"
	"time"
)

// DefaultMaxRetries is the retry ceiling applied when an operation does not set one.
const DefaultMaxRetries = 3

// OperationType tags what kind of mutation an operation replays.
// Callers may define their own values.
type OperationType string

const (
	OperationCreate OperationType = "create"
	OperationUpdate OperationType = "update"
	OperationDelete OperationType = "delete"
)

// Status is the lifecycle state of an operation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSyncing   Status = "syncing"
	StatusFailed    Status = "failed"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSyncing, StatusFailed, StatusCompleted:
		return true
	}
	return false
}

// Operation is a queued mutation waiting to be replayed against the service.
type Operation struct {
	ID           string          `json:"id"`
	Type         OperationType   `json:"type"`
	ResourceType string          `json:"resource_type"`
	ResourceID   string          `json:"resource_id,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	Status       Status          `json:"status"`
	RetryCount   int             `json:"retry_count"`
	MaxRetries   int             `json:"max_retries"`
	Error        string          `json:"error,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Retryable reports whether the operation still has retry budget.
func (o Operation) Retryable() bool {
	return o.RetryCount < o.MaxRetries
}

func (o Operation) clone() Operation {
	o.Payload = bytes.Clone(o.Payload)
	return o
}

// NewOperation describes an operation to enqueue.
type NewOperation struct {
	Type         OperationType
	ResourceType string
	// ResourceID is empty for creations.
	ResourceID string
	Payload    json.RawMessage
	// MaxRetries overrides the queue default when set.
	MaxRetries *int
}

// MaxRetries is a helper for NewOperation.MaxRetries.
func MaxRetries(n int) *int {
	return &n
}

func cloneAll(ops []Operation) []Operation {
	out := make([]Operation, len(ops))
	for i, op := range ops {
		out[i] = op.clone()
	}
	return out
}

func indexOf(ops []Operation, id string) int {
	for i := range ops {
		if ops[i].ID == id {
			return i
		}
	}
	return -1
}
