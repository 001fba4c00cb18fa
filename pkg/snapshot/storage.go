package snapshot

import "context"

// Storage persists opaque snapshot payloads by key.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Load returns the stored bytes or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save overwrites the value stored under key.
	Save(ctx context.Context, key string, data []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
