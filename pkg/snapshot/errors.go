package snapshot

import "errors"

var (
	ErrNotFound           = errors.New("snapshot not found")
	ErrCorrupted          = errors.New("snapshot is corrupted")
	ErrUnsupportedVersion = errors.New("snapshot version is not supported")
	ErrNameMismatch       = errors.New("snapshot belongs to a different store")
	ErrEncode             = errors.New("failed to encode snapshot")
	ErrInvalidKey         = errors.New("invalid snapshot key")
	ErrUnknownBackend     = errors.New("unknown snapshot backend")
	ErrBackendNotReady    = errors.New("snapshot backend did not become ready")
	ErrMigration          = errors.New("failed to apply snapshot schema migrations")
)
