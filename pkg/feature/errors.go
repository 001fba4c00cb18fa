package feature

import "errors"

var (
	// ErrInvalidFlag indicates that a flag definition is malformed.
	ErrInvalidFlag = errors.New("invalid feature flag")

	// ErrDuplicateFlag indicates that two definitions share a key.
	ErrDuplicateFlag = errors.New("duplicate feature flag key")

	// ErrSourceFailed indicates that flag definitions could not be read.
	ErrSourceFailed = errors.New("failed to read feature flags")

	// ErrPersistenceDisabled is returned by Load and Save without WithPersistence.
	ErrPersistenceDisabled = errors.New("feature store persistence is not configured")

	// ErrClientID indicates that the client id could not be loaded or stored.
	ErrClientID = errors.New("failed to persist client id")
)
