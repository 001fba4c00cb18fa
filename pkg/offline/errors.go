package offline

import "errors"

var (
	ErrNilDetector          = errors.New("network detector cannot be nil")
	ErrDetectionInitialized = errors.New("network detection already initialized")
	ErrPersistenceDisabled  = errors.New("offline queue persistence is not configured")
	ErrClosed               = errors.New("offline queue is closed")
)
