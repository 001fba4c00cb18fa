package syncdriver

import "errors"

var (
	ErrOffline          = errors.New("cannot sync while offline")
	ErrSyncInProgress   = errors.New("sync already in progress")
	ErrCircuitOpen      = errors.New("replay circuit breaker is open")
	ErrNoEndpoint       = errors.New("replay endpoint is not configured")
	ErrReplayRejected   = errors.New("replay rejected by service")
	ErrNilQueue         = errors.New("offline queue cannot be nil")
	ErrNilReplayer      = errors.New("replayer cannot be nil")
	ErrInvalidSignature = errors.New("invalid replay signature")
)
