package netstatus

import "errors"

var (
	ErrUnknownStatus  = errors.New("unknown network status")
	ErrAlreadyStarted = errors.New("network detector already started")
	ErrUnreachable    = errors.New("service unreachable")
	ErrNoProbeURL     = errors.New("probe url is not configured")
)
