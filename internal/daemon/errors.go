package daemon

import "errors"

// Configuration errors
var (
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrInvalidConfigType = errors.New("invalid config type for switchd")
	ErrDuplicateSwitch   = errors.New("duplicate switch")
)

// Runtime errors
var (
	ErrSetupFailed = errors.New("switch setup failed")
	ErrShutdown    = errors.New("shutdown failed")
)
