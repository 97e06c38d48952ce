package api

import "errors"

// Request errors
var (
	ErrUnknownSwitch   = errors.New("unknown switch")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrSwitchRequired  = errors.New("switch name is required")
	ErrUnavailable     = errors.New("switch operations are unavailable")
	ErrDuplicateSwitch = errors.New("duplicate switch object id")
)
