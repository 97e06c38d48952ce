package switchentity

import "errors"

// Configuration errors
var (
	ErrInvalidRestoreMode = errors.New("invalid restore mode")
)

// Command errors
var (
	ErrInvalidAction = errors.New("invalid switch action")
)
