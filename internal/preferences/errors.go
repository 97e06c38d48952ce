package preferences

import "errors"

// Lookup errors
var (
	ErrNotFound = errors.New("preference not found")
)

// Encoding errors
var (
	ErrEncode = errors.New("failed to encode preference")
	ErrDecode = errors.New("failed to decode preference")
)

// Backend errors
var (
	ErrUnknownBackend = errors.New("unknown preference backend")
	ErrStoreOpen      = errors.New("failed to open preference store")
	ErrStoreRead      = errors.New("failed to read preference")
	ErrStoreWrite     = errors.New("failed to write preference")
)
