package gpio

import "errors"

// Pin specification errors
var (
	ErrInvalidPinSpec   = errors.New("invalid pin specification")
	ErrInvalidPinNumber = errors.New("invalid GPIO pin")
	ErrUnknownPinOption = errors.New("unknown pin option")
)
