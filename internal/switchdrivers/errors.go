package switchdrivers

import "errors"

// Registry errors
var (
	ErrUnknownDriver    = errors.New("unknown driver")
	ErrDriverRegistered = errors.New("driver already registered")
)

// Configuration errors
var (
	ErrInvalidOptions = errors.New("invalid driver options")
	ErrMissingPin     = errors.New("gpio driver requires a pin")
	ErrMissingAddress = errors.New("tasmota driver requires an address")
	ErrMissingOutput  = errors.New("piface driver requires an output")
)

// Hardware errors
var (
	ErrLineRequestFailed = errors.New("failed to request GPIO line")
	ErrOutputWrite       = errors.New("failed to write output")
	ErrTasmotaRequest    = errors.New("tasmota request failed")
)
