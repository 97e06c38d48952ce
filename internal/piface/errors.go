package piface

import "errors"

var (
	ErrInvalidPin       = errors.New("invalid pin number")
	ErrPeriphInitFailed = errors.New("failed to initialize periph.io")
	ErrSPIPortOpen      = errors.New("failed to open SPI port")
	ErrSPIConnect       = errors.New("failed to connect to SPI")
	ErrClosed           = errors.New("piface is closed")
)

var (
	ErrRegisterWrite = errors.New("failed to write register")
	ErrRegisterRead  = errors.New("failed to read register")
	ErrWriteOutput   = errors.New("failed to write output")
	ErrReadOutputs   = errors.New("failed to read outputs")
)
