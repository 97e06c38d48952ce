package eventloop

import "errors"

var (
	ErrStopped   = errors.New("event loop stopped")
	ErrQueueFull = errors.New("event loop queue full")
)
