package mqtt

import "errors"

// Client errors
var (
	ErrInvalidServerURL = errors.New("invalid MQTT server URL")
	ErrNotConnected     = errors.New("MQTT client is not connected")
	ErrPublish          = errors.New("failed to publish MQTT message")
	ErrSubscribe        = errors.New("failed to subscribe to MQTT topic")
)

// Bridge errors
var (
	ErrInvalidCommand = errors.New("invalid switch command")
	ErrUnknownSwitch  = errors.New("unknown switch")
)
