package domain

import "errors"

var (
	// ErrNoSinks is returned when no sink could be connected at startup
	ErrNoSinks = errors.New("no sinks available")

	// ErrTransportClosed is returned when the live subscription ends because the transport went away
	ErrTransportClosed = errors.New("transport closed")

	// ErrInvalidChannelRef is returned when a configured channel reference cannot be parsed
	ErrInvalidChannelRef = errors.New("invalid channel reference")

	// ErrUnexpectedResponse is returned when a remote reply has an unexpected shape
	ErrUnexpectedResponse = errors.New("unexpected response")

	// ErrEmptyCompletion is returned when the model returns no choices
	ErrEmptyCompletion = errors.New("empty completion")
)
