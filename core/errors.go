package core

import "errors"

var (
	// ErrNotConnected is returned by Node.Disconnect when the pair was never connected.
	ErrNotConnected = errors.New("nodes are not connected")

	// ErrParamNotFound is returned when an automation targets a parameter the
	// current node does not expose.
	ErrParamNotFound = errors.New("parameter not found")

	// ErrInvalidState is returned when an operation is illegal for the current
	// node or context state (start twice, stop before start, closed context).
	ErrInvalidState = errors.New("invalid state")

	// ErrUnsupported is returned when a host cannot create the requested node kind
	// or property.
	ErrUnsupported = errors.New("unsupported")
)
