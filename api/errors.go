// File: api/errors.go
// Author: momentics <momentics@gmail.com>
//
// Common error values shared across the library.

package api

import "errors"

var (
	// ErrReactorClosed is returned by reactor operations issued after
	// Shutdown has begun.
	ErrReactorClosed = errors.New("reactor is closed")

	// ErrSocketClosed is returned by operations on a closed socket.
	ErrSocketClosed = errors.New("socket is closed")

	// ErrBadSubnet is returned when a CIDR string cannot be parsed or
	// yields no usable broadcast address.
	ErrBadSubnet = errors.New("invalid subnet")
)
