// File: api/shutdown.go
// Package api defines unified graceful shutdown contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// GracefulShutdown is implemented by components that tear down their
// internal services and release resources on request. Shutdown must be
// idempotent.
type GracefulShutdown interface {
	Shutdown() error
}
