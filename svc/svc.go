// File: svc/svc.go
// Author: momentics <momentics@gmail.com>
//
// Role lifecycle glue around suture. External supervision consumes this
// contract: idempotent Start/Stop plus a liveness query; restart policy
// stays with the caller.

package svc

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/thejerf/suture/v4"
)

// StopTimeout bounds how long Stop waits for a role to unwind before
// giving up and reporting an error.
const StopTimeout = 5 * time.Second

// ErrStopTimeout is returned when a role does not acknowledge
// cancellation within StopTimeout.
var ErrStopTimeout = errors.New("service did not stop in time")

// FatalErr marks a role error that must terminate the whole supervisor
// tree instead of triggering a restart, e.g. a configuration error
// discovered at role startup.
type FatalErr struct {
	Err error
}

func Fatal(err error) error {
	if err == nil {
		return nil
	}
	var ferr *FatalErr
	if errors.As(err, &ferr) {
		return ferr
	}
	return &FatalErr{Err: err}
}

func (e *FatalErr) Error() string { return e.Err.Error() }
func (e *FatalErr) Unwrap() error { return e.Err }

func (e *FatalErr) Is(target error) bool {
	return target == suture.ErrTerminateSupervisorTree
}

// Runner hosts one long-running role under its own supervisor.
type Runner struct {
	name string
	role suture.Service

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    <-chan error
	running bool
}

func NewRunner(name string, role suture.Service) *Runner {
	return &Runner{name: name, role: role}
}

// Start launches the role in the background. Starting an already
// running runner is a no-op.
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	sup := suture.NewSimple(r.name)
	sup.Add(r.role)
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = sup.ServeBackground(ctx)
	r.running = true
}

// Stop cancels the role and waits for it to unwind, bounded by
// StopTimeout. Stopping a runner that is not running is a no-op.
func (r *Runner) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return nil
	}
	r.cancel()
	select {
	case <-r.done:
	case <-time.After(StopTimeout):
		return ErrStopTimeout
	}
	r.running = false
	return nil
}

// Running reports whether the role is currently hosted.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return false
	}
	select {
	case <-r.done:
		r.running = false
		return false
	default:
		return true
	}
}
