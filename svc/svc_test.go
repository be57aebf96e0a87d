// File: svc/svc_test.go
// Author: momentics <momentics@gmail.com>

package svc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/suture/v4"
)

// blockingRole runs until cancelled.
type blockingRole struct {
	started chan struct{}
}

func (b *blockingRole) Serve(ctx context.Context) error {
	select {
	case b.started <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestRunnerStartStopIdempotent(t *testing.T) {
	role := &blockingRole{started: make(chan struct{}, 2)}
	r := NewRunner("test", role)

	r.Start()
	r.Start() // already running: no-op
	select {
	case <-role.started:
	case <-time.After(5 * time.Second):
		t.Fatal("role did not start")
	}
	assert.True(t, r.Running())

	require.NoError(t, r.Stop())
	assert.False(t, r.Running())
	require.NoError(t, r.Stop()) // not running: no-op
}

func TestRunnerRestartAfterStop(t *testing.T) {
	role := &blockingRole{started: make(chan struct{}, 2)}
	r := NewRunner("test", role)

	r.Start()
	require.NoError(t, r.Stop())
	r.Start()
	select {
	case <-role.started:
	case <-time.After(5 * time.Second):
		t.Fatal("role did not restart")
	}
	require.NoError(t, r.Stop())
}

func TestFatalTerminatesSupervisorTree(t *testing.T) {
	cause := errors.New("bad subnet")
	err := Fatal(cause)
	assert.ErrorIs(t, err, suture.ErrTerminateSupervisorTree)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, Fatal(nil))
}
