// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The Reactor: task intake, readiness dispatch and cooperative
// shutdown. One reactor per role instance; no process-wide singleton.

package reactor

import (
	"context"
	"sync"

	"github.com/eapache/queue"

	"github.com/momentics/landisco/api"
	"github.com/momentics/landisco/internal/logx"
)

// Task is a unit of concurrent work scheduled on a reactor. It must
// return promptly once ctx is cancelled; every suspending socket
// operation observes cancellation for it.
type Task func(ctx context.Context)

// Reactor schedules tasks over non-blocking sockets. The codec is
// injected at construction and applied at the receive/send boundary.
type Reactor struct {
	codec  api.Codec
	poller *poller
	log    *logx.Logger

	mu     sync.Mutex
	intake *queue.Queue // Tasks accepted but not yet started
	closed bool

	wake chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	wg        sync.WaitGroup
	schedDone chan struct{}

	shutdownOnce sync.Once
}

var _ api.GracefulShutdown = (*Reactor)(nil)

// New creates a reactor with its poller and starts its scheduling
// loops.
func New(c api.Codec) (*Reactor, error) {
	p, err := newPoller()
	if err != nil {
		return nil, err
	}
	r := &Reactor{
		codec:     c,
		poller:    p,
		log:       logx.New("reactor"),
		intake:    queue.New(),
		wake:      make(chan struct{}, 1),
		schedDone: make(chan struct{}),
	}
	r.ctx, r.cancel = context.WithCancel(context.Background())
	go p.run()
	go r.runScheduler()
	return r, nil
}

// Spawn schedules a task. There is no ordering guarantee relative to
// other scheduled tasks. Spawn fails once shutdown has begun.
func (r *Reactor) Spawn(task Task) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return api.ErrReactorClosed
	}
	r.intake.Add(task)
	r.mu.Unlock()
	select {
	case r.wake <- struct{}{}:
	default:
	}
	return nil
}

// runScheduler drains the intake queue, starting one goroutine per
// task, until the reactor context is cancelled.
func (r *Reactor) runScheduler() {
	defer close(r.schedDone)
	for {
		select {
		case <-r.ctx.Done():
			// Tasks accepted before shutdown still start; they observe
			// the cancelled context at their first suspension point.
			r.drainIntake()
			return
		case <-r.wake:
			r.drainIntake()
		}
	}
}

func (r *Reactor) drainIntake() {
	for {
		r.mu.Lock()
		if r.intake.Length() == 0 {
			r.mu.Unlock()
			return
		}
		task := r.intake.Remove().(Task)
		r.wg.Add(1)
		r.mu.Unlock()
		go r.runTask(task)
	}
}

// runTask contains a single task. A panic terminates only the owning
// task; sibling tasks and the reactor keep running.
func (r *Reactor) runTask(task Task) {
	defer r.wg.Done()
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Errorf("task panic contained: %v", rec)
		}
	}()
	task(r.ctx)
}

func (r *Reactor) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Context exposes the reactor's root context. It is cancelled when
// shutdown begins.
func (r *Reactor) Context() context.Context {
	return r.ctx
}

// Shutdown stops accepting new tasks, cancels every scheduled task,
// keeps the poller running until all tasks have unwound (each discovers
// cancellation at its next suspension point), then releases the poller.
// It is idempotent and is the only teardown path for the reactor.
func (r *Reactor) Shutdown() error {
	r.shutdownOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()
		r.cancel()
		<-r.schedDone
		r.wg.Wait()
		if err := r.poller.close(); err != nil {
			r.log.Warnf("poller close: %v", err)
		}
	})
	return nil
}
