//go:build linux

// File: reactor/poller_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux epoll(7) readiness poller. Sockets are registered once,
// edge-triggered, for both directions; readiness edges are delivered as
// tokens on per-descriptor channels.

package reactor

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// pollDesc carries the readiness state of one registered descriptor.
// Each direction has exactly one notification channel, so re-issuing an
// operation on a direction that already has one pending replaces the
// previous waiter instead of adding a second registration. The channels
// hold at most one token; an unconsumed token only causes one spurious
// re-attempt, never a missed wakeup.
type pollDesc struct {
	readable chan struct{}
	writable chan struct{}
}

type poller struct {
	epfd   int
	wakefd int // eventfd, written once to stop the wait loop

	mu    sync.Mutex
	descs map[int32]*pollDesc

	done chan struct{}
}

func newPoller() (*poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakefd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakefd, &ev); err != nil {
		unix.Close(wakefd)
		unix.Close(epfd)
		return nil, fmt.Errorf("epoll ctl add wakefd: %w", err)
	}
	return &poller{
		epfd:   epfd,
		wakefd: wakefd,
		descs:  make(map[int32]*pollDesc),
		done:   make(chan struct{}),
	}, nil
}

// register adds fd to the interest set for read and write readiness.
func (p *poller) register(fd int) (*pollDesc, error) {
	ev := unix.EpollEvent{
		Events: unix.EPOLLIN | unix.EPOLLOUT | unix.EPOLLRDHUP | unix.EPOLLET,
		Fd:     int32(fd),
	}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return nil, fmt.Errorf("epoll ctl add: %w", err)
	}
	pd := &pollDesc{
		readable: make(chan struct{}, 1),
		writable: make(chan struct{}, 1),
	}
	p.mu.Lock()
	p.descs[int32(fd)] = pd
	p.mu.Unlock()
	return pd, nil
}

// unregister removes fd from the interest set. Events already queued for
// the fd are dropped by the wait loop once the descriptor is gone.
func (p *poller) unregister(fd int) {
	_ = unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	p.mu.Lock()
	delete(p.descs, int32(fd))
	p.mu.Unlock()
}

// run is the wait loop. It exits when the wake eventfd fires.
func (p *poller) run() {
	defer close(p.done)
	events := make([]unix.EpollEvent, 128)
	for {
		n, err := unix.EpollWait(p.epfd, events, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}
		for i := 0; i < n; i++ {
			ev := events[i]
			if int(ev.Fd) == p.wakefd {
				return
			}
			p.mu.Lock()
			pd := p.descs[ev.Fd]
			p.mu.Unlock()
			if pd == nil {
				continue
			}
			// Errors and hangups wake both directions so the pending
			// attempt observes the condition from the kernel itself.
			if ev.Events&(unix.EPOLLIN|unix.EPOLLRDHUP|unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				notify(pd.readable)
			}
			if ev.Events&(unix.EPOLLOUT|unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				notify(pd.writable)
			}
		}
	}
}

// notify delivers a coalesced readiness token.
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// close wakes the wait loop, joins it, and releases the poller fds.
func (p *poller) close() error {
	var one [8]byte
	one[0] = 1
	_, _ = unix.Write(p.wakefd, one[:])
	<-p.done
	_ = unix.Close(p.wakefd)
	return unix.Close(p.epfd)
}
