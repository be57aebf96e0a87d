// File: reactor/socket.go
// Author: momentics <momentics@gmail.com>
//
// Non-blocking socket handles owned by reactor tasks.

package reactor

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/momentics/landisco/api"
)

// bufSize is the fixed receive buffer for datagrams and stream reads.
const bufSize = 4096

// Socket is a non-blocking OS socket registered with the reactor's
// poller. A socket is owned exclusively by the task that created it and
// must be closed on every exit path of that task.
type Socket struct {
	fd int
	pd *pollDesc
	r  *Reactor

	closed    atomic.Bool
	closeOnce sync.Once
}

// guard rejects operations on a socket that has been closed.
func (s *Socket) guard() error {
	if s.closed.Load() {
		return api.ErrSocketClosed
	}
	return nil
}

// NewSocket creates a non-blocking socket of the given family and type
// with address reuse enabled, registered for readiness notifications.
// It never blocks.
func (r *Reactor) NewSocket(family, sotype int) (*Socket, error) {
	if r.isClosed() {
		return nil, api.ErrReactorClosed
	}
	fd, err := unix.Socket(family, sotype|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("socket create: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("set SO_REUSEADDR: %w", err)
	}
	pd, err := r.poller.register(fd)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	return &Socket{fd: fd, pd: pd, r: r}, nil
}

// NewUDP creates an IPv4 datagram socket.
func (r *Reactor) NewUDP() (*Socket, error) {
	return r.NewSocket(unix.AF_INET, unix.SOCK_DGRAM)
}

// NewTCP creates an IPv4 stream socket.
func (r *Reactor) NewTCP() (*Socket, error) {
	return r.NewSocket(unix.AF_INET, unix.SOCK_STREAM)
}

// SetBroadcast enables sending to and receiving from broadcast
// addresses on a datagram socket.
func (s *Socket) SetBroadcast() error {
	if err := s.guard(); err != nil {
		return err
	}
	if err := unix.SetsockoptInt(s.fd, unix.SOL_SOCKET, unix.SO_BROADCAST, 1); err != nil {
		return fmt.Errorf("set SO_BROADCAST: %w", err)
	}
	return nil
}

// Bind binds the socket to a local address.
func (s *Socket) Bind(addr Addr) error {
	if err := s.guard(); err != nil {
		return err
	}
	sa, err := addr.sockaddr()
	if err != nil {
		return err
	}
	if err := unix.Bind(s.fd, sa); err != nil {
		return fmt.Errorf("bind %s: %w", addr, err)
	}
	return nil
}

// Listen marks the socket as accepting connections.
func (s *Socket) Listen(backlog int) error {
	if err := s.guard(); err != nil {
		return err
	}
	if err := unix.Listen(s.fd, backlog); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// LocalAddr returns the socket's bound address, useful after binding
// port 0.
func (s *Socket) LocalAddr() (Addr, error) {
	if err := s.guard(); err != nil {
		return Addr{}, err
	}
	sa, err := unix.Getsockname(s.fd)
	if err != nil {
		return Addr{}, fmt.Errorf("getsockname: %w", err)
	}
	return addrFromSockaddr(sa), nil
}

// Close unregisters the socket and releases its descriptor. It is safe
// to call more than once.
func (s *Socket) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.r.poller.unregister(s.fd)
		err = unix.Close(s.fd)
	})
	return err
}
