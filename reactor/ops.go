// File: reactor/ops.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Suspending socket operations. Each one attempts the non-blocking
// syscall first and falls back to the readiness-retry loop on
// would-block. Transient conditions never reach the caller; only
// genuine per-operation I/O failures do.

package reactor

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/landisco/api"
)

func isWouldBlock(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK
}

// Accept suspends the calling task until a connection is pending, then
// returns the accepted socket (registered with the poller, owned by the
// caller) and the peer address.
func (r *Reactor) Accept(ctx context.Context, s *Socket) (*Socket, Addr, error) {
	if err := s.guard(); err != nil {
		return nil, Addr{}, err
	}
	var (
		conn *Socket
		peer Addr
	)
	err := retryUntilReady(ctx, s.pd.readable, func() (ioResult, error) {
		nfd, sa, aerr := unix.Accept4(s.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		switch {
		case aerr == nil:
		case isWouldBlock(aerr):
			return ioWouldBlock, nil
		case aerr == unix.EINTR || aerr == unix.ECONNABORTED:
			return ioInterrupted, nil
		default:
			return 0, fmt.Errorf("accept: %w", aerr)
		}
		pd, perr := r.poller.register(nfd)
		if perr != nil {
			unix.Close(nfd)
			return 0, perr
		}
		conn = &Socket{fd: nfd, pd: pd, r: r}
		peer = addrFromSockaddr(sa)
		return ioReady, nil
	})
	if err != nil {
		return nil, Addr{}, err
	}
	return conn, peer, nil
}

// Connect suspends until the connection to addr completes or fails.
// Completion is detected by re-issuing connect(2): EISCONN means done,
// EALREADY means still in flight.
func (r *Reactor) Connect(ctx context.Context, s *Socket, addr Addr) error {
	if err := s.guard(); err != nil {
		return err
	}
	sa, err := addr.sockaddr()
	if err != nil {
		return err
	}
	return retryUntilReady(ctx, s.pd.writable, func() (ioResult, error) {
		cerr := unix.Connect(s.fd, sa)
		switch cerr {
		case nil, unix.EISCONN:
			return ioReady, nil
		case unix.EINPROGRESS, unix.EALREADY:
			return ioWouldBlock, nil
		case unix.EINTR:
			return ioInterrupted, nil
		default:
			return 0, fmt.Errorf("connect %s: %w", addr, cerr)
		}
	})
}

// Receive suspends until the stream socket is readable, reads up to
// bufSize bytes and decodes them. It returns NoMessage when the peer
// closed the connection or the bytes were not a valid message.
func (r *Reactor) Receive(ctx context.Context, s *Socket) (api.Message, error) {
	if err := s.guard(); err != nil {
		return api.NoMessage, err
	}
	buf := make([]byte, bufSize)
	var n int
	err := retryUntilReady(ctx, s.pd.readable, func() (ioResult, error) {
		m, rerr := unix.Read(s.fd, buf)
		switch {
		case rerr == nil:
			n = m
			return ioReady, nil
		case isWouldBlock(rerr):
			return ioWouldBlock, nil
		case rerr == unix.EINTR:
			return ioInterrupted, nil
		default:
			return 0, fmt.Errorf("receive: %w", rerr)
		}
	})
	if err != nil {
		return api.NoMessage, err
	}
	if n == 0 {
		// Peer closed.
		return api.NoMessage, nil
	}
	return r.codec.Decode(buf[:n]), nil
}

// Send suspends until the full encoded payload has been written to the
// stream socket, retrying partial writes.
func (r *Reactor) Send(ctx context.Context, s *Socket, m api.Message) error {
	if err := s.guard(); err != nil {
		return err
	}
	payload, err := r.codec.Encode(m)
	if err != nil {
		return err
	}
	off := 0
	return retryUntilReady(ctx, s.pd.writable, func() (ioResult, error) {
		for off < len(payload) {
			n, werr := unix.Write(s.fd, payload[off:])
			switch {
			case werr == nil:
				off += n
			case isWouldBlock(werr):
				return ioWouldBlock, nil
			case werr == unix.EINTR:
				continue
			default:
				return 0, fmt.Errorf("send: %w", werr)
			}
		}
		return ioReady, nil
	})
}

// ReceiveFrom suspends until a datagram is available and returns the
// decoded message together with the sender address. Undecodable
// datagrams resolve to NoMessage; the sender is still reported.
func (r *Reactor) ReceiveFrom(ctx context.Context, s *Socket) (api.Message, Addr, error) {
	if err := s.guard(); err != nil {
		return api.NoMessage, Addr{}, err
	}
	buf := make([]byte, bufSize)
	var (
		n    int
		from Addr
	)
	err := retryUntilReady(ctx, s.pd.readable, func() (ioResult, error) {
		m, sa, rerr := unix.Recvfrom(s.fd, buf, 0)
		switch {
		case rerr == nil:
			n = m
			from = addrFromSockaddr(sa)
			return ioReady, nil
		case isWouldBlock(rerr):
			return ioWouldBlock, nil
		case rerr == unix.EINTR:
			return ioInterrupted, nil
		default:
			return 0, fmt.Errorf("receive from: %w", rerr)
		}
	})
	if err != nil {
		return api.NoMessage, Addr{}, err
	}
	return r.codec.Decode(buf[:n]), from, nil
}

// SendTo sends one encoded datagram to addr, suspending on would-block.
// An empty message is a no-op: it returns immediately without touching
// the codec or the socket.
func (r *Reactor) SendTo(ctx context.Context, s *Socket, m api.Message, addr Addr) error {
	if m.Empty() {
		return nil
	}
	if err := s.guard(); err != nil {
		return err
	}
	payload, err := r.codec.Encode(m)
	if err != nil {
		return err
	}
	sa, err := addr.sockaddr()
	if err != nil {
		return err
	}
	return retryUntilReady(ctx, s.pd.writable, func() (ioResult, error) {
		serr := unix.Sendto(s.fd, payload, 0, sa)
		switch {
		case serr == nil:
			return ioReady, nil
		case isWouldBlock(serr):
			return ioWouldBlock, nil
		case serr == unix.EINTR:
			return ioInterrupted, nil
		default:
			return 0, fmt.Errorf("send to %s: %w", addr, serr)
		}
	})
}

// Sleep suspends the calling task for d, waking early on cancellation.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
