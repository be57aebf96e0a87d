// File: reactor/reactor_test.go
// Author: momentics <momentics@gmail.com>

package reactor

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/landisco/api"
	"github.com/momentics/landisco/codec"
)

// countingCodec wraps the JSON codec and counts calls, so tests can
// assert an operation never reached the wire boundary.
type countingCodec struct {
	inner   codec.JSON
	encodes atomic.Int32
	decodes atomic.Int32
}

func (c *countingCodec) Encode(m api.Message) ([]byte, error) {
	c.encodes.Add(1)
	return c.inner.Encode(m)
}

func (c *countingCodec) Decode(b []byte) api.Message {
	c.decodes.Add(1)
	return c.inner.Decode(b)
}

func newTestReactor(t *testing.T, c api.Codec) *Reactor {
	t.Helper()
	r, err := New(c)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Shutdown() })
	return r
}

func TestSendToEmptyMessageIsNoop(t *testing.T) {
	cc := &countingCodec{}
	r := newTestReactor(t, cc)

	sock, err := r.NewUDP()
	require.NoError(t, err)
	defer sock.Close()

	ctx := context.Background()
	require.NoError(t, r.SendTo(ctx, sock, api.NoMessage, Addr{}))
	require.NoError(t, r.SendTo(ctx, sock, api.Message{}, Addr{}))
	assert.Equal(t, int32(0), cc.encodes.Load(), "empty send must not touch the codec or socket")
}

func TestSpawnAfterShutdown(t *testing.T) {
	r, err := New(codec.JSON{})
	require.NoError(t, err)
	require.NoError(t, r.Shutdown())
	assert.ErrorIs(t, r.Spawn(func(context.Context) {}), api.ErrReactorClosed)
}

func TestShutdownIdempotent(t *testing.T) {
	r, err := New(codec.JSON{})
	require.NoError(t, err)
	require.NoError(t, r.Shutdown())
	require.NoError(t, r.Shutdown())
}

func TestSpawnAcceptedBeforeShutdownStillRuns(t *testing.T) {
	// A task whose Spawn returned nil must run even when Shutdown
	// follows immediately, before the scheduler had a chance to pick
	// it up. It sees a cancelled context and unwinds at once.
	for round := 0; round < 25; round++ {
		r, err := New(codec.JSON{})
		require.NoError(t, err)

		const n = 8
		var ran atomic.Int32
		for i := 0; i < n; i++ {
			require.NoError(t, r.Spawn(func(context.Context) {
				ran.Add(1)
			}))
		}
		require.NoError(t, r.Shutdown())
		assert.Equal(t, int32(n), ran.Load())
	}
}

func TestOpsOnClosedSocket(t *testing.T) {
	r := newTestReactor(t, codec.JSON{})
	ctx := context.Background()

	sock, err := r.NewUDP()
	require.NoError(t, err)
	require.NoError(t, sock.Close())

	_, _, err = r.ReceiveFrom(ctx, sock)
	assert.ErrorIs(t, err, api.ErrSocketClosed)
	err = r.SendTo(ctx, sock, api.Message{"time": 1.0}, Addr{IP: net.IPv4(127, 0, 0, 1), Port: 9})
	assert.ErrorIs(t, err, api.ErrSocketClosed)
	assert.ErrorIs(t, sock.Bind(Addr{IP: net.IPv4(127, 0, 0, 1)}), api.ErrSocketClosed)
	_, err = sock.LocalAddr()
	assert.ErrorIs(t, err, api.ErrSocketClosed)

	ln, err := r.NewTCP()
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	_, _, err = r.Accept(ctx, ln)
	assert.ErrorIs(t, err, api.ErrSocketClosed)
	assert.ErrorIs(t, r.Connect(ctx, ln, Addr{IP: net.IPv4(127, 0, 0, 1), Port: 9}), api.ErrSocketClosed)
	_, err = r.Receive(ctx, ln)
	assert.ErrorIs(t, err, api.ErrSocketClosed)
	assert.ErrorIs(t, r.Send(ctx, ln, api.Message{"x": 1.0}), api.ErrSocketClosed)
}

func TestShutdownDrainsOutstandingTasks(t *testing.T) {
	for _, n := range []int{1, 10, 100} {
		r, err := New(codec.JSON{})
		require.NoError(t, err)

		var started sync.WaitGroup
		var unwound atomic.Int32
		started.Add(n)
		for i := 0; i < n; i++ {
			require.NoError(t, r.Spawn(func(ctx context.Context) {
				started.Done()
				<-ctx.Done()
				unwound.Add(1)
			}))
		}
		started.Wait()

		begin := time.Now()
		require.NoError(t, r.Shutdown())
		assert.Less(t, time.Since(begin), 2*time.Second, "shutdown with %d tasks", n)
		assert.Equal(t, int32(n), unwound.Load())
	}
}

func TestUDPSendToReceiveFrom(t *testing.T) {
	r := newTestReactor(t, codec.JSON{})
	ctx := context.Background()

	rx, err := r.NewUDP()
	require.NoError(t, err)
	defer rx.Close()
	require.NoError(t, rx.Bind(Addr{IP: net.IPv4(127, 0, 0, 1)}))
	dst, err := rx.LocalAddr()
	require.NoError(t, err)

	tx, err := r.NewUDP()
	require.NoError(t, err)
	defer tx.Close()

	want := api.Message{"time": 1700000000.5}
	require.NoError(t, r.SendTo(ctx, tx, want, dst))

	got, from, err := r.ReceiveFrom(ctx, rx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.False(t, from.IsZero())
}

func TestReceiveFromAbsorbsNoise(t *testing.T) {
	r := newTestReactor(t, codec.JSON{})
	ctx := context.Background()

	rx, err := r.NewUDP()
	require.NoError(t, err)
	defer rx.Close()
	require.NoError(t, rx.Bind(Addr{IP: net.IPv4(127, 0, 0, 1)}))
	dst, err := rx.LocalAddr()
	require.NoError(t, err)

	conn, err := net.Dial("udp", dst.String())
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte("{not json"))
	require.NoError(t, err)

	got, from, err := r.ReceiveFrom(ctx, rx)
	require.NoError(t, err, "noise must not surface as an error")
	assert.True(t, got.Empty())
	assert.False(t, from.IsZero())
}

func TestTCPConnectSendAcceptReceive(t *testing.T) {
	r := newTestReactor(t, codec.JSON{})
	ctx := context.Background()

	ln, err := r.NewTCP()
	require.NoError(t, err)
	defer ln.Close()
	require.NoError(t, ln.Bind(Addr{IP: net.IPv4(127, 0, 0, 1)}))
	require.NoError(t, ln.Listen(8))
	laddr, err := ln.LocalAddr()
	require.NoError(t, err)

	want := api.Message{"hello": "world"}
	clientErr := make(chan error, 1)
	go func() {
		cl, err := r.NewTCP()
		if err != nil {
			clientErr <- err
			return
		}
		defer cl.Close()
		if err := r.Connect(ctx, cl, laddr); err != nil {
			clientErr <- err
			return
		}
		clientErr <- r.Send(ctx, cl, want)
	}()

	conn, peer, err := r.Accept(ctx, ln)
	require.NoError(t, err)
	defer conn.Close()
	assert.False(t, peer.IsZero())

	got, err := r.Receive(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	require.NoError(t, <-clientErr)
}

func TestReceiveReturnsNoMessageOnPeerClose(t *testing.T) {
	r := newTestReactor(t, codec.JSON{})
	ctx := context.Background()

	ln, err := r.NewTCP()
	require.NoError(t, err)
	defer ln.Close()
	require.NoError(t, ln.Bind(Addr{IP: net.IPv4(127, 0, 0, 1)}))
	require.NoError(t, ln.Listen(8))
	laddr, err := ln.LocalAddr()
	require.NoError(t, err)

	go func() {
		c, err := net.Dial("tcp", laddr.String())
		if err == nil {
			c.Close() // zero bytes, then FIN
		}
	}()

	conn, _, err := r.Accept(ctx, ln)
	require.NoError(t, err)
	defer conn.Close()

	got, err := r.Receive(ctx, conn)
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestTaskPanicIsContained(t *testing.T) {
	r := newTestReactor(t, codec.JSON{})

	ran := make(chan struct{})
	require.NoError(t, r.Spawn(func(context.Context) {
		panic("bad handler")
	}))
	require.NoError(t, r.Spawn(func(context.Context) {
		close(ran)
	}))

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("sibling task did not run after a panic")
	}
}
