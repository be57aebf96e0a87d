// File: discovery/registry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The Registry role: observe broadcast presence announcements and
// accept direct TCP registrations, without blocking either stream on
// the other.

package discovery

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/momentics/landisco/api"
	"github.com/momentics/landisco/codec"
	"github.com/momentics/landisco/internal/logx"
	"github.com/momentics/landisco/reactor"
	"github.com/momentics/landisco/svc"
)

const acceptBacklog = 128

// Observation is one recorded sighting: a decoded message and where it
// came from. The registry keeps no directory of peers; observations are
// logged and handed to the hook, nothing more.
type Observation struct {
	ID      uuid.UUID
	Source  reactor.Addr
	Payload api.Message
	At      time.Time
}

// Registry listens for presence broadcasts on the subnet broadcast
// address and accepts registration connections on a local TCP address.
// Two independent loops share one reactor; each accepted connection is
// handled by its own task.
type Registry struct {
	cfg Config
	log *logx.Logger

	// OnObserve, when set, receives every recorded observation.
	OnObserve func(Observation)

	// listenHook reports each bound listener address; used by tests to
	// learn ephemeral ports.
	listenHook func(network string, addr reactor.Addr)
}

func NewRegistry(cfg Config) *Registry {
	return &Registry{
		cfg: cfg,
		log: logx.New("registry"),
	}
}

// Serve implements suture.Service. Both listener loops and all spawned
// handler tasks are cancelled together when the role stops.
func (g *Registry) Serve(ctx context.Context) error {
	baddr, err := g.cfg.broadcastAddr()
	if err != nil {
		return svc.Fatal(err)
	}
	taddr, err := g.cfg.tcpBindAddr()
	if err != nil {
		return svc.Fatal(err)
	}

	r, err := reactor.New(codec.JSON{})
	if err != nil {
		return svc.Fatal(err)
	}
	defer r.Shutdown()

	if err := r.Spawn(func(tctx context.Context) { g.discover(tctx, r, baddr) }); err != nil {
		return err
	}
	if err := r.Spawn(func(tctx context.Context) { g.serve(tctx, r, taddr) }); err != nil {
		return err
	}

	<-ctx.Done()
	return ctx.Err()
}

// discover observes presence broadcasts. Undecodable datagrams are
// noise on a shared port and are skipped without comment.
func (g *Registry) discover(ctx context.Context, r *reactor.Reactor, baddr reactor.Addr) {
	sock, err := r.NewUDP()
	if err != nil {
		g.log.Errorf("discover: %v", err)
		return
	}
	defer sock.Close()
	if err := sock.SetBroadcast(); err != nil {
		g.log.Errorf("discover: %v", err)
		return
	}
	if err := sock.Bind(baddr); err != nil {
		g.log.Errorf("discover: %v", err)
		return
	}
	g.notifyListen("udp", sock)

	for {
		msg, from, err := r.ReceiveFrom(ctx, sock)
		if err != nil {
			if ctx.Err() == nil {
				g.log.Errorf("discover: %v", err)
			}
			return
		}
		if msg.Empty() {
			continue
		}
		g.observe("discover", from, msg)
	}
}

// serve accepts registration connections. Each connection is handed to
// an independent task so one slow peer cannot delay subsequent accepts.
func (g *Registry) serve(ctx context.Context, r *reactor.Reactor, taddr reactor.Addr) {
	sock, err := r.NewTCP()
	if err != nil {
		g.log.Errorf("serve: %v", err)
		return
	}
	defer sock.Close()
	if err := sock.Bind(taddr); err != nil {
		g.log.Errorf("serve: %v", err)
		return
	}
	if err := sock.Listen(acceptBacklog); err != nil {
		g.log.Errorf("serve: %v", err)
		return
	}
	g.notifyListen("tcp", sock)

	for {
		conn, peer, err := r.Accept(ctx, sock)
		if err != nil {
			if ctx.Err() == nil {
				g.log.Errorf("accept: %v", err)
			}
			return
		}
		if err := r.Spawn(func(tctx context.Context) { g.handle(tctx, r, conn, peer) }); err != nil {
			conn.Close()
			return
		}
	}
}

// handle reads exactly one registration message, records it if
// non-empty, and closes the connection on every path. A fault here is
// contained to this task.
func (g *Registry) handle(ctx context.Context, r *reactor.Reactor, conn *reactor.Socket, peer reactor.Addr) {
	defer conn.Close()
	msg, err := r.Receive(ctx, conn)
	if err != nil {
		if ctx.Err() == nil {
			g.log.Warnf("handle %s: %v", peer, err)
		}
		return
	}
	if msg.Empty() {
		return
	}
	g.observe("handle", peer, msg)
}

func (g *Registry) observe(kind string, from reactor.Addr, payload api.Message) {
	obs := Observation{
		ID:      uuid.New(),
		Source:  from,
		Payload: payload,
		At:      time.Now(),
	}
	g.log.Infof("%s: %s > %v [%s]", kind, from, payload, obs.ID)
	if g.OnObserve != nil {
		g.OnObserve(obs)
	}
}

func (g *Registry) notifyListen(network string, sock *reactor.Socket) {
	if g.listenHook == nil {
		return
	}
	if addr, err := sock.LocalAddr(); err == nil {
		g.listenHook(network, addr)
	}
}
