// File: discovery/advertiser.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The Advertiser role: announce this node's presence on a fixed
// cadence.

package discovery

import (
	"context"
	"time"

	"github.com/momentics/landisco/api"
	"github.com/momentics/landisco/codec"
	"github.com/momentics/landisco/internal/logx"
	"github.com/momentics/landisco/reactor"
	"github.com/momentics/landisco/svc"
)

// AnnounceInterval is the advertisement cadence.
const AnnounceInterval = time.Second

// Advertiser periodically broadcasts a presence message of the shape
// {"time": <unix seconds>} to the subnet broadcast address.
type Advertiser struct {
	cfg Config
	log *logx.Logger

	interval time.Duration
	dest     reactor.Addr // resolved from cfg unless preset
	now      func() time.Time
}

func NewAdvertiser(cfg Config) *Advertiser {
	return &Advertiser{
		cfg:      cfg,
		log:      logx.New("advertiser"),
		interval: AnnounceInterval,
		now:      time.Now,
	}
}

// Serve implements suture.Service. It owns one reactor for the lifetime
// of the role and tears it down on cancellation, whatever else happens.
func (a *Advertiser) Serve(ctx context.Context) error {
	dest := a.dest
	if dest.IsZero() {
		var err error
		dest, err = a.cfg.broadcastAddr()
		if err != nil {
			// Configuration error: fatal at startup, before any
			// socket exists.
			return svc.Fatal(err)
		}
	}

	r, err := reactor.New(codec.JSON{})
	if err != nil {
		return svc.Fatal(err)
	}
	defer r.Shutdown()

	if err := r.Spawn(func(tctx context.Context) { a.advertise(tctx, r, dest) }); err != nil {
		return err
	}

	<-ctx.Done()
	return ctx.Err()
}

// advertise is the announcement loop. It terminates only on
// cancellation; send failures are logged and the cadence continues.
func (a *Advertiser) advertise(ctx context.Context, r *reactor.Reactor, dest reactor.Addr) {
	sock, err := r.NewUDP()
	if err != nil {
		a.log.Errorf("announce socket: %v", err)
		return
	}
	defer sock.Close()
	if err := sock.SetBroadcast(); err != nil {
		a.log.Errorf("announce socket: %v", err)
		return
	}

	a.log.Infof("announcing to %s every %s", dest, a.interval)
	for {
		msg := api.Message{
			"time": float64(a.now().UnixNano()) / float64(time.Second),
		}
		if err := r.SendTo(ctx, sock, msg, dest); err != nil {
			if ctx.Err() != nil {
				return
			}
			a.log.Warnf("announce: %v", err)
		}
		if reactor.Sleep(ctx, a.interval) != nil {
			return
		}
	}
}
