// File: discovery/addr.go
// Author: momentics <momentics@gmail.com>
//
// Subnet broadcast address derivation for the discovery channel.

package discovery

import (
	"fmt"
	"net"

	"github.com/momentics/landisco/api"
	"github.com/momentics/landisco/reactor"
)

// Broadcast returns the highest address of the given CIDR range, the
// destination for discovery datagrams.
func Broadcast(subnet string) (net.IP, error) {
	_, ipnet, err := net.ParseCIDR(subnet)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", api.ErrBadSubnet, subnet, err)
	}
	ip := ipnet.IP.To4()
	if ip == nil {
		return nil, fmt.Errorf("%w: %q: not IPv4", api.ErrBadSubnet, subnet)
	}
	bc := make(net.IP, len(ip))
	for i := range ip {
		bc[i] = ip[i] | ^ipnet.Mask[i]
	}
	return bc, nil
}

// Config carries the shared discovery channel settings: a CIDR subnet
// the broadcast address is derived from, and one port used by the UDP
// broadcast channel and, for the registry, the TCP listener.
type Config struct {
	Subnet string
	Port   int

	// TCPBind is the local address for the registration listener.
	// Empty means loopback.
	TCPBind string
}

func (c Config) broadcastAddr() (reactor.Addr, error) {
	ip, err := Broadcast(c.Subnet)
	if err != nil {
		return reactor.Addr{}, err
	}
	return reactor.Addr{IP: ip, Port: c.Port}, nil
}

func (c Config) tcpBindAddr() (reactor.Addr, error) {
	bind := c.TCPBind
	if bind == "" {
		bind = "127.0.0.1"
	}
	ip := net.ParseIP(bind)
	if ip == nil {
		return reactor.Addr{}, fmt.Errorf("invalid bind address %q", bind)
	}
	return reactor.Addr{IP: ip, Port: c.Port}, nil
}
