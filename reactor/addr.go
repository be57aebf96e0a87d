// File: reactor/addr.go
// Author: momentics <momentics@gmail.com>
//
// IPv4 (IP, port) address pair and its sockaddr conversions.

package reactor

import (
	"fmt"
	"net"
	"strconv"

	"golang.org/x/sys/unix"
)

// Addr identifies one end of a datagram or stream connection.
type Addr struct {
	IP   net.IP
	Port int
}

func (a Addr) String() string {
	return net.JoinHostPort(a.IP.String(), strconv.Itoa(a.Port))
}

// IsZero reports whether the address is unset.
func (a Addr) IsZero() bool {
	return a.IP == nil && a.Port == 0
}

func (a Addr) sockaddr() (unix.Sockaddr, error) {
	ip4 := a.IP.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("not an IPv4 address: %s", a.IP)
	}
	sa := &unix.SockaddrInet4{Port: a.Port}
	copy(sa.Addr[:], ip4)
	return sa, nil
}

func addrFromSockaddr(sa unix.Sockaddr) Addr {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		ip := make(net.IP, net.IPv4len)
		copy(ip, sa.Addr[:])
		return Addr{IP: ip, Port: sa.Port}
	case *unix.SockaddrInet6:
		ip := make(net.IP, net.IPv6len)
		copy(ip, sa.Addr[:])
		return Addr{IP: ip, Port: sa.Port}
	default:
		return Addr{}
	}
}
