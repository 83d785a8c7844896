/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package client

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/net/ipv4"
)

// NetResolver resolves names with the system resolver, IPv4 only
type NetResolver struct {
	Resolver *net.Resolver
}

// LookupIPv4 returns first IPv4 address of the host
func (r *NetResolver) LookupIPv4(ctx context.Context, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return v4, nil
		}
		return nil, fmt.Errorf("%s is not an IPv4 address", host)
	}
	ips, err := r.Resolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		return nil, err
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			return v4, nil
		}
	}
	return nil, fmt.Errorf("no IPv4 addresses found for %s", host)
}

// UDPDialer opens connected UDP sockets
type UDPDialer struct {
	// DSCP to mark outgoing packets with, 0 leaves the default
	DSCP int
}

// Dial opens UDP socket and connects it to raddr.
// Connecting UDP socket only fixes the peer, nothing is sent.
func (d *UDPDialer) Dial(ctx context.Context, raddr *net.UDPAddr) (Conn, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "udp4", raddr.String())
	if err != nil {
		return nil, err
	}
	if d.DSCP != 0 {
		// DSCP occupies upper 6 bits of TOS
		if err := ipv4.NewConn(conn).SetTOS(d.DSCP << 2); err != nil {
			conn.Close()
			return nil, fmt.Errorf("setting dscp %d: %w", d.DSCP, err)
		}
	}
	return conn, nil
}
