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

	"github.com/jsimonetti/rtnetlink/rtnl"
	log "github.com/sirupsen/logrus"
)

// defaultTarget is any public address, we only ask kernel how it would route there
var defaultTarget = net.IPv4(8, 8, 8, 8)

// routeConn is the part of rtnl.Conn we need
type routeConn interface {
	RouteGet(dst net.IP) (*rtnl.Route, error)
	Close() error
}

func dialNetlink() (routeConn, error) {
	return rtnl.Dial(nil)
}

// NetlinkConnectivity asks the kernel if there is a route to the internet
type NetlinkConnectivity struct {
	Target net.IP
	// Fallback is used when netlink socket can't be opened, nil means report the error
	Fallback Connectivity

	dial func() (routeConn, error)
}

func newNetlinkConnectivity(fallback Connectivity) (Connectivity, error) {
	return &NetlinkConnectivity{Target: defaultTarget, Fallback: fallback, dial: dialNetlink}, nil
}

// Connected looks up route to the target address
func (n *NetlinkConnectivity) Connected(ctx context.Context) (bool, error) {
	dial := n.dial
	if dial == nil {
		dial = dialNetlink
	}
	conn, err := dial()
	if err != nil {
		if n.Fallback != nil {
			log.Debugf("netlink unavailable (%v), falling back to %T", err, n.Fallback)
			return n.Fallback.Connected(ctx)
		}
		return false, fmt.Errorf("can't establish netlink connection: %w", err)
	}
	defer conn.Close()

	route, err := conn.RouteGet(n.Target)
	if err != nil {
		log.Debugf("no route to %v: %v", n.Target, err)
		return false, nil
	}
	if route.Interface == nil || route.Interface.Flags&net.FlagLoopback != 0 {
		log.Debugf("route to %v doesn't leave the host", n.Target)
		return false, nil
	}
	log.Debugf("route to %v via %s gw %v", n.Target, route.Interface.Name, route.Gateway)
	return true, nil
}
