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
)

// connectivity check modes
const (
	ConnectivityAuto       = "auto"
	ConnectivityNetlink    = "netlink"
	ConnectivityInterfaces = "interfaces"
	ConnectivityAlways     = "always"
)

// Connectivity tells if we can reach the internet at all.
// It's queried before any socket is opened.
type Connectivity interface {
	Connected(ctx context.Context) (bool, error)
}

// StaticConnectivity always returns the same answer
type StaticConnectivity bool

// Connected returns static value
func (s StaticConnectivity) Connected(_ context.Context) (bool, error) {
	return bool(s), nil
}

// InterfaceConnectivity considers us connected when any interface which is up
// and not loopback has a global unicast IPv4 address
type InterfaceConnectivity struct{}

// Connected scans network interfaces
func (InterfaceConnectivity) Connected(_ context.Context) (bool, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false, err
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		if hasGlobalIPv4(addrs) {
			return true, nil
		}
	}
	return false, nil
}

func hasGlobalIPv4(addrs []net.Addr) bool {
	for _, addr := range addrs {
		var ip net.IP
		switch v := addr.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip.To4() != nil && ip.IsGlobalUnicast() {
			return true
		}
	}
	return false
}

// NewConnectivity returns Connectivity implementation by mode name
func NewConnectivity(mode string) (Connectivity, error) {
	switch mode {
	case ConnectivityAuto, "":
		// interface scan covers hosts where netlink is missing or forbidden
		if c, err := newNetlinkConnectivity(InterfaceConnectivity{}); err == nil {
			return c, nil
		}
		return InterfaceConnectivity{}, nil
	case ConnectivityNetlink:
		return newNetlinkConnectivity(nil)
	case ConnectivityInterfaces:
		return InterfaceConnectivity{}, nil
	case ConnectivityAlways:
		return StaticConnectivity(true), nil
	}
	return nil, fmt.Errorf("unknown connectivity mode %q", mode)
}
