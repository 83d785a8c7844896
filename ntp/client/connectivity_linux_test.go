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
	"errors"
	"net"
	"testing"

	"github.com/jsimonetti/rtnetlink/rtnl"
	"github.com/stretchr/testify/require"
)

type fakeRouteConn struct {
	route  *rtnl.Route
	err    error
	closed int
}

func (f *fakeRouteConn) RouteGet(net.IP) (*rtnl.Route, error) {
	return f.route, f.err
}

func (f *fakeRouteConn) Close() error {
	f.closed++
	return nil
}

func TestNetlinkConnectivityFallback(t *testing.T) {
	n := &NetlinkConnectivity{
		Target:   defaultTarget,
		Fallback: StaticConnectivity(true),
		dial: func() (routeConn, error) {
			return nil, errors.New("operation not permitted")
		},
	}
	connected, err := n.Connected(context.Background())
	require.NoError(t, err)
	require.True(t, connected)

	n.Fallback = StaticConnectivity(false)
	connected, err = n.Connected(context.Background())
	require.NoError(t, err)
	require.False(t, connected)
}

func TestNetlinkConnectivityNoFallback(t *testing.T) {
	n := &NetlinkConnectivity{
		Target: defaultTarget,
		dial: func() (routeConn, error) {
			return nil, errors.New("operation not permitted")
		},
	}
	_, err := n.Connected(context.Background())
	require.ErrorContains(t, err, "can't establish netlink connection")
}

func TestNetlinkConnectivityRoutes(t *testing.T) {
	eth := &net.Interface{Name: "eth0", Flags: net.FlagUp}
	lo := &net.Interface{Name: "lo", Flags: net.FlagUp | net.FlagLoopback}
	cases := []struct {
		name string
		conn *fakeRouteConn
		want bool
	}{
		{"via eth0", &fakeRouteConn{route: &rtnl.Route{Interface: eth, Gateway: net.IPv4(192, 0, 2, 1)}}, true},
		{"via lo", &fakeRouteConn{route: &rtnl.Route{Interface: lo}}, false},
		{"no interface", &fakeRouteConn{route: &rtnl.Route{}}, false},
		{"unreachable", &fakeRouteConn{err: errors.New("network is unreachable")}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := &NetlinkConnectivity{
				Target:   defaultTarget,
				Fallback: StaticConnectivity(true),
				dial:     func() (routeConn, error) { return tc.conn, nil },
			}
			connected, err := n.Connected(context.Background())
			require.NoError(t, err)
			require.Equal(t, tc.want, connected)
			require.Equal(t, 1, tc.conn.closed)
		})
	}
}

func TestNewConnectivityAutoFallsBackToInterfaces(t *testing.T) {
	c, err := NewConnectivity(ConnectivityAuto)
	require.NoError(t, err)
	n, ok := c.(*NetlinkConnectivity)
	require.True(t, ok)
	require.Equal(t, InterfaceConnectivity{}, n.Fallback)

	c, err = NewConnectivity(ConnectivityNetlink)
	require.NoError(t, err)
	n, ok = c.(*NetlinkConnectivity)
	require.True(t, ok)
	require.Nil(t, n.Fallback)
}
