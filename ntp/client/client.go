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

/*
Package client implements a single-shot NTP client.
Every call to FetchNetworkTime opens one UDP socket, does exactly one
request/response exchange with the configured server and closes the socket.
*/
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	log "github.com/sirupsen/logrus"

	ntp "github.com/facebook/clockset/ntp/protocol"
)

// errors returned by FetchNetworkTime. Malformed replies are reported with ntp.ErrMalformedReply
var (
	ErrNotConnected     = errors.New("not connected to the internet")
	ErrResolutionFailed = errors.New("failed to resolve server")
	ErrConnectFailed    = errors.New("failed to connect to server")
	ErrSendFailed       = errors.New("failed to send request")
	ErrReceiveFailed    = errors.New("failed to receive reply")
)

// counters we report
const (
	counterRequests  = "client.requests"
	counterResponses = "client.responses"
	counterErrors    = "client.errors."
)

// Resolver looks up IPv4 address of the server
type Resolver interface {
	LookupIPv4(ctx context.Context, host string) (net.IP, error)
}

// Conn describes what functionality we expect from connected UDP socket
type Conn interface {
	Read(b []byte) (int, error)
	Write(b []byte) (int, error)
	SetDeadline(t time.Time) error
	RemoteAddr() net.Addr
	Close() error
}

// Dialer opens UDP socket and connects it to the server
type Dialer interface {
	Dial(ctx context.Context, raddr *net.UDPAddr) (Conn, error)
}

// Stats is what client reports to
type Stats interface {
	UpdateCounterBy(key string, count int64)
	AddRoundTrip(d time.Duration)
}

type noopStats struct{}

func (noopStats) UpdateCounterBy(string, int64) {}
func (noopStats) AddRoundTrip(time.Duration)    {}

// Result is the outcome of successful network time fetch
type Result struct {
	// Server is the name we were asked to query
	Server string
	// Addr is the address we actually talked to
	Addr net.Addr
	// Seconds is the server transmit time in seconds since Unix epoch
	Seconds int64
	// Time is Seconds as time.Time
	Time time.Time
	// RoundTrip is the time between sending request and receiving reply
	RoundTrip time.Duration
	// Packet is the decoded reply
	Packet *ntp.Packet
}

// Client fetches time from a single NTP server
type Client struct {
	cfg *Config

	Connectivity Connectivity
	Resolver     Resolver
	Dialer       Dialer
	Stats        Stats

	// local clock used to stamp requests
	now func() time.Time
}

// New initializes new NTP client
func New(cfg *Config, connectivity Connectivity, stats Stats) *Client {
	if stats == nil {
		stats = noopStats{}
	}
	return &Client{
		cfg:          cfg,
		Connectivity: connectivity,
		Resolver:     &NetResolver{Resolver: net.DefaultResolver},
		Dialer:       &UDPDialer{DSCP: cfg.DSCP},
		Stats:        stats,
		now:          time.Now,
	}
}

// FetchNetworkTime asks the server what time it is.
// Returned error wraps one of the Err* sentinels or ntp.ErrMalformedReply.
func (c *Client) FetchNetworkTime(ctx context.Context) (*Result, error) {
	c.Stats.UpdateCounterBy(counterRequests, 1)
	res, err := c.fetch(ctx)
	if err != nil {
		c.Stats.UpdateCounterBy(counterErrors+errorKind(err), 1)
		return nil, err
	}
	c.Stats.UpdateCounterBy(counterResponses, 1)
	c.Stats.AddRoundTrip(res.RoundTrip)
	return res, nil
}

func (c *Client) fetch(ctx context.Context) (*Result, error) {
	connected, err := c.Connectivity.Connected(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotConnected, err)
	}
	if !connected {
		return nil, ErrNotConnected
	}

	log.Debugf("resolving %s", c.cfg.Server)
	ip, err := c.Resolver.LookupIPv4(ctx, c.cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrResolutionFailed, c.cfg.Server, err)
	}
	raddr := &net.UDPAddr{IP: ip, Port: c.cfg.Port}

	log.Debugf("connecting to %s (%v)", c.cfg.Server, raddr)
	conn, err := c.Dialer.Dial(ctx, raddr)
	if err != nil {
		return nil, fmt.Errorf("%w %v: %w", ErrConnectFailed, raddr, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Warningf("failed to close connection to %v: %v", raddr, err)
		}
	}()

	if deadline, ok := c.deadline(ctx); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, fmt.Errorf("%w %v: setting deadline: %w", ErrConnectFailed, raddr, err)
		}
	}

	request, err := ntp.EncodeRequest(c.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	sent := c.now()
	n, err := conn.Write(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	if n != len(request) {
		return nil, fmt.Errorf("%w: wrote %d of %d bytes", ErrSendFailed, n, len(request))
	}
	log.Debugf("sent time request to %v, waiting for response", raddr)

	buf := make([]byte, ntp.PacketSizeBytes)
	n, err = conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReceiveFailed, err)
	}
	if n < ntp.PacketSizeBytes {
		return nil, fmt.Errorf("%w: got %d of %d bytes", ErrReceiveFailed, n, ntp.PacketSizeBytes)
	}
	rtt := c.now().Sub(sent)

	reply, err := ntp.DecodeReply(buf[:n])
	if err != nil {
		return nil, err
	}
	if c.cfg.StrictReply {
		if err := reply.ValidateReply(); err != nil {
			return nil, err
		}
	}

	seconds := ntp.ToSystemEpoch(reply.TxTimeSec)
	res := &Result{
		Server:    c.cfg.Server,
		Addr:      conn.RemoteAddr(),
		Seconds:   seconds,
		Time:      time.Unix(seconds, 0),
		RoundTrip: rtt,
		Packet:    reply,
	}
	log.Debugf("time received from %s: %v (stratum %d, rtt %v)", c.cfg.Server, res.Time.UTC(), reply.Stratum, rtt)
	return res, nil
}

// deadline picks the earliest of configured timeout and context deadline.
// Zero timeout means we block until the reply arrives.
func (c *Client) deadline(ctx context.Context) (time.Time, bool) {
	deadline, ok := ctx.Deadline()
	if c.cfg.Timeout > 0 {
		t := c.now().Add(c.cfg.Timeout)
		if !ok || t.Before(deadline) {
			return t, true
		}
	}
	return deadline, ok
}

// errorKind maps error to a short name used in counters
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrNotConnected):
		return "not_connected"
	case errors.Is(err, ErrResolutionFailed):
		return "resolution"
	case errors.Is(err, ErrConnectFailed):
		return "connect"
	case errors.Is(err, ErrSendFailed):
		return "send"
	case errors.Is(err, ErrReceiveFailed):
		return "receive"
	case errors.Is(err, ntp.ErrMalformedReply):
		return "malformed"
	}
	return "other"
}
