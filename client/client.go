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
	"net/netip"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/facebook/sntp/protocol"
)

// DefaultPort is the well-known NTP UDP port.
const DefaultPort = 123

// Client queries SNTP servers. It performs exactly one send/receive pair
// per attempt and never retries: backoff and retry policy belong to the
// caller, in particular after a Kiss-o'-Death rejection.
//
// Concurrent queries are safe, every attempt owns its own request/reply
// pair and socket.
type Client struct {
	cfg   *Config
	stats *JSONStats
}

// NewClient creates a Client with the given config, nil means defaults.
func NewClient(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Client{cfg: cfg, stats: NewJSONStats()}
}

// Stats exposes the client counters, e.g. to serve the monitoring endpoint.
func (c *Client) Stats() *JSONStats {
	return c.stats
}

// Query synchronizes with the server once and blocks until the reply is
// processed or the configured timeout expires.
func (c *Client) Query(server string) (*Result, error) {
	return c.QueryContext(context.Background(), server)
}

// QueryContext is Query honoring context cancellation and deadline.
func (c *Client) QueryContext(ctx context.Context, server string) (*Result, error) {
	return c.exchange(ctx, server, NewRequest())
}

// QueryWithTransmitTime stamps the request with a caller-supplied instant
// instead of the local clock. The reply arrival is still stamped from the
// local clock.
func (c *Client) QueryWithTransmitTime(ctx context.Context, server string, transmitTime time.Time) (*Result, error) {
	return c.exchange(ctx, server, NewRequestWithTransmitTime(transmitTime))
}

func (c *Client) exchange(ctx context.Context, server string, request *Request) (*Result, error) {
	addr := server
	if _, _, err := net.SplitHostPort(server); err != nil {
		addr = net.JoinHostPort(server, strconv.Itoa(DefaultPort))
	}

	dialer := net.Dialer{}
	if c.cfg.BindAddress != "" {
		laddr, err := net.ResolveUDPAddr("udp", c.cfg.BindAddress)
		if err != nil {
			return nil, fmt.Errorf("resolving bind address %q: %w", c.cfg.BindAddress, err)
		}
		dialer.LocalAddr = laddr
	}

	conn, err := dialer.DialContext(ctx, "udp", addr)
	if err != nil {
		c.stats.IncIOErrors()
		return nil, err
	}
	defer conn.Close()

	deadline := time.Now().Add(c.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		c.stats.IncIOErrors()
		return nil, err
	}

	c.stats.IncRequests()
	if _, err := conn.Write(request.Bytes()); err != nil {
		c.stats.IncIOErrors()
		return nil, err
	}

	buf := make([]byte, protocol.PacketSizeBytes)
	n, err := conn.Read(buf)
	if err != nil {
		c.stats.IncIOErrors()
		return nil, err
	}
	c.stats.IncResponses()

	// The socket is connected, so the reply can only come from the peer we
	// dialed; its address family picks the reference identifier variant.
	remote := conn.RemoteAddr().(*net.UDPAddr)
	src, ok := netip.AddrFromSlice(remote.IP)
	if !ok {
		return nil, fmt.Errorf("unexpected remote address %q", remote)
	}

	packet, err := protocol.DecodePacket(buf[:n], src)
	if err != nil {
		c.stats.IncProtocolErrors()
		return nil, err
	}
	log.Debugf("reply from %s: stratum=%d mode=%s refid=%q", remote, packet.Stratum, packet.Mode, packet.ReferenceID)

	result, err := NewReply(request, packet).Process()
	if err != nil {
		if protocol.IsKissOfDeath(err) {
			c.stats.IncKissODeath()
		} else {
			c.stats.IncProtocolErrors()
		}
		return nil, err
	}

	log.Debugf("offset=%v delay=%v stratum=%d", result.ClockOffset(), result.RoundTripDelay(), result.Stratum())
	return result, nil
}
