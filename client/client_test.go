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
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/facebook/sntp/protocol"
)

// startFakeServer runs a UDP server on localhost that answers every packet
// through handler. A nil reply from handler drops the request.
func startFakeServer(t *testing.T, handler func(request []byte) []byte) string {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	go func() {
		buf := make([]byte, 128)
		for {
			n, addr, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			if reply := handler(buf[:n]); reply != nil {
				_, _ = conn.WriteToUDP(reply, addr)
			}
		}
	}()
	return conn.LocalAddr().String()
}

// validReply echoes the request transmit timestamp into the originate field
// and stamps receive/transmit from the local clock, like a stratum 1 server
// with zero processing time would.
func validReply(request []byte) []byte {
	reply := make([]byte, protocol.PacketSizeBytes)
	reply[0] = 0x24 // LI 0, version 4, mode server
	reply[1] = 1
	copy(reply[12:16], "LOCL")
	copy(reply[24:32], request[40:48])
	now := protocol.TimestampFromTime(time.Now()).Encode()
	copy(reply[32:40], now[:])
	copy(reply[40:48], now[:])
	return reply
}

func TestClientQuery(t *testing.T) {
	addr := startFakeServer(t, validReply)

	c := NewClient(nil)
	result, err := c.Query(addr)
	require.NoError(t, err)

	require.Equal(t, uint8(1), result.Stratum())
	require.Equal(t, "LOCL", result.ReferenceID().String())
	require.Equal(t, protocol.NoWarning, result.LeapIndicator())
	// Loopback against the same clock: both values must be tiny.
	require.Less(t, result.ClockOffset().Abs(), time.Second)
	require.Less(t, result.RoundTripDelay().Abs(), time.Second)

	require.Equal(t, int64(1), c.stats.requests)
	require.Equal(t, int64(1), c.stats.responses)
	require.Equal(t, int64(0), c.stats.protocolErrors)
}

func TestClientQueryKissODeath(t *testing.T) {
	addr := startFakeServer(t, func(request []byte) []byte {
		reply := validReply(request)
		reply[1] = 0
		copy(reply[12:16], "RATE")
		return reply
	})

	c := NewClient(nil)
	_, err := c.Query(addr)
	require.Error(t, err)
	require.True(t, protocol.IsKissOfDeath(err))
	require.Equal(t, int64(1), c.stats.kissODeath)
}

func TestClientQueryBadVersion(t *testing.T) {
	addr := startFakeServer(t, func(request []byte) []byte {
		reply := validReply(request)
		reply[0] = 0x1c // version 3, mode server
		return reply
	})

	c := NewClient(nil)
	_, err := c.Query(addr)
	require.ErrorIs(t, err, protocol.ErrInvalidVersion)
	require.Equal(t, int64(1), c.stats.protocolErrors)
}

func TestClientQueryOriginateMismatch(t *testing.T) {
	addr := startFakeServer(t, func(request []byte) []byte {
		reply := validReply(request)
		// Corrupt the echoed originate timestamp.
		reply[31] ^= 0xff
		return reply
	})

	c := NewClient(nil)
	_, err := c.Query(addr)
	require.ErrorIs(t, err, protocol.ErrInvalidOriginateTimestamp)
}

func TestClientQueryTimeout(t *testing.T) {
	addr := startFakeServer(t, func([]byte) []byte { return nil })

	c := NewClient(&Config{BindAddress: "0.0.0.0:0", Timeout: 100 * time.Millisecond})
	_, err := c.Query(addr)
	require.Error(t, err)

	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	require.True(t, netErr.Timeout())
	require.Equal(t, int64(1), c.stats.ioErrors)
}

func TestClientQueryContextDeadline(t *testing.T) {
	addr := startFakeServer(t, func([]byte) []byte { return nil })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := NewClient(nil) // default 3s timeout, the context must win
	start := time.Now()
	_, err := c.QueryContext(ctx, addr)
	require.Error(t, err)
	require.Less(t, time.Since(start), time.Second)
}

func TestClientQueryWithTransmitTime(t *testing.T) {
	addr := startFakeServer(t, validReply)

	c := NewClient(nil)
	result, err := c.QueryWithTransmitTime(context.Background(), addr, time.Now())
	require.NoError(t, err)
	require.Equal(t, uint8(1), result.Stratum())
}

func TestClientQueryDefaultPort(t *testing.T) {
	// No server behind it, just verifying the address handling: a bare host
	// must get the NTP port attached rather than fail to dial.
	c := NewClient(&Config{BindAddress: "0.0.0.0:0", Timeout: 50 * time.Millisecond})
	_, err := c.Query("127.0.0.1")
	require.Error(t, err)

	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
}
