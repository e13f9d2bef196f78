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

package protocol

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	srcIPv4 = netip.MustParseAddr("127.0.0.1")
	srcIPv6 = netip.MustParseAddr("::1")

	// Reply from a stratum 2 server, captured off the wire.
	replyStratum2 = []byte{
		0x23, 0x02, 0x0a, 0xec, 0x00, 0x00, 0x02, 0x86, 0x00, 0x00, 0x0b, 0x33, 0xcc, 0x7b,
		0x02, 0x48, 0xc5, 0x02, 0x02, 0xac, 0x41, 0x6e, 0x15, 0x87, 0xc5, 0x02, 0x04, 0xec,
		0xee, 0xd3, 0x3c, 0x52, 0xc5, 0x02, 0x04, 0xeb, 0xd9, 0xd8, 0xd7, 0x9d, 0xc5, 0x02,
		0x04, 0xeb, 0xd9, 0xdc, 0xb5, 0x78,
	}

	// Same payload with stratum 1 and the "LOCL" reference identifier.
	replyStratum1LOCL = []byte{
		0x23, 0x01, 0x0a, 0xec, 0x00, 0x00, 0x02, 0x86, 0x00, 0x00, 0x0b, 0x33, 0x4c, 0x4f,
		0x43, 0x4c, 0xc5, 0x02, 0x02, 0xac, 0x41, 0x6e, 0x15, 0x87, 0xc5, 0x02, 0x04, 0xec,
		0xee, 0xd3, 0x3c, 0x52, 0xc5, 0x02, 0x04, 0xeb, 0xd9, 0xd8, 0xd7, 0x9d, 0xc5, 0x02,
		0x04, 0xeb, 0xd9, 0xdc, 0xb5, 0x78,
	}
)

// cloneWithByte copies a fixture and patches one byte, so fixtures stay
// pristine between tests.
func cloneWithByte(raw []byte, index int, value byte) []byte {
	out := make([]byte, len(raw))
	copy(out, raw)
	out[index] = value
	return out
}

func TestDecodePacket(t *testing.T) {
	packet, err := DecodePacket(replyStratum2, srcIPv4)
	require.NoError(t, err)

	require.Equal(t, NoWarning, packet.LeapIndicator)
	require.Equal(t, ModeClient, packet.Mode)
	require.Equal(t, uint8(2), packet.Stratum)
	require.Equal(t, IPv4RefID([4]byte{0xcc, 0x7b, 0x02, 0x48}), packet.ReferenceID)
	require.Equal(t, "204.123.2.72", packet.ReferenceID.String())

	require.Equal(t, DecodeTimestamp(replyStratum2[16:24]), packet.ReferenceTime)
	require.Equal(t, DecodeTimestamp(replyStratum2[24:32]), packet.OriginateTime)
	require.Equal(t, DecodeTimestamp(replyStratum2[32:40]), packet.ReceiveTime)
	require.Equal(t, DecodeTimestamp(replyStratum2[40:48]), packet.TransmitTime)
}

func TestDecodePacketTooShort(t *testing.T) {
	_, err := DecodePacket(replyStratum2[:16], srcIPv4)
	require.ErrorIs(t, err, ErrPacketTooShort)

	_, err = DecodePacket(nil, srcIPv4)
	require.ErrorIs(t, err, ErrPacketTooShort)
}

func TestDecodePacketWrongVersion(t *testing.T) {
	// Version 3 in bits 3-5 of byte 0.
	raw := cloneWithByte(replyStratum2, 0, 0x1a)
	_, err := DecodePacket(raw, srcIPv4)
	require.ErrorIs(t, err, ErrInvalidVersion)
}

func TestDecodePacketIllegalMode(t *testing.T) {
	// Mode 0 is reserved.
	raw := cloneWithByte(replyStratum2, 0, 0x20)
	_, err := DecodePacket(raw, srcIPv4)
	require.ErrorIs(t, err, ErrInvalidMode)
}

func TestDecodePacketLeapIndicators(t *testing.T) {
	cases := []struct {
		byte0 byte
		want  LeapIndicator
	}{
		{0x23, NoWarning},
		{0x63, LastMinuteHas59Seconds},
		{0xa3, LastMinuteHas61Seconds},
		{0xe3, AlarmCondition},
	}
	for _, tc := range cases {
		raw := cloneWithByte(replyStratum2, 0, tc.byte0)
		packet, err := DecodePacket(raw, srcIPv4)
		require.NoError(t, err)
		require.Equal(t, tc.want, packet.LeapIndicator)
	}
}

func TestDecodeASCIIRefID(t *testing.T) {
	packet, err := DecodePacket(replyStratum1LOCL, srcIPv4)
	require.NoError(t, err)
	require.Equal(t, "LOCL", packet.ReferenceID.String())
	require.False(t, packet.ReferenceID.IsEmpty())
}

func TestDecodeShortASCIIRefID(t *testing.T) {
	raw := make([]byte, len(replyStratum1LOCL))
	copy(raw, replyStratum1LOCL)
	copy(raw[12:16], []byte{'G', 'P', 'S', 0x00})

	packet, err := DecodePacket(raw, srcIPv4)
	require.NoError(t, err)
	require.Equal(t, "GPS", packet.ReferenceID.String())
}

func TestDecodeNonASCIIRefID(t *testing.T) {
	raw := make([]byte, len(replyStratum1LOCL))
	copy(raw, replyStratum1LOCL)
	copy(raw[12:16], []byte{0xff, 0xfe, 0x00, 0x00})

	_, err := DecodePacket(raw, srcIPv4)
	require.ErrorIs(t, err, ErrInvalidReferenceIdentifier)
}

func TestDecodeIPv6HashRefID(t *testing.T) {
	raw := make([]byte, len(replyStratum2))
	copy(raw, replyStratum2)
	copy(raw[12:16], []byte{0x01, 0x02, 0x03, 0x04})

	packet, err := DecodePacket(raw, srcIPv6)
	require.NoError(t, err)
	require.Equal(t, IPv6HashRefID([4]byte{0x01, 0x02, 0x03, 0x04}), packet.ReferenceID)
	require.Equal(t, "0x1020304", packet.ReferenceID.String())
}

func TestRefIDDispatchByStratumAndFamily(t *testing.T) {
	// Stratum 0 and 1 are ASCII regardless of address family.
	for _, src := range []netip.Addr{srcIPv4, srcIPv6} {
		packet, err := DecodePacket(replyStratum1LOCL, src)
		require.NoError(t, err)
		require.Equal(t, "LOCL", packet.ReferenceID.String())
	}

	// Stratum >= 2 dispatches on the source address family.
	packet, err := DecodePacket(replyStratum2, srcIPv4)
	require.NoError(t, err)
	require.Equal(t, "204.123.2.72", packet.ReferenceID.String())

	packet, err = DecodePacket(replyStratum2, srcIPv6)
	require.NoError(t, err)
	require.Equal(t, IPv6HashRefID([4]byte{0xcc, 0x7b, 0x02, 0x48}), packet.ReferenceID)
}

func TestEncodePacket(t *testing.T) {
	packet := &Packet{
		LeapIndicator: NoWarning,
		Mode:          ModeClient,
		Stratum:       0,
		ReferenceTime: DecodeTimestamp(replyStratum2[16:24]),
		OriginateTime: DecodeTimestamp(replyStratum2[24:32]),
		ReceiveTime:   DecodeTimestamp(replyStratum2[32:40]),
		TransmitTime:  DecodeTimestamp(replyStratum2[40:48]),
	}

	want := []byte{
		0x23, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0xc5, 0x02, 0x02, 0xac, 0x41, 0x6e, 0x15, 0x87, 0xc5, 0x02, 0x04, 0xec,
		0xee, 0xd3, 0x3c, 0x52, 0xc5, 0x02, 0x04, 0xeb, 0xd9, 0xd8, 0xd7, 0x9d, 0xc5, 0x02,
		0x04, 0xeb, 0xd9, 0xdc, 0xb5, 0x78,
	}
	require.Equal(t, want, packet.Bytes())
}

func TestEncodePacketNonEmptyRefIDPanics(t *testing.T) {
	refID, err := ASCIIRefID([4]byte{'a', 'b', 'c', 'd'})
	require.NoError(t, err)

	packet := &Packet{
		LeapIndicator: NoWarning,
		Mode:          ModeClient,
		ReferenceID:   refID,
	}
	require.Panics(t, func() { packet.Bytes() })
}

func TestASCIIRefIDRejectsNonASCII(t *testing.T) {
	_, err := ASCIIRefID([4]byte{'G', 'P', 0x80, 0x00})
	require.ErrorIs(t, err, ErrInvalidReferenceIdentifier)
}

func TestRefIDString(t *testing.T) {
	var empty ReferenceIdentifier
	require.True(t, empty.IsEmpty())
	require.Equal(t, "", empty.String())

	ascii, err := ASCIIRefID([4]byte{'L', 'O', 'C', 'L'})
	require.NoError(t, err)
	require.Equal(t, "LOCL", ascii.String())

	require.Equal(t, "10.0.0.1", IPv4RefID([4]byte{10, 0, 0, 1}).String())
	require.Equal(t, "0xDEADBEEF", IPv6HashRefID([4]byte{0xde, 0xad, 0xbe, 0xef}).String())
}
