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
Package protocol implements the SNTPv4 client wire format per RFC 4330:
the 48-byte packet codec, the era-aware NTP timestamp and the kiss code
classification.

	 0                   1                   2                   3
	 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	|LI | VN  |Mode |    Stratum     |     Poll      |  Precision    |
	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	|                         Root Delay                            |
	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	|                         Root Dispersion                       |
	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	|                          Reference ID                         |
	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	|                     Reference Timestamp (64)                  |
	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	|                      Originate Timestamp (64)                 |
	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	|                      Receive Timestamp (64)                   |
	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
	|                      Transmit Timestamp (64)                  |
	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+

Poll, precision, root delay and root dispersion are not modeled: zero on
encode, ignored on decode.
*/
package protocol

import (
	"encoding/binary"
	"fmt"
	"net/netip"
	"strings"
)

// PacketSizeBytes is the size of an SNTPv4 packet.
const PacketSizeBytes = 48

// versionConstant is NTP version 4 shifted into bits 3-5 of byte 0.
const versionConstant = 0x20

// LeapIndicator warns of an impending leap second to be inserted or deleted
// in the last minute of the current day. The warning is set before 23:59 on
// the day of insertion and reset after 00:00 on the following day.
type LeapIndicator uint8

const (
	// NoWarning means no leap second is pending.
	NoWarning LeapIndicator = iota
	// LastMinuteHas61Seconds means a second will be inserted.
	LastMinuteHas61Seconds
	// LastMinuteHas59Seconds means a second will be deleted.
	LastMinuteHas59Seconds
	// AlarmCondition means the server clock is not synchronized.
	AlarmCondition
)

// The wire mapping is not the declaration order: raw 1 is "59 seconds" and
// raw 2 is "61 seconds" per RFC 4330 section 4.
func leapIndicatorFromWire(raw uint8) (LeapIndicator, error) {
	switch raw {
	case 0:
		return NoWarning, nil
	case 1:
		return LastMinuteHas59Seconds, nil
	case 2:
		return LastMinuteHas61Seconds, nil
	case 3:
		return AlarmCondition, nil
	default:
		return 0, ErrInvalidLeapIndicator
	}
}

func (li LeapIndicator) wire() uint8 {
	switch li {
	case LastMinuteHas59Seconds:
		return 1
	case LastMinuteHas61Seconds:
		return 2
	case AlarmCondition:
		return 3
	default:
		return 0
	}
}

func (li LeapIndicator) String() string {
	switch li {
	case NoWarning:
		return "NoWarning"
	case LastMinuteHas61Seconds:
		return "LastMinuteHas61Seconds"
	case LastMinuteHas59Seconds:
		return "LastMinuteHas59Seconds"
	case AlarmCondition:
		return "AlarmCondition"
	default:
		return fmt.Sprintf("LeapIndicator(%d)", uint8(li))
	}
}

// Mode is the protocol mode from bits 0-2 of byte 0. Only the client,
// server and broadcast modes of the SNTP subset are accepted.
type Mode uint8

// Valid modes.
const (
	ModeClient    Mode = 3
	ModeServer    Mode = 4
	ModeBroadcast Mode = 5
)

func modeFromWire(raw uint8) (Mode, error) {
	switch m := Mode(raw); m {
	case ModeClient, ModeServer, ModeBroadcast:
		return m, nil
	default:
		return 0, ErrInvalidMode
	}
}

func (m Mode) String() string {
	switch m {
	case ModeClient:
		return "Client"
	case ModeServer:
		return "Server"
	case ModeBroadcast:
		return "Broadcast"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

type refIDKind uint8

const (
	refIDEmpty refIDKind = iota
	refIDASCII
	refIDAddr
	refIDHash
)

// ReferenceIdentifier identifies the particular time source of a server.
//
//   - For primary servers (stratum 1) and Kiss-o'-Death packets (stratum 0)
//     it is a four-character ASCII code such as "GPS " or "LOCL".
//   - For IPv4 secondary servers it is the IPv4 address of the
//     synchronization source.
//   - For IPv6 secondary servers it is the first 32 bits of the MD5 hash of
//     the source IPv6 address.
//
// The zero value is the empty identifier carried by outgoing requests.
type ReferenceIdentifier struct {
	kind refIDKind
	text string
	addr netip.Addr
	hash uint32
}

// ASCIIRefID builds the ASCII variant. Short codes are NUL-padded on the
// wire, so trailing NULs are trimmed. Fails if any byte is not ASCII.
func ASCIIRefID(raw [4]byte) (ReferenceIdentifier, error) {
	for _, b := range raw {
		if b > 0x7f {
			return ReferenceIdentifier{}, ErrInvalidReferenceIdentifier
		}
	}
	text := strings.TrimRight(string(raw[:]), "\x00")
	return ReferenceIdentifier{kind: refIDASCII, text: text}, nil
}

// IPv4RefID builds the IPv4 address variant.
func IPv4RefID(raw [4]byte) ReferenceIdentifier {
	return ReferenceIdentifier{kind: refIDAddr, addr: netip.AddrFrom4(raw)}
}

// IPv6HashRefID builds the IPv6 hash variant from the big-endian leading
// bits of the hash.
func IPv6HashRefID(raw [4]byte) ReferenceIdentifier {
	return ReferenceIdentifier{kind: refIDHash, hash: binary.BigEndian.Uint32(raw[:])}
}

// IsEmpty reports whether this is the empty identifier. Only outgoing
// requests carry it.
func (r ReferenceIdentifier) IsEmpty() bool {
	return r.kind == refIDEmpty
}

func (r ReferenceIdentifier) String() string {
	switch r.kind {
	case refIDASCII:
		return r.text
	case refIDAddr:
		return r.addr.String()
	case refIDHash:
		return fmt.Sprintf("0x%X", r.hash)
	default:
		return ""
	}
}

// Packet is a decoded SNTPv4 packet. It is the immutable unit of exchange:
// built once for a request or decoded once from a reply, never mutated.
type Packet struct {
	LeapIndicator LeapIndicator
	Mode          Mode
	Stratum       uint8
	ReferenceID   ReferenceIdentifier
	ReferenceTime Timestamp
	OriginateTime Timestamp
	ReceiveTime   Timestamp
	TransmitTime  Timestamp
}

// DecodePacket parses a server reply. The bytes alone do not determine how
// the reference identifier field is read: stratum 0 and 1 replies carry an
// ASCII code, secondary servers carry an IPv4 address or an IPv6 hash
// depending on the address family the reply arrived from, which is why the
// source address is required.
func DecodePacket(data []byte, src netip.Addr) (*Packet, error) {
	if len(data) < PacketSizeBytes {
		return nil, ErrPacketTooShort
	}

	if version := (data[0] >> 3) & 0x07; version != 4 {
		return nil, ErrInvalidVersion
	}

	li, err := leapIndicatorFromWire(data[0] >> 6)
	if err != nil {
		return nil, err
	}
	mode, err := modeFromWire(data[0] & 0x07)
	if err != nil {
		return nil, err
	}
	stratum := data[1]

	var rawRefID [4]byte
	copy(rawRefID[:], data[12:16])

	var refID ReferenceIdentifier
	switch {
	case stratum == 0 || stratum == 1:
		refID, err = ASCIIRefID(rawRefID)
		if err != nil {
			return nil, err
		}
	case src.Is4() || src.Is4In6():
		refID = IPv4RefID(rawRefID)
	default:
		refID = IPv6HashRefID(rawRefID)
	}

	return &Packet{
		LeapIndicator: li,
		Mode:          mode,
		Stratum:       stratum,
		ReferenceID:   refID,
		ReferenceTime: DecodeTimestamp(data[16:24]),
		OriginateTime: DecodeTimestamp(data[24:32]),
		ReceiveTime:   DecodeTimestamp(data[32:40]),
		TransmitTime:  DecodeTimestamp(data[40:48]),
	}, nil
}

// Bytes encodes an outgoing request. Poll, precision, root delay and root
// dispersion are left zero and requests never populate the reference
// identifier field: encoding a packet with a non-empty one is a programming
// error, not a runtime input, and panics.
func (p *Packet) Bytes() []byte {
	if !p.ReferenceID.IsEmpty() {
		panic("reference identifier must be empty in client packets")
	}

	b := make([]byte, PacketSizeBytes)
	b[0] = p.LeapIndicator.wire()<<6 | versionConstant | uint8(p.Mode)
	b[1] = p.Stratum

	reference := p.ReferenceTime.Encode()
	originate := p.OriginateTime.Encode()
	receive := p.ReceiveTime.Encode()
	transmit := p.TransmitTime.Encode()
	copy(b[16:24], reference[:])
	copy(b[24:32], originate[:])
	copy(b[32:40], receive[:])
	copy(b[40:48], transmit[:])

	return b
}
