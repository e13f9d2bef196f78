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
	"encoding/binary"
	"fmt"
	"math/bits"
	"time"
)

// NTPEpochOffset is the difference in seconds between the NTP epoch
// (1900-01-01) and the Unix epoch (1970-01-01).
const NTPEpochOffset = 2208988800

// Timestamp is a 64-bit NTP fixed point time value: 32 bits of seconds
// since the NTP epoch and 32 bits of fraction. The 32-bit seconds field
// wraps in 2036, so the value is extended internally with an era counter,
// making comparison and subtraction across the rollover work without extra
// bookkeeping on the caller side.
//
// The zero value is the "not set" sentinel carried by the reference,
// originate and receive fields of outgoing requests. It is distinct from
// any timestamp decoded off the wire.
type Timestamp struct {
	era uint64
	raw uint64 // seconds<<32 | fraction
}

// Now returns the Timestamp of the current wall clock instant.
func Now() Timestamp {
	return TimestampFromTime(time.Now())
}

// TimestampFromTime converts a wall clock instant to a Timestamp.
func TimestampFromTime(t time.Time) Timestamp {
	secs := uint64(t.Unix()) + NTPEpochOffset
	frac := (uint64(t.Nanosecond()) << 32) / uint64(time.Second.Nanoseconds())
	return Timestamp{era: secs >> 32, raw: secs<<32 | frac}
}

// DecodeTimestamp parses 8 big-endian bytes from the wire. The era is
// derived from the top bit of the raw value per RFC 4330: values with the
// top bit set belong to the era that started in 1968, values with it clear
// to the era starting at the 2036 rollover.
func DecodeTimestamp(b []byte) Timestamp {
	raw := binary.BigEndian.Uint64(b)
	if raw&(1<<63) == 0 {
		return Timestamp{era: 1, raw: raw}
	}
	return Timestamp{era: 0, raw: raw}
}

// Encode produces the 8-byte wire form of the timestamp. Timestamps can
// only be constructed with eras 0 and 1, anything else is a programming
// error and panics.
func (t Timestamp) Encode() [8]byte {
	if t.era > 1 {
		panic(fmt.Sprintf("timestamp era %d is not encodable", t.era))
	}
	raw := t.raw
	if t.era == 1 {
		raw &= 1<<63 - 1
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], raw)
	return b
}

// IsZero reports whether the timestamp is the "not set" sentinel.
func (t Timestamp) IsZero() bool {
	return t.era == 0 && t.raw == 0
}

// Sub returns t - other as seconds. The wide unsigned values are subtracted
// in whichever order avoids underflow and the sign is applied afterwards.
// Anything below the fixed point resolution (~233 picoseconds) is lost to
// float rounding.
func (t Timestamp) Sub(other Timestamp) float64 {
	if t.less(other) {
		return -other.Sub(t)
	}
	lo, borrow := bits.Sub64(t.raw, other.raw, 0)
	hi := t.era - other.era - borrow
	return float64(hi)*(1<<32) + float64(lo)/(1<<32)
}

// Time converts the timestamp to a wall clock instant, taking the era into
// account.
func (t Timestamp) Time() time.Time {
	secs := int64(t.era<<32|t.raw>>32) - NTPEpochOffset
	nanos := ((t.raw & (1<<32 - 1)) * uint64(time.Second.Nanoseconds())) >> 32
	return time.Unix(secs, int64(nanos))
}

func (t Timestamp) less(other Timestamp) bool {
	if t.era != other.era {
		return t.era < other.era
	}
	return t.raw < other.raw
}
