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
	"errors"
	"fmt"
)

// Protocol errors are deterministic, derived purely from packet content and
// never retried internally. Transport failures are returned to callers
// unwrapped, so errors.Is/As against these values cleanly separates the two.
var (
	// ErrPacketTooShort means the server reply had fewer than 48 bytes.
	ErrPacketTooShort = errors.New("server reply packet is too short")
	// ErrInvalidVersion means the server reply is not an NTPv4 packet.
	ErrInvalidVersion = errors.New("server reply packet has unsupported version")
	// ErrInvalidLeapIndicator means the leap indicator field is out of range.
	ErrInvalidLeapIndicator = errors.New("server reply packet contains invalid leap indicator")
	// ErrInvalidMode means the mode field is not client, server or broadcast.
	ErrInvalidMode = errors.New("server reply packet contains invalid mode")
	// ErrInvalidOriginateTimestamp means the reply does not match the
	// transmit timestamp of the request it is supposed to answer.
	ErrInvalidOriginateTimestamp = errors.New("server reply contains invalid originate timestamp")
	// ErrInvalidTransmitTimestamp means the reply carries an unset transmit
	// timestamp.
	ErrInvalidTransmitTimestamp = errors.New("server reply contains invalid transmit timestamp")
	// ErrInvalidReferenceIdentifier means the reference identifier field of
	// a stratum 0/1 reply contains non-ASCII bytes.
	ErrInvalidReferenceIdentifier = errors.New("server reply contains invalid reference identifier")
)

// KissError is the rejection reported when a server answers with a
// Kiss-o'-Death packet (stratum 0). The server explicitly refused service;
// the code says why. Reacting to it (backing off, ceasing queries) is up to
// the caller.
type KissError struct {
	Code KissCode
}

func (e *KissError) Error() string {
	return fmt.Sprintf("kiss-o'-death packet received: %s", e.Code)
}

// IsKissOfDeath reports whether err is a Kiss-o'-Death rejection. KoD
// generally means the client should stop sending requests to the server,
// so callers often want to check for it directly.
func IsKissOfDeath(err error) bool {
	var kiss *KissError
	return errors.As(err, &kiss)
}
