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
	"time"

	"github.com/facebook/sntp/protocol"
)

// Result describes the outcome of one successful synchronization. It is
// produced only by Reply.Process and never mutated afterwards.
//
// Result assumes the system clock is monotonic and stable: it stores the
// measured offset, not an absolute corrected time, so Time stays accurate
// as the local clock advances. If the clock is stepped after the
// synchronization, the offset is no longer valid.
type Result struct {
	clockOffset    float64 // seconds
	roundTripDelay float64 // seconds
	referenceID    protocol.ReferenceIdentifier
	leapIndicator  protocol.LeapIndicator
	stratum        uint8
}

// ClockOffset is the signed offset between the server clock and the local
// clock. Negative means the local clock is ahead of the server.
func (r *Result) ClockOffset() time.Duration {
	return time.Duration(r.clockOffset * float64(time.Second))
}

// RoundTripDelay is the time packets spent traveling between the host and
// the server. Expected non-negative in client mode, but not enforced.
func (r *Result) RoundTripDelay() time.Duration {
	return time.Duration(r.roundTripDelay * float64(time.Second))
}

// ReferenceID identifies the synchronization source of the server.
func (r *Result) ReferenceID() protocol.ReferenceIdentifier {
	return r.referenceID
}

// LeapIndicator is the leap second warning reported by the server.
func (r *Result) LeapIndicator() protocol.LeapIndicator {
	return r.leapIndicator
}

// Stratum is the server's distance from a primary reference clock:
// 1 is a primary server, 16 means unsynchronized.
func (r *Result) Stratum() uint8 {
	return r.stratum
}

// Time returns the current corrected time, derived lazily as local clock
// plus the measured offset. Use the returned value immediately.
func (r *Result) Time() time.Time {
	return time.Now().Add(r.ClockOffset())
}
