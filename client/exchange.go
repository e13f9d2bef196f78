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
Package client implements SNTP synchronization on top of the protocol
package: building requests, validating replies and computing clock offset
and round trip delay, plus a blocking UDP client that drives one
request/reply exchange per attempt.
*/
package client

import (
	"time"

	"github.com/facebook/sntp/protocol"
)

// Request is an outgoing client packet: mode client, stratum 0, empty
// reference identifier and only the transmit timestamp populated. A request
// belongs to a single exchange; build a fresh one for every attempt.
type Request struct {
	packet protocol.Packet
}

// NewRequest builds a request stamped with the current wall clock instant.
func NewRequest() *Request {
	return NewRequestWithTransmitTime(time.Now())
}

// NewRequestWithTransmitTime stamps the request with the supplied instant
// instead of sampling the clock. Used by tests and by callers that
// synchronize against their own time baseline.
func NewRequestWithTransmitTime(transmitTime time.Time) *Request {
	return &Request{
		packet: protocol.Packet{
			LeapIndicator: protocol.NoWarning,
			Mode:          protocol.ModeClient,
			Stratum:       0,
			TransmitTime:  protocol.TimestampFromTime(transmitTime),
		},
	}
}

// Bytes returns the 48-byte wire form of the request.
func (r *Request) Bytes() []byte {
	return r.packet.Bytes()
}

// Reply pairs a request with the packet received in response and the local
// instant the response arrived.
type Reply struct {
	request protocol.Packet
	reply   *protocol.Packet
	arrival protocol.Timestamp
}

// NewReply captures the arrival instant from the wall clock.
func NewReply(request *Request, reply *protocol.Packet) *Reply {
	return NewReplyWithArrivalTime(request, reply, time.Now())
}

// NewReplyWithArrivalTime uses the supplied arrival instant instead.
func NewReplyWithArrivalTime(request *Request, reply *protocol.Packet, arrival time.Time) *Reply {
	return &Reply{
		request: request.packet,
		reply:   reply,
		arrival: protocol.TimestampFromTime(arrival),
	}
}

func (r *Reply) validate() error {
	// Stratum 0 is a Kiss-o'-Death: the server explicitly refused service.
	// Report it first so the kiss code reaches the caller even when other
	// fields are malformed too.
	if r.reply.Stratum == 0 {
		return &protocol.KissError{Code: protocol.KissCodeFromRefID(r.reply.ReferenceID)}
	}

	// The reply must echo our transmit timestamp, otherwise it answers some
	// other request (crosstalk or spoofing).
	if r.reply.OriginateTime != r.request.TransmitTime {
		return protocol.ErrInvalidOriginateTimestamp
	}

	if r.reply.TransmitTime.IsZero() {
		return protocol.ErrInvalidTransmitTimestamp
	}

	if r.reply.Mode != protocol.ModeServer && r.reply.Mode != protocol.ModeBroadcast {
		return protocol.ErrInvalidMode
	}
	return nil
}

// Process validates the pairing and computes the synchronization result
// from the four protocol timestamps: T1 request transmit, T2 server
// receive, T3 server transmit, T4 local arrival.
//
// Round trip delay can come out negative if server timestamps are
// inconsistent; it is passed through uninterpreted.
func (r *Reply) Process() (*Result, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}

	t1 := r.reply.OriginateTime
	t2 := r.reply.ReceiveTime
	t3 := r.reply.TransmitTime
	t4 := r.arrival

	delay := t4.Sub(t1) - t3.Sub(t2)
	offset := (t2.Sub(t1) + t3.Sub(t4)) / 2

	return &Result{
		clockOffset:    offset,
		roundTripDelay: delay,
		referenceID:    r.reply.ReferenceID,
		leapIndicator:  r.reply.LeapIndicator,
		stratum:        r.reply.Stratum,
	}, nil
}
