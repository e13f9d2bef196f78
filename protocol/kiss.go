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

// KissCode is the reason carried by a Kiss-o'-Death packet, mapped from the
// four-character ASCII reference identifier of a stratum 0 reply per RFC
// 5905 section 7.4.
type KissCode uint8

const (
	// KissUnknown is any code not in the RFC table, or a KoD reply whose
	// reference identifier is not the ASCII variant.
	KissUnknown KissCode = iota
	// KissAnycastServer (ACST): the association belongs to an anycast server.
	KissAnycastServer
	// KissBroadcastServer (BCST): the association belongs to a broadcast server.
	KissBroadcastServer
	// KissManycastServer (MCST): the association belongs to a manycast server.
	KissManycastServer
	// KissAuthFailed (AUTH): server authentication failed.
	KissAuthFailed
	// KissAutokeyFailed (AUTO): autokey sequence failed.
	KissAutokeyFailed
	// KissCryptoFailed (CRYP): cryptographic authentication or
	// identification failed.
	KissCryptoFailed
	// KissAccessDenied (DENY, RSTR): access denied by the remote server.
	KissAccessDenied
	// KissLostPeer (DROP): lost peer in symmetric mode.
	KissLostPeer
	// KissNotSynchronized (INIT): the association has not yet synchronized
	// for the first time.
	KissNotSynchronized
	// KissNoKey (NKEY): no key found, either never installed or not trusted.
	KissNoKey
	// KissRateExceeded (RATE): the server has temporarily denied access
	// because the client exceeded the rate threshold. The client must back
	// off.
	KissRateExceeded
	// KissRemoteTinkering (RMOT): somebody is altering the association from
	// a remote host.
	KissRemoteTinkering
	// KissStepChange (STEP): a step change in system time has occurred, but
	// the association has not yet resynchronized.
	KissStepChange
)

var kissCodes = map[string]KissCode{
	"ACST": KissAnycastServer,
	"AUTH": KissAuthFailed,
	"AUTO": KissAutokeyFailed,
	"BCST": KissBroadcastServer,
	"CRYP": KissCryptoFailed,
	"DENY": KissAccessDenied,
	"DROP": KissLostPeer,
	"RSTR": KissAccessDenied,
	"INIT": KissNotSynchronized,
	"MCST": KissManycastServer,
	"NKEY": KissNoKey,
	"RATE": KissRateExceeded,
	"RMOT": KissRemoteTinkering,
	"STEP": KissStepChange,
}

// KissCodeFromRefID classifies the reference identifier of a Kiss-o'-Death
// reply. Only the ASCII variant can match; anything else is KissUnknown.
func KissCodeFromRefID(rid ReferenceIdentifier) KissCode {
	if rid.kind != refIDASCII {
		return KissUnknown
	}
	if code, ok := kissCodes[rid.text]; ok {
		return code
	}
	return KissUnknown
}

func (k KissCode) String() string {
	switch k {
	case KissAnycastServer:
		return "association belongs to an anycast server"
	case KissBroadcastServer:
		return "association belongs to a broadcast server"
	case KissManycastServer:
		return "association belongs to a manycast server"
	case KissAuthFailed:
		return "server authentication failed"
	case KissAutokeyFailed:
		return "autokey sequence failed"
	case KissCryptoFailed:
		return "cryptographic authentication or identification failed"
	case KissAccessDenied:
		return "access denied by remote server"
	case KissLostPeer:
		return "lost peer in symmetric mode"
	case KissNotSynchronized:
		return "association has not yet synchronized for the first time"
	case KissNoKey:
		return "no key found"
	case KissRateExceeded:
		return "rate exceeded, client must reduce its polling rate"
	case KissRemoteTinkering:
		return "association is being altered from a remote host"
	case KissStepChange:
		return "step change in system time, not yet resynchronized"
	default:
		return "unknown"
	}
}
