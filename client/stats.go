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
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

// JSONStats counts client activity and reports it as JSON over an http
// interface. This is a passive implementation, only Start needs to be
// called.
type JSONStats struct {
	// keep these aligned to 64-bit for sync/atomic
	requests       int64
	responses      int64
	protocolErrors int64
	ioErrors       int64
	kissODeath     int64
}

// NewJSONStats returns a new JSONStats
func NewJSONStats() *JSONStats {
	return &JSONStats{}
}

// toMap converts struct to a map
func (j *JSONStats) toMap() (export map[string]int64) {
	export = make(map[string]int64)

	export["requests"] = atomic.LoadInt64(&j.requests)
	export["responses"] = atomic.LoadInt64(&j.responses)
	export["protocolerrors"] = atomic.LoadInt64(&j.protocolErrors)
	export["ioerrors"] = atomic.LoadInt64(&j.ioErrors)
	export["kissodeath"] = atomic.LoadInt64(&j.kissODeath)

	return export
}

// handleRequest is a handler used for all http monitoring requests
func (j *JSONStats) handleRequest(w http.ResponseWriter, _ *http.Request) {
	js, err := json.Marshal(j.toMap())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err = w.Write(js); err != nil {
		log.Errorf("Failed to reply: %v", err)
	}
}

// Start serves the counters over http on the given port. Blocks.
func (j *JSONStats) Start(port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", j.handleRequest)
	addr := fmt.Sprintf(":%d", port)
	log.Debugf("Starting http json server on %s", addr)
	err := http.ListenAndServe(addr, mux)
	if err != nil {
		log.Errorf("Failed to start listener: %v", err)
	}
}

// IncRequests atomically add 1 to the counter
func (j *JSONStats) IncRequests() {
	atomic.AddInt64(&j.requests, 1)
}

// IncResponses atomically add 1 to the counter
func (j *JSONStats) IncResponses() {
	atomic.AddInt64(&j.responses, 1)
}

// IncProtocolErrors atomically add 1 to the counter
func (j *JSONStats) IncProtocolErrors() {
	atomic.AddInt64(&j.protocolErrors, 1)
}

// IncIOErrors atomically add 1 to the counter
func (j *JSONStats) IncIOErrors() {
	atomic.AddInt64(&j.ioErrors, 1)
}

// IncKissODeath atomically add 1 to the counter
func (j *JSONStats) IncKissODeath() {
	atomic.AddInt64(&j.kissODeath, 1)
}
