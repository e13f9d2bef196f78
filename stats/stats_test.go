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

package stats

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchCounters(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"requests": 42, "responses": 41, "kissodeath": 1}`)
	}))
	defer ts.Close()

	counters, err := FetchCounters(ts.URL)
	require.NoError(t, err)
	require.Equal(t, int64(42), counters["requests"])
	require.Equal(t, int64(41), counters["responses"])
	require.Equal(t, int64(1), counters["kissodeath"])
}

func TestFetchCountersBadJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `not json`)
	}))
	defer ts.Close()

	_, err := FetchCounters(ts.URL)
	require.Error(t, err)
}

func TestFetchCountersUnreachable(t *testing.T) {
	_, err := FetchCounters("http://localhost:1")
	require.Error(t, err)
}

func TestFlattenKey(t *testing.T) {
	require.Equal(t, "requests", flattenKey("requests"))
	require.Equal(t, "sntp_protocol_errors", flattenKey("sntp.protocol-errors"))
	require.Equal(t, "a_b_c_d_e", flattenKey("a b.c-d/e"))
}
