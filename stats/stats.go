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

// Package stats re-exports the client JSON monitoring counters in
// prometheus format.
package stats

import (
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// FetchCounters returns counters fetched from the client monitoring
// endpoint at url.
func FetchCounters(url string) (map[string]int64, error) {
	c := http.Client{
		Timeout: time.Second * 2,
	}

	resp, err := c.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	counters := make(map[string]int64)
	err = json.Unmarshal(b, &counters)

	return counters, err
}
