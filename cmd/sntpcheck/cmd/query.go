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

package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/sntp/client"
)

// queryOutput is what we print in JSON format, one object per server.
type queryOutput struct {
	Server        string  `json:"server"`
	ClockOffsetMS float64 `json:"clock_offset_ms"`
	RoundTripMS   float64 `json:"round_trip_delay_ms"`
	Stratum       uint8   `json:"stratum"`
	LeapIndicator string  `json:"leap_indicator"`
	ReferenceID   string  `json:"reference_id"`
	CorrectedTime string  `json:"corrected_time"`
}

func runQuery(c *client.Client, servers []string) error {
	var lastErr error
	for _, server := range servers {
		result, err := c.Query(server)
		if err != nil {
			log.Errorf("querying %s: %v", server, err)
			lastErr = err
			continue
		}
		out := queryOutput{
			Server:        server,
			ClockOffsetMS: float64(result.ClockOffset()) / float64(time.Millisecond),
			RoundTripMS:   float64(result.RoundTripDelay()) / float64(time.Millisecond),
			Stratum:       result.Stratum(),
			LeapIndicator: result.LeapIndicator().String(),
			ReferenceID:   result.ReferenceID().String(),
			CorrectedTime: result.Time().Format(time.RFC3339Nano),
		}
		toPrint, err := json.Marshal(out)
		if err != nil {
			return err
		}
		fmt.Println(string(toPrint))
	}
	return lastErr
}

func init() {
	RootCmd.AddCommand(queryCmd)
}

var queryCmd = &cobra.Command{
	Use:   "query <server> [server]...",
	Short: "Query SNTP servers and print the results in JSON format",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ConfigureVerbosity()

		cfg := client.DefaultConfig()
		cfg.Timeout = timeout
		if err := runQuery(client.NewClient(cfg), args); err != nil {
			log.Fatal(err)
		}
	},
}
