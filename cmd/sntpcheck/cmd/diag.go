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
	"fmt"
	"math"
	"os"
	"time"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/sntp/client"
	"github.com/facebook/sntp/protocol"
)

type status int

// possible check results
const (
	OK status = iota
	WARN
	FAIL
)

// diagnoser is function that does checks on a synchronization result
type diagnoser func(r *client.Result) (status, string)

var okString = color.GreenString("[ OK ]")
var warnString = color.YellowString("[WARN]")
var failString = color.RedString("[FAIL]")

var statusToColor = []string{okString, warnString, failString}

// generic function to check value against some thresholds
func checkAgainstThreshold(name string, value, warnThreshold, failThreshold float64, explanation string) (status, string) {
	msgTemplate := "%s is %s, we expect it to be within %s%s"
	absValue := math.Abs(value)
	thresholdStr := color.BlueString("%.1fms", warnThreshold)
	if absValue > failThreshold {
		return FAIL, fmt.Sprintf(
			msgTemplate,
			name,
			color.RedString("%.3fms", value),
			thresholdStr,
			". "+explanation,
		)
	}
	if absValue > warnThreshold {
		return WARN, fmt.Sprintf(
			msgTemplate,
			name,
			color.YellowString("%.3fms", value),
			thresholdStr,
			". "+explanation,
		)
	}
	return OK, fmt.Sprintf(
		msgTemplate,
		name,
		color.GreenString("%.3fms", value),
		thresholdStr,
		"",
	)
}

func checkLeap(r *client.Result) (status, string) {
	switch r.LeapIndicator() {
	case protocol.AlarmCondition:
		return FAIL, "Server clock is not synchronized, leap indicator is set to 'alarm'"
	case protocol.NoWarning:
		return OK, "Leap indicator is set to 'none'"
	}
	return WARN, fmt.Sprintf("Leap indicator is set to '%s'", r.LeapIndicator())
}

func checkStratum(r *client.Result) (status, string) {
	stratum := r.Stratum()
	if stratum >= 16 {
		return FAIL, fmt.Sprintf("Server stratum is %s, the server clock is not synchronized", color.RedString("%d", stratum))
	}
	if stratum > 3 {
		return WARN, fmt.Sprintf("Server stratum is %s, expected a server close to a reference clock", color.YellowString("%d", stratum))
	}
	return OK, fmt.Sprintf("Server stratum is %s (synced to %s)", color.GreenString("%d", stratum), color.BlueString(r.ReferenceID().String()))
}

func checkOffset(r *client.Result) (status, string) {
	// We expect our clock difference from server to be no more than 1ms.
	// Currently there is no SLA, so it's just a warning.
	const warnThreshold = 1.0
	// If offset is > 1s something is very very wrong
	const failThreshold = 1000.0
	offset := float64(r.ClockOffset()) / float64(time.Millisecond)
	return checkAgainstThreshold(
		"Clock offset",
		offset,
		warnThreshold,
		failThreshold,
		"Offset is the difference between our clock and remote server (time error).",
	)
}

func checkDelay(r *client.Result) (status, string) {
	// 100ms of network delay makes the midpoint offset estimate unreliable.
	const warnThreshold = 100.0
	const failThreshold = 1000.0
	delay := float64(r.RoundTripDelay()) / float64(time.Millisecond)
	if delay < 0 {
		return WARN, fmt.Sprintf("Round-trip delay is %s, the clocks drifted between the request and the reply", color.YellowString("%.3fms", delay))
	}
	return checkAgainstThreshold(
		"Round-trip delay",
		delay,
		warnThreshold,
		failThreshold,
		"Delay is the time packets spent on the wire, high delay reduces measurement quality.",
	)
}

var diagnosers = []diagnoser{
	checkLeap,
	checkStratum,
	checkOffset,
	checkDelay,
}

func runDiagnosers(r *client.Result) {
	for _, check := range diagnosers {
		status, msg := check(r)
		fmt.Printf("%s %s\n", statusToColor[status], msg)
	}
}

func init() {
	RootCmd.AddCommand(diagCmd)
	diagCmd.Flags().StringVarP(&server, "server", "S", "", "server to connect to")
}

const desc = "Perform basic SNTP diagnosis against a server, report in human-readable form."

var diagCmd = &cobra.Command{
	Use:   "diag",
	Short: desc,
	Run: func(cmd *cobra.Command, args []string) {
		ConfigureVerbosity()

		if server == "" {
			log.Fatal("server is required, use -S")
		}
		cfg := client.DefaultConfig()
		cfg.Timeout = timeout
		result, err := client.NewClient(cfg).Query(server)
		if err != nil {
			if protocol.IsKissOfDeath(err) {
				fmt.Printf("%s Server sent Kiss-o'-Death: %v\n", failString, err)
				os.Exit(1)
			}
			fmt.Printf("%s Server is not reachable: %v\n", failString, err)
			os.Exit(1)
		}
		fmt.Printf("%s Server %s replied\n", okString, color.BlueString(server))
		runDiagnosers(result)
	},
}
