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
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/facebook/sntp/client"
)

func init() {
	RootCmd.AddCommand(offsetCmd)
}

var offsetCmd = &cobra.Command{
	Use:   "offset <server>",
	Short: "Print the local clock offset against the server in milliseconds",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ConfigureVerbosity()

		cfg := client.DefaultConfig()
		cfg.Timeout = timeout
		result, err := client.NewClient(cfg).Query(args[0])
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%.3f\n", float64(result.ClockOffset())/float64(time.Millisecond))
	},
}
