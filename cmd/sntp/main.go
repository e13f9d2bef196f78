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

package main

import (
	"flag"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/facebook/sntp/client"
)

func doWork(cfg *client.Config, interval time.Duration) error {
	c := client.NewClient(cfg)
	if cfg.MonitoringPort != 0 {
		go c.Stats().Start(cfg.MonitoringPort)
	}
	for {
		var lastErr error
		for _, server := range cfg.Servers {
			result, err := c.Query(server)
			if err != nil {
				log.Errorf("querying %s: %v", server, err)
				lastErr = err
				continue
			}
			log.Infof("%s: offset=%v delay=%v stratum=%d refid=%s leap=%s",
				server, result.ClockOffset(), result.RoundTripDelay(),
				result.Stratum(), result.ReferenceID(), result.LeapIndicator())
		}
		if interval == 0 {
			return lastErr
		}
		time.Sleep(interval)
	}
}

func main() {
	var (
		verboseFlag        bool
		configFlag         string
		monitoringPortFlag int
		timeoutFlag        time.Duration
		intervalFlag       time.Duration
	)
	defaults := client.DefaultConfig()

	flag.BoolVar(&verboseFlag, "verbose", false, "verbose output")
	flag.StringVar(&configFlag, "config", "", "path to the config")
	flag.IntVar(&monitoringPortFlag, "monitoringport", defaults.MonitoringPort, "port to start monitoring http server on")
	flag.DurationVar(&timeoutFlag, "timeout", defaults.Timeout, "how long to wait for a server reply")
	flag.DurationVar(&intervalFlag, "interval", 0, "how often to repeat the queries, 0 means query once and exit")

	flag.Parse()
	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	log.SetLevel(log.InfoLevel)
	if verboseFlag {
		log.SetLevel(log.DebugLevel)
	}

	cfg := defaults
	if configFlag != "" {
		var err error
		cfg, err = client.ReadConfig(configFlag)
		if err != nil {
			log.Fatal(err)
		}
	}
	if setFlags["monitoringport"] {
		cfg.MonitoringPort = monitoringPortFlag
	}
	if setFlags["timeout"] {
		cfg.Timeout = timeoutFlag
	}
	// servers on the command line take priority over the config
	if args := flag.Args(); len(args) != 0 {
		cfg.Servers = args
	}
	if len(cfg.Servers) == 0 {
		log.Fatal("no servers to query, pass them as arguments or in the config")
	}

	if err := doWork(cfg, intervalFlag); err != nil {
		log.Fatal(err)
	}
}
