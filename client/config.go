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
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Config specifies client run options
type Config struct {
	BindAddress    string        `yaml:"bind_address"`    // local UDP address to send/receive from, "0.0.0.0:0" picks a port automatically
	Timeout        time.Duration `yaml:"timeout"`         // how long to wait for the server reply
	Servers        []string      `yaml:"servers"`         // servers to query, host or host:port
	MonitoringPort int           `yaml:"monitoring_port"` // where to serve JSON monitoring counters, 0 disables
}

// DefaultConfig returns Config initialized with default values. The IPv4
// wildcard bind address keeps compatibility with IPv4-only setups; set an
// IPv6 bind address to talk to IPv6 servers.
func DefaultConfig() *Config {
	return &Config{
		BindAddress: "0.0.0.0:0",
		Timeout:     3 * time.Second,
	}
}

// ReadConfig reads config from the file
func ReadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	cData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(cData, c)
	if err != nil {
		return nil, err
	}

	return c, nil
}
