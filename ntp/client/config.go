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
	"fmt"
	"time"

	ntp "github.com/facebook/clockset/ntp/protocol"
)

// DefaultServer is the server we query if nothing else is specified
const DefaultServer = "0.pool.ntp.org"

// Config specifies Client run options
type Config struct {
	Server       string        `yaml:"server"`       // name or IPv4 address of the server
	Port         int           `yaml:"port"`         // server port
	Timeout      time.Duration `yaml:"timeout"`      // whole exchange timeout, 0 means wait forever
	DSCP         int           `yaml:"dscp"`         // DSCP for request packets
	StrictReply  bool          `yaml:"strict_reply"` // reject replies not in server mode or with stratum 0
	Connectivity string        `yaml:"connectivity"` // connectivity check mode
}

// DefaultConfig returns Config initialized with default values
func DefaultConfig() *Config {
	return &Config{
		Server:       DefaultServer,
		Port:         ntp.Port,
		Connectivity: ConnectivityAuto,
	}
}

// Validate config is sane
func (c *Config) Validate() error {
	if c.Server == "" {
		return fmt.Errorf("server must be specified")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be 0 or positive")
	}
	if c.DSCP < 0 || c.DSCP > 63 {
		return fmt.Errorf("dscp must be between 0 and 63")
	}
	switch c.Connectivity {
	case ConnectivityAuto, ConnectivityNetlink, ConnectivityInterfaces, ConnectivityAlways:
	default:
		return fmt.Errorf("connectivity must be either %q, %q, %q or %q", ConnectivityAuto, ConnectivityNetlink, ConnectivityInterfaces, ConnectivityAlways)
	}
	return nil
}
