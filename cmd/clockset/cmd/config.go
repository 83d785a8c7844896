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
	"os"
	"time"

	"github.com/facebook/clockset/clock"
	"github.com/facebook/clockset/ntp/client"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v2"
)

// Config is clockset configuration
type Config struct {
	client.Config  `yaml:",inline"`
	AutoSync       string `yaml:"autosync"`
	Timezone       string `yaml:"timezone"`
	MonitoringPort int    `yaml:"monitoringport"`
	ExitOnCommit   bool   `yaml:"exit_on_commit"`
}

// DefaultConfig returns Config initialized with default values
func DefaultConfig() *Config {
	return &Config{
		Config:   *client.DefaultConfig(),
		AutoSync: clock.AutoSyncAuto,
	}
}

// Validate config is sane
func (c *Config) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	switch c.AutoSync {
	case clock.AutoSyncAuto, clock.AutoSyncTimedated, clock.AutoSyncOff:
	default:
		return fmt.Errorf("autosync must be either %q, %q or %q", clock.AutoSyncAuto, clock.AutoSyncTimedated, clock.AutoSyncOff)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}
	if c.MonitoringPort < 0 || c.MonitoringPort > 65535 {
		return fmt.Errorf("monitoringport must be between 0 and 65535")
	}
	return nil
}

// Location returns configured timezone, local one if not set
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// ReadConfig reads config from the file
func ReadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	cData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(cData, &c)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// configFlags holds values of config-related CLI flags
type configFlags struct {
	server         string
	port           int
	timeout        time.Duration
	dscp           int
	strictReply    bool
	connectivity   string
	autoSync       string
	timezone       string
	monitoringPort int
	exitOnCommit   bool
}

// changedFlags returns names of flags user explicitly set
func changedFlags(c *cobra.Command) map[string]bool {
	setFlags := map[string]bool{}
	for _, name := range []string{"server", "port", "timeout", "dscp", "strict", "connectivity", "autosync", "timezone", "monitoringport", "exit-on-commit"} {
		if f := c.Flags().Lookup(name); f != nil && f.Changed {
			setFlags[name] = true
		}
	}
	return setFlags
}

// PrepareConfig prepares final version of config based on defaults, CLI flags and on-disk config, and validates resulting config
func PrepareConfig(cfgPath string, f configFlags, setFlags map[string]bool) (*Config, error) {
	cfg := DefaultConfig()
	var err error
	warn := func(name string) {
		log.Warningf("overriding %s from CLI flag", name)
	}
	if cfgPath != "" {
		cfg, err = ReadConfig(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("reading config from %q: %w", cfgPath, err)
		}
	}
	if setFlags["server"] {
		warn("server")
		cfg.Server = f.server
	}
	if setFlags["port"] {
		warn("port")
		cfg.Port = f.port
	}
	if setFlags["timeout"] {
		warn("timeout")
		cfg.Timeout = f.timeout
	}
	if setFlags["dscp"] {
		warn("dscp")
		cfg.DSCP = f.dscp
	}
	if setFlags["strict"] {
		warn("strict_reply")
		cfg.StrictReply = f.strictReply
	}
	if setFlags["connectivity"] {
		warn("connectivity")
		cfg.Connectivity = f.connectivity
	}
	if setFlags["autosync"] {
		warn("autosync")
		cfg.AutoSync = f.autoSync
	}
	if setFlags["timezone"] {
		warn("timezone")
		cfg.Timezone = f.timezone
	}
	if setFlags["monitoringport"] {
		warn("monitoringport")
		cfg.MonitoringPort = f.monitoringPort
	}
	if setFlags["exit-on-commit"] {
		warn("exit_on_commit")
		cfg.ExitOnCommit = f.exitOnCommit
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	log.Debugf("config: %+v", cfg)
	return cfg, nil
}

// loadConfig is a shortcut for subcommands
func loadConfig(c *cobra.Command) (*Config, error) {
	return PrepareConfig(cfgPath, flags, changedFlags(c))
}
