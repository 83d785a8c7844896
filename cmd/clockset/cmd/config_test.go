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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testConfig = `server: time.example.com
port: 1123
timeout: 5s
dscp: 46
strict_reply: true
connectivity: always
autosync: systemd
timezone: UTC
monitoringport: 4269
exit_on_commit: true
`

func writeConfig(t *testing.T, data string) string {
	path := filepath.Join(t.TempDir(), "clockset.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "0.pool.ntp.org", cfg.Server)
	require.Equal(t, 123, cfg.Port)
	require.Equal(t, "auto", cfg.AutoSync)
	loc, err := cfg.Location()
	require.NoError(t, err)
	require.Equal(t, time.Local, loc)
}

func TestReadConfig(t *testing.T) {
	cfg, err := ReadConfig(writeConfig(t, testConfig))
	require.NoError(t, err)
	require.Equal(t, "time.example.com", cfg.Server)
	require.Equal(t, 1123, cfg.Port)
	require.Equal(t, 5*time.Second, cfg.Timeout)
	require.Equal(t, 46, cfg.DSCP)
	require.True(t, cfg.StrictReply)
	require.Equal(t, "always", cfg.Connectivity)
	require.Equal(t, "systemd", cfg.AutoSync)
	require.Equal(t, "UTC", cfg.Timezone)
	require.Equal(t, 4269, cfg.MonitoringPort)
	require.True(t, cfg.ExitOnCommit)
	require.NoError(t, cfg.Validate())
}

func TestReadConfigPartial(t *testing.T) {
	cfg, err := ReadConfig(writeConfig(t, "server: 192.0.2.1\n"))
	require.NoError(t, err)
	require.Equal(t, "192.0.2.1", cfg.Server)
	// untouched values keep defaults
	require.Equal(t, 123, cfg.Port)
	require.Equal(t, "auto", cfg.Connectivity)
}

func TestReadConfigErrors(t *testing.T) {
	_, err := ReadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = ReadConfig(writeConfig(t, "port: [1, 2]\n"))
	require.Error(t, err)
}

func TestPrepareConfig(t *testing.T) {
	path := writeConfig(t, testConfig)
	f := configFlags{
		server:  "192.0.2.7",
		timeout: time.Second,
		// not marked as set, must be ignored
		dscp: 10,
	}
	cfg, err := PrepareConfig(path, f, map[string]bool{"server": true, "timeout": true})
	require.NoError(t, err)
	require.Equal(t, "192.0.2.7", cfg.Server)
	require.Equal(t, time.Second, cfg.Timeout)
	require.Equal(t, 46, cfg.DSCP)
}

func TestPrepareConfigNoFile(t *testing.T) {
	cfg, err := PrepareConfig("", configFlags{exitOnCommit: true, monitoringPort: 8888}, map[string]bool{"exit-on-commit": true, "monitoringport": true})
	require.NoError(t, err)
	require.True(t, cfg.ExitOnCommit)
	require.Equal(t, 8888, cfg.MonitoringPort)
	require.Equal(t, "0.pool.ntp.org", cfg.Server)
}

func TestPrepareConfigInvalid(t *testing.T) {
	_, err := PrepareConfig("", configFlags{port: 70000}, map[string]bool{"port": true})
	require.ErrorContains(t, err, "port must be between")

	_, err = PrepareConfig(filepath.Join(t.TempDir(), "missing.yaml"), configFlags{}, nil)
	require.ErrorContains(t, err, "reading config")
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		modify func(*Config)
		errStr string
	}{
		{"client part", func(c *Config) { c.Server = "" }, "server must be specified"},
		{"autosync", func(c *Config) { c.AutoSync = "cron" }, "autosync must be either"},
		{"timezone", func(c *Config) { c.Timezone = "Mars/Olympus_Mons" }, "invalid timezone"},
		{"monitoringport", func(c *Config) { c.MonitoringPort = -1 }, "monitoringport must be between"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(cfg)
			require.ErrorContains(t, cfg.Validate(), tc.errStr)
		})
	}
}
