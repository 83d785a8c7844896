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

	"github.com/coreos/go-systemd/daemon"
	"github.com/facebook/clockset/ntp/client"
	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
)

var okString = color.GreenString("[ OK ]")
var warnString = color.YellowString("[WARN]")
var failString = color.RedString("[FAIL]")

// newClient builds NTP client with connectivity check picked by config
func newClient(cfg *Config, st client.Stats) (*client.Client, error) {
	connectivity, err := client.NewConnectivity(cfg.Connectivity)
	if err != nil {
		return nil, fmt.Errorf("setting up connectivity check: %w", err)
	}
	return client.New(&cfg.Config, connectivity, st), nil
}

// notify tells service manager about our status when we run under systemd
func notify(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		log.Warningf("failed to notify service manager: %v", err)
		return
	}
	if sent {
		log.Debugf("sent %q to service manager", state)
	}
}

func notifyStatus(format string, args ...interface{}) {
	notify("STATUS=" + fmt.Sprintf(format, args...))
}
