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

package clock

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
)

// AutoSync modes
const (
	AutoSyncAuto      = "auto"
	AutoSyncTimedated = "systemd"
	AutoSyncOff       = "off"
)

// AutoSync reports whether the host keeps its clock in sync on its own
type AutoSync interface {
	Enabled(ctx context.Context) (bool, error)
}

// StaticAutoSync always reports the same answer
type StaticAutoSync bool

// Enabled implements AutoSync
func (s StaticAutoSync) Enabled(context.Context) (bool, error) {
	return bool(s), nil
}

// CommandRunner runs external command and returns its stdout
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("running %s: %w (%s)", name, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

const timedatectl = "timedatectl"

// TimedatedAutoSync asks systemd-timedated whether network time synchronization is on
type TimedatedAutoSync struct {
	Run CommandRunner
}

// Enabled implements AutoSync
func (s *TimedatedAutoSync) Enabled(ctx context.Context) (bool, error) {
	run := s.Run
	if run == nil {
		run = runCommand
	}
	out, err := run(ctx, timedatectl, "show", "--property=NTP", "--value")
	if err != nil {
		return false, err
	}
	value := strings.TrimSpace(string(out))
	log.Debugf("timedated NTP=%q", value)
	switch value {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	}
	return false, fmt.Errorf("unexpected NTP property value %q", value)
}

// NewAutoSync returns AutoSync implementation for given mode
func NewAutoSync(mode string) (AutoSync, error) {
	switch mode {
	case AutoSyncOff:
		return StaticAutoSync(false), nil
	case AutoSyncTimedated:
		return &TimedatedAutoSync{}, nil
	case AutoSyncAuto:
		if _, err := exec.LookPath(timedatectl); err != nil {
			log.Debugf("%s not found, assuming no automatic time sync", timedatectl)
			return StaticAutoSync(false), nil
		}
		return &TimedatedAutoSync{}, nil
	}
	return nil, fmt.Errorf("unsupported autosync mode %q", mode)
}
