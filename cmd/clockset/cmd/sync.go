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
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/facebook/clockset/clock"
	"github.com/facebook/clockset/ntp/client"
	"github.com/facebook/clockset/session"
	"github.com/facebook/clockset/stats"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var syncForce bool

// syncRun fetches network time once and commits it to clk
func syncRun(ctx context.Context, cfg *Config, fetcher session.Fetcher, clk session.Clock, st *stats.Stats) (*client.Result, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	s := session.New(session.Config{ExitOnCommit: true, Location: loc}, time.Now(), clk, fetcher, st)
	r, err := s.Handle(ctx, session.ResetToNetwork)
	return r.Network, err
}

func init() {
	RootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolVarP(&syncForce, "force", "f", false, "set the clock even if automatic time sync is enabled")
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Set system clock to NTP server time",
	Run: func(c *cobra.Command, _ []string) {
		ConfigureVerbosity()

		cfg, err := loadConfig(c)
		if err != nil {
			log.Fatal(err)
		}
		autoSync, err := clock.NewAutoSync(cfg.AutoSync)
		if err != nil {
			log.Fatal(err)
		}
		if enabled, err := autoSync.Enabled(c.Context()); err != nil {
			log.Warningf("failed to check automatic time sync: %v", err)
		} else if enabled && !syncForce {
			fmt.Printf("%s automatic time sync is enabled, not touching the clock (use --force to override)\n", warnString)
			return
		}

		st := stats.NewStats()
		ntpClient, err := newClient(cfg, st)
		if err != nil {
			log.Fatal(err)
		}
		notifyStatus("querying %s", cfg.Server)
		res, err := syncRun(c.Context(), cfg, ntpClient, clock.SysClock{}, st)
		if err != nil {
			notifyStatus("failed: %v", err)
			fmt.Printf("%s %v\n", failString, err)
			if errors.Is(err, session.ErrClockSetFailed) {
				fmt.Println("setting the clock usually requires root")
			}
			os.Exit(1)
		}
		notify(daemon.SdNotifyReady)
		notifyStatus("clock set from %s", cfg.Server)
		fmt.Printf("%s clock set to %s from %s (%v)\n", okString, res.Time.Format(time.RFC3339), cfg.Server, res.Addr)
	},
}
