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

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// RootCmd is a main entry point. It's exported so clockset could be easily extended without touching core functionality.
var RootCmd = &cobra.Command{
	Use:   "clockset",
	Short: "Set system time from an NTP server or by hand",
}

var (
	verbose bool
	cfgPath string
	flags   configFlags
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	RootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to the config")
	RootCmd.PersistentFlags().StringVarP(&flags.server, "server", "S", "", "NTP server to query")
	RootCmd.PersistentFlags().IntVar(&flags.port, "port", 0, "NTP server port")
	RootCmd.PersistentFlags().DurationVarP(&flags.timeout, "timeout", "t", 0, "exchange timeout, 0 means wait forever")
	RootCmd.PersistentFlags().IntVar(&flags.dscp, "dscp", 0, "DSCP for request packets")
	RootCmd.PersistentFlags().BoolVar(&flags.strictReply, "strict", false, "reject replies with stratum 0 or not in server mode")
	RootCmd.PersistentFlags().StringVar(&flags.connectivity, "connectivity", "", "connectivity check: auto, netlink, interfaces or always")
	RootCmd.PersistentFlags().StringVar(&flags.autoSync, "autosync", "", "automatic time sync detection: auto, systemd or off")
	RootCmd.PersistentFlags().StringVar(&flags.timezone, "timezone", "", "timezone used to display and adjust time")
}

// ConfigureVerbosity configures log verbosity based on parsed flags. Needs to be called by any subcommand.
func ConfigureVerbosity() {
	log.SetLevel(log.InfoLevel)
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
}

// Execute is the main entry point for CLI interface
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
