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
	"fmt"
	"io"
	"os"
	"time"

	"github.com/facebook/clockset/ntp/client"
	ntp "github.com/facebook/clockset/ntp/protocol"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var leapToString = map[uint8]string{
	ntp.LINoWarning:      "none",
	1:                    "add second",
	2:                    "del second",
	ntp.LIAlarmCondition: "unsynchronized",
}

// queryRows formats query result, local is the time the reply was received
func queryRows(res *client.Result, local time.Time, loc *time.Location) [][]string {
	p := res.Packet
	txTime := p.TransmitTime()
	return [][]string{
		{"server", res.Server},
		{"address", fmt.Sprintf("%v", res.Addr)},
		{"stratum", fmt.Sprintf("%d", p.Stratum)},
		{"leap", leapToString[p.LeapIndicator()]},
		{"version:mode", fmt.Sprintf("%d:%d", p.Version(), p.Mode())},
		{"refid", ntp.RefIDToString(p.ReferenceID)},
		{"server time", res.Time.In(loc).Format(time.RFC3339)},
		{"transmit time", txTime.In(loc).Format(time.RFC3339Nano)},
		{"local time", local.In(loc).Format(time.RFC3339Nano)},
		{"offset", txTime.Sub(local).Round(time.Microsecond).String()},
		{"round trip", res.RoundTrip.String()},
	}
}

func printQuery(w io.Writer, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header("field", "value")
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func queryRun(ctx context.Context, cfg *Config) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	c, err := newClient(cfg, nil)
	if err != nil {
		return err
	}
	res, err := c.FetchNetworkTime(ctx)
	if err != nil {
		return fmt.Errorf("querying %s: %w", cfg.Server, err)
	}
	return printQuery(os.Stdout, queryRows(res, time.Now(), loc))
}

func init() {
	RootCmd.AddCommand(queryCmd)
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Ask NTP server for time without touching the clock",
	Run: func(c *cobra.Command, _ []string) {
		ConfigureVerbosity()

		cfg, err := loadConfig(c)
		if err != nil {
			log.Fatal(err)
		}
		if err := queryRun(c.Context(), cfg); err != nil {
			fmt.Printf("%s %v\n", failString, err)
			os.Exit(1)
		}
	},
}
