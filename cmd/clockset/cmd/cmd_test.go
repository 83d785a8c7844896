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
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/facebook/clockset/ntp/client"
	ntp "github.com/facebook/clockset/ntp/protocol"
	"github.com/facebook/clockset/session"
	"github.com/facebook/clockset/stats"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testServerTime = time.Unix(1585147599, 0)

func testResult() *client.Result {
	return &client.Result{
		Server:    "time.example.com",
		Addr:      &net.UDPAddr{IP: net.ParseIP("192.0.2.1"), Port: 123},
		Seconds:   testServerTime.Unix(),
		Time:      testServerTime,
		RoundTrip: 3 * time.Millisecond,
		Packet: &ntp.Packet{
			Settings:    ntp.NewSettings(ntp.LINoWarning, ntp.Version, ntp.ModeServer),
			Stratum:     1,
			ReferenceID: 0x46422020,
			TxTimeSec:   ntp.ToNTPEpoch(testServerTime.Unix()),
			TxTimeFrac:  0x80000000,
		},
	}
}

func TestQueryRows(t *testing.T) {
	local := testServerTime.Add(time.Second)
	rows := queryRows(testResult(), local, time.UTC)
	got := map[string]string{}
	for _, row := range rows {
		require.Len(t, row, 2)
		got[row[0]] = row[1]
	}
	require.Equal(t, "time.example.com", got["server"])
	require.Equal(t, "192.0.2.1:123", got["address"])
	require.Equal(t, "1", got["stratum"])
	require.Equal(t, "none", got["leap"])
	require.Equal(t, "4:4", got["version:mode"])
	require.Equal(t, "FB  ", got["refid"])
	require.Equal(t, "2020-03-25T14:46:39Z", got["server time"])
	require.Equal(t, "-500ms", got["offset"])
	require.Equal(t, "3ms", got["round trip"])
}

func TestPrintQuery(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, printQuery(&b, [][]string{{"stratum", "1"}, {"refid", "GPS"}}))
	require.Contains(t, b.String(), "stratum")
	require.Contains(t, b.String(), "GPS")
	// header, separator, two rows and borders
	require.GreaterOrEqual(t, strings.Count(b.String(), "\n"), 4)
}

func TestPrintQueryResult(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, printQuery(&b, queryRows(testResult(), testServerTime, time.UTC)))
	require.Contains(t, b.String(), "time.example.com")
	require.Contains(t, b.String(), "192.0.2.1:123")
}

func TestSyncRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	clk := session.NewMockClock(ctrl)
	fetcher := session.NewMockFetcher(ctrl)
	st := stats.NewStats()
	cfg := DefaultConfig()
	cfg.Timezone = "UTC"

	res := testResult()
	fetcher.EXPECT().FetchNetworkTime(gomock.Any()).Return(res, nil)
	clk.EXPECT().Set(gomock.Any()).DoAndReturn(func(got time.Time) error {
		require.True(t, testServerTime.Equal(got))
		return nil
	})
	got, err := syncRun(context.Background(), cfg, fetcher, clk, st)
	require.NoError(t, err)
	require.Equal(t, res, got)
	require.Equal(t, int64(1), st.GetCounters()["session.commits"])
}

func TestSyncRunFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	clk := session.NewMockClock(ctrl)
	fetcher := session.NewMockFetcher(ctrl)
	st := stats.NewStats()
	cfg := DefaultConfig()

	fetcher.EXPECT().FetchNetworkTime(gomock.Any()).Return(nil, client.ErrNotConnected)
	_, err := syncRun(context.Background(), cfg, fetcher, clk, st)
	require.ErrorIs(t, err, client.ErrNotConnected)

	fetcher.EXPECT().FetchNetworkTime(gomock.Any()).Return(testResult(), nil)
	clk.EXPECT().Set(gomock.Any()).Return(errors.New("operation not permitted"))
	_, err = syncRun(context.Background(), cfg, fetcher, clk, st)
	require.ErrorIs(t, err, session.ErrClockSetFailed)
	require.Equal(t, int64(1), st.GetCounters()["session.commit_errors"])
}

func TestNewClient(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Connectivity = client.ConnectivityAlways
	c, err := newClient(cfg, nil)
	require.NoError(t, err)
	require.Equal(t, client.StaticConnectivity(true), c.Connectivity)

	cfg.Connectivity = "carrier-pigeon"
	_, err = newClient(cfg, nil)
	require.Error(t, err)
}
