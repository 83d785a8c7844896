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

package stats

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestStatsCounters(t *testing.T) {
	s := NewStats()
	s.UpdateCounterBy("client.requests", 1)
	s.UpdateCounterBy("client.requests", 2)
	s.SetCounter("session.commits", 5)

	counters := s.GetCounters()
	require.Equal(t, int64(3), counters["client.requests"])
	require.Equal(t, int64(5), counters["session.commits"])
	require.Equal(t, int64(0), counters["client.rtt.count"])
	_, ok := counters["client.rtt.mean_ns"]
	require.False(t, ok)
}

func TestStatsRoundTrip(t *testing.T) {
	s := NewStats()
	s.AddRoundTrip(10 * time.Millisecond)
	s.AddRoundTrip(20 * time.Millisecond)
	s.AddRoundTrip(30 * time.Millisecond)

	counters := s.GetCounters()
	require.Equal(t, int64(3), counters["client.rtt.count"])
	require.Equal(t, (20 * time.Millisecond).Nanoseconds(), counters["client.rtt.mean_ns"])
	// sample or population deviation, both land in this range
	require.Greater(t, counters["client.rtt.stddev_ns"], (8 * time.Millisecond).Nanoseconds())
	require.LessOrEqual(t, counters["client.rtt.stddev_ns"], (10 * time.Millisecond).Nanoseconds())
}

func TestStatsReset(t *testing.T) {
	s := NewStats()
	s.UpdateCounterBy("client.requests", 1)
	s.AddRoundTrip(time.Millisecond)
	s.Reset()
	require.Equal(t, map[string]int64{"client.rtt.count": 0}, s.GetCounters())
}

func TestFlattenKey(t *testing.T) {
	require.Equal(t, "clockset_client_errors_not_connected", flattenKey("client.errors.not_connected"))
	require.Equal(t, "clockset_a_b_c_d_e", flattenKey("a b-c=d/e"))
}

func TestCollect(t *testing.T) {
	s := NewStats()
	s.UpdateCounterBy("client.requests", 2)
	require.Equal(t, 2, testutil.CollectAndCount(s))

	expected := `
# HELP clockset_client_requests client.requests
# TYPE clockset_client_requests gauge
clockset_client_requests 2
`
	require.NoError(t, testutil.CollectAndCompare(s, strings.NewReader(expected), "clockset_client_requests"))
}

func TestHandler(t *testing.T) {
	s := NewStats()
	s.UpdateCounterBy("session.commits", 1)
	handler, err := s.Handler()
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	counters := map[string]int64{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&counters))
	require.Equal(t, int64(1), counters["session.commits"])

	mresp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()
	body, err := io.ReadAll(mresp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "clockset_session_commits 1")
}

func TestSysStatsCollect(t *testing.T) {
	sys := NewSysStats(time.Second)
	counts, err := sys.Collect()
	require.NoError(t, err)
	for _, key := range []string{"process.uptime", "process.rss", "runtime.cpu.goroutines", "runtime.mem.alloc", "runtime.mem.gc.count"} {
		require.Contains(t, counts, key)
	}
	require.Greater(t, counts["process.rss"], int64(0))
	// no previous sample yet
	require.NotContains(t, counts, "runtime.mem.mallocs.sum.1")

	counts, err = sys.Collect()
	require.NoError(t, err)
	require.Contains(t, counts, "runtime.mem.mallocs.sum.1")
	require.Contains(t, counts, "runtime.mem.mallocs.rate.1")
}

func TestSetDiff(t *testing.T) {
	counts := map[string]int64{}
	setDiff("x", counts, 110, 10, 10*time.Second)
	require.Equal(t, map[string]int64{"x.sum.10": 100, "x.rate.10": 10}, counts)

	// counter went backwards, nothing recorded
	counts = map[string]int64{}
	setDiff("x", counts, 5, 10, 10*time.Second)
	require.Empty(t, counts)
}

func TestCollectSysStats(t *testing.T) {
	s := NewStats()
	require.NoError(t, s.CollectSysStats(NewSysStats(SysStatsInterval)))
	counters := s.GetCounters()
	require.Contains(t, counters, "process.rss")
	require.Contains(t, counters, "runtime.mem.heap.inuse")

	// exported to prometheus like any other counter
	require.Equal(t, 1, testutil.CollectAndCount(s, "clockset_process_rss"))
}
