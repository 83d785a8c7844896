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

/*
Package stats implements statistics collection and reporting.
Counters are updated by the ntp client and the adjustment session and
exported as JSON and in Prometheus format over http.
*/
package stats

import (
	"sync"
	"time"

	"github.com/eclesh/welford"
)

// round trip counters computed on read
const (
	counterRTTCount  = "client.rtt.count"
	counterRTTMean   = "client.rtt.mean_ns"
	counterRTTStddev = "client.rtt.stddev_ns"
)

// Stats is a thread-safe set of counters
type Stats struct {
	mux      sync.Mutex
	counters map[string]int64
	rtt      *welford.Stats
	rttCount int64
}

// NewStats creates new instance of Stats
func NewStats() *Stats {
	return &Stats{
		counters: map[string]int64{},
		rtt:      welford.New(),
	}
}

// UpdateCounterBy will increment counter
func (s *Stats) UpdateCounterBy(key string, count int64) {
	s.mux.Lock()
	s.counters[key] += count
	s.mux.Unlock()
}

// SetCounter will set a counter to the provided value
func (s *Stats) SetCounter(key string, val int64) {
	s.mux.Lock()
	s.counters[key] = val
	s.mux.Unlock()
}

// AddRoundTrip records round trip of one request/response exchange
func (s *Stats) AddRoundTrip(d time.Duration) {
	s.mux.Lock()
	s.rtt.Add(float64(d.Nanoseconds()))
	s.rttCount++
	s.mux.Unlock()
}

// GetCounters returns a copy of all counters
func (s *Stats) GetCounters() map[string]int64 {
	ret := make(map[string]int64)
	s.mux.Lock()
	defer s.mux.Unlock()
	for key, val := range s.counters {
		ret[key] = val
	}
	ret[counterRTTCount] = s.rttCount
	if s.rttCount > 0 {
		ret[counterRTTMean] = int64(s.rtt.Mean())
		ret[counterRTTStddev] = int64(s.rtt.Stddev())
	}
	return ret
}

// Reset atomically sets all the counters to 0
func (s *Stats) Reset() {
	s.mux.Lock()
	s.counters = map[string]int64{}
	s.rtt = welford.New()
	s.rttCount = 0
	s.mux.Unlock()
}
