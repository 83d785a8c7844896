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
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
	log "github.com/sirupsen/logrus"
)

// SysStatsInterval is how often process counters are refreshed while serving
const SysStatsInterval = 10 * time.Second

var procStartTime = time.Now()

// SysStats samples process and Go runtime counters of the running tool
type SysStats struct {
	interval time.Duration
	memstats *runtime.MemStats
}

// NewSysStats returns a collector which reports rates over interval
func NewSysStats(interval time.Duration) *SysStats {
	return &SysStats{interval: interval}
}

// setDiff records growth of a monotonic runtime counter since the last sample
func setDiff(name string, counts map[string]int64, cur, prev uint64, interval time.Duration) {
	if prev > cur {
		return
	}
	secs := int64(interval.Seconds())
	if secs < 1 {
		secs = 1
	}
	counts[fmt.Sprintf("%s.sum.%d", name, secs)] = int64(cur - prev)
	counts[fmt.Sprintf("%s.rate.%d", name, secs)] = int64(cur-prev) / secs
}

// Collect takes one sample of process and runtime counters
func (s *SysStats) Collect() (map[string]int64, error) {
	counts := make(map[string]int64)
	m := &runtime.MemStats{}
	runtime.ReadMemStats(m)

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	counts["process.uptime"] = time.Now().Unix() - procStartTime.Unix()

	if val, err := proc.Percent(0); err == nil {
		counts["process.cpu_pct"] = int64(val * 100)
	}
	if val, err := proc.MemoryInfo(); err == nil {
		counts["process.rss"] = int64(val.RSS)
		counts["process.vms"] = int64(val.VMS)
		counts["process.swap"] = int64(val.Swap)
	}
	if val, err := proc.NumFDs(); err == nil {
		counts["process.num_fds"] = int64(val)
	}
	if val, err := proc.NumThreads(); err == nil {
		counts["process.num_threads"] = int64(val)
	}

	counts["runtime.cpu.goroutines"] = int64(runtime.NumGoroutine())
	counts["runtime.mem.alloc"] = int64(m.Alloc)
	counts["runtime.mem.sys"] = int64(m.Sys)
	counts["runtime.mem.heap.inuse"] = int64(m.HeapInuse)
	counts["runtime.mem.heap.objects"] = int64(m.HeapObjects)
	counts["runtime.mem.stack.inuse"] = int64(m.StackInuse)
	counts["runtime.mem.gc.count"] = int64(m.NumGC)
	counts["runtime.mem.gc.pause_total"] = int64(m.PauseTotalNs)

	if last := s.memstats; last != nil {
		setDiff("runtime.mem.mallocs", counts, m.Mallocs, last.Mallocs, s.interval)
		setDiff("runtime.mem.frees", counts, m.Frees, last.Frees, s.interval)
		setDiff("runtime.gc.count", counts, uint64(m.NumGC), uint64(last.NumGC), s.interval)
	}
	s.memstats = m
	return counts, nil
}

// CollectSysStats copies one sample of process counters into s
func (s *Stats) CollectSysStats(sys *SysStats) error {
	counts, err := sys.Collect()
	if err != nil {
		return err
	}
	for k, v := range counts {
		s.SetCounter(k, v)
	}
	return nil
}

// runSysStats refreshes process counters every interval until ctx is done
func (s *Stats) runSysStats(ctx context.Context, interval time.Duration) {
	sys := NewSysStats(interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := s.CollectSysStats(sys); err != nil {
			log.Warningf("failed to get system metrics: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
