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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const metricPrefix = "clockset_"

// Describe implements prometheus.Collector.
// Set of counters is dynamic, so we are an unchecked collector and send nothing.
func (s *Stats) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector
func (s *Stats) Collect(ch chan<- prometheus.Metric) {
	for key, val := range s.GetCounters() {
		desc := prometheus.NewDesc(flattenKey(key), key, nil, nil)
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, float64(val))
	}
}

func flattenKey(key string) string {
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, ".", "_")
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.ReplaceAll(key, "=", "_")
	key = strings.ReplaceAll(key, "/", "_")
	return metricPrefix + key
}

// handleCountersRequest returns all counters as JSON
func (s *Stats) handleCountersRequest(w http.ResponseWriter, _ *http.Request) {
	js, err := json.Marshal(s.GetCounters())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err = w.Write(js); err != nil {
		log.Errorf("Failed to reply: %v", err)
	}
}

// Handler returns http handler serving JSON counters on / and Prometheus metrics on /metrics
func (s *Stats) Handler() (http.Handler, error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(s); err != nil {
		return nil, fmt.Errorf("registering collector: %w", err)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleCountersRequest)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return mux, nil
}

// Serve runs monitoring http server until context is cancelled.
// Process counters are refreshed in the background while it runs.
func (s *Stats) Serve(ctx context.Context, port int) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	go s.runSysStats(runCtx, SysStatsInterval)
	go func() {
		<-runCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warningf("Failed to shutdown monitoring server: %v", err)
		}
	}()
	log.Infof("Starting http json server on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
