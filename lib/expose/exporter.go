// Copyright 2026 The Kiln Authors
// SPDX-License-Identifier: Apache-2.0

// Package expose renders published snapshots in Prometheus exposition
// format. The Exporter is an unchecked prometheus.Collector: the set
// of series it emits changes between scrapes as upstream subsets come
// and go, so it declares no fixed descriptors.
//
// Scrapes never fail at the transport level because of daemon
// trouble. Degradation shows up in the exporter's own meta series
// (readiness, staleness, consecutive failures, per-call health), and
// the last known good set keeps being served through an outage.
package expose

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kiln-build/kiln-exporter/lib/clock"
	"github.com/kiln-build/kiln-exporter/lib/kilnapi"
	"github.com/kiln-build/kiln-exporter/lib/metrics"
	"github.com/kiln-build/kiln-exporter/lib/snapshot"
)

var (
	readyDesc = prometheus.NewDesc(
		"kiln_exporter_ready",
		"Whether at least one collection cycle has succeeded since startup.",
		nil, nil,
	)
	lastSuccessAgeDesc = prometheus.NewDesc(
		"kiln_exporter_last_success_age_seconds",
		"Seconds since the last collection cycle in which any upstream call succeeded.",
		nil, nil,
	)
	consecutiveFailuresDesc = prometheus.NewDesc(
		"kiln_exporter_consecutive_failures",
		"Number of consecutive collection cycles in which every upstream call failed.",
		nil, nil,
	)
	callUpDesc = prometheus.NewDesc(
		"kiln_exporter_call_up",
		"Whether the given kilnd status call succeeded in the most recent collection cycle.",
		[]string{"call"}, nil,
	)
)

// metricHelp carries the help text for the daemon series. Series the
// mapper emits that are not listed here still render, with a generic
// help line.
var metricHelp = map[string]string{
	metrics.MetricInfo:                  "Daemon build information, always 1.",
	metrics.MetricUptimeSeconds:         "Seconds since the daemon started.",
	metrics.MetricWorkerInfo:            "Registered build worker, always 1.",
	metrics.MetricWorkers:               "Number of registered build workers.",
	metrics.MetricCacheSizeBytes:        "Total capacity of the build cache.",
	metrics.MetricCacheUsedBytes:        "Bytes currently used by the build cache.",
	metrics.MetricCacheReclaimableBytes: "Bytes the next cache prune could reclaim.",
	metrics.MetricCacheRecords:          "Number of records in the build cache.",
	metrics.MetricCacheSizeByTypeBytes:  "Build cache usage broken down by record type.",
	metrics.MetricBuildsTotal:           "Builds completed since the exporter started observing.",
	metrics.MetricBuildsSucceededTotal:  "Builds that completed successfully.",
	metrics.MetricBuildsFailedTotal:     "Builds that completed with a failure.",
	metrics.MetricBuildStepsTotal:       "Build steps executed across all observed builds.",
	metrics.MetricBuildCachedStepsTotal: "Build steps satisfied from cache across all observed builds.",
}

func helpFor(name string) string {
	if help, ok := metricHelp[name]; ok {
		return help
	}
	return "Series reported by kilnd."
}

// Exporter reads the current snapshot on every scrape and renders it
// as const metrics. It holds no state of its own; the snapshot store
// is the single source of truth.
type Exporter struct {
	store *snapshot.Store
	clock clock.Clock
}

// NewExporter creates an exporter reading from store. Panics if store
// is nil. A nil clk defaults to the real clock.
func NewExporter(store *snapshot.Store, clk clock.Clock) *Exporter {
	if store == nil {
		panic("expose: store is required")
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Exporter{store: store, clock: clk}
}

// Describe sends nothing. An unchecked collector lets the emitted
// series vary between scrapes without registry complaints.
func (e *Exporter) Describe(chan<- *prometheus.Desc) {}

// Collect renders the meta series and, once a snapshot exists, every
// sample in it.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	snap, ok := e.store.Current()

	ready := 0.0
	if ok && snap.Ready() {
		ready = 1
	}
	ch <- prometheus.MustNewConstMetric(readyDesc, prometheus.GaugeValue, ready)
	if !ok {
		// Nothing collected yet. The readiness gauge alone is the
		// whole body.
		return
	}

	if snap.Ready() {
		age := e.clock.Now().Sub(snap.Health.LastSuccess).Seconds()
		ch <- prometheus.MustNewConstMetric(lastSuccessAgeDesc, prometheus.GaugeValue, age)
	}
	ch <- prometheus.MustNewConstMetric(consecutiveFailuresDesc, prometheus.GaugeValue,
		float64(snap.Health.ConsecutiveFailures))
	for _, action := range kilnapi.Actions {
		up := 1.0
		if _, failed := snap.Health.CallErrors[action]; failed {
			up = 0
		}
		ch <- prometheus.MustNewConstMetric(callUpDesc, prometheus.GaugeValue, up, action)
	}

	for _, sample := range snap.Set {
		ch <- sampleMetric(sample)
	}
}

// sampleMetric converts one mapped sample into a const metric. Label
// keys are sorted so a sample renders identically on every scrape.
func sampleMetric(sample metrics.Sample) prometheus.Metric {
	keys := make([]string, 0, len(sample.Labels))
	for key := range sample.Labels {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	values := make([]string, len(keys))
	for i, key := range keys {
		values[i] = sample.Labels[key]
	}

	valueType := prometheus.GaugeValue
	if sample.Kind == metrics.Counter {
		valueType = prometheus.CounterValue
	}

	desc := prometheus.NewDesc(sample.Name, helpFor(sample.Name), keys, nil)
	return prometheus.MustNewConstMetric(desc, valueType, sample.Value, values...)
}

var _ prometheus.Collector = (*Exporter)(nil)
