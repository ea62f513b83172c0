// Copyright 2026 The Kiln Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics maps kilnd status payloads into a normalized set of
// named, labeled samples. The mapping is a pure function: no clock, no
// I/O, no retained state. Cumulative build counters are accumulated by
// the caller (the collector owns a BuildTotals) and passed in by
// pointer, nil meaning "not primed yet".
package metrics

import (
	"sort"
	"strings"

	"github.com/kiln-build/kiln-exporter/lib/kilnapi"
)

// Kind distinguishes how a sample's value behaves over time.
type Kind int

const (
	// Gauge values go up and down (worker count, cache bytes).
	Gauge Kind = iota

	// Counter values only ever increase (completed builds).
	Counter
)

// Sample is one measurement: a metric name, an optional label set,
// and a value. Samples are immutable once created.
type Sample struct {
	Name   string
	Kind   Kind
	Labels map[string]string
	Value  float64
}

// Set is the ordered output of one mapping. Within a set no two
// samples share the same (Name, Labels) identity.
type Set []Sample

// Metric names. Gauges describe the daemon's current state; counters
// accumulate completed-build history.
const (
	MetricInfo          = "kiln_info"
	MetricUptimeSeconds = "kiln_uptime_seconds"

	MetricWorkerInfo = "kiln_worker_info"
	MetricWorkers    = "kiln_workers"

	MetricCacheSizeBytes        = "kiln_cache_size_bytes"
	MetricCacheUsedBytes        = "kiln_cache_used_bytes"
	MetricCacheReclaimableBytes = "kiln_cache_reclaimable_bytes"
	MetricCacheRecords          = "kiln_cache_records"
	MetricCacheSizeByTypeBytes  = "kiln_cache_size_by_type_bytes"

	MetricBuildsTotal           = "kiln_builds_total"
	MetricBuildsSucceededTotal  = "kiln_builds_succeeded_total"
	MetricBuildsFailedTotal     = "kiln_builds_failed_total"
	MetricBuildStepsTotal       = "kiln_build_steps_total"
	MetricBuildCachedStepsTotal = "kiln_build_cached_steps_total"
)

// BuildTotals is the cumulative completed-build state. Values never
// decrease; canceled builds count toward Builds but neither Succeeded
// nor Failed.
type BuildTotals struct {
	Builds      uint64
	Succeeded   uint64
	Failed      uint64
	Steps       uint64
	CachedSteps uint64
}

// Observe adds one completed build to the totals.
func (t *BuildTotals) Observe(record kilnapi.BuildRecord) {
	t.Builds++
	switch record.Status {
	case kilnapi.BuildSucceeded:
		t.Succeeded++
	case kilnapi.BuildFailed:
		t.Failed++
	}
	if record.Steps > 0 {
		t.Steps += uint64(record.Steps)
	}
	if record.CachedSteps > 0 {
		t.CachedSteps += uint64(record.CachedSteps)
	}
}

// Map translates the status payloads that succeeded this cycle into
// samples. A nil input omits that payload's samples entirely; the
// remaining inputs are unaffected. Identical inputs always produce an
// identical set, sample for sample.
func Map(info *kilnapi.DaemonInfo, workers *kilnapi.WorkerList, usage *kilnapi.DiskUsage, builds *BuildTotals) Set {
	var set Set

	if info != nil {
		set = append(set,
			Sample{
				Name: MetricInfo,
				Kind: Gauge,
				Labels: map[string]string{
					"version":  info.Version,
					"revision": info.Revision,
				},
				Value: 1,
			},
			Sample{
				Name:  MetricUptimeSeconds,
				Kind:  Gauge,
				Value: float64(info.UptimeSeconds),
			},
		)
	}

	if workers != nil {
		// Duplicate worker IDs would violate the set's identity
		// invariant; the first occurrence wins.
		seen := make(map[string]bool, len(workers.Workers))
		for _, worker := range workers.Workers {
			if seen[worker.ID] {
				continue
			}
			seen[worker.ID] = true
			set = append(set, Sample{
				Name: MetricWorkerInfo,
				Kind: Gauge,
				Labels: map[string]string{
					"worker":    worker.ID,
					"platforms": strings.Join(worker.Platforms, ","),
				},
				Value: 1,
			})
		}
		set = append(set, Sample{
			Name:  MetricWorkers,
			Kind:  Gauge,
			Value: float64(len(seen)),
		})
	}

	if usage != nil {
		set = append(set,
			Sample{Name: MetricCacheSizeBytes, Kind: Gauge, Value: float64(usage.SizeBytes)},
			Sample{Name: MetricCacheUsedBytes, Kind: Gauge, Value: float64(usage.UsedBytes)},
			Sample{Name: MetricCacheReclaimableBytes, Kind: Gauge, Value: float64(usage.ReclaimableBytes)},
			Sample{Name: MetricCacheRecords, Kind: Gauge, Value: float64(usage.Records)},
		)

		// Sorted for reproducible output order.
		recordTypes := make([]string, 0, len(usage.ByType))
		for recordType := range usage.ByType {
			recordTypes = append(recordTypes, recordType)
		}
		sort.Strings(recordTypes)
		for _, recordType := range recordTypes {
			set = append(set, Sample{
				Name:   MetricCacheSizeByTypeBytes,
				Kind:   Gauge,
				Labels: map[string]string{"record_type": recordType},
				Value:  float64(usage.ByType[recordType]),
			})
		}
	}

	if builds != nil {
		set = append(set,
			Sample{Name: MetricBuildsTotal, Kind: Counter, Value: float64(builds.Builds)},
			Sample{Name: MetricBuildsSucceededTotal, Kind: Counter, Value: float64(builds.Succeeded)},
			Sample{Name: MetricBuildsFailedTotal, Kind: Counter, Value: float64(builds.Failed)},
			Sample{Name: MetricBuildStepsTotal, Kind: Counter, Value: float64(builds.Steps)},
			Sample{Name: MetricBuildCachedStepsTotal, Kind: Counter, Value: float64(builds.CachedSteps)},
		)
	}

	return set
}
