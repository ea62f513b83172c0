// Copyright 2026 The Kiln Authors
// SPDX-License-Identifier: Apache-2.0

// Package kilnapi defines the kilnd control protocol: the action
// names, the request shape, and the typed response payloads. Both
// sides of the protocol (the exporter's client, the mock daemon, test
// fixtures) share these definitions so the wire format has a single
// source of truth.
//
// The protocol is one request per connection: the client writes one
// CBOR request value and half-closes, the daemon replies with one
// response envelope (see lib/service.Response) whose data field
// carries one of the payload types below. All CBOR uses Core
// Deterministic Encoding via lib/codec.
package kilnapi

// DefaultSocketPath is where kilnd listens for control connections
// unless configured otherwise.
const DefaultSocketPath = "/run/kiln/kilnd.sock"

// Control protocol action names.
const (
	// ActionInfo returns daemon identity and uptime (DaemonInfo).
	ActionInfo = "info"

	// ActionListWorkers returns the registered build workers
	// (WorkerList).
	ActionListWorkers = "list-workers"

	// ActionDiskUsage returns cache store usage totals (DiskUsage).
	ActionDiskUsage = "disk-usage"

	// ActionBuildHistory returns completed builds after a sequence
	// cursor (BuildHistory). The request carries the cursor in its
	// "since" field.
	ActionBuildHistory = "build-history"
)

// Actions lists every control protocol action.
var Actions = []string{
	ActionInfo,
	ActionListWorkers,
	ActionDiskUsage,
	ActionBuildHistory,
}

// Request is the client-side request shape. Action is required; Since
// applies only to build-history.
type Request struct {
	Action string `cbor:"action"`

	// Since is the build-history sequence cursor: return records with
	// seq > Since. Zero means from the beginning of the daemon's
	// retained window.
	Since uint64 `cbor:"since,omitempty"`
}

// DaemonInfo is the payload of the info action.
type DaemonInfo struct {
	// Version is the daemon's release version (e.g. "v0.14.1").
	Version string `cbor:"version"`

	// Revision is the VCS revision the daemon was built from.
	Revision string `cbor:"revision,omitempty"`

	// GoVersion is the toolchain that built the daemon.
	GoVersion string `cbor:"go_version,omitempty"`

	// UptimeSeconds is how long the daemon has been running.
	UptimeSeconds int64 `cbor:"uptime_seconds"`
}

// WorkerInfo describes one registered build worker.
type WorkerInfo struct {
	ID string `cbor:"id"`

	// Platforms are the OS/architecture pairs the worker can execute
	// (e.g. "linux/amd64").
	Platforms []string `cbor:"platforms,omitempty"`

	// Labels are operator-assigned key/value annotations.
	Labels map[string]string `cbor:"labels,omitempty"`
}

// WorkerList is the payload of the list-workers action.
type WorkerList struct {
	Workers []WorkerInfo `cbor:"workers"`
}

// DiskUsage is the payload of the disk-usage action. It describes the
// daemon's content-addressed cache store.
type DiskUsage struct {
	// SizeBytes is the total on-disk size of the store.
	SizeBytes int64 `cbor:"size_bytes"`

	// UsedBytes is the size of records currently in use (referenced
	// by an active build or within their keep duration).
	UsedBytes int64 `cbor:"used_bytes"`

	// ReclaimableBytes is the size the garbage collector could free.
	ReclaimableBytes int64 `cbor:"reclaimable_bytes"`

	// Records is the number of cache records in the store.
	Records int64 `cbor:"records"`

	// ByType breaks SizeBytes down by record type (e.g. "regular",
	// "internal", "frontend", "source.local").
	ByType map[string]int64 `cbor:"by_type,omitempty"`
}

// Build completion statuses as reported in BuildRecord.Status.
const (
	BuildSucceeded = "succeeded"
	BuildFailed    = "failed"
	BuildCanceled  = "canceled"
)

// BuildRecord describes one completed build.
type BuildRecord struct {
	// Seq is the daemon-assigned monotonic sequence number. It orders
	// the history and serves as the pagination cursor.
	Seq uint64 `cbor:"seq"`

	// Ref is the client-supplied build reference, if any.
	Ref string `cbor:"ref,omitempty"`

	// Status is one of BuildSucceeded, BuildFailed, BuildCanceled.
	Status string `cbor:"status"`

	// Steps is the number of steps the build executed.
	Steps int64 `cbor:"steps"`

	// CachedSteps is how many of those steps were cache hits.
	CachedSteps int64 `cbor:"cached_steps"`

	// CompletedAt is the completion time as a Unix timestamp.
	CompletedAt int64 `cbor:"completed_at"`
}

// BuildHistory is the payload of the build-history action. Builds are
// in ascending Seq order. The daemon retains a bounded window; a Since
// cursor older than the window returns the whole window.
type BuildHistory struct {
	Builds []BuildRecord `cbor:"builds,omitempty"`

	// Next is the cursor to pass as Since on the following request to
	// continue after the last record in Builds. Unchanged from the
	// request's Since when Builds is empty.
	Next uint64 `cbor:"next"`
}
