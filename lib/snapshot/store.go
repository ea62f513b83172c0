// Copyright 2026 The Kiln Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshot holds the exporter's published state: the metric
// set from the most recent collection cycle plus collection health.
// One snapshot is current at a time; the collector replaces it
// wholesale and scrape handlers read it without blocking. Neither
// side ever mutates a snapshot after publication.
package snapshot

import (
	"sync/atomic"
	"time"

	"github.com/kiln-build/kiln-exporter/lib/metrics"
)

// Health records how collection has been going. It is updated every
// cycle, including cycles where every upstream call failed.
type Health struct {
	// LastSuccess is the completion time of the last cycle in which
	// at least one upstream call succeeded. Zero if none ever has.
	LastSuccess time.Time

	// LastAttempt is the completion time of the most recent cycle.
	LastAttempt time.Time

	// ConsecutiveFailures counts the all-calls-failed cycles since
	// the last cycle with any success.
	ConsecutiveFailures int

	// CallErrors maps action name to the error description for each
	// call that failed in the most recent cycle. Actions that
	// succeeded are absent.
	CallErrors map[string]string
}

// Snapshot pairs a metric set with the health of the cycle that
// produced it.
type Snapshot struct {
	Set    metrics.Set
	Health Health
}

// Ready reports whether any collection cycle has ever succeeded. A
// nil snapshot (nothing published yet) is not ready.
func (s *Snapshot) Ready() bool {
	return s != nil && !s.Health.LastSuccess.IsZero()
}

// Store holds the current snapshot behind an atomic pointer. Publish
// and Current are safe for arbitrary concurrent use; readers keep
// whatever snapshot was current at the moment of their read and are
// never blocked by a publish.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore creates an empty store. Current yields (nil, false) until
// the first Publish.
func NewStore() *Store {
	return &Store{}
}

// Publish makes snapshot the current one. The caller must not modify
// the snapshot afterwards. Panics on nil: an empty cycle still
// publishes a non-nil snapshot carrying its health.
func (s *Store) Publish(snapshot *Snapshot) {
	if snapshot == nil {
		panic("snapshot: Publish(nil)")
	}
	s.current.Store(snapshot)
}

// Current returns the current snapshot without blocking. ok is false
// before the first publish.
func (s *Store) Current() (*Snapshot, bool) {
	snapshot := s.current.Load()
	return snapshot, snapshot != nil
}
