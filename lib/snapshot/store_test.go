// Copyright 2026 The Kiln Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"sync"
	"testing"
	"time"

	"github.com/kiln-build/kiln-exporter/lib/metrics"
)

func TestStoreEmptyUntilFirstPublish(t *testing.T) {
	store := NewStore()

	snapshot, ok := store.Current()
	if ok {
		t.Error("Current() ok = true before any publish")
	}
	if snapshot != nil {
		t.Errorf("Current() snapshot = %v before any publish, want nil", snapshot)
	}
}

func TestStorePublishReplacesWholesale(t *testing.T) {
	store := NewStore()

	first := &Snapshot{
		Set:    metrics.Set{{Name: metrics.MetricWorkers, Kind: metrics.Gauge, Value: 3}},
		Health: Health{LastSuccess: time.Unix(100, 0), LastAttempt: time.Unix(100, 0)},
	}
	store.Publish(first)

	got, ok := store.Current()
	if !ok {
		t.Fatal("Current() ok = false after publish")
	}
	if got != first {
		t.Error("Current() did not return the published snapshot")
	}

	second := &Snapshot{
		Set:    metrics.Set{{Name: metrics.MetricWorkers, Kind: metrics.Gauge, Value: 5}},
		Health: Health{LastSuccess: time.Unix(115, 0), LastAttempt: time.Unix(115, 0)},
	}
	store.Publish(second)

	got, _ = store.Current()
	if got != second {
		t.Error("Current() did not return the most recent snapshot")
	}
	// The first snapshot is untouched by the replacement.
	if first.Set[0].Value != 3 {
		t.Error("earlier snapshot mutated by publish")
	}
}

func TestStorePublishNilPanics(t *testing.T) {
	store := NewStore()
	defer func() {
		if r := recover(); r == nil {
			t.Error("Publish(nil) did not panic")
		}
	}()
	store.Publish(nil)
}

func TestSnapshotReady(t *testing.T) {
	var nilSnapshot *Snapshot
	if nilSnapshot.Ready() {
		t.Error("nil snapshot reports ready")
	}

	unready := &Snapshot{Health: Health{LastAttempt: time.Unix(100, 0)}}
	if unready.Ready() {
		t.Error("snapshot with zero LastSuccess reports ready")
	}

	ready := &Snapshot{Health: Health{LastSuccess: time.Unix(100, 0)}}
	if !ready.Ready() {
		t.Error("snapshot with LastSuccess does not report ready")
	}
}

// TestStoreReadsAreNeverTorn hammers the store with a publisher
// alternating between two internally homogeneous snapshots while
// readers verify that every observed snapshot is one or the other in
// full, never a mix.
func TestStoreReadsAreNeverTorn(t *testing.T) {
	store := NewStore()

	makeSnapshot := func(value float64) *Snapshot {
		set := make(metrics.Set, 8)
		for i := range set {
			set[i] = metrics.Sample{
				Name:  metrics.MetricWorkers,
				Kind:  metrics.Gauge,
				Value: value,
			}
		}
		return &Snapshot{Set: set, Health: Health{LastSuccess: time.Unix(int64(value), 0)}}
	}
	store.Publish(makeSnapshot(1))

	const (
		readers    = 8
		iterations = 2000
	)

	stop := make(chan struct{})
	var writerWg sync.WaitGroup
	writerWg.Add(1)
	go func() {
		defer writerWg.Done()
		value := float64(2)
		for {
			select {
			case <-stop:
				return
			default:
				store.Publish(makeSnapshot(value))
				value++
			}
		}
	}()

	var readerWg sync.WaitGroup
	for reader := 0; reader < readers; reader++ {
		readerWg.Add(1)
		go func() {
			defer readerWg.Done()
			for i := 0; i < iterations; i++ {
				snapshot, ok := store.Current()
				if !ok {
					t.Error("store became empty after first publish")
					return
				}
				value := snapshot.Set[0].Value
				for _, sample := range snapshot.Set {
					if sample.Value != value {
						t.Errorf("torn read: sample value %v alongside %v", sample.Value, value)
						return
					}
				}
				if snapshot.Health.LastSuccess != time.Unix(int64(value), 0) {
					t.Errorf("torn read: health from a different cycle than the set")
					return
				}
			}
		}()
	}

	readerWg.Wait()
	close(stop)
	writerWg.Wait()
}
