// Copyright 2026 The Kiln Authors
// SPDX-License-Identifier: Apache-2.0

// Package integration_test exercises the exporter pipeline end to end:
// a scriptable daemon on a real Unix socket, the CBOR client, the
// collection loop, the snapshot store, and the Prometheus handler,
// with nothing stubbed in between. Tests run on short real-time
// collection intervals and poll the store with deadlines instead of
// driving a fake clock.
package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kiln-build/kiln-exporter/lib/collector"
	"github.com/kiln-build/kiln-exporter/lib/expose"
	"github.com/kiln-build/kiln-exporter/lib/kilnclient"
	"github.com/kiln-build/kiln-exporter/lib/kilntest"
	"github.com/kiln-build/kiln-exporter/lib/metrics"
	"github.com/kiln-build/kiln-exporter/lib/snapshot"
)

// pipeline is one running exporter wired to a scriptable daemon.
type pipeline struct {
	daemon  *kilntest.Daemon
	store   *snapshot.Store
	handler http.Handler
}

// startPipeline serves the daemon on a fresh socket and runs a
// collector against it until the test finishes. The interval should be
// tens of milliseconds so multi-cycle scenarios converge quickly.
func startPipeline(t *testing.T, daemon *kilntest.Daemon, interval, callTimeout time.Duration) *pipeline {
	t.Helper()

	socketPath := daemon.Start(t)
	store := snapshot.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	scraper := collector.New(collector.Config{
		Source:   kilnclient.New(socketPath, callTimeout),
		Store:    store,
		Logger:   logger,
		Interval: interval,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- scraper.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("collector returned %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("collector did not stop after cancel")
		}
	})

	return &pipeline{
		daemon:  daemon,
		store:   store,
		handler: expose.NewHandler(expose.NewExporter(store, nil), logger),
	}
}

// waitSnapshot polls the store until the predicate holds and returns
// the matching snapshot.
func (p *pipeline) waitSnapshot(t *testing.T, describe string, ready func(*snapshot.Snapshot) bool) *snapshot.Snapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if snap, ok := p.store.Current(); ok && ready(snap) {
			return snap
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", describe)
	return nil
}

// scrape fetches /metrics and returns the text exposition body.
func (p *pipeline) scrape(t *testing.T) string {
	t.Helper()
	request := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	recorder := httptest.NewRecorder()
	p.handler.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusOK {
		t.Fatalf("scrape status = %d, want %d", recorder.Code, http.StatusOK)
	}
	return recorder.Body.String()
}

// sampleValue finds the unlabeled sample with the given name in a set.
func sampleValue(set metrics.Set, name string) (float64, bool) {
	for _, sample := range set {
		if sample.Name == name && len(sample.Labels) == 0 {
			return sample.Value, true
		}
	}
	return 0, false
}
