// Copyright 2026 The Kiln Authors
// SPDX-License-Identifier: Apache-2.0

// Package collector drives the scrape-and-publish pipeline: on a
// fixed interval it fans out the four kilnd status calls
// concurrently, maps whatever succeeded into a metric set, and
// publishes a fresh snapshot. Collection never blocks scrape reads
// and scrape reads never block collection; the snapshot store is the
// only thing the two sides share.
//
// The collector also owns the cross-cycle state the mapping needs:
// the build-history cursor and the cumulative build totals. Both live
// on the Run goroutine and are never accessed concurrently.
package collector

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/kiln-build/kiln-exporter/lib/clock"
	"github.com/kiln-build/kiln-exporter/lib/kilnapi"
	"github.com/kiln-build/kiln-exporter/lib/kilnclient"
	"github.com/kiln-build/kiln-exporter/lib/metrics"
	"github.com/kiln-build/kiln-exporter/lib/snapshot"
)

// DefaultInterval is the collection period when none is configured.
const DefaultInterval = 15 * time.Second

// StatusSource is the upstream status surface the collector polls.
// *kilnclient.Client satisfies it; tests substitute stubs.
type StatusSource interface {
	Info(ctx context.Context) (*kilnapi.DaemonInfo, error)
	ListWorkers(ctx context.Context) (*kilnapi.WorkerList, error)
	DiskUsage(ctx context.Context) (*kilnapi.DiskUsage, error)
	BuildHistory(ctx context.Context, since uint64) (*kilnapi.BuildHistory, error)
}

// Config configures a Collector.
type Config struct {
	// Source is the upstream status surface. Required.
	Source StatusSource

	// Store receives the published snapshots. Required.
	Store *snapshot.Store

	// Logger is the structured logger. Required.
	Logger *slog.Logger

	// Interval is the collection period. Defaults to DefaultInterval
	// if zero.
	Interval time.Duration

	// Clock provides time for the cycle ticker. Defaults to
	// clock.Real().
	Clock clock.Clock
}

// Collector runs the collection loop. Create with New, start with
// Run.
type Collector struct {
	source   StatusSource
	store    *snapshot.Store
	logger   *slog.Logger
	interval time.Duration
	clock    clock.Clock

	// Cross-cycle state, touched only by the Run goroutine.
	cursor              uint64
	lastSeq             uint64
	totals              metrics.BuildTotals
	primed              bool
	consecutiveFailures int
	lastSuccess         time.Time

	// cycleDone, when non-nil, receives one value after each loop
	// pass completes (publish plus stale-tick drainage). Tests set it
	// to drive the loop in lockstep; production leaves it nil.
	cycleDone chan struct{}
}

// New creates a collector. Panics if a required Config field is
// missing.
func New(config Config) *Collector {
	if config.Source == nil {
		panic("collector: Source is required")
	}
	if config.Store == nil {
		panic("collector: Store is required")
	}
	if config.Logger == nil {
		panic("collector: Logger is required")
	}

	interval := config.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}

	return &Collector{
		source:   config.Source,
		store:    config.Store,
		logger:   config.Logger,
		interval: interval,
		clock:    clk,
	}
}

// Run executes one collection cycle immediately, then one per
// interval tick until ctx is cancelled. Ticks are never queued: a
// tick that fired while a cycle was running is dropped, and the next
// cycle starts on the first tick after completion. Returns nil on
// cancellation.
func (c *Collector) Run(ctx context.Context) error {
	c.logger.Info("collector starting", "interval", c.interval)

	c.collect(ctx)
	c.notifyCycle(ctx)

	ticker := c.clock.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect(ctx)
			// Drop the tick that may have fired while the cycle ran,
			// so a slow upstream skips cycles instead of queueing
			// them back to back.
			select {
			case <-ticker.C:
			default:
			}
			c.notifyCycle(ctx)
		case <-ctx.Done():
			c.logger.Info("collector stopped")
			return nil
		}
	}
}

// notifyCycle signals loop-pass completion to a listening test.
func (c *Collector) notifyCycle(ctx context.Context) {
	if c.cycleDone == nil {
		return
	}
	select {
	case c.cycleDone <- struct{}{}:
	case <-ctx.Done():
	}
}

// collect runs one cycle: concurrent fan-out of the four status
// calls, history accumulation, mapping, publish. If ctx is cancelled
// by the time the calls return, the cycle is abandoned without
// publishing.
func (c *Collector) collect(ctx context.Context) {
	started := c.clock.Now()

	var (
		wg      sync.WaitGroup
		info    *kilnapi.DaemonInfo
		workers *kilnapi.WorkerList
		usage   *kilnapi.DiskUsage
		history *kilnapi.BuildHistory

		infoErr, workersErr, usageErr, historyErr error
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		info, infoErr = c.source.Info(ctx)
	}()
	go func() {
		defer wg.Done()
		workers, workersErr = c.source.ListWorkers(ctx)
	}()
	go func() {
		defer wg.Done()
		usage, usageErr = c.source.DiskUsage(ctx)
	}()
	go func() {
		defer wg.Done()
		history, historyErr = c.source.BuildHistory(ctx, c.cursor)
	}()
	wg.Wait()

	if ctx.Err() != nil {
		// Shutdown arrived while calls were in flight. Abandon the
		// cycle rather than publish results of unclear vintage.
		return
	}

	callErrors := make(map[string]string)
	succeeded := func(action string, err error) bool {
		if err == nil {
			return true
		}
		attrs := []any{"action", action, "error", err}
		var callErr *kilnclient.CallError
		if errors.As(err, &callErr) {
			attrs = append(attrs, "kind", callErr.Kind.String())
		}
		c.logger.Warn("status call failed", attrs...)
		callErrors[action] = err.Error()
		return false
	}

	infoOK := succeeded(kilnapi.ActionInfo, infoErr)
	workersOK := succeeded(kilnapi.ActionListWorkers, workersErr)
	usageOK := succeeded(kilnapi.ActionDiskUsage, usageErr)
	historyOK := succeeded(kilnapi.ActionBuildHistory, historyErr)
	anySuccess := infoOK || workersOK || usageOK || historyOK

	if historyOK {
		c.accumulateHistory(history)
	}

	// Totals are emitted once primed by a successful history call,
	// even in cycles where the history call failed: the counters are
	// cumulative state, not a per-cycle reading, so a transient
	// failure must not make them vanish.
	var totals *metrics.BuildTotals
	if c.primed {
		current := c.totals
		totals = &current
	}

	set := metrics.Map(info, workers, usage, totals)

	finished := c.clock.Now()
	if anySuccess {
		c.consecutiveFailures = 0
		c.lastSuccess = finished
	} else {
		c.consecutiveFailures++
		// Nothing succeeded, so the mapped set is empty. Keep serving
		// the previous set; the health fields are what signal the
		// outage.
		if previous, ok := c.store.Current(); ok {
			set = previous.Set
		}
	}

	c.store.Publish(&snapshot.Snapshot{
		Set: set,
		Health: snapshot.Health{
			LastSuccess:         c.lastSuccess,
			LastAttempt:         finished,
			ConsecutiveFailures: c.consecutiveFailures,
			CallErrors:          callErrors,
		},
	})

	c.logger.Debug("collection cycle complete",
		"duration", finished.Sub(started),
		"samples", len(set),
		"failed_calls", len(callErrors),
	)
}

// accumulateHistory folds newly seen build records into the running
// totals and advances the cursor. Records are deduplicated by
// sequence number so a daemon replaying its retained window (for
// example after the cursor fell behind it) never double-counts.
func (c *Collector) accumulateHistory(history *kilnapi.BuildHistory) {
	for _, record := range history.Builds {
		if record.Seq <= c.lastSeq {
			continue
		}
		c.totals.Observe(record)
		c.lastSeq = record.Seq
	}
	if history.Next > c.cursor {
		c.cursor = history.Next
	}
	c.primed = true
}
