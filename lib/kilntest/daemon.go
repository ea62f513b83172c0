// Copyright 2026 The Kiln Authors
// SPDX-License-Identifier: Apache-2.0

// Package kilntest provides a scriptable in-process kilnd stand-in.
// Tests mutate its state between collection cycles, inject per-action
// failures and delays, and point a real client at the socket it
// serves. It speaks the same wire protocol as kilnd itself, so tests
// built on it exercise the full dial/encode/decode path.
package kilntest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/kiln-build/kiln-exporter/lib/codec"
	"github.com/kiln-build/kiln-exporter/lib/kilnapi"
	"github.com/kiln-build/kiln-exporter/lib/service"
	"github.com/kiln-build/kiln-exporter/lib/testutil"
)

// Daemon is an in-memory kilnd control-socket server for tests. The
// zero value is not usable; create one with NewDaemon. All methods
// are safe for concurrent use with the serving goroutine.
type Daemon struct {
	mu      sync.Mutex
	info    kilnapi.DaemonInfo
	workers []kilnapi.WorkerInfo
	usage   kilnapi.DiskUsage
	builds  []kilnapi.BuildRecord
	fail    map[string]string
	delay   map[string]time.Duration
}

// NewDaemon creates a daemon with minimal valid state: a version
// string, no workers, an empty cache, no build history.
func NewDaemon() *Daemon {
	return &Daemon{
		info: kilnapi.DaemonInfo{
			Version:       "v0.0.0-test",
			UptimeSeconds: 1,
		},
		fail:  make(map[string]string),
		delay: make(map[string]time.Duration),
	}
}

// SetInfo replaces the info payload.
func (d *Daemon) SetInfo(info kilnapi.DaemonInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.info = info
}

// SetWorkers replaces the worker inventory.
func (d *Daemon) SetWorkers(workers ...kilnapi.WorkerInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.workers = append([]kilnapi.WorkerInfo(nil), workers...)
}

// SetUsage replaces the disk usage payload.
func (d *Daemon) SetUsage(usage kilnapi.DiskUsage) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.usage = usage
}

// AppendBuilds appends completed-build records to the history. Callers
// supply Seq values; the daemon serves records in the order given and
// filters by the request cursor, so tests should append in ascending
// Seq order.
func (d *Daemon) AppendBuilds(records ...kilnapi.BuildRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.builds = append(d.builds, records...)
}

// FailAction makes the named action return an error response with the
// given message until ClearFailure is called.
func (d *Daemon) FailAction(action, message string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail[action] = message
}

// ClearFailure removes a failure injected by FailAction.
func (d *Daemon) ClearFailure(action string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.fail, action)
}

// DelayAction holds the named action's response for the given duration
// before replying. Use with a client timeout shorter than the delay to
// exercise the timeout path.
func (d *Daemon) DelayAction(action string, delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delay[action] = delay
}

// Start serves the control protocol on a fresh Unix socket and
// returns the socket path. The server shuts down when the test
// finishes.
func (d *Daemon) Start(t *testing.T) string {
	t.Helper()

	socketPath := filepath.Join(testutil.SocketDir(t), "kilnd.sock")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	server := service.NewSocketServer(socketPath, logger)
	server.Handle(kilnapi.ActionInfo, d.handleInfo)
	server.Handle(kilnapi.ActionListWorkers, d.handleListWorkers)
	server.Handle(kilnapi.ActionDiskUsage, d.handleDiskUsage)
	server.Handle(kilnapi.ActionBuildHistory, d.handleBuildHistory)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		server.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Wait for the socket file so tests can dial immediately.
	for {
		if _, err := os.Stat(socketPath); err == nil {
			break
		}
		if ctx.Err() != nil {
			t.Fatalf("daemon socket %s did not appear before test context expired", socketPath)
		}
		runtime.Gosched()
	}

	return socketPath
}

// gate applies the injected delay and failure for an action, in that
// order. Returns the injected error message, or empty for none.
func (d *Daemon) gate(action string) string {
	d.mu.Lock()
	delay := d.delay[action]
	message := d.fail[action]
	d.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	return message
}

func (d *Daemon) handleInfo(ctx context.Context, raw []byte) (any, error) {
	if message := d.gate(kilnapi.ActionInfo); message != "" {
		return nil, injectedError(message)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	info := d.info
	return info, nil
}

func (d *Daemon) handleListWorkers(ctx context.Context, raw []byte) (any, error) {
	if message := d.gate(kilnapi.ActionListWorkers); message != "" {
		return nil, injectedError(message)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return kilnapi.WorkerList{
		Workers: append([]kilnapi.WorkerInfo(nil), d.workers...),
	}, nil
}

func (d *Daemon) handleDiskUsage(ctx context.Context, raw []byte) (any, error) {
	if message := d.gate(kilnapi.ActionDiskUsage); message != "" {
		return nil, injectedError(message)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	usage := d.usage
	if d.usage.ByType != nil {
		usage.ByType = make(map[string]int64, len(d.usage.ByType))
		for recordType, size := range d.usage.ByType {
			usage.ByType[recordType] = size
		}
	}
	return usage, nil
}

func (d *Daemon) handleBuildHistory(ctx context.Context, raw []byte) (any, error) {
	if message := d.gate(kilnapi.ActionBuildHistory); message != "" {
		return nil, injectedError(message)
	}

	var request kilnapi.Request
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	history := kilnapi.BuildHistory{Next: request.Since}
	for _, record := range d.builds {
		if record.Seq <= request.Since {
			continue
		}
		history.Builds = append(history.Builds, record)
		if record.Seq > history.Next {
			history.Next = record.Seq
		}
	}
	return history, nil
}

// injectedError is a distinct type so failures scripted by tests are
// recognizable in daemon-side logs.
type injectedError string

func (e injectedError) Error() string { return string(e) }
