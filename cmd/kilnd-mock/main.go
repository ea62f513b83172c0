// Copyright 2026 The Kiln Authors
// SPDX-License-Identifier: Apache-2.0

// Kilnd-mock is a drop-in stand-in for kilnd in exporter development
// and integration tests. It serves the daemon's status protocol from
// mutable in-memory state, so an exporter pointed at its socket scrapes
// plausible numbers without a real build daemon behind it.
//
// The binary exposes the four status actions:
//   - info: daemon build information with uptime advancing in real time
//   - list-workers: the configured worker pool
//   - disk-usage: cache occupancy totals and per-record-type breakdown
//   - build-history: completed builds after a cursor, bounded to the
//     most recent window
//
// State comes from --state, a JSONC fixture (comments and trailing
// commas allowed), or a built-in demo fixture when the flag is unset.
// --churn appends a synthetic completed build on a fixed period so
// history counters move during demos. --fail forces named actions to
// return errors for fault-injection testing.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/kiln-build/kiln-exporter/lib/clock"
	"github.com/kiln-build/kiln-exporter/lib/kilnapi"
	"github.com/kiln-build/kiln-exporter/lib/process"
	"github.com/kiln-build/kiln-exporter/lib/service"
	"github.com/kiln-build/kiln-exporter/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		socketPath  string
		statePath   string
		churnPeriod time.Duration
		failActions string
		showVersion bool
	)
	flag.StringVar(&socketPath, "socket", "/tmp/kilnd-mock.sock", "unix socket path to listen on")
	flag.StringVar(&statePath, "state", "", "JSONC fixture describing daemon state (built-in demo state if unset)")
	flag.DurationVar(&churnPeriod, "churn", 0, "append a synthetic completed build this often (0 disables)")
	flag.StringVar(&failActions, "fail", "", "comma-separated actions that return injected errors")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		version.Print("kilnd-mock")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	state, err := loadState(statePath, clock.Real())
	if err != nil {
		return err
	}

	if failActions != "" {
		actions := strings.Split(failActions, ",")
		for _, action := range actions {
			if !slices.Contains(kilnapi.Actions, action) {
				return fmt.Errorf("unknown action %q in --fail (valid: %s)",
					action, strings.Join(kilnapi.Actions, ", "))
			}
		}
		state.setFailing(actions)
	}

	socketServer := service.NewSocketServer(socketPath, logger)
	socketServer.Handle(kilnapi.ActionInfo, state.handleInfo)
	socketServer.Handle(kilnapi.ActionListWorkers, state.handleListWorkers)
	socketServer.Handle(kilnapi.ActionDiskUsage, state.handleDiskUsage)
	socketServer.Handle(kilnapi.ActionBuildHistory, state.handleBuildHistory)

	if churnPeriod > 0 {
		go state.runChurn(ctx, churnPeriod)
	}

	socketDone := make(chan error, 1)
	go func() {
		socketDone <- socketServer.Serve(ctx)
	}()

	logger.Info("kilnd mock running",
		"socket", socketPath,
		"state", stateDescription(statePath),
		"churn", churnPeriod,
	)

	<-ctx.Done()
	logger.Info("shutting down")

	if err := <-socketDone; err != nil {
		logger.Error("socket server error", "error", err)
	}

	return nil
}

func stateDescription(path string) string {
	if path == "" {
		return "builtin"
	}
	return path
}
