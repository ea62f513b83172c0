// Copyright 2026 The Kiln Authors
// SPDX-License-Identifier: Apache-2.0

// Kilnctl is a debug CLI for the kilnd build daemon. It queries the
// daemon's control socket directly, without going through the metrics
// exporter: build information (info), the worker pool (workers),
// content cache usage (du), and completed builds (history).
package main

import (
	"fmt"
	"os"

	"github.com/kiln-build/kiln-exporter/cmd/kilnctl/commands"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return commands.Root().Execute(os.Args[1:])
}
