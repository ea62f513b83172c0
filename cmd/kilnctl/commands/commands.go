// Copyright 2026 The Kiln Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the kilnctl CLI command tree.
package commands

import (
	"fmt"

	"github.com/kiln-build/kiln-exporter/cmd/kilnctl/cli"
	"github.com/kiln-build/kiln-exporter/lib/version"
)

// Root builds and returns the complete kilnctl command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "kilnctl",
		Description: `Kilnctl queries a kilnd build daemon over its control socket.

It speaks the daemon's status protocol directly, so operators can
inspect a daemon without standing up the metrics exporter: build
information, the worker pool, content cache usage, and the completed
build history.`,
		Subcommands: []*cli.Command{
			infoCommand(),
			workersCommand(),
			duCommand(),
			historyCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("kilnctl %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Show daemon build information",
				Command:     "kilnctl info",
			},
			{
				Description: "List cache usage on a non-default socket",
				Command:     "kilnctl du --socket /tmp/kilnd-mock.sock",
			},
			{
				Description: "Show builds completed after sequence 500",
				Command:     "kilnctl history --since 500",
			},
		},
	}
}
