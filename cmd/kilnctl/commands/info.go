// Copyright 2026 The Kiln Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kiln-build/kiln-exporter/cmd/kilnctl/cli"
)

func infoCommand() *cli.Command {
	var conn connection

	return &cli.Command{
		Name:    "info",
		Summary: "Show daemon build information and uptime",
		Description: `Display the daemon's version, revision, Go toolchain, and how
long it has been running.`,
		Usage: "kilnctl info [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("info", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			info, err := conn.client().Info(context.Background())
			if err != nil {
				return err
			}

			fmt.Printf("Version:   %s\n", info.Version)
			if info.Revision != "" {
				fmt.Printf("Revision:  %s\n", info.Revision)
			}
			if info.GoVersion != "" {
				fmt.Printf("Go:        %s\n", info.GoVersion)
			}
			fmt.Printf("Uptime:    %s\n", formatUptime(info.UptimeSeconds))
			return nil
		},
	}
}
