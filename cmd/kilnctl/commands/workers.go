// Copyright 2026 The Kiln Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/kiln-build/kiln-exporter/cmd/kilnctl/cli"
)

func workersCommand() *cli.Command {
	var conn connection

	return &cli.Command{
		Name:    "workers",
		Summary: "List registered build workers",
		Description: `Display the daemon's worker pool: each worker's identifier, the
platforms it can build for, and any scheduling labels.`,
		Usage: "kilnctl workers [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("workers", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			list, err := conn.client().ListWorkers(context.Background())
			if err != nil {
				return err
			}

			if len(list.Workers) == 0 {
				fmt.Println("no workers registered")
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(writer, "WORKER\tPLATFORMS\tLABELS\n")
			for _, worker := range list.Workers {
				platforms := "-"
				if len(worker.Platforms) > 0 {
					platforms = strings.Join(worker.Platforms, ",")
				}
				fmt.Fprintf(writer, "%s\t%s\t%s\n",
					worker.ID, platforms, formatLabels(worker.Labels))
			}
			return writer.Flush()
		},
	}
}
