// Copyright 2026 The Kiln Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/kiln-build/kiln-exporter/cmd/kilnctl/cli"
)

func duCommand() *cli.Command {
	var conn connection

	return &cli.Command{
		Name:    "du",
		Summary: "Show content cache disk usage",
		Description: `Display the daemon's content cache occupancy: configured size,
bytes in use, bytes reclaimable by garbage collection, the record count,
and a per-record-type breakdown.`,
		Usage: "kilnctl du [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("du", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			usage, err := conn.client().DiskUsage(context.Background())
			if err != nil {
				return err
			}

			fmt.Printf("Size:         %s\n", formatBytes(usage.SizeBytes))
			fmt.Printf("Used:         %s\n", formatBytes(usage.UsedBytes))
			fmt.Printf("Reclaimable:  %s\n", formatBytes(usage.ReclaimableBytes))
			fmt.Printf("Records:      %d\n", usage.Records)

			if len(usage.ByType) == 0 {
				return nil
			}

			types := make([]string, 0, len(usage.ByType))
			for recordType := range usage.ByType {
				types = append(types, recordType)
			}
			sort.Strings(types)

			fmt.Printf("\nBy type\n")
			writer := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			for _, recordType := range types {
				fmt.Fprintf(writer, "  %s\t%s\n", recordType, formatBytes(usage.ByType[recordType]))
			}
			return writer.Flush()
		},
	}
}
