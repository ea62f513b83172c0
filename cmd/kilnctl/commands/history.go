// Copyright 2026 The Kiln Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/kiln-build/kiln-exporter/cmd/kilnctl/cli"
)

func historyCommand() *cli.Command {
	var conn connection
	var since uint64
	var limit int

	return &cli.Command{
		Name:    "history",
		Summary: "List completed builds",
		Description: `Display completed builds from the daemon's bounded history window,
oldest first. The daemon retains a limited number of records; --since
resumes from a sequence cursor, and the printed next cursor feeds the
following invocation.`,
		Usage: "kilnctl history [flags]",
		Examples: []cli.Example{
			{
				Description: "Show the most recent 10 builds",
				Command:     "kilnctl history --limit 10",
			},
			{
				Description: "Resume from a previous cursor",
				Command:     "kilnctl history --since 512",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("history", pflag.ContinueOnError)
			conn.addFlags(flagSet)
			flagSet.Uint64Var(&since, "since", 0, "only builds with sequence numbers after this cursor")
			flagSet.IntVar(&limit, "limit", 0, "show only the most recent N builds (0 = all returned)")
			return flagSet
		},
		Run: func(args []string) error {
			history, err := conn.client().BuildHistory(context.Background(), since)
			if err != nil {
				return err
			}

			builds := history.Builds
			if limit > 0 && len(builds) > limit {
				builds = builds[len(builds)-limit:]
			}

			if len(builds) == 0 {
				fmt.Printf("no builds after sequence %d\n", since)
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(writer, "SEQ\tSTATUS\tREF\tSTEPS\tCACHED\tCOMPLETED\n")
			for _, build := range builds {
				ref := build.Ref
				if ref == "" {
					ref = "-"
				}
				fmt.Fprintf(writer, "%d\t%s\t%s\t%d\t%d\t%s\n",
					build.Seq, build.Status, ref,
					build.Steps, build.CachedSteps,
					formatCompleted(build.CompletedAt))
			}
			if err := writer.Flush(); err != nil {
				return err
			}

			fmt.Printf("\nNext cursor: %d\n", history.Next)
			return nil
		},
	}
}
