// Copyright 2026 The Kiln Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "kilnctl",
		Subcommands: []*Command{
			{
				Name: "version",
				Run: func(args []string) error {
					called = "version"
					return nil
				},
			},
			{
				Name: "history",
				Run: func(args []string) error {
					called = "history"
					return nil
				},
			},
		},
	}

	if err := root.Execute([]string{"history"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "history" {
		t.Errorf("dispatched to %q, want %q", called, "history")
	}
}

func TestCommand_Execute_NestedSubcommands(t *testing.T) {
	var called string
	var receivedArgs []string

	root := &Command{
		Name: "kilnctl",
		Subcommands: []*Command{
			{
				Name: "cache",
				Subcommands: []*Command{
					{
						Name: "prune",
						Run: func(args []string) error {
							called = "cache prune"
							receivedArgs = args
							return nil
						},
					},
				},
			},
		},
	}

	if err := root.Execute([]string{"cache", "prune", "extra-arg"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "cache prune" {
		t.Errorf("dispatched to %q, want %q", called, "cache prune")
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "extra-arg" {
		t.Errorf("args = %v, want [extra-arg]", receivedArgs)
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	var socketPath string
	var target string

	command := &Command{
		Name: "history",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("history", pflag.ContinueOnError)
			flagSet.StringVar(&socketPath, "socket", "/default.sock", "socket path")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				target = args[0]
			}
			return nil
		},
	}

	if err := command.Execute([]string{"--socket", "/custom.sock", "refs/heads/main"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if socketPath != "/custom.sock" {
		t.Errorf("socketPath = %q, want %q", socketPath, "/custom.sock")
	}
	if target != "refs/heads/main" {
		t.Errorf("target = %q, want %q", target, "refs/heads/main")
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	command := &Command{
		Name: "history",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("history", pflag.ContinueOnError)
			flagSet.Uint64("since", 0, "sequence cursor")
			flagSet.String("socket", "/default.sock", "socket path")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--sicne"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "did you mean --since") {
		t.Errorf("error = %q, want suggestion for '--since'", errStr)
	}
	if !strings.Contains(errStr, "sicne") {
		t.Errorf("error = %q, should mention the bad flag", errStr)
	}
	if !strings.Contains(errStr, "--help") {
		t.Errorf("error = %q, should point to --help", errStr)
	}
}

func TestCommand_Execute_UnknownFlagNoSuggestion(t *testing.T) {
	command := &Command{
		Name: "history",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("history", pflag.ContinueOnError)
			flagSet.Uint64("since", 0, "sequence cursor")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}

	err := command.Execute([]string{"--zzzzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not suggest for distant flag", err.Error())
	}
	if !strings.Contains(err.Error(), "--help") {
		t.Errorf("error = %q, should point to --help", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandSuggestion(t *testing.T) {
	root := &Command{
		Name: "kilnctl",
		Subcommands: []*Command{
			{Name: "workers"},
			{Name: "history"},
			{Name: "version"},
		},
	}

	err := root.Execute([]string{"histroy"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if !strings.Contains(err.Error(), "did you mean \"history\"") {
		t.Errorf("error = %q, want suggestion for 'history'", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandNoSuggestion(t *testing.T) {
	root := &Command{
		Name: "kilnctl",
		Subcommands: []*Command{
			{Name: "workers"},
			{Name: "history"},
		},
	}

	err := root.Execute([]string{"zzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not contain suggestion for distant input", err.Error())
	}
}

func TestCommand_Execute_HelpFlag(t *testing.T) {
	for _, helpArg := range []string{"-h", "--help", "help"} {
		t.Run(helpArg, func(t *testing.T) {
			root := &Command{
				Name:    "kilnctl",
				Summary: "Query a kilnd build daemon",
				Subcommands: []*Command{
					{Name: "history", Summary: "List completed builds"},
				},
			}

			err := root.Execute([]string{helpArg})
			if err != nil {
				t.Errorf("Execute(%q) error: %v", helpArg, err)
			}
		})
	}
}

func TestCommand_Execute_NoArgsShowsHelp(t *testing.T) {
	root := &Command{
		Name: "kilnctl",
		Subcommands: []*Command{
			{Name: "history", Summary: "List completed builds"},
		},
	}

	err := root.Execute([]string{})
	if err == nil {
		t.Fatal("Execute() = nil, want error for missing subcommand")
	}
	if !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("error = %q, want 'subcommand required'", err.Error())
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	command := &Command{
		Name:        "kilnctl",
		Description: "Query a kilnd build daemon over its control socket.",
		Subcommands: []*Command{
			{Name: "info", Summary: "Show daemon build information"},
			{Name: "du", Summary: "Show content cache disk usage"},
			{Name: "version", Summary: "Print version information"},
		},
		Examples: []Example{
			{
				Description: "Show daemon build information",
				Command:     "kilnctl info",
			},
			{
				Description: "Inspect the cache on a non-default socket",
				Command:     "kilnctl du --socket /tmp/kilnd-mock.sock",
			},
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"Query a kilnd build daemon over its control socket.",
		"Usage:",
		"kilnctl <command> [flags]",
		"Commands:",
		"info",
		"Show daemon build information",
		"du",
		"Show content cache disk usage",
		"Examples:",
		"kilnctl info",
		"kilnctl du --socket",
		"Run 'kilnctl <command> --help'",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_PrintHelp_WithFlags(t *testing.T) {
	command := &Command{
		Name:    "history",
		Summary: "List completed builds",
		Usage:   "kilnctl history [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("history", pflag.ContinueOnError)
			flagSet.String("socket", "/run/kiln/kilnd.sock", "daemon control socket")
			flagSet.Uint64("since", 0, "sequence cursor")
			return flagSet
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"kilnctl history [flags]",
		"Flags:",
		"socket",
		"since",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_FullName(t *testing.T) {
	root := &Command{Name: "kilnctl"}
	cache := &Command{Name: "cache", parent: root}
	prune := &Command{Name: "prune", parent: cache}

	if got := root.fullName(); got != "kilnctl" {
		t.Errorf("root.fullName() = %q, want %q", got, "kilnctl")
	}
	if got := cache.fullName(); got != "kilnctl cache" {
		t.Errorf("cache.fullName() = %q, want %q", got, "kilnctl cache")
	}
	if got := prune.fullName(); got != "kilnctl cache prune" {
		t.Errorf("prune.fullName() = %q, want %q", got, "kilnctl cache prune")
	}
}
