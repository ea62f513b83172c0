// Copyright 2026 The Kiln Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/kiln-build/kiln-exporter/lib/kilnapi"
	"github.com/kiln-build/kiln-exporter/lib/kilnclient"
)

// connection holds the shared daemon connection flags. Every command
// that talks to kilnd embeds one and registers its flags.
type connection struct {
	socket  string
	timeout time.Duration
}

func (c *connection) addFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.socket, "socket", kilnapi.DefaultSocketPath,
		"path to the kilnd control socket")
	flagSet.DurationVar(&c.timeout, "timeout", kilnclient.DefaultTimeout,
		"per-call timeout")
}

// client builds a daemon client from the parsed flags. The per-call
// deadline lives in the client, so commands run against the
// background context.
func (c *connection) client() *kilnclient.Client {
	return kilnclient.New(c.socket, c.timeout)
}
