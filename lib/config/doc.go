// Copyright 2026 The Kiln Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the
// exporter.
//
// Configuration is loaded from a single file specified by either the
// KILN_EXPORTER_CONFIG environment variable (via [Load]) or a
// --config flag (via [LoadFile]). There are no fallbacks, no
// ~/.config discovery, and no automatic file search. Unlike most
// daemons the exporter runs fine with no file at all: every field has
// a default, and [Load] returns those defaults when the variable is
// unset.
//
// The file is the single source of truth for its values. Environment
// variables never override individual fields; the only thing the
// environment can do is point at the file. Flag overrides are applied
// by the binary after loading, before [Config.Validate].
//
// Key exports:
//
//   - [Config] -- socket, listen address, collection interval, call timeout
//   - [Default] -- returns a Config with the stock defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends only on the wire-protocol constants in
// lib/kilnapi.
package config
