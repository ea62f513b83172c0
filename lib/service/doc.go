// Copyright 2026 The Kiln Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides server scaffolding shared by kiln binaries.
//
// Two servers live here:
//
//   - SocketServer: a CBOR request-response protocol on a Unix socket
//     with per-action dispatch, connection timeouts, and graceful
//     shutdown. This is the kilnd control protocol surface; the mock
//     daemon serves it, and test fixtures stand up throwaway instances
//     of it.
//   - HTTPServer: a TCP listener with readiness signaling and graceful
//     shutdown. The exporter mounts its Prometheus handler on it.
//
// Binaries compose these in their own main() rather than subclassing a
// framework. Both follow the same lifecycle: Serve(ctx) blocks until
// the context is cancelled, then drains in-flight work before
// returning.
package service
