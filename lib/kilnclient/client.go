// Copyright 2026 The Kiln Authors
// SPDX-License-Identifier: Apache-2.0

// Package kilnclient implements the exporter's side of the kilnd
// control protocol: one typed method per status action, each call on
// its own connection with one bounded deadline, and failures
// classified into a small taxonomy (see CallError) instead of raw
// transport errors.
//
// The client is stateless: no connection pooling, no retries, no
// caching. A daemon restart between calls costs nothing; a daemon
// outage surfaces as ErrorUnavailable on the next call.
package kilnclient

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/kiln-build/kiln-exporter/lib/codec"
	"github.com/kiln-build/kiln-exporter/lib/kilnapi"
	"github.com/kiln-build/kiln-exporter/lib/service"
)

// DefaultTimeout bounds a single call when the caller does not supply
// a timeout. Matches the default collection interval so one stalled
// call can never span two collection cycles.
const DefaultTimeout = 15 * time.Second

// maxResponseSize is the maximum size of a single CBOR response.
// Matches the server's request size cap for symmetry; the largest
// legitimate response is a full build-history window, well under 1 MB.
const maxResponseSize = 1024 * 1024

// Client issues control protocol calls against one kilnd socket.
// Methods are safe for concurrent use; each opens its own connection.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// New creates a client for the kilnd control socket at socketPath.
// timeout bounds each individual call (dial through decode); a
// non-positive timeout selects DefaultTimeout.
func New(socketPath string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		socketPath: socketPath,
		timeout:    timeout,
	}
}

// Info fetches daemon identity and uptime.
func (c *Client) Info(ctx context.Context) (*kilnapi.DaemonInfo, error) {
	var info kilnapi.DaemonInfo
	if err := c.call(ctx, kilnapi.Request{Action: kilnapi.ActionInfo}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ListWorkers fetches the registered build workers.
func (c *Client) ListWorkers(ctx context.Context) (*kilnapi.WorkerList, error) {
	var workers kilnapi.WorkerList
	if err := c.call(ctx, kilnapi.Request{Action: kilnapi.ActionListWorkers}, &workers); err != nil {
		return nil, err
	}
	return &workers, nil
}

// DiskUsage fetches cache store usage totals.
func (c *Client) DiskUsage(ctx context.Context) (*kilnapi.DiskUsage, error) {
	var usage kilnapi.DiskUsage
	if err := c.call(ctx, kilnapi.Request{Action: kilnapi.ActionDiskUsage}, &usage); err != nil {
		return nil, err
	}
	return &usage, nil
}

// BuildHistory fetches completed builds with seq > since.
func (c *Client) BuildHistory(ctx context.Context, since uint64) (*kilnapi.BuildHistory, error) {
	var history kilnapi.BuildHistory
	request := kilnapi.Request{Action: kilnapi.ActionBuildHistory, Since: since}
	if err := c.call(ctx, request, &history); err != nil {
		return nil, err
	}
	return &history, nil
}

// call performs one request-response cycle: dial, write the request,
// half-close, read the envelope, decode the payload into result. All
// failures come back as *CallError.
func (c *Client) call(ctx context.Context, request kilnapi.Request, result any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return &CallError{Action: request.Action, Kind: classifyDial(err), Err: err}
	}
	defer conn.Close()

	// One deadline covers the write and the read so the whole call is
	// bounded by the configured timeout, not just the dial.
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return &CallError{Action: request.Action, Kind: classifyTransport(err), Err: err}
	}

	// Half-close the write side. CBOR is self-delimiting so this
	// isn't strictly necessary, but it lets the daemon's read side
	// see EOF cleanly.
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	limited := &io.LimitedReader{R: conn, N: maxResponseSize}
	var response service.Response
	if err := codec.NewDecoder(limited).Decode(&response); err != nil {
		kind := classifyRead(err)
		if limited.N == 0 {
			// The decoder ran the reader dry: the response exceeded
			// the size cap rather than the connection failing.
			kind = ErrorDecode
		}
		return &CallError{Action: request.Action, Kind: kind, Err: err}
	}

	if !response.OK {
		return &CallError{
			Action: request.Action,
			Kind:   ErrorRejected,
			Err:    errors.New(response.Error),
		}
	}

	if result != nil && len(response.Data) > 0 {
		if err := codec.Unmarshal(response.Data, result); err != nil {
			return &CallError{Action: request.Action, Kind: ErrorDecode, Err: err}
		}
	}

	return nil
}

// isTimeout reports whether err is any flavor of deadline expiry:
// context deadline, connection deadline, or a net.Error timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// classifyDial maps a dial failure to a Kind. A dial that ran out of
// time is a timeout; anything else (missing socket, nothing
// listening, permission) means the daemon is unreachable.
func classifyDial(err error) Kind {
	if isTimeout(err) {
		return ErrorTimeout
	}
	return ErrorUnavailable
}

// classifyTransport maps a write-side failure to a Kind. A connected
// peer that stops accepting bytes has gone away.
func classifyTransport(err error) Kind {
	if isTimeout(err) {
		return ErrorTimeout
	}
	return ErrorUnavailable
}

// classifyRead maps an envelope-read failure to a Kind. Connection
// teardown (EOF, reset) means the daemon went away mid-call; anything
// else is a malformed response.
func classifyRead(err error) Kind {
	switch {
	case isTimeout(err):
		return ErrorTimeout
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE):
		return ErrorUnavailable
	default:
		return ErrorDecode
	}
}
