// Copyright 2026 The Kiln Authors
// SPDX-License-Identifier: Apache-2.0

package kilnclient

import "fmt"

// Kind classifies a failed control-socket call. The collector branches
// on it for logging and per-call health reporting; nothing retries
// based on it (retry policy lives with the collection interval).
type Kind int

const (
	// ErrorUnavailable means the daemon could not be reached: the
	// socket is missing, nothing is listening, or the connection
	// dropped mid-call.
	ErrorUnavailable Kind = iota

	// ErrorTimeout means the call exceeded its deadline.
	ErrorTimeout

	// ErrorRejected means the daemon replied ok=false. The daemon's
	// message is carried as the underlying error.
	ErrorRejected

	// ErrorDecode means the response could not be decoded: invalid
	// CBOR, a payload that does not match the expected type, or a
	// response exceeding the size cap.
	ErrorDecode
)

// String returns the kind's wire-stable name, used in logs and in the
// per-call health map.
func (k Kind) String() string {
	switch k {
	case ErrorUnavailable:
		return "unavailable"
	case ErrorTimeout:
		return "timeout"
	case ErrorRejected:
		return "rejected"
	case ErrorDecode:
		return "decode"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// CallError is the failure type for every Client method. Callers that
// care which call failed or why branch on Action and Kind via
// errors.As.
type CallError struct {
	// Action is the control protocol action that failed.
	Action string

	// Kind classifies the failure.
	Kind Kind

	// Err is the underlying cause. For ErrorRejected it carries the
	// daemon's error message.
	Err error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("kilnd call %q: %s: %v", e.Action, e.Kind, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }
