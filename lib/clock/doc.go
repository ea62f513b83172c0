// Copyright 2026 The Kiln Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Production code accepts a Clock interface parameter instead of
// calling time.Now, time.NewTicker, or time.Sleep directly. In
// production, Real() provides the standard library behavior. In tests,
// Fake() provides a deterministic clock that advances only when
// Advance is called.
//
// # Wiring Pattern
//
// Add a Clock field to structs that use time:
//
//	type Collector struct {
//	    clock clock.Clock
//	    // ...
//	}
//
// In production:
//
//	c := &Collector{clock: clock.Real()}
//
// In tests:
//
//	fc := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	c := &Collector{clock: fc}
//	// ... start goroutines ...
//	fc.WaitForTimers(1)         // wait for the ticker to register
//	fc.Advance(15 * time.Second) // fire it deterministically
//
// # FakeClock Synchronization
//
// When a goroutine calls Sleep or NewTicker on a FakeClock, it
// registers a pending waiter. Use WaitForTimers to block until a
// specific number of waiters are registered before calling Advance.
// This eliminates the race between timer registration and time
// advancement that plagues tests using time.Sleep for synchronization.
package clock
