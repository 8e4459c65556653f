// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts wall-clock time so that timestamping,
// timeouts, polling, and retry backoff can be tested
// deterministically.
//
// Production code receives [Real]; tests construct a [FakeClock] with
// [Fake] and move time explicitly with [FakeClock.Advance]. Code that
// needs the current time or waits on a duration takes a Clock rather
// than calling the time package directly.
package clock
