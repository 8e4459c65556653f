// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package logbuffer captures log entries into a bounded ring buffer and
// answers filtered queries over them.
//
// A [Buffer] holds the most recent Capacity entries; appending to a
// full buffer evicts the oldest. [Buffer.Query] filters by exact level,
// then by keyword under one of three [MatchMode]s, then keeps the most
// recent Limit matches in chronological order. A regex keyword is
// compiled before the buffer is touched, so an invalid pattern costs
// nothing and fails with a *[RegexError].
//
// [Handler] is a slog.Handler that appends every record it sees to a
// Buffer before forwarding to the next handler, which is how a
// process's own logs become queryable.
package logbuffer
