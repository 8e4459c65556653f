// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package command is the dispatch core of the agent command layer.
//
// A command is a named operation ("log.query",
// "prefab.queryHierarchy") bound to a [HandlerFunc] in a [Registry].
// The [Dispatcher] resolves the handler for an incoming command type,
// wraps the raw parameter document in a [Params] reader, invokes the
// handler synchronously, and folds the outcome into an [Outcome]: a
// result document on success or an [Envelope] carrying a stable error
// code and a human-readable message on failure.
//
// Handlers report failures by returning a *[Error] built with one of
// the code-specific constructors ([InvalidFields], [NotFound], ...).
// Errors from other packages participate in the taxonomy by
// implementing [Coded]; anything else surfaces as RUNTIME_ERROR.
//
// The registry and dispatcher hold no locks. The host serializes
// dispatch, and registration completes during plugin load before the
// first dispatch is accepted.
package command
