// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package agentcmd assembles the agent command layer into one
// explicitly constructed [System]: a command registry, the dispatcher
// over it, and the plugin loader that fills it.
//
// A System moves through three states. New creates it without loading
// anything; Initialize runs plugin discovery and loading and, unless
// the core plugin failed, makes the system ready; Shutdown shuts the
// plugins down in reverse load order. Dispatch outside the ready state
// fails with NOT_READY.
//
// Dispatch holds the system lock for the whole command, so commands
// arriving from the socket server and the batch queue never run
// concurrently.
package agentcmd
