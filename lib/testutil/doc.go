// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [SocketDir] creates a short temporary directory for Unix sockets,
// whose paths are limited to 108 bytes. [WriteFile] drops fixture
// documents into a test directory. [Logger] routes slog output through
// t.Log so it appears only for failing or verbose tests.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern; they are the only place tests wait on the real clock.
//
// All helpers call t.Fatalf on failure.
package testutil
