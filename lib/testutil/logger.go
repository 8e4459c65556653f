// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// Logger returns a debug-level text logger that writes through t.Log.
// Output produced after the test completes (by goroutines still
// draining) is discarded rather than tripping the testing package.
func Logger(t *testing.T) *slog.Logger {
	t.Helper()
	writer := &testWriter{t: t}
	t.Cleanup(func() {
		writer.mu.Lock()
		defer writer.mu.Unlock()
		writer.finished = true
	})
	return slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type testWriter struct {
	t        *testing.T
	mu       sync.Mutex
	finished bool
}

func (w *testWriter) Write(data []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.finished {
		w.t.Log(strings.TrimRight(string(data), "\n"))
	}
	return len(data), nil
}
