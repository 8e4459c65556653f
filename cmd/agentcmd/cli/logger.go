// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/bureau-foundation/agentcmd/lib/clock"
	"github.com/bureau-foundation/agentcmd/lib/logbuffer"
)

// NewCommandLogger creates a structured logger writing to w at level.
// When w is a terminal, uses slog.TextHandler for human-readable
// output. Otherwise (piped, redirected, or not a file at all) uses
// slog.JSONHandler for machine-parseable output.
func NewCommandLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(consoleHandler(w, level))
}

// NewCapturingLogger is NewCommandLogger with every record at or above
// level also captured into buffer, so the process's own log output is
// answerable by log.query.
func NewCapturingLogger(w io.Writer, buffer *logbuffer.Buffer, clk clock.Clock, level slog.Leveler) *slog.Logger {
	return slog.New(logbuffer.NewHandler(buffer, clk, level, consoleHandler(w, level)))
}

func consoleHandler(w io.Writer, level slog.Leveler) slog.Handler {
	options := &slog.HandlerOptions{Level: level}
	if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		return slog.NewTextHandler(w, options)
	}
	return slog.NewJSONHandler(w, options)
}
