// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logbuffer

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/bureau-foundation/agentcmd/lib/clock"
)

// StackKey is the attribute a caller sets to attach an explicit stack
// trace to a record.
const StackKey = "stack"

// Handler is a slog.Handler that captures records into a Buffer and
// then forwards them to an optional next handler. Captured messages are
// the record message followed by its attributes in key=value form;
// the stack attribute is lifted out into Entry.Stack.
type Handler struct {
	buffer *Buffer
	clock  clock.Clock
	level  slog.Leveler
	next   slog.Handler

	// prefix is the pre-rendered text of attributes added with
	// WithAttrs; group is the dotted WithGroup path.
	prefix string
	group  string
}

// NewHandler returns a Handler capturing records at or above level into
// buffer and forwarding to next. next may be nil.
func NewHandler(buffer *Buffer, clk clock.Clock, level slog.Leveler, next slog.Handler) *Handler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &Handler{buffer: buffer, clock: clk, level: level, next: next}
}

// Enabled reports whether either the capture or the next handler wants
// records at level.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	if level >= h.level.Level() {
		return true
	}
	return h.next != nil && h.next.Enabled(ctx, level)
}

// Handle captures record and forwards it.
func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level >= h.level.Level() {
		h.capture(record)
	}
	if h.next != nil && h.next.Enabled(ctx, record.Level) {
		return h.next.Handle(ctx, record)
	}
	return nil
}

func (h *Handler) capture(record slog.Record) {
	var message strings.Builder
	message.WriteString(record.Message)
	message.WriteString(h.prefix)

	var stack string
	record.Attrs(func(attr slog.Attr) bool {
		if attr.Key == StackKey {
			stack = attr.Value.String()
			return true
		}
		appendAttr(&message, h.group, attr)
		return true
	})

	level := levelName(record.Level)
	if stack == "" && level == LevelError && record.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{record.PC}).Next()
		if frame.Function != "" {
			stack = fmt.Sprintf("%s\n\t%s:%d", frame.Function, frame.File, frame.Line)
		}
	}

	h.buffer.Append(Entry{
		Time:    h.clock.Now(),
		Level:   level,
		Message: message.String(),
		Stack:   stack,
	})
}

// WithAttrs returns a handler whose captured messages include attrs.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	var prefix strings.Builder
	prefix.WriteString(h.prefix)
	for _, attr := range attrs {
		appendAttr(&prefix, h.group, attr)
	}
	clone.prefix = prefix.String()
	if h.next != nil {
		clone.next = h.next.WithAttrs(attrs)
	}
	return &clone
}

// WithGroup returns a handler that qualifies subsequent attribute keys
// with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.group = qualify(h.group, name)
	if h.next != nil {
		clone.next = h.next.WithGroup(name)
	}
	return &clone
}

func appendAttr(builder *strings.Builder, group string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}
	if attr.Value.Kind() == slog.KindGroup {
		nested := qualify(group, attr.Key)
		for _, member := range attr.Value.Group() {
			appendAttr(builder, nested, member)
		}
		return
	}
	fmt.Fprintf(builder, " %s=%s", qualify(group, attr.Key), attr.Value.String())
}

func qualify(group, key string) string {
	if group == "" {
		return key
	}
	if key == "" {
		return group
	}
	return group + "." + key
}

// levelName folds slog levels into the three entry levels.
func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return LevelError
	case level >= slog.LevelWarn:
		return LevelWarning
	default:
		return LevelLog
	}
}
