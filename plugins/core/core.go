// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package core is the priority-0 plugin. It provides log.query, the
// one command an agent needs to diagnose everything else, so it
// depends on nothing but the log buffer.
package core

import (
	"context"
	"errors"

	"github.com/bureau-foundation/agentcmd/lib/command"
	"github.com/bureau-foundation/agentcmd/lib/logbuffer"
	"github.com/bureau-foundation/agentcmd/lib/plugin"
)

// Name is the plugin name.
const Name = "core"

// Plugin serves log.query from a log buffer.
type Plugin struct {
	buffer *logbuffer.Buffer
}

var _ plugin.Plugin = (*Plugin)(nil)

// New creates the core plugin over buffer.
func New(buffer *logbuffer.Buffer) *Plugin {
	return &Plugin{buffer: buffer}
}

// Entry returns the catalog entry for the core plugin.
func Entry(buffer *logbuffer.Buffer) plugin.Entry {
	return plugin.Entry{
		Descriptor: plugin.Descriptor{Name: Name, Priority: plugin.CorePriority},
		Factory:    func() (plugin.Plugin, error) { return New(buffer), nil },
	}
}

func (p *Plugin) Name() string  { return Name }
func (p *Plugin) Priority() int { return plugin.CorePriority }

func (p *Plugin) RegisterHandlers(registrar plugin.Registrar) error {
	return registrar.Register(plugin.CoreCommand, p.queryLogs)
}

func (p *Plugin) Initialize(context.Context) error {
	if p.buffer == nil {
		return errors.New("core plugin has no log buffer")
	}
	return nil
}

func (p *Plugin) Shutdown(context.Context) error { return nil }

// queryLogs handles log.query.
//
// Parameters: n (required, 0 for every match), level, keyword,
// matchMode (Exact, Fuzzy, Regex; Fuzzy when a keyword is given
// without one), includeStack.
func (p *Plugin) queryLogs(_ context.Context, params *command.Params) (command.Document, error) {
	limit, err := params.RequireInt("n")
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, command.InvalidFields("field %q must be >= 0, got %d", "n", limit)
	}
	level, err := params.GetString("level", "")
	if err != nil {
		return nil, err
	}
	keyword, err := params.GetString("keyword", "")
	if err != nil {
		return nil, err
	}
	modeName, err := params.GetString("matchMode", "")
	if err != nil {
		return nil, err
	}
	includeStack, err := params.GetBool("includeStack", false)
	if err != nil {
		return nil, err
	}
	mode, err := logbuffer.ParseMatchMode(modeName)
	if err != nil {
		return nil, command.InvalidFields("%v", err)
	}

	entries, err := p.buffer.Query(logbuffer.Query{
		Limit:        limit,
		Level:        level,
		Keyword:      keyword,
		Mode:         mode,
		IncludeStack: includeStack,
	})
	if err != nil {
		return nil, err
	}

	items := make([]command.Document, len(entries))
	for index, entry := range entries {
		item := command.Document{
			"time":    entry.Time.Format(logbuffer.TimeFormat),
			"level":   entry.Level,
			"message": entry.Message,
		}
		if includeStack {
			item["stack"] = entry.Stack
		}
		items[index] = item
	}
	return command.Document{
		"items":         items,
		"totalCaptured": p.buffer.Count(),
		"returned":      len(items),
	}, nil
}
