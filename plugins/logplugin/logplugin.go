// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package logplugin adds log commands beyond the core log.query. It
// also offers log.query itself, but only when no other plugin owns
// it, so the core plugin's handler is never contested.
package logplugin

import (
	"context"

	"github.com/bureau-foundation/agentcmd/lib/command"
	"github.com/bureau-foundation/agentcmd/lib/logbuffer"
	"github.com/bureau-foundation/agentcmd/lib/plugin"
)

const (
	Name     = "log"
	Priority = 100
)

type Plugin struct {
	buffer *logbuffer.Buffer
}

var _ plugin.Plugin = (*Plugin)(nil)

func New(buffer *logbuffer.Buffer) *Plugin {
	return &Plugin{buffer: buffer}
}

// Entry returns the catalog entry for the log plugin.
func Entry(buffer *logbuffer.Buffer) plugin.Entry {
	return plugin.Entry{
		Descriptor: plugin.Descriptor{Name: Name, Priority: Priority},
		Factory:    func() (plugin.Plugin, error) { return New(buffer), nil },
	}
}

func (p *Plugin) Name() string  { return Name }
func (p *Plugin) Priority() int { return Priority }

func (p *Plugin) RegisterHandlers(registrar plugin.Registrar) error {
	if _, owned := registrar.Owner(plugin.CoreCommand); !owned {
		if err := registrar.Register(plugin.CoreCommand, p.queryFallback); err != nil {
			return err
		}
	}
	return registrar.Register("log.summary", p.summary)
}

func (p *Plugin) Initialize(context.Context) error { return nil }
func (p *Plugin) Shutdown(context.Context) error   { return nil }

func (p *Plugin) summary(context.Context, *command.Params) (command.Document, error) {
	levels := p.buffer.Levels()
	return command.Document{
		"capacity":      p.buffer.Capacity(),
		"count":         p.buffer.Count(),
		"totalAppended": p.buffer.TotalAppended(),
		"levels": command.Document{
			logbuffer.LevelLog:     levels[logbuffer.LevelLog],
			logbuffer.LevelWarning: levels[logbuffer.LevelWarning],
			logbuffer.LevelError:   levels[logbuffer.LevelError],
		},
	}, nil
}

// queryFallback is a level-and-count-only log.query for a system
// whose core plugin is missing.
func (p *Plugin) queryFallback(_ context.Context, params *command.Params) (command.Document, error) {
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
	entries, err := p.buffer.Query(logbuffer.Query{Limit: limit, Level: level})
	if err != nil {
		return nil, err
	}
	items := make([]command.Document, len(entries))
	for index, entry := range entries {
		items[index] = command.Document{
			"time":    entry.Time.Format(logbuffer.TimeFormat),
			"level":   entry.Level,
			"message": entry.Message,
		}
	}
	return command.Document{
		"items":         items,
		"totalCaptured": p.buffer.Count(),
		"returned":      len(items),
	}, nil
}
