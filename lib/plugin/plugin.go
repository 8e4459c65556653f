// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package plugin

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/agentcmd/lib/command"
)

// CorePriority is the priority of the built-in core plugin.
const CorePriority = 0

// CoreCommand is the command whose presence makes the system
// functional: without log.query an agent cannot diagnose anything.
const CoreCommand = "log.query"

// Plugin is a unit of command handlers with a lifecycle.
type Plugin interface {
	Name() string
	Priority() int

	// RegisterHandlers binds the plugin's commands. The registrar is
	// sealed once this returns; later Register calls fail.
	RegisterHandlers(registrar Registrar) error

	// Initialize runs after registration and before any of the
	// plugin's handlers become reachable.
	Initialize(ctx context.Context) error

	// Shutdown releases resources. It is called once, in reverse load
	// order, for every plugin that initialized.
	Shutdown(ctx context.Context) error
}

// Registrar is the registration surface handed to a plugin.
type Registrar interface {
	// Register stages a handler. A command type owned by another
	// plugin yields a *PluginConflictError; one this plugin already
	// staged yields a *command.DuplicateCommandError, which fails the
	// plugin if RegisterHandlers returns it.
	Register(commandType string, handler command.HandlerFunc) error

	// Owner reports which plugin owns commandType, if any. Optional
	// plugins use it to skip commands that are already provided.
	Owner(commandType string) (string, bool)
}

// Descriptor identifies a plugin before it is instantiated.
type Descriptor struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
}

// Factory constructs a plugin instance.
type Factory func() (Plugin, error)

// Entry pairs a descriptor with its factory.
type Entry struct {
	Descriptor Descriptor
	Factory    Factory
}

// Discovery produces the entries to load, in discovery order.
type Discovery interface {
	Discover() ([]Entry, error)
}

// DiscoveryFunc adapts a function to [Discovery].
type DiscoveryFunc func() ([]Entry, error)

func (f DiscoveryFunc) Discover() ([]Entry, error) { return f() }

// Catalog is a fixed, explicitly assembled list of plugins.
type Catalog []Entry

// Add appends an entry and returns the extended catalog.
func (c Catalog) Add(name string, priority int, factory Factory) Catalog {
	return append(c, Entry{Descriptor: Descriptor{Name: name, Priority: priority}, Factory: factory})
}

// Discover returns a copy of the catalog.
func (c Catalog) Discover() ([]Entry, error) {
	entries := make([]Entry, len(c))
	copy(entries, c)
	return entries, nil
}

// State is a plugin's lifecycle position.
type State int

const (
	Unloaded State = iota
	Initialized
	ShutDown
	Failed
)

var stateNames = [...]string{
	Unloaded:    "unloaded",
	Initialized: "initialized",
	ShutDown:    "shut_down",
	Failed:      "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText renders the state by name in JSON output.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
