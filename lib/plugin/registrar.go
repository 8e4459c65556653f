// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package plugin

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/agentcmd/lib/command"
)

// PluginConflictError reports a command type claimed by two plugins.
// Owner keeps the command; Contender's claim is dropped.
type PluginConflictError struct {
	CommandType string `json:"commandType"`
	Owner       string `json:"owner"`
	Contender   string `json:"contender"`
}

func (e *PluginConflictError) Error() string {
	return fmt.Sprintf("plugin %q cannot register %q: already owned by %q", e.Contender, e.CommandType, e.Owner)
}

// ErrorCode satisfies command.Coded.
func (e *PluginConflictError) ErrorCode() string { return string(command.CodePluginConflict) }

// ErrRegistrarSealed is returned by Register after RegisterHandlers
// has returned.
var ErrRegistrarSealed = errors.New("registrar is sealed")

type stagedHandler struct {
	commandType string
	handler     command.HandlerFunc
}

// stagedRegistrar collects one plugin's registrations until the
// loader commits or discards them.
type stagedRegistrar struct {
	plugin    string
	owners    map[string]string
	registry  *command.Registry
	staged    []stagedHandler
	conflicts []*PluginConflictError
	sealed    bool
}

func (r *stagedRegistrar) Register(commandType string, handler command.HandlerFunc) error {
	if r.sealed {
		return fmt.Errorf("plugin %q registering %q: %w", r.plugin, commandType, ErrRegistrarSealed)
	}
	if commandType == "" {
		return command.InvalidFields("plugin %q registered an empty command type", r.plugin)
	}
	if handler == nil {
		return command.InvalidFields("plugin %q registered %q with a nil handler", r.plugin, commandType)
	}
	for _, staged := range r.staged {
		if staged.commandType == commandType {
			return fmt.Errorf("plugin %q: %w", r.plugin, &command.DuplicateCommandError{CommandType: commandType})
		}
	}
	if owner, owned := r.Owner(commandType); owned {
		conflict := &PluginConflictError{CommandType: commandType, Owner: owner, Contender: r.plugin}
		r.conflicts = append(r.conflicts, conflict)
		return conflict
	}
	r.staged = append(r.staged, stagedHandler{commandType: commandType, handler: handler})
	return nil
}

func (r *stagedRegistrar) Owner(commandType string) (string, bool) {
	if owner, owned := r.owners[commandType]; owned {
		return owner, true
	}
	for _, staged := range r.staged {
		if staged.commandType == commandType {
			return r.plugin, true
		}
	}
	// Registered directly on the registry, outside any plugin.
	if r.registry.Has(commandType) {
		return "", true
	}
	return "", false
}

func (r *stagedRegistrar) commandTypes() []string {
	types := make([]string, len(r.staged))
	for index, staged := range r.staged {
		types[index] = staged.commandType
	}
	return types
}

// commit binds every staged handler into the registry.
func (r *stagedRegistrar) commit() error {
	for _, staged := range r.staged {
		if err := r.registry.Register(staged.commandType, staged.handler); err != nil {
			return fmt.Errorf("committing %q: %w", staged.commandType, err)
		}
		r.owners[staged.commandType] = r.plugin
	}
	return nil
}

// onlyConflicts reports whether every leaf of err is a
// *PluginConflictError.
func onlyConflicts(err error) bool {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, inner := range joined.Unwrap() {
			if inner != nil && !onlyConflicts(inner) {
				return false
			}
		}
		return true
	}
	var conflict *PluginConflictError
	return errors.As(err, &conflict)
}
