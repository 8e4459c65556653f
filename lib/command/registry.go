// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"sort"
)

// HandlerFunc executes one command. It returns the result document on
// success, or an error (preferably a *Error) on failure. Handlers run
// synchronously on the dispatching goroutine.
type HandlerFunc func(ctx context.Context, params *Params) (Document, error)

// Registry maps command types to handlers. Command types are compared
// case-sensitively. Registrations are permanent for the lifetime of the
// registry: there is no unregister, so a resolved handler stays valid.
type Registry struct {
	handlers map[string]HandlerFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc)}
}

// Register binds handler to commandType. Returns a
// *DuplicateCommandError if the type is already bound; the existing
// binding is left unchanged.
func (r *Registry) Register(commandType string, handler HandlerFunc) error {
	if commandType == "" {
		return errors.New("registering command: empty command type")
	}
	if handler == nil {
		return InvalidFields("registering command %q: nil handler", commandType)
	}
	if _, exists := r.handlers[commandType]; exists {
		return &DuplicateCommandError{CommandType: commandType}
	}
	r.handlers[commandType] = handler
	return nil
}

// Resolve returns the handler bound to commandType, or an
// *UnknownCommandError.
func (r *Registry) Resolve(commandType string) (HandlerFunc, error) {
	handler, exists := r.handlers[commandType]
	if !exists {
		return nil, &UnknownCommandError{CommandType: commandType}
	}
	return handler, nil
}

// Has reports whether commandType is bound.
func (r *Registry) Has(commandType string) bool {
	_, exists := r.handlers[commandType]
	return exists
}

// Len returns the number of registered command types.
func (r *Registry) Len() int { return len(r.handlers) }

// Registered returns every bound command type in sorted order.
func (r *Registry) Registered() []string {
	types := make([]string, 0, len(r.handlers))
	for commandType := range r.handlers {
		types = append(types, commandType)
	}
	sort.Strings(types)
	return types
}
