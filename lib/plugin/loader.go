// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/bureau-foundation/agentcmd/lib/clock"
	"github.com/bureau-foundation/agentcmd/lib/command"
)

// Loader instantiates plugins and binds their handlers into a
// registry. A Loader is not safe for concurrent use; the owning
// system serializes Load, Shutdown, and dispatch.
type Loader struct {
	registry *command.Registry
	clock    clock.Clock
	logger   *slog.Logger
	disabled map[string]bool

	owners  map[string]string
	states  map[string]State
	entries []Descriptor

	// initialized holds plugins in load order for reverse shutdown.
	initialized []Plugin
}

// NewLoader creates a loader that commits into registry.
func NewLoader(registry *command.Registry, clk clock.Clock, logger *slog.Logger) *Loader {
	return &Loader{
		registry: registry,
		clock:    clk,
		logger:   logger,
		disabled: make(map[string]bool),
		owners:   make(map[string]string),
		states:   make(map[string]State),
	}
}

// Disable excludes the named plugins from subsequent loads. Core
// priority plugins cannot be disabled.
func (l *Loader) Disable(names ...string) {
	for _, name := range names {
		l.disabled[name] = true
	}
}

// Load discovers plugins and loads them in ascending priority order,
// ties keeping discovery order. The returned error is non-nil only
// when discovery itself fails; per-plugin failures are reported in
// the result.
func (l *Loader) Load(ctx context.Context, discovery Discovery) (*LoadResult, error) {
	result := newLoadResult(l.clock.Now())
	entries, err := discovery.Discover()
	if err != nil {
		return nil, fmt.Errorf("discovering plugins: %w", err)
	}
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return a.Descriptor.Priority - b.Descriptor.Priority
	})

	for index, entry := range entries {
		descriptor := entry.Descriptor
		l.entries = append(l.entries, descriptor)
		if _, seen := l.states[descriptor.Name]; !seen {
			l.states[descriptor.Name] = Unloaded
		}

		if l.disabled[descriptor.Name] {
			if descriptor.Priority == CorePriority {
				l.logger.Warn("ignoring request to disable core plugin", "plugin", descriptor.Name)
			} else {
				l.logger.Info("plugin disabled by configuration", "plugin", descriptor.Name)
				result.Skipped = append(result.Skipped, descriptor.Name)
				continue
			}
		}

		loaded, failure := l.loadOne(ctx, entry, result)
		if failure != nil {
			l.states[descriptor.Name] = Failed
			result.Failed = append(result.Failed, *failure)
			l.logger.Error("plugin failed to load",
				"plugin", descriptor.Name,
				"priority", descriptor.Priority,
				"error", failure.Err,
			)
			if descriptor.Priority == CorePriority {
				result.CriticalFailure = true
				for _, remaining := range entries[index+1:] {
					result.Skipped = append(result.Skipped, remaining.Descriptor.Name)
				}
				break
			}
			continue
		}

		l.states[descriptor.Name] = Initialized
		result.Successful = append(result.Successful, *loaded)
		l.logger.Debug("plugin loaded",
			"plugin", descriptor.Name,
			"priority", descriptor.Priority,
			"commands", loaded.Commands,
		)
	}

	result.FinishedAt = l.clock.Now()
	result.Functional = l.registry.Has(CoreCommand)

	level := slog.LevelInfo
	if result.CriticalFailure || !result.Functional {
		level = slog.LevelError
	}
	l.logger.Log(ctx, level, "plugin load finished", "summary", result.Summary())
	return result, nil
}

func (l *Loader) loadOne(ctx context.Context, entry Entry, result *LoadResult) (*LoadedPlugin, *FailedPlugin) {
	descriptor := entry.Descriptor
	fail := func(reason string, err error) *FailedPlugin {
		return &FailedPlugin{
			Name:     descriptor.Name,
			Priority: descriptor.Priority,
			Reason:   reason,
			Err:      err,
		}
	}

	if entry.Factory == nil {
		return nil, fail("no factory", errors.New("plugin entry has no factory"))
	}
	instance, err := guard(func() (Plugin, error) { return entry.Factory() })
	if err != nil {
		return nil, fail("construction failed: "+err.Error(), err)
	}
	if instance == nil {
		return nil, fail("construction failed: factory returned nil", errors.New("factory returned a nil plugin"))
	}

	registrar := &stagedRegistrar{
		plugin:   descriptor.Name,
		owners:   l.owners,
		registry: l.registry,
	}
	_, registerErr := guard(func() (struct{}, error) {
		return struct{}{}, instance.RegisterHandlers(registrar)
	})
	registrar.sealed = true

	for _, conflict := range registrar.conflicts {
		result.Conflicts = append(result.Conflicts, conflict)
		l.logger.Warn("command registration conflict",
			"command", conflict.CommandType,
			"owner", conflict.Owner,
			"contender", conflict.Contender,
		)
	}
	if registerErr != nil && !onlyConflicts(registerErr) {
		l.shutdownQuietly(ctx, descriptor.Name, instance)
		return nil, fail("handler registration failed: "+registerErr.Error(), registerErr)
	}

	if _, err := guard(func() (struct{}, error) { return struct{}{}, instance.Initialize(ctx) }); err != nil {
		l.shutdownQuietly(ctx, descriptor.Name, instance)
		return nil, fail("initialization failed: "+err.Error(), err)
	}

	if err := registrar.commit(); err != nil {
		l.shutdownQuietly(ctx, descriptor.Name, instance)
		return nil, fail("commit failed: "+err.Error(), err)
	}
	l.initialized = append(l.initialized, instance)

	return &LoadedPlugin{
		Name:     descriptor.Name,
		Priority: descriptor.Priority,
		Commands: registrar.commandTypes(),
	}, nil
}

// Shutdown stops every initialized plugin in reverse load order.
// Failures are logged and joined into the returned error; teardown
// always visits every plugin.
func (l *Loader) Shutdown(ctx context.Context) error {
	var errs []error
	for _, instance := range slices.Backward(l.initialized) {
		name := instance.Name()
		_, err := guard(func() (struct{}, error) { return struct{}{}, instance.Shutdown(ctx) })
		l.states[name] = ShutDown
		if err != nil {
			l.logger.Error("plugin shutdown failed", "plugin", name, "error", err)
			errs = append(errs, fmt.Errorf("shutting down plugin %q: %w", name, err))
		}
	}
	l.initialized = nil
	return errors.Join(errs...)
}

func (l *Loader) shutdownQuietly(ctx context.Context, name string, instance Plugin) {
	if _, err := guard(func() (struct{}, error) { return struct{}{}, instance.Shutdown(ctx) }); err != nil {
		l.logger.Debug("best-effort shutdown of failed plugin", "plugin", name, "error", err)
	}
}

// State returns the lifecycle state of the named plugin. Plugins the
// loader has never seen are Unloaded.
func (l *Loader) State(name string) State {
	return l.states[name]
}

// Owner reports which plugin owns commandType.
func (l *Loader) Owner(commandType string) (string, bool) {
	owner, owned := l.owners[commandType]
	return owner, owned
}

// Status is a plugin's descriptor with its current state.
type Status struct {
	Descriptor
	State State `json:"state"`
}

// Statuses lists every plugin seen by Load, in load order.
func (l *Loader) Statuses() []Status {
	statuses := make([]Status, 0, len(l.entries))
	for _, descriptor := range l.entries {
		statuses = append(statuses, Status{Descriptor: descriptor, State: l.states[descriptor.Name]})
	}
	return statuses
}

// guard runs call, converting a panic into an error.
func guard[T any](call func() (T, error)) (result T, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("panic: %v", recovered)
		}
	}()
	return call()
}
