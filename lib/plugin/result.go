// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package plugin

import (
	"fmt"
	"strings"
	"time"
)

// LoadedPlugin describes a plugin that registered and initialized.
type LoadedPlugin struct {
	Name     string   `json:"name"`
	Priority int      `json:"priority"`
	Commands []string `json:"commands"`
}

// FailedPlugin describes a plugin that could not be loaded.
type FailedPlugin struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
	Reason   string `json:"reason"`
	Err      error  `json:"-"`
}

// LoadResult is the report of one [Loader.Load] call.
type LoadResult struct {
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	Successful []LoadedPlugin         `json:"successful"`
	Failed     []FailedPlugin         `json:"failed"`
	Skipped    []string               `json:"skipped"`
	Conflicts  []*PluginConflictError `json:"conflicts"`

	// Functional is true when CoreCommand is registered.
	Functional bool `json:"functional"`

	// CriticalFailure is true when a CorePriority plugin failed.
	// Loading stops at the first critical failure.
	CriticalFailure bool `json:"criticalFailure"`
}

func newLoadResult(started time.Time) *LoadResult {
	return &LoadResult{
		StartedAt:  started,
		Successful: []LoadedPlugin{},
		Failed:     []FailedPlugin{},
		Skipped:    []string{},
		Conflicts:  []*PluginConflictError{},
	}
}

// Duration is the wall time the load took.
func (r *LoadResult) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// CommandCount is the number of commands committed by successful
// plugins.
func (r *LoadResult) CommandCount() int {
	count := 0
	for _, loaded := range r.Successful {
		count += len(loaded.Commands)
	}
	return count
}

// Commands maps each committed command type to its owning plugin.
func (r *LoadResult) Commands() map[string]string {
	owners := make(map[string]string)
	for _, loaded := range r.Successful {
		for _, commandType := range loaded.Commands {
			owners[commandType] = loaded.Name
		}
	}
	return owners
}

// Priorities maps each loaded or failed plugin to its priority.
func (r *LoadResult) Priorities() map[string]int {
	priorities := make(map[string]int, len(r.Successful)+len(r.Failed))
	for _, loaded := range r.Successful {
		priorities[loaded.Name] = loaded.Priority
	}
	for _, failed := range r.Failed {
		priorities[failed.Name] = failed.Priority
	}
	return priorities
}

// Summary renders the one-line load status.
func (r *LoadResult) Summary() string {
	var builder strings.Builder
	switch {
	case r.CriticalFailure:
		builder.WriteString("CRITICAL: core plugin failed; ")
	case !r.Functional:
		builder.WriteString("DEGRADED: " + CoreCommand + " unavailable; ")
	}
	fmt.Fprintf(&builder, "loaded %d plugin(s) with %d command(s) in %s",
		len(r.Successful), r.CommandCount(), r.Duration().Round(time.Microsecond))
	if len(r.Failed) > 0 {
		names := make([]string, len(r.Failed))
		for index, failed := range r.Failed {
			names[index] = failed.Name
		}
		fmt.Fprintf(&builder, ", %d failed (%s)", len(r.Failed), strings.Join(names, ", "))
	}
	if len(r.Conflicts) > 0 {
		fmt.Fprintf(&builder, ", %d conflict(s)", len(r.Conflicts))
	}
	if len(r.Skipped) > 0 {
		fmt.Fprintf(&builder, ", %d skipped", len(r.Skipped))
	}
	return builder.String()
}
