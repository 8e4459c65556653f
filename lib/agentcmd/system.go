// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agentcmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/agentcmd/lib/clock"
	"github.com/bureau-foundation/agentcmd/lib/command"
	"github.com/bureau-foundation/agentcmd/lib/logbuffer"
	"github.com/bureau-foundation/agentcmd/lib/plugin"
	"github.com/bureau-foundation/agentcmd/lib/scenegraph"
	"github.com/bureau-foundation/agentcmd/plugins/core"
	"github.com/bureau-foundation/agentcmd/plugins/keyed"
	"github.com/bureau-foundation/agentcmd/plugins/logplugin"
	"github.com/bureau-foundation/agentcmd/plugins/prefab"
)

// ErrCriticalFailure is returned by Initialize when the core plugin
// failed to load. The system stays out of the ready state.
var ErrCriticalFailure = errors.New("core plugin failed to load")

// Config holds the dependencies of a [System].
type Config struct {
	// Buffer is the log capture buffer served by log.query. Required.
	Buffer *logbuffer.Buffer

	// Host provides object graphs to the prefab and keyed plugins.
	// When nil, the default catalog omits them.
	Host scenegraph.Host

	// Discovery overrides the default plugin catalog.
	Discovery plugin.Discovery

	// Disabled names plugins to skip. The core plugin cannot be
	// disabled.
	Disabled []string

	// Keyed configures the keyed plugin.
	Keyed keyed.Options

	Clock  clock.Clock
	Logger *slog.Logger
}

type lifecycle int

const (
	created lifecycle = iota
	ready
	failed
	shutDown
)

// System owns one registry, its dispatcher, and the plugin loader.
type System struct {
	mutex sync.Mutex
	state lifecycle

	buffer     *logbuffer.Buffer
	registry   *command.Registry
	dispatcher *command.Dispatcher
	loader     *plugin.Loader
	discovery  plugin.Discovery
	logger     *slog.Logger

	loadResult *plugin.LoadResult
}

// New creates a system. Nothing is loaded until Initialize.
func New(config Config) (*System, error) {
	if config.Buffer == nil {
		return nil, errors.New("agentcmd: log buffer is required")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	discovery := config.Discovery
	if discovery == nil {
		discovery = DefaultCatalog(config.Buffer, config.Host, config.Keyed, config.Logger)
	}

	registry := command.NewRegistry()
	loader := plugin.NewLoader(registry, config.Clock, config.Logger.With("component", "plugin"))
	loader.Disable(config.Disabled...)

	return &System{
		buffer:     config.Buffer,
		registry:   registry,
		dispatcher: command.NewDispatcher(registry, config.Clock, config.Logger.With("component", "dispatch")),
		loader:     loader,
		discovery:  discovery,
		logger:     config.Logger,
	}, nil
}

// DefaultCatalog lists the built-in plugins. The prefab and keyed
// plugins are included only when host is non-nil.
func DefaultCatalog(buffer *logbuffer.Buffer, host scenegraph.Host, keyedOptions keyed.Options, logger *slog.Logger) plugin.Catalog {
	catalog := plugin.Catalog{
		core.Entry(buffer),
		logplugin.Entry(buffer),
	}
	if host != nil {
		catalog = append(catalog,
			prefab.Entry(host, logger.With("plugin", prefab.Name)),
			keyed.Entry(host, keyedOptions, logger.With("plugin", keyed.Name)),
		)
	}
	return catalog
}

// Initialize loads the plugins. It may be called once. On success the
// system is ready; the returned result describes what loaded. A core
// plugin failure returns the result together with an error wrapping
// ErrCriticalFailure, and the system never becomes ready.
func (s *System) Initialize(ctx context.Context) (*plugin.LoadResult, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state != created {
		return nil, errors.New("agentcmd: system already initialized")
	}

	result, err := s.loader.Load(ctx, s.discovery)
	if err != nil {
		s.state = failed
		return nil, err
	}
	s.loadResult = result
	if result.CriticalFailure {
		s.state = failed
		return result, fmt.Errorf("%w: %s", ErrCriticalFailure, result.Summary())
	}

	s.state = ready
	s.logger.Info("agent command system ready",
		"plugins", len(result.Successful),
		"commands", s.registry.Len(),
		"functional", result.Functional,
	)
	return result, nil
}

// Dispatch runs one command. It fails with NOT_READY before Initialize
// has succeeded and after Shutdown.
func (s *System) Dispatch(ctx context.Context, commandType string, params command.Document) command.Outcome {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state != ready {
		return command.Outcome{Error: &command.Envelope{
			Code:    string(command.CodeNotReady),
			Message: fmt.Sprintf("agent command system is %s", s.state),
		}}
	}
	return s.dispatcher.Dispatch(ctx, commandType, params)
}

// Shutdown shuts down every loaded plugin in reverse load order.
// Subsequent dispatches fail with NOT_READY. Calling Shutdown again is
// a no-op.
func (s *System) Shutdown(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.state == shutDown {
		return nil
	}
	s.state = shutDown
	err := s.loader.Shutdown(ctx)
	s.logger.Info("agent command system shut down")
	return err
}

// Ready reports whether Dispatch accepts commands.
func (s *System) Ready() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.state == ready
}

// LoadResult returns the result of Initialize, or nil before it ran.
func (s *System) LoadResult() *plugin.LoadResult {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.loadResult
}

// Plugins returns the lifecycle state of every discovered plugin.
func (s *System) Plugins() []plugin.Status {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.loader.Statuses()
}

// Commands returns the registered command types, sorted, with the
// plugin that owns each.
func (s *System) Commands() []CommandInfo {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	registered := s.registry.Registered()
	commands := make([]CommandInfo, len(registered))
	for index, commandType := range registered {
		owner, _ := s.loader.Owner(commandType)
		commands[index] = CommandInfo{Type: commandType, Plugin: owner}
	}
	return commands
}

// CommandInfo names a registered command and its owning plugin.
type CommandInfo struct {
	Type   string `json:"type"`
	Plugin string `json:"plugin"`
}

// Buffer returns the log capture buffer.
func (s *System) Buffer() *logbuffer.Buffer { return s.buffer }

func (l lifecycle) String() string {
	switch l {
	case created:
		return "not initialized"
	case ready:
		return "ready"
	case failed:
		return "failed"
	case shutDown:
		return "shut down"
	default:
		return fmt.Sprintf("lifecycle(%d)", int(l))
	}
}
