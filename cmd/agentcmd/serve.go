// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/agentcmd/cmd/agentcmd/cli"
	"github.com/bureau-foundation/agentcmd/lib/agentcmd"
	"github.com/bureau-foundation/agentcmd/lib/batch"
	"github.com/bureau-foundation/agentcmd/lib/command"
	"github.com/bureau-foundation/agentcmd/lib/logbuffer"
	"github.com/bureau-foundation/agentcmd/lib/service"
	"github.com/bureau-foundation/agentcmd/lib/version"
)

// Commands answered by the server itself rather than by a plugin.
const (
	pluginsCommand     = "agentcmd.plugins"
	batchSubmitCommand = "batch.submit"
	batchStatusCommand = "batch.status"
)

type serveParams struct {
	configFlags
}

func (a *app) serveCommand() *cli.Command {
	var params serveParams
	return &cli.Command{
		Name:    "serve",
		Summary: "Run the command server and batch queue",
		Description: `Load the plugins, then serve commands on the configured Unix socket
and process batch files dropped into <data>/pending/ until interrupted.

The process's own log output is captured into the ring buffer that
log.query reads.`,
		Usage: "agentcmd serve [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("serve", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			return a.serve(ctx, &params)
		},
	}
}

func (a *app) serve(ctx context.Context, params *serveParams) error {
	cfg, err := params.load()
	if err != nil {
		return err
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}

	buffer := logbuffer.New(cfg.Log.Capacity)
	logger := cli.NewCapturingLogger(a.stderr, buffer, a.clock, level)

	system, err := agentcmd.FromConfig(cfg, buffer, a.clock, logger)
	if err != nil {
		return err
	}
	result, err := system.Initialize(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := system.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Error("plugin shutdown failed", "error", err)
		}
	}()
	for _, failure := range result.Failed {
		logger.Warn("plugin failed to load", "plugin", failure.Name, "reason", failure.Reason)
	}

	queue, err := agentcmd.NewBatchQueue(cfg, system, a.clock, logger)
	if err != nil {
		return err
	}

	server := service.NewSocketServer(cfg.Paths.Socket, system, logger.With("component", "socket"))
	registerLocalCommands(server, system, queue)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queueDone := make(chan error, 1)
	go func() {
		queueDone <- queue.Run(ctx)
	}()
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Serve(ctx)
	}()

	logger.Info("agentcmd serving",
		"version", version.Info(),
		"socket", cfg.Paths.Socket,
		"data", cfg.Paths.Data,
		"prefabs", cfg.Paths.Prefabs,
		"environment", cfg.Environment,
	)

	var serverErr error
	select {
	case <-ctx.Done():
		serverErr = <-serverDone
	case serverErr = <-serverDone:
		// The server stopped on its own; take the queue down with it.
		cancel()
	}
	queueErr := <-queueDone
	logger.Info("shutting down")
	return errors.Join(serverErr, queueErr)
}

// registerLocalCommands adds the server-level commands: plugin and
// command listing, and batch submission and status over the socket.
func registerLocalCommands(server *service.SocketServer, system *agentcmd.System, queue *batch.Queue) {
	server.Handle(pluginsCommand, func(context.Context, command.Document) (any, error) {
		return listPlugins(system), nil
	})

	server.Handle(batchSubmitCommand, func(_ context.Context, params command.Document) (any, error) {
		// Re-encode through JSON so the request goes through the same
		// parser and validation as a dropped file.
		data, err := json.Marshal(params)
		if err != nil {
			return nil, command.InvalidFields("batch request: %v", err)
		}
		request, err := batch.ParseAndValidate(data)
		if err != nil {
			return nil, err
		}
		path, err := queue.Submit(request)
		if err != nil {
			return nil, err
		}
		return command.Document{"batchId": request.BatchID, "path": path}, nil
	})

	server.Handle(batchStatusCommand, func(_ context.Context, params command.Document) (any, error) {
		batchID, err := command.NewParams(params).RequireString("batchId")
		if err != nil {
			return nil, err
		}
		result, err := queue.Status(batchID)
		if err != nil {
			return nil, err
		}
		for index := range result.Results {
			command.NormalizeNumbers(result.Results[index].Result)
		}
		return result, nil
	})
}

// pluginInfo is one row of the agentcmd.plugins response.
type pluginInfo struct {
	Name     string   `json:"name"`
	Priority int      `json:"priority"`
	State    string   `json:"state"`
	Commands []string `json:"commands"`
}

type pluginsResponse struct {
	Ready    bool          `json:"ready"`
	Plugins  []pluginInfo  `json:"plugins"`
	Failed   []failureInfo `json:"failed"`
	Skipped  []string      `json:"skipped"`
	Commands int           `json:"commands"`
}

type failureInfo struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

func listPlugins(system *agentcmd.System) pluginsResponse {
	owned := make(map[string][]string)
	commands := system.Commands()
	for _, info := range commands {
		owned[info.Plugin] = append(owned[info.Plugin], info.Type)
	}

	response := pluginsResponse{
		Ready:    system.Ready(),
		Plugins:  []pluginInfo{},
		Failed:   []failureInfo{},
		Skipped:  []string{},
		Commands: len(commands),
	}
	for _, status := range system.Plugins() {
		pluginCommands := owned[status.Name]
		if pluginCommands == nil {
			pluginCommands = []string{}
		}
		response.Plugins = append(response.Plugins, pluginInfo{
			Name:     status.Name,
			Priority: status.Priority,
			State:    status.State.String(),
			Commands: pluginCommands,
		})
	}
	if result := system.LoadResult(); result != nil {
		for _, failure := range result.Failed {
			response.Failed = append(response.Failed, failureInfo{Name: failure.Name, Reason: failure.Reason})
		}
		response.Skipped = append(response.Skipped, result.Skipped...)
	}
	return response
}

// compile-time check that the system satisfies both transports.
var (
	_ service.Dispatcher = (*agentcmd.System)(nil)
	_ batch.Dispatcher   = (*agentcmd.System)(nil)
)
