// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/agentcmd/cmd/agentcmd/cli"
	"github.com/bureau-foundation/agentcmd/lib/clock"
	"github.com/bureau-foundation/agentcmd/lib/command"
	"github.com/bureau-foundation/agentcmd/lib/config"
	"github.com/bureau-foundation/agentcmd/lib/service"
	"github.com/bureau-foundation/agentcmd/lib/version"
)

// app carries the process-wide collaborators of the command tree.
// Tests substitute the writers.
type app struct {
	stdout io.Writer
	stderr io.Writer
	clock  clock.Clock
}

func newApp() *app {
	return &app{stdout: os.Stdout, stderr: os.Stderr, clock: clock.Real()}
}

func rootCommand(a *app) *cli.Command {
	return &cli.Command{
		Name: "agentcmd",
		Description: `agentcmd: agent command layer.

Serves named commands (log queries, prefab hierarchy inspection and
mutation, keyed component lookup) to an automated client over a Unix
socket and a file-based batch queue.`,
		Subcommands: []*cli.Command{
			a.serveCommand(),
			a.callCommand(),
			a.batchCommand(),
			a.pluginsCommand(),
			a.logCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(context.Context, []string) error {
					fmt.Fprintf(a.stdout, "agentcmd %s\n", version.Full())
					return nil
				},
			},
		},
		HelpOutput: a.stderr,
		Examples: []cli.Example{
			{
				Description: "Run the server with a config file",
				Command:     "agentcmd serve --config ~/.config/agentcmd.yaml",
			},
			{
				Description: "Inspect a prefab hierarchy",
				Command:     `agentcmd call prefab.queryHierarchy --params '{"prefabPath": "ui/menu.yaml"}'`,
			},
			{
				Description: "Show the last 20 errors",
				Command:     "agentcmd log query --n 20 --level Error",
			},
		},
	}
}

// configFlags selects the configuration file. Commands that only talk
// to a running server read the socket path from it.
type configFlags struct {
	Config string `flag:"config,c" desc:"config file (default: $AGENTCMD_CONFIG, else built-in defaults)"`
}

// load returns the configuration named by --config, then by
// AGENTCMD_CONFIG, falling back to the defaults when neither is set.
func (f *configFlags) load() (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case f.Config != "":
		cfg, err = config.LoadFile(f.Config)
	case os.Getenv(config.EnvVar) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// clientFlags locate a running server.
type clientFlags struct {
	configFlags
	Socket string `flag:"socket,s" desc:"server socket (default: paths.socket from the config)"`
}

func (f *clientFlags) client() (*service.Client, error) {
	if f.Socket != "" {
		return service.NewClient(f.Socket), nil
	}
	cfg, err := f.load()
	if err != nil {
		return nil, err
	}
	return service.NewClient(cfg.Paths.Socket), nil
}

// decodeDocument parses a JSON or JSONC object. Numbers keep their
// integer form.
func decodeDocument(data []byte) (command.Document, error) {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.UseNumber()
	var document command.Document
	if err := decoder.Decode(&document); err != nil {
		return nil, err
	}
	if decoder.More() {
		return nil, fmt.Errorf("unexpected data after the object")
	}
	if document == nil {
		document = command.Document{}
	}
	command.NormalizeNumbers(document)
	return document, nil
}

// reportCommandError writes a failed command's envelope to stdout as
// JSON and converts it into exit code 1. Other errors pass through.
func (a *app) reportCommandError(err error) error {
	var commandError *service.CommandError
	if !errors.As(err, &commandError) {
		return err
	}
	if writeErr := cli.WriteJSON(a.stdout, map[string]any{"error": commandError.Envelope}); writeErr != nil {
		return writeErr
	}
	return &cli.ExitError{Code: 1}
}
