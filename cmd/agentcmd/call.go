// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/agentcmd/cmd/agentcmd/cli"
)

type callParams struct {
	clientFlags
	Params     string        `flag:"params,p" desc:"command parameters as a JSON object" default:"{}"`
	ParamsFile string        `flag:"params-file" desc:"read command parameters from a JSON or JSONC file"`
	Timeout    time.Duration `flag:"timeout" desc:"give up waiting for the response after this long" default:"45s"`
}

func (a *app) callCommand() *cli.Command {
	var params callParams
	return &cli.Command{
		Name:    "call",
		Summary: "Send one command to a running server",
		Description: `Send one command to a running server and print its result document
as JSON. A failed command prints {"error": {code, message, detail}}
and exits with status 1.`,
		Usage: "agentcmd call <command> [flags]",
		Examples: []cli.Example{
			{
				Description: "Find the components keyed 7",
				Command:     `agentcmd call keyed.queryByKey -p '{"prefabPath": "ui/menu.yaml", "key": 7}'`,
			},
			{
				Description: "Apply modifications from a file",
				Command:     "agentcmd call prefab.setGameObjectProperties --params-file rename.jsonc",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("call", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: agentcmd call <command> [flags]")
			}
			return a.call(ctx, args[0], &params)
		},
	}
}

func (a *app) call(ctx context.Context, commandType string, params *callParams) error {
	raw := []byte(params.Params)
	source := "--params"
	if params.ParamsFile != "" {
		data, err := os.ReadFile(params.ParamsFile)
		if err != nil {
			return err
		}
		raw, source = data, params.ParamsFile
	}
	document, err := decodeDocument(raw)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", source, err)
	}

	client, err := params.client()
	if err != nil {
		return err
	}
	if params.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, params.Timeout)
		defer cancel()
	}

	var result map[string]any
	if err := client.Call(ctx, commandType, document, &result); err != nil {
		return a.reportCommandError(err)
	}
	if result == nil {
		result = map[string]any{}
	}
	return cli.WriteJSON(a.stdout, result)
}
