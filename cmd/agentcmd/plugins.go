// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/agentcmd/cmd/agentcmd/cli"
)

type pluginsParams struct {
	clientFlags
	cli.JSONOutput
}

func (a *app) pluginsCommand() *cli.Command {
	var params pluginsParams
	return &cli.Command{
		Name:    "plugins",
		Summary: "List the plugins and commands of a running server",
		Usage:   "agentcmd plugins [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("plugins", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			return a.plugins(ctx, &params)
		},
	}
}

func (a *app) plugins(ctx context.Context, params *pluginsParams) error {
	client, err := params.client()
	if err != nil {
		return err
	}
	var response pluginsResponse
	if err := client.Call(ctx, pluginsCommand, nil, &response); err != nil {
		return a.reportCommandError(err)
	}
	if done, err := params.EmitJSON(a.stdout, response); done {
		return err
	}

	tw := tabwriter.NewWriter(a.stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "PLUGIN\tPRIORITY\tSTATE\tCOMMANDS")
	for _, plugin := range response.Plugins {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", plugin.Name, plugin.Priority, plugin.State, strings.Join(plugin.Commands, ", "))
	}
	tw.Flush()

	for _, failure := range response.Failed {
		fmt.Fprintf(a.stdout, "failed: %s: %s\n", failure.Name, failure.Reason)
	}
	if len(response.Skipped) > 0 {
		fmt.Fprintf(a.stdout, "skipped: %s\n", strings.Join(response.Skipped, ", "))
	}
	if !response.Ready {
		fmt.Fprintln(a.stdout, "system is not ready")
	}
	return nil
}
