// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/agentcmd/cmd/agentcmd/cli"
	"github.com/bureau-foundation/agentcmd/lib/command"
)

func (a *app) logCommand() *cli.Command {
	return &cli.Command{
		Name:        "log",
		Summary:     "Query the server's captured log",
		Subcommands: []*cli.Command{a.logQueryCommand()},
	}
}

type logQueryParams struct {
	clientFlags
	cli.JSONOutput
	Count        int    `flag:"n" desc:"return at most this many of the most recent matches (0 for all)" default:"50"`
	Level        string `flag:"level,l" desc:"only entries of this level: Log, Warning, or Error"`
	Keyword      string `flag:"keyword,k" desc:"only entries whose message matches"`
	MatchMode    string `flag:"match-mode,m" desc:"keyword matching: Exact, Fuzzy, or Regex (default Fuzzy)"`
	IncludeStack bool   `flag:"include-stack" desc:"print stack traces"`
}

// logItem mirrors one element of the log.query result.
type logItem struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

type logQueryResponse struct {
	Items         []logItem `json:"items"`
	TotalCaptured int       `json:"totalCaptured"`
	Returned      int       `json:"returned"`
}

func (a *app) logQueryCommand() *cli.Command {
	var params logQueryParams
	return &cli.Command{
		Name:    "query",
		Summary: "Show captured log entries",
		Usage:   "agentcmd log query [flags]",
		Examples: []cli.Example{
			{
				Description: "Errors mentioning a missing prefab",
				Command:     "agentcmd log query --level Error --keyword 'prefab.*not found' --match-mode Regex",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("query", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			return a.logQuery(ctx, &params)
		},
	}
}

func (a *app) logQuery(ctx context.Context, params *logQueryParams) error {
	query := command.Document{
		"n":            params.Count,
		"includeStack": params.IncludeStack,
	}
	if params.Level != "" {
		query["level"] = params.Level
	}
	if params.Keyword != "" {
		query["keyword"] = params.Keyword
	}
	if params.MatchMode != "" {
		query["matchMode"] = params.MatchMode
	}

	client, err := params.client()
	if err != nil {
		return err
	}
	var response logQueryResponse
	if err := client.Call(ctx, "log.query", query, &response); err != nil {
		return a.reportCommandError(err)
	}
	if done, err := params.EmitJSON(a.stdout, response); done {
		return err
	}

	for _, item := range response.Items {
		fmt.Fprintf(a.stdout, "%s [%s] %s\n", item.Time, item.Level, item.Message)
		if item.Stack != "" {
			for line := range strings.SplitSeq(item.Stack, "\n") {
				fmt.Fprintf(a.stdout, "    %s\n", line)
			}
		}
	}
	fmt.Fprintf(a.stdout, "%d of %d captured entries\n", response.Returned, response.TotalCaptured)
	return nil
}
