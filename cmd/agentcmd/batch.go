// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/agentcmd/cmd/agentcmd/cli"
	"github.com/bureau-foundation/agentcmd/lib/agentcmd"
	"github.com/bureau-foundation/agentcmd/lib/batch"
	"github.com/bureau-foundation/agentcmd/lib/command"
	"github.com/bureau-foundation/agentcmd/lib/logbuffer"
)

func (a *app) batchCommand() *cli.Command {
	return &cli.Command{
		Name:    "batch",
		Summary: "Run, submit, and inspect batch requests",
		Description: `A batch request is a JSON (or JSONC) document:

  {"batchId": "nightly", "timeout": 30000,
   "commands": [{"id": "1", "type": "log.query", "params": {"n": 10}}]}

Commands run in order. Timeouts are in milliseconds.`,
		Subcommands: []*cli.Command{
			a.batchRunCommand(),
			a.batchSubmitCommand(),
			a.batchStatusCommand(),
		},
	}
}

type batchRunParams struct {
	configFlags
	cli.JSONOutput
}

func (a *app) batchRunCommand() *cli.Command {
	var params batchRunParams
	return &cli.Command{
		Name:    "run",
		Summary: "Execute a batch file in this process",
		Description: `Load the plugins in this process, execute every command of the batch
file, and print the result. No server is needed. Exits with status 1
when any command failed.`,
		Usage: "agentcmd batch run <file> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("run", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: agentcmd batch run <file> [flags]")
			}
			return a.batchRun(ctx, args[0], &params)
		},
	}
}

func (a *app) batchRun(ctx context.Context, path string, params *batchRunParams) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	request, err := batch.ParseAndValidate(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	cfg, err := params.load()
	if err != nil {
		return err
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	timeout, err := cfg.BatchTimeout()
	if err != nil {
		return err
	}

	buffer := logbuffer.New(cfg.Log.Capacity)
	logger := cli.NewCapturingLogger(a.stderr, buffer, a.clock, level)
	system, err := agentcmd.FromConfig(cfg, buffer, a.clock, logger)
	if err != nil {
		return err
	}
	if _, err := system.Initialize(ctx); err != nil {
		return err
	}
	defer system.Shutdown(context.WithoutCancel(ctx))

	result := batch.NewExecutor(system, a.clock, timeout, logger).Execute(ctx, request, nil)

	if done, err := params.EmitJSON(a.stdout, result); done {
		if err != nil {
			return err
		}
	} else {
		printResult(a.stdout, result)
	}
	if result.FailedCount > 0 {
		return &cli.ExitError{Code: 1}
	}
	return nil
}

type batchSubmitParams struct {
	clientFlags
}

func (a *app) batchSubmitCommand() *cli.Command {
	var params batchSubmitParams
	return &cli.Command{
		Name:    "submit",
		Summary: "Queue a batch file on a running server",
		Description: `Validate a batch file and place it in the server's pending queue.
A request without a batchId is given a generated one. Prints the
batch ID; poll it with "agentcmd batch status".`,
		Usage: "agentcmd batch submit <file> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("submit", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: agentcmd batch submit <file> [flags]")
			}
			return a.batchSubmit(ctx, args[0], &params)
		},
	}
}

func (a *app) batchSubmit(ctx context.Context, path string, params *batchSubmitParams) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	request, err := batch.Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if request.BatchID == "" {
		if request.BatchID, err = cli.GenerateBatchID(); err != nil {
			return err
		}
	}
	if err := request.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	encoded, err := request.Marshal()
	if err != nil {
		return err
	}
	document, err := decodeDocument(encoded)
	if err != nil {
		return err
	}

	client, err := params.client()
	if err != nil {
		return err
	}
	var response struct {
		BatchID string `json:"batchId"`
	}
	if err := client.Call(ctx, batchSubmitCommand, document, &response); err != nil {
		return a.reportCommandError(err)
	}
	fmt.Fprintln(a.stdout, response.BatchID)
	return nil
}

type batchStatusParams struct {
	clientFlags
	cli.JSONOutput
}

func (a *app) batchStatusCommand() *cli.Command {
	var params batchStatusParams
	return &cli.Command{
		Name:    "status",
		Summary: "Show the result of a queued batch",
		Usage:   "agentcmd batch status <batchId> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("status", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: agentcmd batch status <batchId> [flags]")
			}
			return a.batchStatus(ctx, args[0], &params)
		},
	}
}

func (a *app) batchStatus(ctx context.Context, batchID string, params *batchStatusParams) error {
	client, err := params.client()
	if err != nil {
		return err
	}
	var result batch.Result
	if err := client.Call(ctx, batchStatusCommand, command.Document{"batchId": batchID}, &result); err != nil {
		return a.reportCommandError(err)
	}
	if done, err := params.EmitJSON(a.stdout, &result); done {
		return err
	}
	printResult(a.stdout, &result)
	return nil
}

// printResult renders a batch result as a summary line and one row
// per command.
func printResult(w io.Writer, result *batch.Result) {
	fmt.Fprintf(w, "batch %s: %s (%d commands, %d succeeded, %d failed)\n",
		result.BatchID, result.Status, result.TotalCommands, result.SuccessCount, result.FailedCount)
	if result.Error != nil {
		fmt.Fprintf(w, "  %s: %s\n", result.Error.Code, result.Error.Message)
	}
	if len(result.Results) == 0 {
		return
	}

	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  ID\tTYPE\tSTATUS\tDETAIL")
	for _, entry := range result.Results {
		status := entry.Status
		if status == "" {
			status = "pending"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", entry.ID, entry.Type, status, commandDetail(entry))
	}
	tw.Flush()
}

func commandDetail(entry batch.CommandResult) string {
	if entry.Error != nil {
		if entry.Error.Detail != "" {
			return fmt.Sprintf("%s: %s (%s)", entry.Error.Code, entry.Error.Message, entry.Error.Detail)
		}
		return fmt.Sprintf("%s: %s", entry.Error.Code, entry.Error.Message)
	}
	if entry.Result == nil {
		return ""
	}
	encoded, err := json.Marshal(entry.Result)
	if err != nil {
		return ""
	}
	const maxDetail = 80
	if len(encoded) > maxDetail {
		return string(encoded[:maxDetail-3]) + "..."
	}
	return string(encoded)
}
