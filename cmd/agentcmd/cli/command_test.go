// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	t.Parallel()
	var called string

	root := &Command{
		Name: "agentcmd",
		Subcommands: []*Command{
			{Name: "serve", Run: func(context.Context, []string) error { called = "serve"; return nil }},
			{Name: "plugins", Run: func(context.Context, []string) error { called = "plugins"; return nil }},
		},
	}

	if err := root.Execute(context.Background(), []string{"plugins"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "plugins" {
		t.Errorf("dispatched to %q, want %q", called, "plugins")
	}
}

func TestCommand_Execute_NestedSubcommands(t *testing.T) {
	t.Parallel()
	var called string
	var receivedArgs []string

	root := &Command{
		Name: "agentcmd",
		Subcommands: []*Command{
			{
				Name: "batch",
				Subcommands: []*Command{
					{
						Name: "status",
						Run: func(_ context.Context, args []string) error {
							called = "batch status"
							receivedArgs = args
							return nil
						},
					},
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"batch", "status", "nightly"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "batch status" {
		t.Errorf("dispatched to %q, want %q", called, "batch status")
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "nightly" {
		t.Errorf("args = %v, want [nightly]", receivedArgs)
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	t.Parallel()
	var socketPath, target string

	command := &Command{
		Name: "call",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("call", pflag.ContinueOnError)
			flagSet.StringVar(&socketPath, "socket", "/default.sock", "socket path")
			return flagSet
		},
		Run: func(_ context.Context, args []string) error {
			if len(args) > 0 {
				target = args[0]
			}
			return nil
		},
	}

	if err := command.Execute(context.Background(), []string{"--socket", "/custom.sock", "log.query"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if socketPath != "/custom.sock" {
		t.Errorf("socketPath = %q, want %q", socketPath, "/custom.sock")
	}
	if target != "log.query" {
		t.Errorf("target = %q, want %q", target, "log.query")
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	t.Parallel()
	command := &Command{
		Name: "query",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("query", pflag.ContinueOnError)
			flagSet.Bool("include-stack", false, "include stack traces")
			flagSet.String("keyword", "", "keyword")
			return flagSet
		},
		Run: func(context.Context, []string) error { return nil },
	}

	err := command.Execute(context.Background(), []string{"--keywrod", "x"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	message := err.Error()
	if !strings.Contains(message, "did you mean --keyword") {
		t.Errorf("error = %q, want suggestion for '--keyword'", message)
	}
	if !strings.Contains(message, "keywrod") {
		t.Errorf("error = %q, should mention the bad flag", message)
	}
	if !strings.Contains(message, "--help") {
		t.Errorf("error = %q, should point to --help", message)
	}
}

func TestCommand_Execute_UnknownFlagNoSuggestion(t *testing.T) {
	t.Parallel()
	command := &Command{
		Name: "query",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("query", pflag.ContinueOnError)
			flagSet.Bool("include-stack", false, "include stack traces")
			return flagSet
		},
		Run: func(context.Context, []string) error { return nil },
	}

	err := command.Execute(context.Background(), []string{"--zzzzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not suggest for distant flag", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommand(t *testing.T) {
	t.Parallel()
	root := &Command{
		Name:        "agentcmd",
		Subcommands: []*Command{{Name: "serve"}, {Name: "plugins"}, {Name: "batch"}},
	}

	err := root.Execute(context.Background(), []string{"plugns"})
	if err == nil || !strings.Contains(err.Error(), `did you mean "plugins"`) {
		t.Errorf("error = %v, want suggestion for 'plugins'", err)
	}

	err = root.Execute(context.Background(), []string{"zzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not contain suggestion for distant input", err.Error())
	}
}

func TestCommand_Execute_HelpFlag(t *testing.T) {
	t.Parallel()
	for _, helpArg := range []string{"-h", "--help", "help"} {
		t.Run(helpArg, func(t *testing.T) {
			t.Parallel()
			var output bytes.Buffer
			root := &Command{
				Name:        "agentcmd",
				Summary:     "Agent command layer",
				Subcommands: []*Command{{Name: "serve", Summary: "Run the command server"}},
				HelpOutput:  &output,
			}

			if err := root.Execute(context.Background(), []string{helpArg}); err != nil {
				t.Errorf("Execute(%q) error: %v", helpArg, err)
			}
			if !strings.Contains(output.String(), "Run the command server") {
				t.Errorf("help output missing subcommand summary:\n%s", output.String())
			}
		})
	}
}

func TestCommand_Execute_NoArgsShowsHelp(t *testing.T) {
	t.Parallel()
	root := &Command{
		Name:        "agentcmd",
		Subcommands: []*Command{{Name: "serve"}},
		HelpOutput:  io.Discard,
	}

	err := root.Execute(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("error = %v, want 'subcommand required'", err)
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	t.Parallel()
	command := &Command{
		Name:        "agentcmd",
		Description: "Agent command layer.",
		Subcommands: []*Command{
			{Name: "serve", Summary: "Run the command server"},
			{Name: "call", Summary: "Send one command"},
		},
		Examples: []Example{
			{Description: "Query recent errors", Command: "agentcmd log query --level Error"},
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"Agent command layer.",
		"Usage:",
		"agentcmd <command> [flags]",
		"Commands:",
		"Run the command server",
		"Examples:",
		"# Query recent errors",
		"agentcmd log query --level Error",
		"Run 'agentcmd <command> --help'",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_PrintHelp_WithFlags(t *testing.T) {
	t.Parallel()
	command := &Command{
		Name:  "call",
		Usage: "agentcmd call <command> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("call", pflag.ContinueOnError)
			flagSet.String("socket", "", "server socket")
			flagSet.String("params", "{}", "command parameters")
			return flagSet
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{"agentcmd call <command> [flags]", "Flags:", "--socket", "--params"} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_FullName(t *testing.T) {
	t.Parallel()
	root := &Command{Name: "agentcmd"}
	batch := &Command{Name: "batch", parent: root}
	run := &Command{Name: "run", parent: batch}

	if got := run.fullName(); got != "agentcmd batch run" {
		t.Errorf("fullName() = %q, want %q", got, "agentcmd batch run")
	}
	if got := root.fullName(); got != "agentcmd" {
		t.Errorf("fullName() = %q, want %q", got, "agentcmd")
	}
}
