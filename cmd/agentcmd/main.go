// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command agentcmd serves the agent command layer over a Unix socket
// and a file-based batch queue, and is the client for both.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own output return an error with an
		// exit code. Don't print a redundant "error:" line for those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return rootCommand(newApp()).Execute(ctx, os.Args[1:])
}
