// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command tree framework of the agentcmd binary:
// nested commands with pflag flag sets bound from tagged parameter
// structs, structured help, typo suggestions, JSON output, and exit
// codes that carry no extra error text.
package cli
