// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"github.com/bureau-foundation/agentcmd/lib/command"
)

// TimeFormat renders result timestamps. The format sorts
// lexicographically in time order.
const TimeFormat = "2006-01-02 15:04:05.000"

// Batch statuses.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// Command statuses. A command that has not finished yet carries the
// empty status.
const (
	CommandSuccess = "success"
	CommandError   = "error"
)

// Result is the content of results/<batchId>.json.
type Result struct {
	BatchID       string          `json:"batchId"`
	Status        string          `json:"status"`
	StartedAt     string          `json:"startedAt"`
	FinishedAt    string          `json:"finishedAt,omitempty"`
	TotalCommands int             `json:"totalCommands"`
	SuccessCount  int             `json:"successCount"`
	FailedCount   int             `json:"failedCount"`
	Results       []CommandResult `json:"results"`

	// Error is set only on batch-level failures (status "error").
	Error *command.Envelope `json:"error,omitempty"`
}

// CommandResult is the outcome of one batch command.
type CommandResult struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Status     string            `json:"status"`
	StartedAt  string            `json:"startedAt"`
	FinishedAt string            `json:"finishedAt"`
	Result     command.Document  `json:"result,omitempty"`
	Error      *command.Envelope `json:"error,omitempty"`
}

// Final reports whether the batch has finished, successfully or not.
func (r *Result) Final() bool {
	return r.Status == StatusCompleted || r.Status == StatusError
}
