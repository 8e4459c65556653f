// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/bureau-foundation/agentcmd/lib/clock"
	"github.com/bureau-foundation/agentcmd/lib/command"
)

// Dispatcher runs one command. agentcmd.System and command.Dispatcher
// both satisfy it.
type Dispatcher interface {
	Dispatch(ctx context.Context, commandType string, params command.Document) command.Outcome
}

// ProgressFunc receives the result document after each state change.
// The executor keeps mutating the value after the call returns, so
// implementations that retain it must copy.
type ProgressFunc func(*Result)

// Executor runs batch requests one command at a time.
type Executor struct {
	dispatcher     Dispatcher
	clock          clock.Clock
	defaultTimeout time.Duration
	logger         *slog.Logger
}

// NewExecutor creates an executor. A non-positive defaultTimeout
// selects [DefaultTimeout] milliseconds.
func NewExecutor(dispatcher Dispatcher, clk clock.Clock, defaultTimeout time.Duration, logger *slog.Logger) *Executor {
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultTimeout * time.Millisecond
	}
	return &Executor{
		dispatcher:     dispatcher,
		clock:          clk,
		defaultTimeout: defaultTimeout,
		logger:         logger,
	}
}

// Execute runs every command of request in order and returns the
// completed result.
//
// The batch deadline is checked before each command: once the elapsed
// time exceeds the batch timeout, the current and all remaining
// commands are reported SKIPPED. A command whose own run exceeds its
// timeout is reported TIMEOUT even if the handler succeeded. A
// cancelled ctx skips the remaining commands the same way.
//
// The request must already be validated.
func (e *Executor) Execute(ctx context.Context, request *Request, progress ProgressFunc) *Result {
	batchTimeout := e.defaultTimeout
	if request.Timeout != nil {
		batchTimeout = time.Duration(*request.Timeout) * time.Millisecond
	}

	started := e.clock.Now()
	result := &Result{
		BatchID:       request.BatchID,
		Status:        StatusProcessing,
		StartedAt:     formatTime(started),
		TotalCommands: len(request.Commands),
		Results:       make([]CommandResult, len(request.Commands)),
	}
	for index, entry := range request.Commands {
		result.Results[index] = CommandResult{ID: entry.ID, Type: entry.Type}
	}
	report(progress, result)

	for index, entry := range request.Commands {
		if elapsed := e.clock.Now().Sub(started); elapsed > batchTimeout {
			e.logger.Warn("batch deadline exceeded",
				"batch_id", request.BatchID,
				"elapsed", elapsed,
				"timeout", batchTimeout,
				"skipped", len(request.Commands)-index,
			)
			e.skipRemaining(result, index, skippedByTimeout(batchTimeout))
			break
		}
		if err := ctx.Err(); err != nil {
			e.skipRemaining(result, index, &command.Envelope{
				Code:    string(command.CodeSkipped),
				Message: "batch cancelled",
				Detail:  err.Error(),
			})
			break
		}

		commandTimeout := batchTimeout
		if entry.Timeout != nil {
			commandTimeout = time.Duration(*entry.Timeout) * time.Millisecond
		}
		result.Results[index] = e.run(ctx, entry, commandTimeout)
		if result.Results[index].Status == CommandSuccess {
			result.SuccessCount++
		} else {
			result.FailedCount++
		}
		result.FinishedAt = result.Results[index].FinishedAt
		report(progress, result)
	}

	result.Status = StatusCompleted
	result.FinishedAt = formatTime(e.clock.Now())
	e.logger.Info("batch completed",
		"batch_id", request.BatchID,
		"commands", result.TotalCommands,
		"succeeded", result.SuccessCount,
		"failed", result.FailedCount,
	)
	return result
}

func (e *Executor) run(ctx context.Context, entry Command, timeout time.Duration) CommandResult {
	started := e.clock.Now()
	outcome := e.dispatcher.Dispatch(ctx, entry.Type, entry.Params)
	finished := e.clock.Now()

	commandResult := CommandResult{
		ID:         entry.ID,
		Type:       entry.Type,
		StartedAt:  formatTime(started),
		FinishedAt: formatTime(finished),
	}
	if elapsed := finished.Sub(started); elapsed > timeout {
		commandResult.Status = CommandError
		commandResult.Error = &command.Envelope{
			Code:    string(command.CodeTimeout),
			Message: "command exceeded its time limit",
			Detail:  "ran " + formatMillis(elapsed) + ", limit " + formatMillis(timeout),
		}
		return commandResult
	}
	if outcome.Error != nil {
		commandResult.Status = CommandError
		commandResult.Error = outcome.Error
		return commandResult
	}
	commandResult.Status = CommandSuccess
	commandResult.Result = outcome.Result
	return commandResult
}

// skipRemaining marks commands from index onward as failed with
// envelope. Skipped commands carry no result payload.
func (e *Executor) skipRemaining(result *Result, index int, envelope *command.Envelope) {
	now := formatTime(e.clock.Now())
	for position := index; position < len(result.Results); position++ {
		skipped := &result.Results[position]
		skipped.Status = CommandError
		skipped.StartedAt = now
		skipped.FinishedAt = now
		skipped.Result = nil
		skipped.Error = envelope
		result.FailedCount++
	}
}

func skippedByTimeout(timeout time.Duration) *command.Envelope {
	return &command.Envelope{
		Code:    string(command.CodeSkipped),
		Message: "batch time limit exceeded before the command ran",
		Detail:  "batch limit " + formatMillis(timeout),
	}
}

func report(progress ProgressFunc, result *Result) {
	if progress != nil {
		progress(result)
	}
}

func formatTime(t time.Time) string {
	return t.Format(TimeFormat)
}

func formatMillis(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10) + "ms"
}
