// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"context"
	"testing"
	"time"

	"github.com/bureau-foundation/agentcmd/lib/clock"
	"github.com/bureau-foundation/agentcmd/lib/command"
	"github.com/bureau-foundation/agentcmd/lib/testutil"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// scriptedDispatcher advances a fake clock by a per-command cost, so
// tests control how long each command appears to run.
type scriptedDispatcher struct {
	clock *clock.FakeClock
	cost  map[string]time.Duration
	calls []string
}

func (d *scriptedDispatcher) Dispatch(_ context.Context, commandType string, params command.Document) command.Outcome {
	d.calls = append(d.calls, commandType)
	if cost := d.cost[commandType]; cost > 0 {
		d.clock.Advance(cost)
	}
	if commandType == "fail" {
		return command.Outcome{Error: &command.Envelope{Code: string(command.CodeNotFound), Message: "missing"}}
	}
	return command.Outcome{Result: command.Document{"echo": params["value"]}}
}

func newScripted(cost map[string]time.Duration) (*scriptedDispatcher, *clock.FakeClock) {
	fake := clock.Fake(epoch)
	return &scriptedDispatcher{clock: fake, cost: cost}, fake
}

func milliseconds(value int) *int { return &value }

func request(timeout *int, commands ...Command) *Request {
	return &Request{BatchID: "b", Timeout: timeout, Commands: commands}
}

func entry(id, commandType string) Command {
	return Command{ID: id, Type: commandType, Params: command.Document{"value": id}}
}

func TestExecuteRunsInOrder(t *testing.T) {
	t.Parallel()
	dispatcher, fake := newScripted(nil)
	executor := NewExecutor(dispatcher, fake, 0, testutil.Logger(t))

	result := executor.Execute(context.Background(), request(nil, entry("1", "echo"), entry("2", "fail"), entry("3", "echo")), nil)

	if result.Status != StatusCompleted {
		t.Errorf("Status: got %q, want completed", result.Status)
	}
	if result.TotalCommands != 3 || result.SuccessCount != 2 || result.FailedCount != 1 {
		t.Errorf("counts: got total=%d success=%d failed=%d, want 3/2/1",
			result.TotalCommands, result.SuccessCount, result.FailedCount)
	}
	if len(dispatcher.calls) != 3 || dispatcher.calls[1] != "fail" {
		t.Errorf("calls: got %v", dispatcher.calls)
	}
	if result.Results[0].Status != CommandSuccess || result.Results[0].Result["echo"] != "1" {
		t.Errorf("first result: got %+v", result.Results[0])
	}
	failed := result.Results[1]
	if failed.Status != CommandError || failed.Error == nil || failed.Error.Code != string(command.CodeNotFound) {
		t.Errorf("second result: got %+v", failed)
	}
	if failed.Result != nil {
		t.Errorf("failed command carries a result: %v", failed.Result)
	}
	if result.StartedAt != "2026-03-01 12:00:00.000" {
		t.Errorf("StartedAt: got %q", result.StartedAt)
	}
}

func TestExecuteSkipsAfterBatchTimeout(t *testing.T) {
	t.Parallel()
	dispatcher, fake := newScripted(map[string]time.Duration{"slow": 600 * time.Millisecond})
	executor := NewExecutor(dispatcher, fake, 0, testutil.Logger(t))

	// 0ms: first runs; 600ms: second runs (not yet past 1000ms);
	// 1200ms: third and fourth are skipped.
	result := executor.Execute(context.Background(),
		request(milliseconds(1000), entry("1", "slow"), entry("2", "slow"), entry("3", "slow"), entry("4", "echo")), nil)

	if len(dispatcher.calls) != 2 {
		t.Fatalf("calls: got %v, want 2 dispatched", dispatcher.calls)
	}
	if result.SuccessCount != 2 || result.FailedCount != 2 {
		t.Errorf("counts: got success=%d failed=%d, want 2/2", result.SuccessCount, result.FailedCount)
	}
	for _, skipped := range result.Results[2:] {
		if skipped.Status != CommandError || skipped.Error == nil || skipped.Error.Code != string(command.CodeSkipped) {
			t.Errorf("command %s: got %+v, want SKIPPED", skipped.ID, skipped)
		}
		if skipped.StartedAt == "" || skipped.FinishedAt == "" {
			t.Errorf("command %s: skipped result lacks timestamps", skipped.ID)
		}
	}
	if result.Status != StatusCompleted {
		t.Errorf("Status: got %q, want completed", result.Status)
	}
}

func TestExecuteReportsCommandTimeout(t *testing.T) {
	t.Parallel()
	dispatcher, fake := newScripted(map[string]time.Duration{"slow": 600 * time.Millisecond})
	executor := NewExecutor(dispatcher, fake, 0, testutil.Logger(t))

	slow := entry("1", "slow")
	slow.Timeout = milliseconds(500)
	result := executor.Execute(context.Background(), request(nil, slow, entry("2", "echo")), nil)

	timedOut := result.Results[0]
	if timedOut.Error == nil || timedOut.Error.Code != string(command.CodeTimeout) {
		t.Fatalf("first result: got %+v, want TIMEOUT", timedOut)
	}
	if timedOut.Error.Detail != "ran 600ms, limit 500ms" {
		t.Errorf("Detail: got %q", timedOut.Error.Detail)
	}
	if timedOut.Result != nil {
		t.Errorf("timed-out command kept its result: %v", timedOut.Result)
	}
	if result.Results[1].Status != CommandSuccess {
		t.Errorf("second result: got %+v, want success", result.Results[1])
	}
}

func TestExecuteReportsProgress(t *testing.T) {
	t.Parallel()
	dispatcher, fake := newScripted(nil)
	executor := NewExecutor(dispatcher, fake, 0, testutil.Logger(t))

	var snapshots [][]string
	executor.Execute(context.Background(), request(nil, entry("1", "echo"), entry("2", "echo")), func(progress *Result) {
		if progress.Status != StatusProcessing {
			t.Errorf("progress status: got %q, want processing", progress.Status)
		}
		statuses := make([]string, len(progress.Results))
		for index, commandResult := range progress.Results {
			statuses[index] = commandResult.Status
		}
		snapshots = append(snapshots, statuses)
	})

	want := [][]string{{"", ""}, {"success", ""}, {"success", "success"}}
	if len(snapshots) != len(want) {
		t.Fatalf("progress calls: got %d, want %d", len(snapshots), len(want))
	}
	for index := range want {
		for position := range want[index] {
			if snapshots[index][position] != want[index][position] {
				t.Errorf("snapshot %d: got %v, want %v", index, snapshots[index], want[index])
				break
			}
		}
	}
}

func TestExecuteCancelledContextSkips(t *testing.T) {
	t.Parallel()
	dispatcher, fake := newScripted(nil)
	executor := NewExecutor(dispatcher, fake, 0, testutil.Logger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := executor.Execute(ctx, request(nil, entry("1", "echo")), nil)

	if len(dispatcher.calls) != 0 {
		t.Errorf("calls: got %v, want none", dispatcher.calls)
	}
	if result.FailedCount != 1 || result.Results[0].Error == nil || result.Results[0].Error.Code != string(command.CodeSkipped) {
		t.Errorf("result: got %+v, want one SKIPPED", result.Results[0])
	}
}
