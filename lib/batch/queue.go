// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bureau-foundation/agentcmd/lib/atomicfile"
	"github.com/bureau-foundation/agentcmd/lib/clock"
	"github.com/bureau-foundation/agentcmd/lib/command"
)

// Subdirectories of the queue's data directory.
const (
	PendingDir = "pending"
	ResultsDir = "results"
	DoneDir    = "done"
)

// DefaultMaxResults is the number of final results retained when the
// configuration does not say otherwise.
const DefaultMaxResults = 20

// DefaultPollInterval is how often [Queue.Run] scans pending/.
const DefaultPollInterval = 500 * time.Millisecond

// retryDelays are the waits before each re-read of a request that
// failed to parse. After the last one the request fails.
var retryDelays = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

// QueueConfig holds the dependencies of a [Queue].
type QueueConfig struct {
	// Directory is the data directory holding pending/, results/, and
	// done/. Required.
	Directory string

	// Executor runs parsed requests. Required.
	Executor *Executor

	Clock  clock.Clock
	Logger *slog.Logger

	// Compression is the codec for archived requests.
	Compression Compression

	// MaxResults bounds the number of final results kept. Zero selects
	// DefaultMaxResults.
	MaxResults int

	// PollInterval is the scan period of Run. Zero selects
	// DefaultPollInterval.
	PollInterval time.Duration
}

// Queue processes batch request files. ProcessPending and Run must not
// be called concurrently with each other.
type Queue struct {
	pendingDirectory string
	resultsDirectory string
	doneDirectory    string

	executor     *Executor
	clock        clock.Clock
	logger       *slog.Logger
	compression  Compression
	maxResults   int
	pollInterval time.Duration

	// retries tracks requests that failed to parse, by file name.
	retries map[string]*retryState
}

type retryState struct {
	attempts int
	due      time.Time
}

// NewQueue creates a queue, creating its directories if needed.
func NewQueue(config QueueConfig) (*Queue, error) {
	if config.Directory == "" {
		return nil, errors.New("batch queue: directory is required")
	}
	if config.Executor == nil {
		return nil, errors.New("batch queue: executor is required")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.MaxResults <= 0 {
		config.MaxResults = DefaultMaxResults
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}

	queue := &Queue{
		pendingDirectory: filepath.Join(config.Directory, PendingDir),
		resultsDirectory: filepath.Join(config.Directory, ResultsDir),
		doneDirectory:    filepath.Join(config.Directory, DoneDir),
		executor:         config.Executor,
		clock:            config.Clock,
		logger:           config.Logger,
		compression:      config.Compression,
		maxResults:       config.MaxResults,
		pollInterval:     config.PollInterval,
		retries:          make(map[string]*retryState),
	}
	for _, directory := range []string{queue.pendingDirectory, queue.resultsDirectory, queue.doneDirectory} {
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return nil, fmt.Errorf("batch queue: creating %s: %w", directory, err)
		}
	}
	return queue, nil
}

// Run scans pending/ immediately and then every poll interval until
// ctx is cancelled.
func (q *Queue) Run(ctx context.Context) error {
	q.logger.Info("batch queue started",
		"pending", q.pendingDirectory,
		"poll_interval", q.pollInterval,
		"compression", q.compression.String(),
	)
	q.scan(ctx)

	ticker := q.clock.NewTicker(q.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			q.logger.Info("batch queue stopped")
			return nil
		case <-ticker.C:
			q.scan(ctx)
		}
	}
}

func (q *Queue) scan(ctx context.Context) {
	if _, err := q.ProcessPending(ctx); err != nil && ctx.Err() == nil {
		q.logger.Error("batch queue scan failed", "error", err)
	}
}

// ProcessPending runs the pending requests that are ready, oldest
// first, and returns how many reached a final result. A request
// waiting for a parse retry stops the scan: later requests wait
// behind it.
func (q *Queue) ProcessPending(ctx context.Context) (int, error) {
	files, err := q.listPending()
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		finished, err := q.processFile(ctx, file)
		if err != nil {
			return processed, err
		}
		if !finished {
			break
		}
		processed++
	}
	return processed, nil
}

type pendingFile struct {
	name    string
	path    string
	modTime time.Time
}

// listPending returns the pending requests oldest first. Hidden files
// are in-progress atomic writes and are ignored.
func (q *Queue) listPending() ([]pendingFile, error) {
	entries, err := os.ReadDir(q.pendingDirectory)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", q.pendingDirectory, err)
	}

	var files []pendingFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
		files = append(files, pendingFile{
			name:    name,
			path:    filepath.Join(q.pendingDirectory, name),
			modTime: info.ModTime(),
		})
	}
	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].modTime.Equal(files[j].modTime) {
			return files[i].modTime.Before(files[j].modTime)
		}
		return files[i].name < files[j].name
	})
	return files, nil
}

// processFile handles one pending request. It returns false when the
// request is waiting for a retry.
func (q *Queue) processFile(ctx context.Context, file pendingFile) (bool, error) {
	if state, ok := q.retries[file.name]; ok && q.clock.Now().Before(state.due) {
		return false, nil
	}

	data, err := os.ReadFile(file.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			delete(q.retries, file.name)
			return true, nil
		}
		return false, fmt.Errorf("reading %s: %w", file.path, err)
	}

	request, err := ParseAndValidate(data)
	if err != nil {
		state, ok := q.retries[file.name]
		if !ok {
			state = &retryState{}
			q.retries[file.name] = state
		}
		if state.attempts < len(retryDelays) {
			delay := retryDelays[state.attempts]
			state.attempts++
			state.due = q.clock.Now().Add(delay)
			q.logger.Warn("batch request unreadable, will retry",
				"file", file.name,
				"attempt", state.attempts,
				"delay", delay,
				"error", err,
			)
			return false, nil
		}
		delete(q.retries, file.name)
		return true, q.fail(file, data, failedBatchID(data, file.name), err)
	}

	delete(q.retries, file.name)
	return true, q.run(ctx, file, data, request)
}

func (q *Queue) run(ctx context.Context, file pendingFile, data []byte, request *Request) error {
	q.logger.Info("batch started",
		"batch_id", request.BatchID,
		"file", file.name,
		"commands", len(request.Commands),
	)
	result := q.executor.Execute(ctx, request, func(progress *Result) {
		if err := q.writeResult(progress); err != nil {
			q.logger.Warn("writing batch progress failed", "batch_id", progress.BatchID, "error", err)
		}
	})
	return q.finish(file, data, result)
}

// fail records a batch-level error for a request that never ran.
func (q *Queue) fail(file pendingFile, data []byte, batchID string, cause error) error {
	now := formatTime(q.clock.Now())
	q.logger.Error("batch request rejected",
		"batch_id", batchID,
		"file", file.name,
		"error", cause,
	)
	return q.finish(file, data, &Result{
		BatchID:    batchID,
		Status:     StatusError,
		StartedAt:  now,
		FinishedAt: now,
		Results:    []CommandResult{},
		Error:      command.EnvelopeOf(cause),
	})
}

// finish writes the final result, archives the request, and prunes
// old results.
func (q *Queue) finish(file pendingFile, data []byte, result *Result) error {
	if err := q.writeResult(result); err != nil {
		return fmt.Errorf("writing result for batch %s: %w", result.BatchID, err)
	}
	if err := q.archive(file, data, result.BatchID); err != nil {
		return err
	}
	return q.prune()
}

func (q *Queue) writeResult(result *Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return atomicfile.WriteFile(q.resultPath(result.BatchID), append(data, '\n'))
}

// archive stores the request under done/ and removes it from pending/.
func (q *Queue) archive(file pendingFile, data []byte, batchID string) error {
	compressed, err := Compress(data, q.compression)
	if err != nil {
		return fmt.Errorf("archiving batch %s: %w", batchID, err)
	}
	q.removeArchives(batchID)
	archivePath := filepath.Join(q.doneDirectory, batchID+".json"+q.compression.Extension())
	if err := atomicfile.WriteFile(archivePath, compressed); err != nil {
		return fmt.Errorf("archiving batch %s: %w", batchID, err)
	}
	if err := os.Remove(file.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", file.path, err)
	}
	return nil
}

// prune deletes the oldest final results beyond maxResults, together
// with their archived requests. In-progress results are never pruned.
func (q *Queue) prune() error {
	entries, err := os.ReadDir(q.resultsDirectory)
	if err != nil {
		return fmt.Errorf("listing %s: %w", q.resultsDirectory, err)
	}

	type finalResult struct {
		batchID    string
		finishedAt string
	}
	var finals []finalResult
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(q.resultsDirectory, name))
		if err != nil {
			continue
		}
		var header struct {
			Status     string `json:"status"`
			FinishedAt string `json:"finishedAt"`
		}
		if json.Unmarshal(data, &header) != nil {
			continue
		}
		if header.Status != StatusCompleted && header.Status != StatusError {
			continue
		}
		finals = append(finals, finalResult{
			batchID:    strings.TrimSuffix(name, ".json"),
			finishedAt: header.FinishedAt,
		})
	}
	if len(finals) <= q.maxResults {
		return nil
	}

	sort.Slice(finals, func(i, j int) bool {
		if finals[i].finishedAt != finals[j].finishedAt {
			return finals[i].finishedAt < finals[j].finishedAt
		}
		return finals[i].batchID < finals[j].batchID
	})
	for _, stale := range finals[:len(finals)-q.maxResults] {
		if err := os.Remove(q.resultPath(stale.batchID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			q.logger.Warn("pruning batch result failed", "batch_id", stale.batchID, "error", err)
		}
		q.removeArchives(stale.batchID)
		q.logger.Debug("pruned batch result", "batch_id", stale.batchID)
	}
	return nil
}

var archiveExtensions = []string{"", ".lz4", ".zst"}

func (q *Queue) removeArchives(batchID string) {
	for _, extension := range archiveExtensions {
		os.Remove(filepath.Join(q.doneDirectory, batchID+".json"+extension))
	}
}

func (q *Queue) resultPath(batchID string) string {
	return filepath.Join(q.resultsDirectory, batchID+".json")
}

// Submit validates request and places it in pending/. It fails if a
// request with the same batch ID is already pending.
func (q *Queue) Submit(request *Request) (string, error) {
	if err := request.Validate(); err != nil {
		return "", err
	}
	path := filepath.Join(q.pendingDirectory, request.BatchID+".json")
	if _, err := os.Stat(path); err == nil {
		return "", command.InvalidFields("batch %q is already pending", request.BatchID)
	}
	data, err := request.Marshal()
	if err != nil {
		return "", err
	}
	if err := atomicfile.WriteFile(path, data); err != nil {
		return "", fmt.Errorf("submitting batch %s: %w", request.BatchID, err)
	}
	return path, nil
}

// Status returns the current result document of a batch. A batch with
// no result file fails with NOT_FOUND.
func (q *Queue) Status(batchID string) (*Result, error) {
	if !ValidBatchID(batchID) {
		return nil, command.InvalidFields("invalid batch ID %q", batchID)
	}
	data, err := os.ReadFile(q.resultPath(batchID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, command.NotFound("no result for batch %q", batchID)
		}
		return nil, err
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var result Result
	if err := decoder.Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding result for batch %s: %w", batchID, err)
	}
	return &result, nil
}

// Archived returns the original request document of a processed
// batch, decompressed.
func (q *Queue) Archived(batchID string) ([]byte, error) {
	if !ValidBatchID(batchID) {
		return nil, command.InvalidFields("invalid batch ID %q", batchID)
	}
	for _, extension := range archiveExtensions {
		data, err := os.ReadFile(filepath.Join(q.doneDirectory, batchID+".json"+extension))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return Decompress(data, compressionForExtension(extension))
	}
	return nil, command.NotFound("no archived request for batch %q", batchID)
}

// Pending returns the names of the requests waiting in pending/,
// oldest first.
func (q *Queue) Pending() ([]string, error) {
	files, err := q.listPending()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(files))
	for index, file := range files {
		names[index] = file.name
	}
	return names, nil
}

// failedBatchID names the result of a request that could not be run:
// its own batchId when that much parsed, otherwise the file name with
// unsafe characters replaced.
func failedBatchID(data []byte, fileName string) string {
	if request, err := Parse(data); err == nil && ValidBatchID(request.BatchID) {
		return request.BatchID
	}
	stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, stem)
	if sanitized == "" {
		return "unnamed"
	}
	return sanitized
}
