// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agentcmd

import (
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/agentcmd/lib/batch"
	"github.com/bureau-foundation/agentcmd/lib/clock"
	"github.com/bureau-foundation/agentcmd/lib/config"
	"github.com/bureau-foundation/agentcmd/lib/logbuffer"
	"github.com/bureau-foundation/agentcmd/lib/prefabstore"
	"github.com/bureau-foundation/agentcmd/plugins/keyed"
)

// FromConfig creates a system serving the prefab directory named in
// cfg. The caller still calls Initialize.
func FromConfig(cfg *config.Config, buffer *logbuffer.Buffer, clk clock.Clock, logger *slog.Logger) (*System, error) {
	return New(Config{
		Buffer:   buffer,
		Host:     prefabstore.New(cfg.Paths.Prefabs, logger.With("component", "prefabstore")),
		Disabled: cfg.Plugins.Disabled,
		Keyed: keyed.Options{
			KeyProperty:    cfg.Graph.KeyProperty,
			ContainerTypes: cfg.Graph.ContainerTypes,
		},
		Clock:  clk,
		Logger: logger,
	})
}

// NewBatchQueue creates the batch queue over cfg's data directory,
// executing through dispatcher.
func NewBatchQueue(cfg *config.Config, dispatcher batch.Dispatcher, clk clock.Clock, logger *slog.Logger) (*batch.Queue, error) {
	timeout, err := cfg.BatchTimeout()
	if err != nil {
		return nil, err
	}
	pollInterval, err := cfg.PollInterval()
	if err != nil {
		return nil, err
	}
	compression, err := batch.ParseCompression(cfg.Batch.ArchiveCompression)
	if err != nil {
		return nil, fmt.Errorf("batch.archive_compression: %w", err)
	}

	queueLogger := logger.With("component", "batch")
	return batch.NewQueue(batch.QueueConfig{
		Directory:    cfg.Paths.Data,
		Executor:     batch.NewExecutor(dispatcher, clk, timeout, queueLogger),
		Clock:        clk,
		Logger:       queueLogger,
		Compression:  compression,
		MaxResults:   cfg.Batch.MaxResults,
		PollInterval: pollInterval,
	})
}
