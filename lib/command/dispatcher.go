// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/bureau-foundation/agentcmd/lib/clock"
)

// Outcome is the serialized result of one dispatch. Exactly one of
// Result and Error is set.
type Outcome struct {
	Result Document  `json:"result,omitempty"`
	Error  *Envelope `json:"error,omitempty"`
}

// OK reports whether the command succeeded.
func (o Outcome) OK() bool { return o.Error == nil }

// Dispatcher routes commands to the handlers in a [Registry] and
// normalizes every failure, panics included, into an [Envelope].
type Dispatcher struct {
	registry *Registry
	clock    clock.Clock
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over registry. The clock times
// each dispatch for the debug log.
func NewDispatcher(registry *Registry, clk clock.Clock, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		clock:    clk,
		logger:   logger,
	}
}

// Registry returns the registry the dispatcher resolves against.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Dispatch executes commandType with rawParams. Unknown command types
// fail with UNKNOWN_COMMAND before anything is invoked. A nil result
// from a successful handler becomes an empty document.
func (d *Dispatcher) Dispatch(ctx context.Context, commandType string, rawParams Document) Outcome {
	started := d.clock.Now()

	handler, err := d.registry.Resolve(commandType)
	if err != nil {
		d.logger.Debug("command rejected",
			"command", commandType,
			"code", CodeUnknownCommand,
		)
		return Outcome{Error: EnvelopeOf(err)}
	}

	result, err := d.invoke(ctx, handler, commandType, NewParams(rawParams))
	duration := d.clock.Now().Sub(started)
	if err != nil {
		envelope := EnvelopeOf(err)
		d.logger.Debug("command failed",
			"command", commandType,
			"code", envelope.Code,
			"error", envelope.Message,
			"duration", duration,
		)
		return Outcome{Error: envelope}
	}

	d.logger.Debug("command completed",
		"command", commandType,
		"duration", duration,
	)
	if result == nil {
		result = Document{}
	}
	return Outcome{Result: result}
}

// invoke calls handler, converting a panic into a RUNTIME_ERROR.
func (d *Dispatcher) invoke(ctx context.Context, handler HandlerFunc, commandType string, params *Params) (result Document, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			d.logger.Error("command handler panicked",
				"command", commandType,
				"panic", recovered,
				"stack", string(debug.Stack()),
			)
			result = nil
			err = &Error{
				Code:    CodeRuntimeError,
				Message: fmt.Sprintf("handler for %q panicked: %v", commandType, recovered),
			}
		}
	}()
	return handler(ctx, params)
}
