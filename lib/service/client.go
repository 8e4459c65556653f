// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/bureau-foundation/agentcmd/lib/codec"
	"github.com/bureau-foundation/agentcmd/lib/command"
)

// dialTimeout covers only the connect phase.
const dialTimeout = 5 * time.Second

// responseReadTimeout is how long the client waits for the response
// after writing the request: the server's read and write timeouts
// plus time for the command to run.
const responseReadTimeout = 45 * time.Second

// maxResponseSize caps a single CBOR response. Hierarchy dumps of
// large graphs are bigger than requests, hence the higher limit.
const maxResponseSize = 16 * 1024 * 1024

// CommandError is returned by Call when the server responds with
// ok=false. It satisfies command.Coded, so command.CodeOf reports the
// server's code.
type CommandError struct {
	Command  string
	Envelope command.Envelope
}

func (e *CommandError) Error() string {
	if e.Envelope.Detail != "" {
		return fmt.Sprintf("%s failed: %s: %s (%s)", e.Command, e.Envelope.Code, e.Envelope.Message, e.Envelope.Detail)
	}
	return fmt.Sprintf("%s failed: %s: %s", e.Command, e.Envelope.Code, e.Envelope.Message)
}

// ErrorCode satisfies command.Coded.
func (e *CommandError) ErrorCode() string { return e.Envelope.Code }

// Client sends commands to a [SocketServer]. Each Call opens a new
// connection, matching the server's one-request-per-connection model.
type Client struct {
	socketPath string
}

// NewClient creates a client for the socket at socketPath.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// Call runs commandType with params on the server.
//
// On success, if result is non-nil and the response carries data, the
// data is CBOR-decoded into result. On failure the error is a
// *CommandError carrying the server's envelope. Connection and
// encoding errors are returned as plain errors.
func (c *Client) Call(ctx context.Context, commandType string, params command.Document, result any) error {
	response, err := c.send(ctx, Request{Command: commandType, Params: params})
	if err != nil {
		return fmt.Errorf("calling %q on %s: %w", commandType, c.socketPath, err)
	}

	if !response.OK {
		commandError := &CommandError{Command: commandType}
		if response.Error != nil {
			commandError.Envelope = *response.Error
		} else {
			commandError.Envelope = command.Envelope{Code: string(command.CodeRuntimeError), Message: "server reported failure without an error"}
		}
		return commandError
	}

	if result != nil && len(response.Data) > 0 {
		if err := codec.Unmarshal(response.Data, result); err != nil {
			return fmt.Errorf("decoding response data for %q: %w", commandType, err)
		}
	}
	return nil
}

// send connects to the socket, writes the request, and reads the
// response.
func (c *Client) send(ctx context.Context, request Request) (*Response, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}
	defer conn.Close()

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}

	// Half-close so the server's read side sees EOF cleanly.
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	deadline := time.Now().Add(responseReadTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	conn.SetReadDeadline(deadline)

	var response Response
	if err := codec.NewDecoder(io.LimitReader(conn, maxResponseSize)).Decode(&response); err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return &response, nil
}
