// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/bureau-foundation/agentcmd/lib/codec"
	"github.com/bureau-foundation/agentcmd/lib/command"
	"github.com/bureau-foundation/agentcmd/lib/netutil"
)

// Dispatcher executes one command. agentcmd.System satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, commandType string, params command.Document) command.Outcome
}

// LocalFunc handles a server-local command: one answered by the
// process hosting the socket rather than by a plugin. The returned
// value is CBOR-encoded into the response's data field.
type LocalFunc func(ctx context.Context, params command.Document) (any, error)

// Request is the wire form of a command invocation.
type Request struct {
	Command string           `cbor:"command"`
	Params  command.Document `cbor:"params,omitempty"`
}

// Response is the wire-format envelope for every reply. Exactly one of
// Error and Data is meaningful: Error when OK is false, Data (possibly
// empty) when OK is true.
type Response struct {
	OK    bool              `cbor:"ok"`
	Error *command.Envelope `cbor:"error,omitempty"`
	Data  codec.RawMessage  `cbor:"data,omitempty"`
}

// SocketServer serves the command protocol on a Unix socket. Each
// connection handles exactly one request-response cycle.
//
// Commands go to the dispatcher unless a local handler was registered
// for the name with Handle.
type SocketServer struct {
	socketPath string
	dispatcher Dispatcher
	local      map[string]LocalFunc
	logger     *slog.Logger

	// activeConnections tracks in-flight requests. Serve waits for
	// them before returning.
	activeConnections sync.WaitGroup
}

// NewSocketServer creates a server that will listen on socketPath.
func NewSocketServer(socketPath string, dispatcher Dispatcher, logger *slog.Logger) *SocketServer {
	return &SocketServer{
		socketPath: socketPath,
		dispatcher: dispatcher,
		local:      make(map[string]LocalFunc),
		logger:     logger,
	}
}

// Handle registers a server-local command. Panics if the name is
// already registered; must be called before Serve.
func (s *SocketServer) Handle(commandType string, handler LocalFunc) {
	if _, exists := s.local[commandType]; exists {
		panic(fmt.Sprintf("service.SocketServer: duplicate local handler for %q", commandType))
	}
	s.local[commandType] = handler
}

// Serve accepts connections until ctx is cancelled, then stops
// accepting and waits for active requests to complete.
//
// Any existing socket file at the configured path is removed before
// listening. The socket file is removed on return.
func (s *SocketServer) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("socket server listening", "path", s.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	return nil
}

// readTimeout is how long we wait for the client to send its request.
const readTimeout = 30 * time.Second

// writeTimeout is how long we wait for the response to be written.
const writeTimeout = 10 * time.Second

// maxRequestSize caps a single CBOR request.
const maxRequestSize = 1024 * 1024

func (s *SocketServer) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))

	var request Request
	if err := codec.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&request); err != nil {
		if netutil.IsExpectedCloseError(err) {
			// Client connected but sent nothing, or went away.
			return
		}
		s.writeError(conn, &command.Envelope{
			Code:    string(command.CodeInvalidFields),
			Message: fmt.Sprintf("invalid request: %v", err),
		})
		return
	}
	if request.Command == "" {
		s.writeError(conn, command.EnvelopeOf(command.MissingField("command")))
		return
	}

	if handler, ok := s.local[request.Command]; ok {
		result, err := handler(ctx, request.Params)
		if err != nil {
			s.logger.Debug("local command failed", "command", request.Command, "error", err)
			s.writeError(conn, command.EnvelopeOf(err))
			return
		}
		s.writeSuccess(conn, result)
		return
	}

	outcome := s.dispatcher.Dispatch(ctx, request.Command, request.Params)
	if outcome.Error != nil {
		s.writeError(conn, outcome.Error)
		return
	}
	s.writeSuccess(conn, outcome.Result)
}

// writeError sends {ok: false, error: envelope}.
func (s *SocketServer) writeError(conn net.Conn, envelope *command.Envelope) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := codec.NewEncoder(conn).Encode(Response{
		OK:    false,
		Error: envelope,
	}); err != nil {
		s.logWriteFailure("error", err)
	}
}

// writeSuccess sends {ok: true, data: <cbor>}, omitting data when
// result is nil.
func (s *SocketServer) writeSuccess(conn net.Conn, result any) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))

	response := Response{OK: true}
	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			s.writeError(conn, &command.Envelope{
				Code:    string(command.CodeRuntimeError),
				Message: fmt.Sprintf("internal: marshaling response: %v", err),
			})
			return
		}
		response.Data = data
	}

	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		s.logWriteFailure("success", err)
	}
}

// logWriteFailure logs a response that could not be written. A client
// that hung up is routine; anything else is worth a warning.
func (s *SocketServer) logWriteFailure(kind string, err error) {
	if netutil.IsExpectedCloseError(err) {
		s.logger.Debug("client closed before response", "response", kind, "error", err)
		return
	}
	s.logger.Warn("failed to write response", "response", kind, "error", err)
}
