package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
)

const protocolVersion = "2024-11-05"

// InitializeResult is the result shape of the initialize handshake.
type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    Capabilities `json:"capabilities"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
}

// Capabilities advertises what this server supports.
type Capabilities struct {
	Tools ToolsCapability `json:"tools"`
}

// ToolsCapability describes the tools capability. The tool set is fixed at
// startup, so listChanged is always false.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

// ServerInfo identifies the server to the client.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Server runs the JSON-RPC request loop over a Transport, routing tool
// methods to the Dispatcher. Requests are handled one at a time in arrival
// order.
type Server struct {
	name       string
	version    string
	transport  *Transport
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// ServerConfig carries the dependencies of a Server.
type ServerConfig struct {
	Name       string
	Version    string
	Transport  *Transport
	Dispatcher *Dispatcher
	Logger     *slog.Logger
}

func NewServer(cfg ServerConfig) *Server {
	return &Server{
		name:       cfg.Name,
		version:    cfg.Version,
		transport:  cfg.Transport,
		dispatcher: cfg.Dispatcher,
		logger:     cfg.Logger,
	}
}

// Run reads messages until the input stream closes or ctx is cancelled.
// A clean EOF and a cancelled context both return nil.
func (s *Server) Run(ctx context.Context) error {
	type readResult struct {
		msg *Message
		err error
	}

	// The blocking reader lives in its own goroutine so that a signal can
	// interrupt an idle server waiting on stdin.
	msgs := make(chan readResult)
	go func() {
		for {
			msg, err := s.transport.Read()
			select {
			case msgs <- readResult{msg, err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("request loop stopping", "reason", ctx.Err())
			return nil
		case r := <-msgs:
			if r.err != nil {
				if errors.Is(r.err, io.EOF) {
					s.logger.Info("input stream closed")
					return nil
				}
				s.logger.Error("read failed", "err", r.err)
				return r.err
			}
			s.handle(ctx, r.msg)
		}
	}
}

// handle dispatches a single message. Write failures are logged and the
// loop continues; a broken stdout will surface as EOF on the next read.
func (s *Server) handle(ctx context.Context, msg *Message) {
	switch msg.Method {
	case "initialize":
		s.respond(msg.ID, InitializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities:    Capabilities{Tools: ToolsCapability{ListChanged: false}},
			ServerInfo:      ServerInfo{Name: s.name, Version: s.version},
		})

	case "notifications/initialized":
		s.logger.Info("client initialized")

	case "ping":
		s.respond(msg.ID, struct{}{})

	case "tools/list":
		s.respond(msg.ID, s.dispatcher.ListTools())

	case "tools/call":
		var params CallParams
		if err := json.Unmarshal(msg.Params, &params); err != nil || params.Name == "" {
			s.respondError(msg.ID, &RPCError{
				Code:    CodeInvalidParams,
				Message: "invalid tools/call params: expected a tool name and an arguments object",
			})
			return
		}
		result, rpcErr := s.dispatcher.CallTool(ctx, params.Name, params.Arguments)
		if rpcErr != nil {
			s.respondError(msg.ID, rpcErr)
			return
		}
		s.respond(msg.ID, result)

	default:
		// Unknown notifications are dropped; unknown requests get an error.
		if msg.ID == nil {
			s.logger.Debug("unknown notification ignored", "method", msg.Method)
			return
		}
		s.respondError(msg.ID, &RPCError{
			Code:    CodeMethodNotFound,
			Message: "Method not found: " + msg.Method,
		})
	}
}

func (s *Server) respond(id any, result any) {
	if err := s.transport.WriteResponse(id, result); err != nil {
		s.logger.Error("write failed", "err", err)
	}
}

func (s *Server) respondError(id any, rpcErr *RPCError) {
	if err := s.transport.WriteError(id, rpcErr); err != nil {
		s.logger.Error("write failed", "err", err)
	}
}
