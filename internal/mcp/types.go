package mcp

import (
	"encoding/json"

	"davmcp/internal/domain"
)

// JSON-RPC error codes used by this process. The standard codes keep their
// standard meaning; the -320xx range carries the remote-session taxonomy.
const (
	CodeMethodNotFound      = -32601
	CodeInvalidParams       = -32602
	CodeInternal            = -32603
	CodeAuthFailed          = -32001
	CodeRemoteNotConfigured = -32002
)

// Message represents a JSON-RPC 2.0 message.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// CallParams is the params shape of a tools/call request.
type CallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ListResult is the result shape of a tools/list response.
type ListResult struct {
	Tools []domain.Descriptor `json:"tools"`
}

// CallResult is the result shape of a successful tools/call response.
type CallResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Content is a content block in a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
