package mcp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
)

// Transport handles newline-delimited JSON-RPC over a duplex byte stream.
// In production that stream is the process's stdin/stdout; tests pass pipes.
type Transport struct {
	reader *bufio.Reader
	writer io.Writer
	logger *slog.Logger
}

func NewTransport(r io.Reader, w io.Writer, logger *slog.Logger) *Transport {
	return &Transport{
		reader: bufio.NewReader(r),
		writer: w,
		logger: logger,
	}
}

// Read reads and parses the next JSON-RPC message.
func (t *Transport) Read() (*Message, error) {
	line, err := t.reader.ReadBytes('\n')
	if err != nil {
		return nil, err
	}

	var msg Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse JSON-RPC message: %w", err)
	}

	t.logger.Debug("request received", "method", msg.Method, "id", msg.ID)
	return &msg, nil
}

// Write marshals and writes a JSON-RPC message followed by a newline.
func (t *Transport) Write(msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON-RPC message: %w", err)
	}

	data = append(data, '\n')
	if _, err := t.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	if msg.Error != nil {
		t.logger.Debug("error response sent", "id", msg.ID, "code", msg.Error.Code)
	} else {
		t.logger.Debug("result response sent", "id", msg.ID)
	}
	return nil
}

// WriteResponse writes a JSON-RPC result response.
func (t *Transport) WriteResponse(id any, result any) error {
	return t.Write(&Message{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

// WriteError writes a JSON-RPC error response.
func (t *Transport) WriteError(id any, rpcErr *RPCError) error {
	return t.Write(&Message{
		JSONRPC: "2.0",
		ID:      id,
		Error:   rpcErr,
	})
}
