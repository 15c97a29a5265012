package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"davmcp/internal/domain"
	"davmcp/internal/tool"
)

// Dispatcher routes tools/list and tools/call requests to the registry.
// Every dispatched call gets its own request ID and exactly one start and
// one terminal lifecycle event. Calls run without a deadline; the client
// owns cancellation through its own transport.
type Dispatcher struct {
	registry *tool.Registry
	session  domain.RemoteSession
	life     LifecycleSink
	logger   *slog.Logger
	devMode  bool
}

func NewDispatcher(registry *tool.Registry, session domain.RemoteSession, life LifecycleSink, logger *slog.Logger, devMode bool) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		session:  session,
		life:     life,
		logger:   logger,
		devMode:  devMode,
	}
}

// ListTools returns the registered tool descriptors in registration order.
func (d *Dispatcher) ListTools() ListResult {
	return ListResult{Tools: d.registry.List()}
}

// CallTool executes a named tool and returns either a result or a protocol
// error. Resolution failures are reported without a lifecycle trace; once a
// tool is resolved, start and terminal events bracket the execution.
func (d *Dispatcher) CallTool(ctx context.Context, name string, args map[string]any) (*CallResult, *RPCError) {
	t, ok := d.registry.Resolve(name)
	if !ok {
		d.logger.Warn("unknown tool requested", "tool", name)
		return nil, &RPCError{
			Code:    CodeMethodNotFound,
			Message: fmt.Sprintf("Unknown tool: %s", name),
		}
	}

	inv := InvocationContext{
		RequestID: uuid.NewString(),
		Start:     time.Now(),
		Transport: "stdio",
	}
	d.life.Started(ctx, inv, name, args)

	if t.RequiresRemote() && !d.session.Initialized() {
		d.logger.Warn("remote tool invoked without an initialized session",
			"requestId", inv.RequestID, "tool", name)
	}

	result, err := d.execute(ctx, t, args)
	elapsed := time.Since(inv.Start)

	if err != nil {
		code, message := Translate(err)
		d.life.Failed(ctx, inv, name, args, code, message, elapsed)
		rpcErr := &RPCError{Code: code, Message: message}
		if d.devMode {
			rpcErr.Data = err.Error()
		}
		return nil, rpcErr
	}

	d.life.Succeeded(ctx, inv, name, args, result, elapsed)
	return &CallResult{
		Content: []Content{{Type: "text", Text: result}},
	}, nil
}

// execute runs the tool, converting a panic into an error so that one
// misbehaving tool cannot take the server down.
func (d *Dispatcher) execute(ctx context.Context, t domain.Tool, args map[string]any) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool panicked", "tool", t.Name(), "panic", r)
			if d.devMode {
				err = fmt.Errorf("tool %s panicked: %v", t.Name(), r)
			} else {
				err = fmt.Errorf("internal error executing tool %s", t.Name())
			}
		}
	}()
	return t.Execute(ctx, args)
}
