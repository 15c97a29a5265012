package mcp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"davmcp/internal/domain"
	"davmcp/internal/tool"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubTool struct {
	name     string
	remote   bool
	execute  func(ctx context.Context, args map[string]any) (string, error)
	category string
}

func (s *stubTool) Name() string                { return s.name }
func (s *stubTool) Description() string         { return "stub tool " + s.name }
func (s *stubTool) Parameters() map[string]any  { return map[string]any{"type": "object"} }
func (s *stubTool) Category() string            { return s.category }
func (s *stubTool) RequiresRemote() bool        { return s.remote }
func (s *stubTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	return s.execute(ctx, args)
}

type stubSession struct {
	initialized bool
	mode        string
}

func (s *stubSession) Initialized() bool      { return s.initialized }
func (s *stubSession) CredentialMode() string { return s.mode }

// recordedEvent captures one lifecycle callback for assertions.
type recordedEvent struct {
	phase     string
	requestID string
	tool      string
	args      map[string]any
	code      int
	elapsed   time.Duration
}

type recordingSink struct {
	events []recordedEvent
}

func (r *recordingSink) Started(_ context.Context, inv InvocationContext, tool string, args map[string]any) {
	r.events = append(r.events, recordedEvent{phase: "start", requestID: inv.RequestID, tool: tool, args: args})
}

func (r *recordingSink) Succeeded(_ context.Context, inv InvocationContext, tool string, args map[string]any, _ string, elapsed time.Duration) {
	r.events = append(r.events, recordedEvent{phase: "success", requestID: inv.RequestID, tool: tool, args: args, elapsed: elapsed})
}

func (r *recordingSink) Failed(_ context.Context, inv InvocationContext, tool string, args map[string]any, code int, _ string, elapsed time.Duration) {
	r.events = append(r.events, recordedEvent{phase: "failure", requestID: inv.RequestID, tool: tool, args: args, code: code, elapsed: elapsed})
}

func newTestDispatcher(t *testing.T, sink LifecycleSink, devMode bool, tools ...domain.Tool) *Dispatcher {
	t.Helper()
	reg, err := tool.NewRegistry(testLogger(), tools)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return NewDispatcher(reg, &stubSession{initialized: true, mode: domain.ModePassword}, sink, testLogger(), devMode)
}

func TestCallToolSuccess(t *testing.T) {
	sink := &recordingSink{}
	d := newTestDispatcher(t, sink, false, &stubTool{
		name:     "echo",
		category: domain.CategorySystem,
		execute: func(_ context.Context, args map[string]any) (string, error) {
			return "hello", nil
		},
	})

	result, rpcErr := d.CallTool(context.Background(), "echo", map[string]any{"k": "v"})
	if rpcErr != nil {
		t.Fatalf("unexpected error: %+v", rpcErr)
	}
	if len(result.Content) != 1 || result.Content[0].Type != "text" || result.Content[0].Text != "hello" {
		t.Fatalf("unexpected result: %+v", result)
	}

	if len(sink.events) != 2 {
		t.Fatalf("got %d lifecycle events, want 2", len(sink.events))
	}
	if sink.events[0].phase != "start" || sink.events[1].phase != "success" {
		t.Fatalf("event order = %s, %s", sink.events[0].phase, sink.events[1].phase)
	}
	if sink.events[0].requestID == "" || sink.events[0].requestID != sink.events[1].requestID {
		t.Errorf("start/terminal request IDs differ: %q vs %q", sink.events[0].requestID, sink.events[1].requestID)
	}
	if sink.events[0].tool != "echo" {
		t.Errorf("start event tool = %q", sink.events[0].tool)
	}
	if sink.events[0].args["k"] != "v" {
		t.Errorf("start event args = %v", sink.events[0].args)
	}
}

func TestCallToolUnknown(t *testing.T) {
	sink := &recordingSink{}
	d := newTestDispatcher(t, sink, false)

	result, rpcErr := d.CallTool(context.Background(), "nonexistent_tool", nil)
	if result != nil {
		t.Fatalf("expected nil result, got %+v", result)
	}
	if rpcErr == nil {
		t.Fatal("expected an error")
	}
	if rpcErr.Code != CodeMethodNotFound {
		t.Errorf("code = %d, want %d", rpcErr.Code, CodeMethodNotFound)
	}
	if rpcErr.Message != "Unknown tool: nonexistent_tool" {
		t.Errorf("message = %q", rpcErr.Message)
	}
	if len(sink.events) != 0 {
		t.Errorf("unknown tool produced %d lifecycle events, want 0", len(sink.events))
	}
}

func TestCallToolFailure(t *testing.T) {
	sink := &recordingSink{}
	d := newTestDispatcher(t, sink, false, &stubTool{
		name:     "list_calendars",
		remote:   true,
		category: domain.CategoryCalendar,
		execute: func(_ context.Context, _ map[string]any) (string, error) {
			return "", domain.ErrNotConfigured
		},
	})

	result, rpcErr := d.CallTool(context.Background(), "list_calendars", nil)
	if result != nil {
		t.Fatalf("expected nil result, got %+v", result)
	}
	if rpcErr.Code != CodeRemoteNotConfigured {
		t.Errorf("code = %d, want %d", rpcErr.Code, CodeRemoteNotConfigured)
	}
	if rpcErr.Data != nil {
		t.Errorf("error data should be omitted outside dev mode, got %v", rpcErr.Data)
	}

	if len(sink.events) != 2 {
		t.Fatalf("got %d lifecycle events, want 2", len(sink.events))
	}
	if sink.events[1].phase != "failure" {
		t.Errorf("terminal phase = %q", sink.events[1].phase)
	}
	if sink.events[1].code != CodeRemoteNotConfigured {
		t.Errorf("failure code = %d", sink.events[1].code)
	}
}

func TestCallToolFailureDevModeData(t *testing.T) {
	sink := &recordingSink{}
	d := newTestDispatcher(t, sink, true, &stubTool{
		name: "broken",
		execute: func(_ context.Context, _ map[string]any) (string, error) {
			return "", errors.New("dial tcp: connection refused")
		},
	})

	_, rpcErr := d.CallTool(context.Background(), "broken", nil)
	data, ok := rpcErr.Data.(string)
	if !ok || !strings.Contains(data, "connection refused") {
		t.Errorf("dev mode should carry the raw error in data, got %v", rpcErr.Data)
	}
}

func TestCallToolPanicRecovery(t *testing.T) {
	sink := &recordingSink{}
	d := newTestDispatcher(t, sink, false, &stubTool{
		name: "panicky",
		execute: func(_ context.Context, _ map[string]any) (string, error) {
			panic("nil map write")
		},
	})

	result, rpcErr := d.CallTool(context.Background(), "panicky", nil)
	if result != nil {
		t.Fatalf("expected nil result, got %+v", result)
	}
	if rpcErr.Code != CodeInternal {
		t.Errorf("code = %d, want %d", rpcErr.Code, CodeInternal)
	}
	if strings.Contains(rpcErr.Message, "nil map write") {
		t.Errorf("panic detail leaked outside dev mode: %q", rpcErr.Message)
	}
	if len(sink.events) != 2 || sink.events[1].phase != "failure" {
		t.Fatalf("panic must still produce start + failure, got %+v", sink.events)
	}
}

func TestCallToolPanicDevModeDetail(t *testing.T) {
	sink := &recordingSink{}
	d := newTestDispatcher(t, sink, true, &stubTool{
		name: "panicky",
		execute: func(_ context.Context, _ map[string]any) (string, error) {
			panic("index out of range")
		},
	})

	_, rpcErr := d.CallTool(context.Background(), "panicky", nil)
	if !strings.Contains(rpcErr.Message, "index out of range") {
		t.Errorf("dev mode should surface the panic value, got %q", rpcErr.Message)
	}
}

func TestCallToolDistinctRequestIDs(t *testing.T) {
	sink := &recordingSink{}
	d := newTestDispatcher(t, sink, false, &stubTool{
		name: "echo",
		execute: func(_ context.Context, _ map[string]any) (string, error) {
			return "ok", nil
		},
	})

	d.CallTool(context.Background(), "echo", nil)
	d.CallTool(context.Background(), "echo", nil)

	if sink.events[0].requestID == sink.events[2].requestID {
		t.Error("two invocations share a request ID")
	}
}

func TestListToolsStable(t *testing.T) {
	d := newTestDispatcher(t, &recordingSink{}, false,
		&stubTool{name: "b_tool", execute: func(context.Context, map[string]any) (string, error) { return "", nil }},
		&stubTool{name: "a_tool", execute: func(context.Context, map[string]any) (string, error) { return "", nil }},
	)

	first := d.ListTools()
	second := d.ListTools()
	if len(first.Tools) != 2 {
		t.Fatalf("got %d tools", len(first.Tools))
	}
	for i := range first.Tools {
		if first.Tools[i].Name != second.Tools[i].Name {
			t.Errorf("tool order changed between listings at %d", i)
		}
	}
	if first.Tools[0].Name != "b_tool" {
		t.Errorf("tools should list in registration order, got %q first", first.Tools[0].Name)
	}
}
