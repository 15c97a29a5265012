package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"davmcp/internal/audit"
	"davmcp/internal/metrics"
)

// InvocationContext identifies one in-flight dispatch. It is owned by
// exactly one dispatch and discarded once the terminal event is logged.
type InvocationContext struct {
	RequestID string
	Start     time.Time
	Transport string
}

// LifecycleSink receives the start/success/failure events of every tool
// invocation. Exactly one start and one terminal event are emitted per
// dispatched request, in that order.
type LifecycleSink interface {
	Started(ctx context.Context, inv InvocationContext, tool string, args map[string]any)
	Succeeded(ctx context.Context, inv InvocationContext, tool string, args map[string]any, result string, elapsed time.Duration)
	Failed(ctx context.Context, inv InvocationContext, tool string, args map[string]any, code int, message string, elapsed time.Duration)
}

// Recorder is the slice of the audit store the lifecycle needs.
type Recorder interface {
	Record(ctx context.Context, requestID, tool, phase string, code int, detail string, elapsed time.Duration) error
}

// Lifecycle logs lifecycle events through slog, mirrors them to the audit
// recorder when one is configured, and keeps the invocation metrics.
type Lifecycle struct {
	logger *slog.Logger
	store  Recorder // nil when auditing is disabled
}

func NewLifecycle(logger *slog.Logger, store Recorder) *Lifecycle {
	return &Lifecycle{logger: logger, store: store}
}

func (l *Lifecycle) Started(ctx context.Context, inv InvocationContext, tool string, args map[string]any) {
	l.logger.Info("tool call started",
		"requestId", inv.RequestID,
		"transport", inv.Transport,
		"tool", tool,
		"args", argsJSON(args))
	metrics.InFlight.Inc()
	l.record(ctx, inv, tool, audit.PhaseStart, 0, argsJSON(args), 0)
}

func (l *Lifecycle) Succeeded(ctx context.Context, inv InvocationContext, tool string, args map[string]any, result string, elapsed time.Duration) {
	l.logger.Info("tool call succeeded",
		"requestId", inv.RequestID,
		"transport", inv.Transport,
		"tool", tool,
		"args", argsJSON(args),
		"resultBytes", len(result),
		"elapsedMs", elapsed.Milliseconds())
	metrics.InFlight.Dec()
	metrics.ToolCalls.Inc()
	metrics.ToolLatency.Observe(elapsed.Seconds())
	l.record(ctx, inv, tool, audit.PhaseSuccess, 0, "", elapsed)
}

func (l *Lifecycle) Failed(ctx context.Context, inv InvocationContext, tool string, args map[string]any, code int, message string, elapsed time.Duration) {
	l.logger.Error("tool call failed",
		"requestId", inv.RequestID,
		"transport", inv.Transport,
		"tool", tool,
		"args", argsJSON(args),
		"code", code,
		"err", message,
		"elapsedMs", elapsed.Milliseconds())
	metrics.InFlight.Dec()
	metrics.ToolCalls.Inc()
	metrics.ToolFailures.Inc()
	metrics.ToolLatency.Observe(elapsed.Seconds())
	l.record(ctx, inv, tool, audit.PhaseFailure, code, message, elapsed)
}

// record writes to the audit store. Audit failures are logged, never
// propagated: the request must still resolve to a response.
func (l *Lifecycle) record(ctx context.Context, inv InvocationContext, tool, phase string, code int, detail string, elapsed time.Duration) {
	if l.store == nil {
		return
	}
	if err := l.store.Record(ctx, inv.RequestID, tool, phase, code, detail, elapsed); err != nil {
		l.logger.Warn("audit record failed", "requestId", inv.RequestID, "phase", phase, "err", err)
	}
}

func argsJSON(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(b)
}
