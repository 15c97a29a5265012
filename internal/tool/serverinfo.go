package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"davmcp/internal/domain"
	"davmcp/internal/metrics"
)

// ServerInfoTool reports process health: version, remote session state,
// catalogue composition, and the invocation metrics snapshot.
type ServerInfoTool struct {
	version string
	session domain.RemoteSession
	counts  func() map[string]int
}

// NewServerInfoTool builds the tool. counts is called lazily so the tool can
// be constructed before the registry that contains it.
func NewServerInfoTool(version string, session domain.RemoteSession, counts func() map[string]int) *ServerInfoTool {
	return &ServerInfoTool{version: version, session: session, counts: counts}
}

func (t *ServerInfoTool) Name() string { return "server_info" }
func (t *ServerInfoTool) Description() string {
	return "Report server version, remote session state, tool catalogue counts, and invocation metrics."
}
func (t *ServerInfoTool) Parameters() map[string]any { return ToolParameters(nil, nil) }
func (t *ServerInfoTool) Category() string           { return domain.CategorySystem }
func (t *ServerInfoTool) RequiresRemote() bool       { return false }

func (t *ServerInfoTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "davmcp v%s\n", t.version)
	fmt.Fprintf(&sb, "Uptime: %s\n", metrics.Collector.Uptime().Round(time.Second))
	fmt.Fprintf(&sb, "Remote session: initialized=%t mode=%s\n",
		t.session.Initialized(), t.session.CredentialMode())

	counts := t.counts()
	cats := make([]string, 0, len(counts))
	for c := range counts {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	sb.WriteString("Tools:")
	for _, c := range cats {
		fmt.Fprintf(&sb, " %s=%d", c, counts[c])
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Calls: total=%d failed=%d\n",
		metrics.ToolCalls.Value(), metrics.ToolFailures.Value())
	return strings.TrimRight(sb.String(), "\n"), nil
}
