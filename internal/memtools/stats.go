package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/coccobas/agent-memory/internal/entry"
	"github.com/coccobas/agent-memory/internal/scope"
)

// StatsTool handles the memory_stats MCP tool.
type StatsTool struct {
	entries *entry.Store
	scopes  *scope.Store
	cache   *scope.ChainCache
}

// NewStatsTool creates a StatsTool.
func NewStatsTool(entries *entry.Store, scopes *scope.Store, cache *scope.ChainCache) *StatsTool {
	return &StatsTool{entries: entries, scopes: scopes, cache: cache}
}

// Definition returns the MCP tool definition for memory_stats.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_stats",
		mcp.WithDescription(
			"Report store statistics: active entry counts by kind, scope hierarchy sizes, "+
				"and scope-chain cache occupancy.",
		),
	)
}

// Handle processes the memory_stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := t.entries.Stats()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stats failed: %v", err)), nil
	}
	orgs, projects, sessions, err := t.scopes.Counts()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stats failed: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active entries: %d\n", st.Total)
	for _, k := range entry.AllKinds() {
		fmt.Fprintf(&b, "  %s: %d\n", k, st.ByKind[k])
	}
	fmt.Fprintf(&b, "Scopes: %d orgs, %d projects, %d sessions\n", orgs, projects, sessions)
	fmt.Fprintf(&b, "Cached scope chains: %d\n", t.cache.Len())

	return mcp.NewToolResultText(b.String()), nil
}
