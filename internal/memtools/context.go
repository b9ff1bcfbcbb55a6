package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/coccobas/agent-memory/internal/query"
)

// ContextTool handles the memory_context MCP tool.
type ContextTool struct {
	engine *query.Engine
}

// NewContextTool creates a ContextTool.
func NewContextTool(engine *query.Engine) *ContextTool {
	return &ContextTool{engine: engine}
}

// Definition returns the MCP tool definition for memory_context.
func (t *ContextTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_context",
		mcp.WithDescription(
			"Assemble the working context for a scope: active guidelines, knowledge, and tools, "+
				"grouped by kind. This is the session-start call — one request returns everything "+
				"an agent should load before doing work.",
		),
		mcp.WithString("scope_type",
			mcp.Description("Scope to resolve: global, org, project, or session (default: global)"),
		),
		mcp.WithString("scope_id",
			mcp.Description("Scope UUID — required for every scope type except global"),
		),
		mcp.WithBoolean("inherit",
			mcp.Description("Include entries inherited from ancestor scopes (default: true)"),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated tags — results must carry all of them"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max entries across the grouped view"),
		),
		mcp.WithBoolean("explain",
			mcp.Description("Attach a stage-by-stage diagnostic trace (default: false)"),
		),
		mcp.WithString("agent_id",
			mcp.Description("Identity of the querying agent, used for permission filtering"),
		),
	)
}

// Handle processes the memory_context tool call.
func (t *ContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := query.Params{
		Scope:   scopeRefArg(req),
		Tags:    tagsArg(req),
		Limit:   floatArg(req, "limit", 0),
		Explain: boolArg(req, "explain", false),
		UseFTS:  true,
		AgentID: req.GetString("agent_id", ""),
	}

	out, err := t.engine.Context(p)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("context assembly failed: %v", err)), nil
	}

	var b strings.Builder
	writeGroup(&b, "Guidelines", out.Guidelines)
	writeGroup(&b, "Knowledge", out.Knowledge)
	writeGroup(&b, "Tools", out.Tools)

	if b.Len() == 0 {
		b.WriteString("No active entries for this scope.\n")
	}

	if out.Explain != nil {
		b.WriteString("\n--- explain ---\n")
		writeExplain(&b, out.Explain)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func writeGroup(b *strings.Builder, title string, results []query.Result) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s (%d)\n\n", title, len(results))
	for _, r := range results {
		tags := ""
		if len(r.Entry.Tags) > 0 {
			tags = " [" + strings.Join(r.Entry.Tags, ", ") + "]"
		}
		fmt.Fprintf(b, "- %s (%s)%s\n  %s\n",
			r.Entry.Name,
			scopeLabel(r.Entry.ScopeType, r.Entry.ScopeID), tags,
			truncate(r.Entry.Content, 300),
		)
	}
	b.WriteString("\n")
}
