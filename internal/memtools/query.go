package memtools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/coccobas/agent-memory/internal/query"
)

// QueryTool handles the memory_query MCP tool.
type QueryTool struct {
	engine *query.Engine
}

// NewQueryTool creates a QueryTool.
func NewQueryTool(engine *query.Engine) *QueryTool {
	return &QueryTool{engine: engine}
}

// Definition returns the MCP tool definition for memory_query.
func (t *QueryTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_query",
		mcp.WithDescription(
			"Query the persistent memory store for a scope. Returns a ranked list of guidelines, "+
				"knowledge facts, tools, and experience records — local entries plus everything "+
				"inherited from ancestor scopes (project, org, global).",
		),
		mcp.WithString("scope_type",
			mcp.Description("Scope to query: global, org, project, or session (default: global)"),
		),
		mcp.WithString("scope_id",
			mcp.Description("Scope UUID — required for every scope type except global"),
		),
		mcp.WithBoolean("inherit",
			mcp.Description("Include entries inherited from ancestor scopes (default: true)"),
		),
		mcp.WithString("types",
			mcp.Description("Comma-separated entry kinds to include: guideline, knowledge, tool, experience (default: all)"),
		),
		mcp.WithString("search",
			mcp.Description("Full-text search term"),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated tags — results must carry all of them"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results per page (deployment-configured default and maximum)"),
		),
		mcp.WithNumber("offset",
			mcp.Description("Results to skip — ignored when a cursor is supplied"),
		),
		mcp.WithString("cursor",
			mcp.Description("Opaque pagination token from a previous response's nextCursor"),
		),
		mcp.WithBoolean("explain",
			mcp.Description("Attach a stage-by-stage diagnostic trace (default: false)"),
		),
		mcp.WithBoolean("use_fts",
			mcp.Description("Use the FTS5 index for search (default: true)"),
		),
		mcp.WithString("agent_id",
			mcp.Description("Identity of the querying agent, used for permission filtering"),
		),
	)
}

// Handle processes the memory_query tool call.
func (t *QueryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := query.Params{
		Scope:   scopeRefArg(req),
		Types:   kindsArg(req),
		Search:  req.GetString("search", ""),
		Tags:    tagsArg(req),
		Limit:   floatArg(req, "limit", 0),
		Offset:  floatArg(req, "offset", 0),
		Cursor:  req.GetString("cursor", ""),
		Explain: boolArg(req, "explain", false),
		UseFTS:  boolArg(req, "use_fts", true),
		AgentID: req.GetString("agent_id", ""),
	}

	out, err := t.engine.Query(p)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}

	var b strings.Builder
	if len(out.Results) == 0 {
		b.WriteString("No entries found.\n")
	} else {
		fmt.Fprintf(&b, "Found %d entries:\n\n", len(out.Results))
		for i, r := range out.Results {
			tags := ""
			if len(r.Entry.Tags) > 0 {
				tags = " [" + strings.Join(r.Entry.Tags, ", ") + "]"
			}
			fmt.Fprintf(&b, "[%d] (%s) %s — %s%s\n    %s\n    score: %.3f\n\n",
				i+1, r.Entry.Kind, r.Entry.Name,
				scopeLabel(r.Entry.ScopeType, r.Entry.ScopeID), tags,
				truncate(r.Entry.Content, 300),
				r.Score,
			)
		}
	}

	fmt.Fprintf(&b, "returned: %d | hasMore: %v", out.Meta.ReturnedCount, out.Meta.HasMore)
	if out.Meta.NextCursor != nil {
		fmt.Fprintf(&b, " | nextCursor: %s", *out.Meta.NextCursor)
	}

	if out.Explain != nil {
		b.WriteString("\n\n--- explain ---\n")
		writeExplain(&b, out.Explain)
	}

	return mcp.NewToolResultText(b.String()), nil
}

// writeExplain appends the explain trace as indented JSON. The trace is
// a debugging artifact; structure beats prose here.
func writeExplain(b *strings.Builder, ex *query.Explain) {
	raw, err := json.MarshalIndent(ex, "", "  ")
	if err != nil {
		fmt.Fprintf(b, "explain serialization failed: %v", err)
		return
	}
	b.Write(raw)
}
