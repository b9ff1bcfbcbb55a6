package memtools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/coccobas/agent-memory/internal/entry"
)

// SaveTool handles the memory_save and memory_deactivate MCP tools.
type SaveTool struct {
	store *entry.Store
}

// NewSaveTool creates a SaveTool.
func NewSaveTool(store *entry.Store) *SaveTool {
	return &SaveTool{store: store}
}

// Definition returns the MCP tool definition for memory_save.
func (t *SaveTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_save",
		mcp.WithDescription(
			"Save an entry to the memory store. Entries are guidelines (rules of behavior), "+
				"knowledge (facts), tools (usage notes), or experiences (records of past work), "+
				"attached to a scope and visible to that scope and its descendants.",
		),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Description("Entry kind: guideline, knowledge, tool, or experience"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Short identifying name for the entry"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The entry body"),
		),
		mcp.WithString("scope_type",
			mcp.Description("Scope to attach to: global, org, project, or session (default: global)"),
		),
		mcp.WithString("scope_id",
			mcp.Description("Scope UUID — required for every scope type except global"),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated tags"),
		),
		mcp.WithNumber("priority",
			mcp.Description("Importance in [0,1] (default: 0.5)"),
		),
		mcp.WithNumber("confidence",
			mcp.Description("Certainty in [0,1] (default: 0.5)"),
		),
	)
}

// Handle processes the memory_save tool call.
func (t *SaveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := entry.Kind(req.GetString("kind", ""))
	if !entry.ValidKind(kind) {
		return mcp.NewToolResultError(fmt.Sprintf("invalid kind %q: must be guideline, knowledge, tool, or experience", kind)), nil
	}
	name := req.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	content := req.GetString("content", "")
	if content == "" {
		return mcp.NewToolResultError("content is required"), nil
	}

	ref := scopeRefArg(req)
	saved, err := t.store.Add(entry.AddParams{
		Kind:       kind,
		ScopeType:  ref.Type,
		ScopeID:    ref.ID,
		Name:       name,
		Content:    content,
		Tags:       tagsArg(req),
		Priority:   floatArg(req, "priority", 0.5),
		Confidence: floatArg(req, "confidence", 0.5),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Saved %s %q at %s\nID: %s",
		saved.Kind, saved.Name, scopeLabel(saved.ScopeType, saved.ScopeID), saved.ID,
	)), nil
}

// DeactivateTool handles the memory_deactivate MCP tool.
type DeactivateTool struct {
	store *entry.Store
}

// NewDeactivateTool creates a DeactivateTool.
func NewDeactivateTool(store *entry.Store) *DeactivateTool {
	return &DeactivateTool{store: store}
}

// Definition returns the MCP tool definition for memory_deactivate.
func (t *DeactivateTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_deactivate",
		mcp.WithDescription(
			"Deactivate a memory entry by ID. The entry stops appearing in queries and "+
				"context assembly but stays in the store.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Entry UUID to deactivate"),
		),
	)
}

// Handle processes the memory_deactivate tool call.
func (t *DeactivateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	if err := t.store.Deactivate(id); err != nil {
		if errors.Is(err, entry.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no active entry with id %s", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("deactivate failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Deactivated entry %s", id)), nil
}
