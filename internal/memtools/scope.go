package memtools

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/coccobas/agent-memory/internal/scope"
)

// ScopeTool handles the memory_scope MCP tool: lifecycle operations on
// the org/project/session hierarchy. Reparenting invalidates cached
// scope chains through the store, so callers never see a stale parent.
type ScopeTool struct {
	store *scope.Store
}

// NewScopeTool creates a ScopeTool.
func NewScopeTool(store *scope.Store) *ScopeTool {
	return &ScopeTool{store: store}
}

// Definition returns the MCP tool definition for memory_scope.
func (t *ScopeTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_scope",
		mcp.WithDescription(
			"Manage the scope hierarchy. Actions: create_org, create_project, create_session, "+
				"end_session, reparent_project, reparent_session, delete_org, delete_project, "+
				"delete_session. Sessions belong to projects, projects to orgs; both parent links "+
				"are optional. Deleting a parent detaches its children rather than removing them.",
		),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("One of: create_org, create_project, create_session, end_session, reparent_project, reparent_session, delete_org, delete_project, delete_session"),
		),
		mcp.WithString("id",
			mcp.Description("Scope UUID — generated when omitted on create actions"),
		),
		mcp.WithString("name",
			mcp.Description("Display name — required for create_org and create_project"),
		),
		mcp.WithString("parent_id",
			mcp.Description("Parent scope UUID: the org for a project, the project for a session. Omit to detach."),
		),
	)
}

// Handle processes the memory_scope tool call.
func (t *ScopeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action := req.GetString("action", "")
	id := req.GetString("id", "")
	name := req.GetString("name", "")
	parent := optionalID(req.GetString("parent_id", ""))

	switch action {
	case "create_org":
		if name == "" {
			return mcp.NewToolResultError("name is required for create_org"), nil
		}
		id = orGenerated(id)
		if err := t.store.CreateOrg(id, name); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("create_org failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Created org %q\nID: %s", name, id)), nil

	case "create_project":
		if name == "" {
			return mcp.NewToolResultError("name is required for create_project"), nil
		}
		id = orGenerated(id)
		if err := t.store.CreateProject(id, name, parent); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("create_project failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Created project %q\nID: %s", name, id)), nil

	case "create_session":
		id = orGenerated(id)
		if err := t.store.CreateSession(id, parent); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("create_session failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Created session\nID: %s", id)), nil

	case "end_session":
		if id == "" {
			return mcp.NewToolResultError("id is required for end_session"), nil
		}
		if err := t.store.EndSession(id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("end_session failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Ended session %s", id)), nil

	case "reparent_project":
		if id == "" {
			return mcp.NewToolResultError("id is required for reparent_project"), nil
		}
		if err := t.store.ReparentProject(id, parent); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("reparent_project failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Reparented project %s", id)), nil

	case "reparent_session":
		if id == "" {
			return mcp.NewToolResultError("id is required for reparent_session"), nil
		}
		if err := t.store.ReparentSession(id, parent); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("reparent_session failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Reparented session %s", id)), nil

	case "delete_org":
		if id == "" {
			return mcp.NewToolResultError("id is required for delete_org"), nil
		}
		if err := t.store.DeleteOrg(id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("delete_org failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Deleted org %s", id)), nil

	case "delete_project":
		if id == "" {
			return mcp.NewToolResultError("id is required for delete_project"), nil
		}
		if err := t.store.DeleteProject(id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("delete_project failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Deleted project %s", id)), nil

	case "delete_session":
		if id == "" {
			return mcp.NewToolResultError("id is required for delete_session"), nil
		}
		if err := t.store.DeleteSession(id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("delete_session failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Deleted session %s", id)), nil

	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown action %q", action)), nil
	}
}

func optionalID(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orGenerated(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}
