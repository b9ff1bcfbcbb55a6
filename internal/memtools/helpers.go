// Package memtools provides the MCP tool handlers for the memory
// server.
//
// Each tool follows the same pattern:
// - A struct with its dependencies injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
package memtools

import (
	"strings"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/coccobas/agent-memory/internal/entry"
	"github.com/coccobas/agent-memory/internal/scope"
)

// floatArg extracts a numeric argument (JSON numbers are float64),
// returning defaultVal if the key is missing or not a number.
func floatArg(req mcp.CallToolRequest, key string, defaultVal float64) float64 {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return v
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// scopeRefArg builds a scope.Ref from the scope_type / scope_id /
// inherit arguments. Validation happens inside the engine, not here.
func scopeRefArg(req mcp.CallToolRequest) scope.Ref {
	ref := scope.Ref{
		Type:    scope.Type(req.GetString("scope_type", string(scope.TypeGlobal))),
		Inherit: boolArg(req, "inherit", true),
	}
	if id := req.GetString("scope_id", ""); id != "" {
		ref.ID = &id
	}
	return ref
}

// kindsArg parses a comma-separated types argument. Empty means all
// kinds, decided downstream.
func kindsArg(req mcp.CallToolRequest) []entry.Kind {
	raw := req.GetString("types", "")
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var kinds []entry.Kind
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			kinds = append(kinds, entry.Kind(part))
		}
	}
	return kinds
}

// tagsArg parses a comma-separated tags argument.
func tagsArg(req mcp.CallToolRequest) []string {
	raw := req.GetString("tags", "")
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}

// truncate shortens a string to at most max runes with ellipsis,
// never cutting a multi-byte character in half.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}

// scopeLabel renders a scope location for result listings.
func scopeLabel(t scope.Type, id *string) string {
	if id == nil {
		return string(t)
	}
	return string(t) + ":" + truncate(*id, 8)
}
