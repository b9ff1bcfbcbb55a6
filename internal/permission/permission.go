// Package permission defines the permission-filter boundary the query
// pipeline delegates to.
//
// The full grant/revoke engine lives outside this server; the pipeline
// only ever asks one question — for a batch of candidate entries, which
// may this agent read — and passes through whatever the filter answers
// per entry. Two built-in filters cover the deployment modes that need
// no external engine.
package permission

import "github.com/coccobas/agent-memory/internal/entry"

// Action names the operation being checked.
const ActionRead = "read"

// Filter decides per-entry access for a batch of candidates.
type Filter interface {
	// CheckBatch returns an entry-id → allowed map. Entries absent from
	// the map are treated as denied.
	CheckBatch(agentID, action string, entries []entry.Entry) map[string]bool
}

// AllowAll permits every entry regardless of agent identity.
type AllowAll struct{}

// CheckBatch implements Filter.
func (AllowAll) CheckBatch(_, _ string, entries []entry.Entry) map[string]bool {
	out := make(map[string]bool, len(entries))
	for _, e := range entries {
		out[e.ID] = true
	}
	return out
}

// DenyAnonymous permits every entry for identified agents and denies
// all when the agent id is empty.
type DenyAnonymous struct{}

// CheckBatch implements Filter.
func (DenyAnonymous) CheckBatch(agentID, _ string, entries []entry.Entry) map[string]bool {
	out := make(map[string]bool, len(entries))
	allowed := agentID != ""
	for _, e := range entries {
		out[e.ID] = allowed
	}
	return out
}

// ForMode returns the built-in filter for a config mode string. Unknown
// modes fall back to AllowAll.
func ForMode(mode string) Filter {
	if mode == "deny_anonymous" {
		return DenyAnonymous{}
	}
	return AllowAll{}
}
