// Package entry stores the four kinds of memory entries — guidelines,
// knowledge facts, tools, and experience records — in SQLite with a
// shared FTS5 index.
//
// Entries live at an exact scope location (type + optional id) and are
// soft-deactivated rather than deleted: reads only ever see active
// entries.
package entry

import (
	"errors"

	"github.com/coccobas/agent-memory/internal/scope"
)

// Kind classifies a memory entry.
type Kind string

const (
	KindGuideline  Kind = "guideline"
	KindKnowledge  Kind = "knowledge"
	KindTool       Kind = "tool"
	KindExperience Kind = "experience"
)

// ErrNotFound is returned when a requested entry does not exist or is
// deactivated.
var ErrNotFound = errors.New("entry: not found")

// AllKinds returns the four entry kinds in their canonical order.
func AllKinds() []Kind {
	return []Kind{KindGuideline, KindKnowledge, KindTool, KindExperience}
}

// ValidKind reports whether k is a known entry kind.
func ValidKind(k Kind) bool {
	switch k {
	case KindGuideline, KindKnowledge, KindTool, KindExperience:
		return true
	}
	return false
}

// Entry is one memory record.
type Entry struct {
	ID         string     `json:"id"`
	Kind       Kind       `json:"kind"`
	ScopeType  scope.Type `json:"scope_type"`
	ScopeID    *string    `json:"scope_id,omitempty"`
	Name       string     `json:"name"`
	Content    string     `json:"content"`
	Tags       []string   `json:"tags,omitempty"`
	Priority   float64    `json:"priority"`
	Confidence float64    `json:"confidence"`
	CreatedAt  string     `json:"created_at"`
	UpdatedAt  string     `json:"updated_at"`
}

// AddParams holds the input for creating an entry.
type AddParams struct {
	Kind       Kind
	ScopeType  scope.Type
	ScopeID    *string
	Name       string
	Content    string
	Tags       []string
	Priority   float64
	Confidence float64
}

// Stats holds per-kind active entry counts.
type Stats struct {
	ByKind map[Kind]int `json:"by_kind"`
	Total  int          `json:"total"`
}

// MatchInfo carries full-text relevance for one entry. Rank is the raw
// FTS5 rank (more negative is more relevant); Relevance normalizes it
// into [0, 1] for the scoring engine.
type MatchInfo struct {
	EntryID   string
	Kind      Kind
	Rank      float64
	Relevance float64
}
