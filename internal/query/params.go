// Package query implements the read path: a fixed pipeline of stages
// (resolve → fts → fetch → filter → score) over a per-invocation state
// accumulator, with opaque cursor pagination and an optional explain
// trace.
package query

import (
	"github.com/coccobas/agent-memory/internal/entry"
	"github.com/coccobas/agent-memory/internal/scope"
)

// Params carries raw caller input. Limit and Offset are float64 because
// callers arrive through JSON tool arguments — the resolve stage floors
// fractional values and clamps them into range; nothing downstream ever
// reads the raw fields.
type Params struct {
	Scope   scope.Ref
	Types   []entry.Kind
	Search  string
	Limit   float64
	Offset  float64
	Cursor  string
	Explain bool
	UseFTS  bool
	AgentID string
	Tags    []string
}

// NewParams returns Params for a scope with the defaults callers get
// when they say nothing: full-text search enabled, all kinds, no
// pagination.
func NewParams(ref scope.Ref) Params {
	return Params{Scope: ref, UseFTS: true}
}

// Result is one ranked item. The embedded entry carries the kind tag,
// scope location, and tags; Score is the final composite.
type Result struct {
	Entry entry.Entry `json:"entry"`
	Score float64     `json:"score"`

	// components backs the explain breakdown; it is never serialized
	// on the normal path.
	components ScoreComponents
}

// Meta describes the returned window.
type Meta struct {
	ReturnedCount int     `json:"returnedCount"`
	HasMore       bool    `json:"hasMore"`
	NextCursor    *string `json:"nextCursor,omitempty"`
}

// Output is the response of Engine.Query.
type Output struct {
	Results []Result `json:"results"`
	Meta    Meta     `json:"meta"`
	Explain *Explain `json:"explain,omitempty"`
}

// ContextOutput is the response of Engine.Context: the same pipeline,
// grouped by entry kind instead of a single ranked list. Experience
// records are not part of the grouped view.
type ContextOutput struct {
	Guidelines []Result `json:"guidelines"`
	Knowledge  []Result `json:"knowledge"`
	Tools      []Result `json:"tools"`
	Explain    *Explain `json:"explain,omitempty"`
}
