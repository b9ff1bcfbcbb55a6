package query

import (
	"github.com/coccobas/agent-memory/internal/entry"
	"github.com/coccobas/agent-memory/internal/scope"
)

// Query runs the full pipeline and returns a single ranked, paginated
// result list.
func (e *Engine) Query(p Params) (*Output, error) {
	st := &State{Params: p}
	if p.Explain {
		st.recorder = newRecorder()
	}

	if err := e.run(st); err != nil {
		return nil, err
	}

	window, hasMore := paginate(st.Results, st.Offset, st.Limit)
	out := &Output{
		Results: window,
		Meta: Meta{
			ReturnedCount: len(window),
			HasMore:       hasMore,
		},
	}
	if hasMore {
		next := EncodeCursor(st.Offset + len(window))
		out.Meta.NextCursor = &next
	}
	if st.recorder != nil {
		out.Explain = st.recorder.build(st, e.cfg.ExplainTopN)
	}
	return out, nil
}

// Context runs the same pipeline grouped by entry kind: the assembled
// working context for an agent entering a scope. An inherit=false scope
// restricts the view to the exact scope with no ancestor chain.
func (e *Engine) Context(p Params) (*ContextOutput, error) {
	// The grouped view covers guidelines, knowledge, and tools;
	// experience records stay behind Query.
	if len(p.Types) == 0 {
		p.Types = []entry.Kind{entry.KindGuideline, entry.KindKnowledge, entry.KindTool}
	}

	st := &State{Params: p}
	if p.Explain {
		st.recorder = newRecorder()
	}

	if err := e.run(st); err != nil {
		return nil, err
	}

	window, _ := paginate(st.Results, st.Offset, st.Limit)
	out := &ContextOutput{}
	for _, res := range window {
		switch res.Entry.Kind {
		case entry.KindGuideline:
			out.Guidelines = append(out.Guidelines, res)
		case entry.KindKnowledge:
			out.Knowledge = append(out.Knowledge, res)
		case entry.KindTool:
			out.Tools = append(out.Tools, res)
		}
	}
	if st.recorder != nil {
		out.Explain = st.recorder.build(st, e.cfg.ExplainTopN)
	}
	return out, nil
}

// InvalidateScopeChain is the invalidation hook mutation handlers call
// after a write that changes a scope's parent linkage.
func (e *Engine) InvalidateScopeChain(t scope.Type, id string) {
	e.resolver.Cache().Invalidate(t, id)
}

// ClearScopeChainCache empties the chain cache, e.g. on shutdown or
// bulk imports.
func (e *Engine) ClearScopeChainCache() {
	e.resolver.Cache().Clear()
}

// paginate applies the offset/limit window over the ranked list.
// hasMore is true when candidates remained beyond the returned window.
func paginate(ranked []Result, offset, limit int) ([]Result, bool) {
	if offset >= len(ranked) {
		return []Result{}, false
	}
	end := offset + limit
	if end > len(ranked) {
		end = len(ranked)
	}
	return ranked[offset:end], end < len(ranked)
}
