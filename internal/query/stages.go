package query

import (
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/coccobas/agent-memory/internal/entry"
	"github.com/coccobas/agent-memory/internal/permission"
)

// ─── resolve ─────────────────────────────────────────────────────────────────

// stageResolve translates raw caller parameters into pipeline state.
// It is the only stage that reads Params; everything downstream works
// from the normalized fields.
func (e *Engine) stageResolve(st *State) error {
	p := st.Params

	chain, cacheHit, err := e.resolver.Resolve(p.Scope)
	if err != nil {
		return err
	}
	st.Chain = chain
	st.CacheHit = cacheHit

	// Types: empty means all four kinds; otherwise pass through
	// order-preserving.
	if len(p.Types) == 0 {
		st.Types = entry.AllKinds()
	} else {
		st.Types = p.Types
	}

	st.Limit = e.normalizeLimit(p.Limit)
	st.Offset = e.normalizeOffset(p)

	// Search: trimmed; whitespace-only collapses to absent so no stage
	// ever text-filters on nothing.
	st.Search = strings.TrimSpace(p.Search)
	if st.Search == "" && p.Search != "" {
		e.log.Debug("whitespace-only search normalized to no search")
	}

	st.markCompleted(StageResolve)
	return nil
}

// normalizeLimit floors fractional input, substitutes the configured
// default for non-positive or missing values, and clamps to the
// configured maximum. The result is always in [1, MaxLimit].
func (e *Engine) normalizeLimit(raw float64) int {
	limit := int(math.Floor(raw))
	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}
	if limit > e.cfg.MaxLimit {
		limit = e.cfg.MaxLimit
	}
	return limit
}

// normalizeOffset resolves the effective offset. A well-formed cursor
// always wins over a raw offset parameter; a malformed cursor falls
// back to zero with a diagnostic log, never an error.
func (e *Engine) normalizeOffset(p Params) int {
	if p.Cursor != "" {
		offset, err := DecodeCursor(p.Cursor)
		if err != nil {
			e.log.Warn("malformed pagination cursor, falling back to offset 0",
				zap.Error(err))
			return 0
		}
		return offset
	}
	offset := int(math.Floor(p.Offset))
	if offset < 0 {
		offset = 0
	}
	return offset
}

// ─── fts ─────────────────────────────────────────────────────────────────────

// stageFTS queries the text index when a search term is present and
// full-text search is enabled for the request; otherwise it is a no-op
// that records used=false.
func (e *Engine) stageFTS(st *State) error {
	defer st.markCompleted(StageFTS)

	if st.Search == "" || !st.Params.UseFTS {
		st.FTSUsed = false
		st.Matches = nil
		// The filter stage falls back to substring matching whenever a
		// search term is active without the index.
		if st.Search != "" {
			st.Technique = "substring"
		}
		return nil
	}

	matches, err := e.store.SearchText(st.Search, st.Types)
	if err != nil {
		return err
	}
	st.FTSUsed = true
	st.Technique = "fts5"
	st.Matches = matches
	return nil
}

// ─── fetch ───────────────────────────────────────────────────────────────────

// stageFetch gathers active entries for every (chain link × kind)
// combination. Inherited entries are not deduplicated against more
// specific ones — ranking decides precedence.
func (e *Engine) stageFetch(st *State) error {
	defer st.markCompleted(StageFetch)

	for _, link := range st.Chain {
		for _, kind := range st.Types {
			entries, err := e.store.ListByScope(kind, link.Type, link.ID)
			if err != nil {
				return err
			}
			st.Candidates = append(st.Candidates, entries...)
		}
	}
	return nil
}

// ─── filter ──────────────────────────────────────────────────────────────────

// stageFilter applies the permission filter, tag filters, and — when a
// search term is active — the text match. Dropped candidates are
// silent; denial is not an error of this pipeline.
func (e *Engine) stageFilter(st *State) error {
	defer st.markCompleted(StageFilter)

	allowed := e.perm.CheckBatch(st.Params.AgentID, permission.ActionRead, st.Candidates)

	st.Filtered = st.Filtered[:0]
	st.Denied = 0
	for _, cand := range st.Candidates {
		if !allowed[cand.ID] {
			st.Denied++
			continue
		}
		if !hasAllTags(cand.Tags, st.Params.Tags) {
			continue
		}
		if st.Search != "" && !e.matchesSearch(st, cand) {
			continue
		}
		st.Filtered = append(st.Filtered, cand)
	}
	return nil
}

// matchesSearch reports whether a candidate satisfies the active search
// term. With FTS the index decided; without it a case-insensitive
// substring match over name and content stands in.
func (e *Engine) matchesSearch(st *State, cand entry.Entry) bool {
	if st.FTSUsed {
		_, ok := st.Matches[cand.ID]
		return ok
	}
	term := strings.ToLower(st.Search)
	return strings.Contains(strings.ToLower(cand.Name), term) ||
		strings.Contains(strings.ToLower(cand.Content), term)
}

func hasAllTags(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := make(map[string]bool, len(have))
	for _, t := range have {
		set[strings.ToLower(t)] = true
	}
	for _, t := range want {
		if !set[strings.ToLower(strings.TrimSpace(t))] {
			return false
		}
	}
	return true
}

// ─── score ───────────────────────────────────────────────────────────────────

// stageScore ranks the surviving candidates. The engine applies the
// pagination window over the ranked list when it builds the response,
// so offset/limit always cut scored results, never raw candidates.
func (e *Engine) stageScore(st *State) error {
	defer st.markCompleted(StageScore)

	st.Results = e.scoreAndSort(st)
	return nil
}
