package query

import (
	"fmt"
	"time"

	"github.com/coccobas/agent-memory/internal/entry"
	"github.com/coccobas/agent-memory/internal/scope"
)

// Explain is the structured diagnostic trace for one query execution.
// It exists only when the caller asked for it; nothing here is computed
// on the normal path.
type Explain struct {
	Summary  string           `json:"summary"`
	Stages   StageDiagnostics `json:"stages"`
	Timing   Timing           `json:"timing"`
	CacheHit bool             `json:"cacheHit"`
}

// StageDiagnostics holds one record per pipeline stage.
type StageDiagnostics struct {
	Resolve ResolveDiag `json:"resolve"`
	FTS     FTSDiag     `json:"fts"`
	Fetch   FetchDiag   `json:"fetch"`
	Filter  FilterDiag  `json:"filter"`
	Score   ScoreDiag   `json:"score"`
}

// ResolveDiag reports the normalized parameters and the resolved chain.
type ResolveDiag struct {
	Chain    scope.Chain  `json:"chain"`
	Types    []entry.Kind `json:"types"`
	Limit    int          `json:"limit"`
	Offset   int          `json:"offset"`
	Search   string       `json:"search,omitempty"`
	CacheHit bool         `json:"cacheHit"`
}

// FTSDiag reports whether text search ran and with what technique.
type FTSDiag struct {
	Used      bool   `json:"used"`
	Technique string `json:"technique,omitempty"`
	Matches   int    `json:"matches"`
}

// FetchDiag reports candidate counts per chain link.
type FetchDiag struct {
	PerScope []ScopeCount `json:"perScope"`
	Total    int          `json:"total"`
}

// ScopeCount is the candidate count gathered at one chain link.
type ScopeCount struct {
	ScopeType scope.Type `json:"scopeType"`
	ScopeID   *string    `json:"scopeId"`
	Count     int        `json:"count"`
}

// FilterDiag reports how many candidates survived filtering and how
// many the permission filter denied.
type FilterDiag struct {
	In     int `json:"in"`
	Out    int `json:"out"`
	Denied int `json:"denied"`
}

// ScoreDiag exposes the component breakdown for a bounded number of
// top-ranked entries. Debugging aid only — never emitted without
// explain.
type ScoreDiag struct {
	Ranked int              `json:"ranked"`
	Top    []ScoreBreakdown `json:"top"`
}

// ScoreBreakdown pairs an entry with its score components.
type ScoreBreakdown struct {
	EntryID    string          `json:"entryId"`
	Name       string          `json:"name"`
	Kind       entry.Kind      `json:"kind"`
	ScopeType  scope.Type      `json:"scopeType"`
	Components ScoreComponents `json:"components"`
}

// Timing is the per-stage wall-clock accounting.
type Timing struct {
	TotalMs   float64       `json:"totalMs"`
	Breakdown []StageTiming `json:"breakdown"`
}

// StageTiming is one stage's share of the total.
type StageTiming struct {
	Stage      string  `json:"stage"`
	DurationMs float64 `json:"durationMs"`
	Percent    float64 `json:"percent"`
}

// recorder wraps each stage invocation in a timer. It decorates the
// pipeline rather than duplicating any stage logic.
type recorder struct {
	durations []StageTiming
}

func newRecorder() *recorder {
	return &recorder{}
}

// wrap times a single stage execution.
func (r *recorder) wrap(s stage, st *State) error {
	start := time.Now()
	err := s.run(st)
	elapsed := time.Since(start)
	r.durations = append(r.durations, StageTiming{
		Stage:      s.name,
		DurationMs: float64(elapsed.Microseconds()) / 1000,
	})
	return err
}

// build assembles the Explain output from the final pipeline state.
// topN bounds the score breakdown.
func (r *recorder) build(st *State, topN int) *Explain {
	total := 0.0
	for _, d := range r.durations {
		total += d.DurationMs
	}
	breakdown := make([]StageTiming, len(r.durations))
	copy(breakdown, r.durations)
	for i := range breakdown {
		if total > 0 {
			breakdown[i].Percent = breakdown[i].DurationMs / total * 100
		}
	}

	if topN < 0 {
		topN = 0
	}
	if topN > len(st.Results) {
		topN = len(st.Results)
	}
	top := make([]ScoreBreakdown, 0, topN)
	for _, res := range st.Results[:topN] {
		top = append(top, ScoreBreakdown{
			EntryID:    res.Entry.ID,
			Name:       res.Entry.Name,
			Kind:       res.Entry.Kind,
			ScopeType:  res.Entry.ScopeType,
			Components: res.components,
		})
	}

	perScope := make([]ScopeCount, 0, len(st.Chain))
	for _, link := range st.Chain {
		n := 0
		for _, cand := range st.Candidates {
			if cand.ScopeType == link.Type && sameID(cand.ScopeID, link.ID) {
				n++
			}
		}
		perScope = append(perScope, ScopeCount{ScopeType: link.Type, ScopeID: link.ID, Count: n})
	}

	cacheState := "miss"
	if st.CacheHit {
		cacheState = "hit"
	}
	summary := fmt.Sprintf(
		"resolved %d-scope chain (cache %s), fetched %d candidates, %d after filtering, returned %d ranked in %.2fms",
		len(st.Chain), cacheState, len(st.Candidates), len(st.Filtered), len(st.Results), total,
	)

	return &Explain{
		Summary: summary,
		Stages: StageDiagnostics{
			Resolve: ResolveDiag{
				Chain:    st.Chain,
				Types:    st.Types,
				Limit:    st.Limit,
				Offset:   st.Offset,
				Search:   st.Search,
				CacheHit: st.CacheHit,
			},
			FTS: FTSDiag{
				Used:      st.FTSUsed,
				Technique: st.Technique,
				Matches:   len(st.Matches),
			},
			Fetch: FetchDiag{
				PerScope: perScope,
				Total:    len(st.Candidates),
			},
			Filter: FilterDiag{
				In:     len(st.Candidates),
				Out:    len(st.Filtered),
				Denied: st.Denied,
			},
			Score: ScoreDiag{
				Ranked: len(st.Results),
				Top:    top,
			},
		},
		Timing:   Timing{TotalMs: total, Breakdown: breakdown},
		CacheHit: st.CacheHit,
	}
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
