package query

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/coccobas/agent-memory/internal/entry"
)

// sqliteTimeLayout matches datetime('now') output. Timestamps are UTC.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// ScoreComponents breaks a composite score into its weighted factors.
// Exposed only through the explain trace.
type ScoreComponents struct {
	Priority    float64 `json:"priority"`
	Recency     float64 `json:"recency"`
	Specificity float64 `json:"specificity"`
	Text        float64 `json:"text"`
	Composite   float64 `json:"composite"`
}

// scoreAndSort computes the composite score for every filtered
// candidate and returns them ranked. Ordering is fully deterministic:
// score descending, then creation timestamp descending, then id
// ascending.
func (e *Engine) scoreAndSort(st *State) []Result {
	now := e.now().UTC()
	results := make([]Result, 0, len(st.Filtered))
	for _, cand := range st.Filtered {
		comps := e.scoreEntry(cand, st, now)
		results = append(results, Result{
			Entry:      cand,
			Score:      comps.Composite,
			components: comps,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Entry.CreatedAt != results[j].Entry.CreatedAt {
			return results[i].Entry.CreatedAt > results[j].Entry.CreatedAt
		}
		return results[i].Entry.ID < results[j].Entry.ID
	})
	return results
}

// scoreEntry computes the weighted composite:
//
//   - priority: the entry's declared priority blended with its
//     confidence.
//   - recency: half-life decay from creation time with a floor, so old
//     entries fade but never vanish. Computed in Go — the sqlite driver
//     has no pow().
//   - specificity: more specific scopes outrank less specific ones at
//     equal priority; this is how a session-level override wins over an
//     inherited project-level entry without deduplication.
//   - text: FTS relevance when a search term was active, zero otherwise.
func (e *Engine) scoreEntry(cand entry.Entry, st *State, now time.Time) ScoreComponents {
	w := e.cfg.Scoring

	priority := (cand.Priority + cand.Confidence) / 2

	recency := w.RecencyFloor
	if created, err := time.Parse(sqliteTimeLayout, cand.CreatedAt); err == nil {
		age := now.Sub(created)
		if age < 0 {
			age = 0
		}
		halfLives := float64(age) / float64(w.RecencyHalfLife)
		recency = math.Pow(0.5, halfLives)
		if recency < w.RecencyFloor {
			recency = w.RecencyFloor
		}
	}

	specificity := float64(cand.ScopeType.Specificity()) / 3

	text := 0.0
	if st.Search != "" {
		if st.FTSUsed {
			text = st.Matches[cand.ID].Relevance
		} else {
			// Substring fallback: a name hit is a stronger signal than a
			// content-only hit.
			if containsFold(cand.Name, st.Search) {
				text = 1
			} else {
				text = 0.5
			}
		}
	}

	comps := ScoreComponents{
		Priority:    w.PriorityWeight * priority,
		Recency:     w.RecencyWeight * recency,
		Specificity: w.SpecificityWeight * specificity,
		Text:        w.TextWeight * text,
	}
	comps.Composite = comps.Priority + comps.Recency + comps.Specificity + comps.Text
	return comps
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
