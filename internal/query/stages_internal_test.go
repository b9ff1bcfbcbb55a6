package query

import (
	"testing"

	"go.uber.org/zap"

	"github.com/coccobas/agent-memory/internal/config"
	"github.com/coccobas/agent-memory/internal/entry"
	"github.com/coccobas/agent-memory/internal/scope"
)

// In-package unit tests for the small normalization helpers; the full
// pipeline is covered by the black-box engine tests.

func normEngine() *Engine {
	cfg := config.Default()
	cfg.DefaultLimit = 10
	cfg.MaxLimit = 25
	return NewEngine(cfg, nil, nil, nil, zap.NewNop())
}

func TestNormalizeLimit(t *testing.T) {
	e := normEngine()
	cases := []struct {
		raw  float64
		want int
	}{
		{0, 10},    // unset → default
		{-3, 10},   // negative → default
		{0.9, 10},  // floors to zero → default
		{7.8, 7},   // fractional → floor
		{25, 25},   // at max
		{100, 25},  // above max → clamp
		{1, 1},     // minimum valid
	}
	for _, c := range cases {
		if got := e.normalizeLimit(c.raw); got != c.want {
			t.Errorf("normalizeLimit(%g) = %d, want %d", c.raw, got, c.want)
		}
	}
}

func TestNormalizeOffset_RawValues(t *testing.T) {
	e := normEngine()
	cases := []struct {
		raw  float64
		want int
	}{
		{0, 0},
		{4, 4},
		{4.9, 4},
		{-1, 0},
	}
	for _, c := range cases {
		if got := e.normalizeOffset(Params{Offset: c.raw}); got != c.want {
			t.Errorf("normalizeOffset(%g) = %d, want %d", c.raw, got, c.want)
		}
	}
}

func TestNormalizeOffset_CursorPrecedence(t *testing.T) {
	e := normEngine()
	p := Params{Offset: 99, Cursor: EncodeCursor(3)}
	if got := e.normalizeOffset(p); got != 3 {
		t.Errorf("got %d, want the cursor offset 3", got)
	}
}

func TestNormalizeOffset_BadCursorFallsBack(t *testing.T) {
	e := normEngine()
	p := Params{Offset: 99, Cursor: "garbage"}
	if got := e.normalizeOffset(p); got != 0 {
		t.Errorf("got %d, want fallback 0", got)
	}
}

func TestHasAllTags(t *testing.T) {
	have := []string{"git", "workflow"}
	if !hasAllTags(have, nil) {
		t.Error("no required tags should always pass")
	}
	if !hasAllTags(have, []string{"GIT", " workflow "}) {
		t.Error("matching is case-insensitive and trimmed")
	}
	if hasAllTags(have, []string{"git", "deploy"}) {
		t.Error("a missing tag should fail the filter")
	}
}

func TestScoreAndSort_TieBreaks(t *testing.T) {
	e := normEngine()

	// All four entries carry identical priority and scope, and all are
	// old enough that recency has decayed to the configured floor, so
	// their composite scores are exactly equal. Ordering then falls to
	// creation time (newest first) and finally to id.
	mk := func(id, created string) entry.Entry {
		return entry.Entry{
			ID:         id,
			Kind:       entry.KindKnowledge,
			ScopeType:  scope.TypeGlobal,
			Name:       "fact-" + id,
			Priority:   0.5,
			Confidence: 0.5,
			CreatedAt:  created,
		}
	}
	st := &State{Filtered: []entry.Entry{
		mk("cc", "2020-06-01 00:00:00"),
		mk("dd", "2019-01-01 00:00:00"),
		mk("bb", "2020-06-01 00:00:00"),
		mk("aa", "2020-06-01 00:00:00"),
	}}

	results := e.scoreAndSort(st)
	want := []string{"aa", "bb", "cc", "dd"}
	for i, id := range want {
		if results[i].Entry.ID != id {
			t.Fatalf("rank %d = %s, want %s", i, results[i].Entry.ID, id)
		}
	}
	for i := 1; i < 3; i++ {
		if results[i].Score != results[0].Score {
			t.Errorf("rank %d score = %g, want equal to rank 0 (%g)", i, results[i].Score, results[0].Score)
		}
	}
}

func TestPaginate(t *testing.T) {
	ranked := []Result{{}, {}, {}, {}, {}}

	window, more := paginate(ranked, 0, 2)
	if len(window) != 2 || !more {
		t.Errorf("page 1: len=%d more=%v", len(window), more)
	}
	window, more = paginate(ranked, 4, 2)
	if len(window) != 1 || more {
		t.Errorf("last page: len=%d more=%v", len(window), more)
	}
	window, more = paginate(ranked, 9, 2)
	if len(window) != 0 || more {
		t.Errorf("past end: len=%d more=%v", len(window), more)
	}
}
