package query

import (
	"time"

	"go.uber.org/zap"

	"github.com/coccobas/agent-memory/internal/config"
	"github.com/coccobas/agent-memory/internal/entry"
	"github.com/coccobas/agent-memory/internal/permission"
	"github.com/coccobas/agent-memory/internal/scope"
)

// Stage names, in execution order.
const (
	StageResolve = "resolve"
	StageFTS     = "fts"
	StageFetch   = "fetch"
	StageFilter  = "filter"
	StageScore   = "score"
)

// State is the pipeline accumulator: created once per invocation, owned
// by the engine, threaded by exclusive reference through the stage
// sequence, and discarded once the response is built. Each stage reads
// the outputs of earlier stages and appends its own.
type State struct {
	Params Params

	// Written by resolve — the only stage that interprets raw params.
	Chain    scope.Chain
	Types    []entry.Kind
	Limit    int
	Offset   int
	Search   string // empty means absent
	CacheHit bool

	// Written by fts.
	FTSUsed   bool
	Technique string
	Matches   map[string]entry.MatchInfo

	// Written by fetch / filter / score.
	Candidates []entry.Entry
	Filtered   []entry.Entry
	Denied     int
	Results    []Result

	Completed map[string]bool

	recorder *recorder
}

// markCompleted records a stage without clearing stages a caller-
// supplied partial state already marked.
func (st *State) markCompleted(stage string) {
	if st.Completed == nil {
		st.Completed = make(map[string]bool)
	}
	st.Completed[stage] = true
}

// stage is one pipeline step.
type stage struct {
	name string
	run  func(*State) error
}

// Engine executes the query pipeline. One Engine serves many concurrent
// queries; the only shared mutable state behind it is the chain cache
// inside the resolver.
type Engine struct {
	cfg      config.Config
	resolver *scope.Resolver
	store    *entry.Store
	perm     permission.Filter
	log      *zap.Logger

	// now is swappable so scoring tests are deterministic.
	now func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(cfg config.Config, resolver *scope.Resolver, store *entry.Store, perm permission.Filter, log *zap.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		resolver: resolver,
		store:    store,
		perm:     perm,
		log:      log,
		now:      time.Now,
	}
}

// stages returns the fixed pipeline. The order is part of the contract:
// resolve first (sole params translator), score last (pagination is
// applied after ranking).
func (e *Engine) stages() []stage {
	return []stage{
		{StageResolve, e.stageResolve},
		{StageFTS, e.stageFTS},
		{StageFetch, e.stageFetch},
		{StageFilter, e.stageFilter},
		{StageScore, e.stageScore},
	}
}

// run executes the pipeline over st. When explain is requested each
// stage is wrapped in a timer by the recorder; the stage logic itself
// is identical on both paths, so the trace can never drift from actual
// behavior.
func (e *Engine) run(st *State) error {
	for _, s := range e.stages() {
		if st.recorder != nil {
			if err := st.recorder.wrap(s, st); err != nil {
				return err
			}
			continue
		}
		if err := s.run(st); err != nil {
			return err
		}
	}
	return nil
}
