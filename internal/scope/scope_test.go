package scope_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coccobas/agent-memory/internal/scope"
)

// fakeParents is an in-memory ParentLookup for resolver tests.
type fakeParents struct {
	projectOrg     map[string]*string
	sessionProject map[string]*string
	lookups        int
}

func (f *fakeParents) ProjectOrg(id string) (*string, bool, error) {
	f.lookups++
	org, ok := f.projectOrg[id]
	return org, ok, nil
}

func (f *fakeParents) SessionProject(id string) (*string, bool, error) {
	f.lookups++
	project, ok := f.sessionProject[id]
	return project, ok, nil
}

func newTestResolver(parents *fakeParents) *scope.Resolver {
	return scope.NewResolver(parents, scope.NewChainCache(0), zap.NewNop())
}

func ptr(s string) *string { return &s }

// ─── Ref validation ──────────────────────────────────────────────────────────

func TestRefValidate_Global(t *testing.T) {
	if err := (scope.Ref{Type: scope.TypeGlobal, Inherit: true}).Validate(); err != nil {
		t.Errorf("global ref should be valid, got %v", err)
	}
}

func TestRefValidate_GlobalWithIDRejected(t *testing.T) {
	id := uuid.NewString()
	err := (scope.Ref{Type: scope.TypeGlobal, ID: &id}).Validate()
	if !errors.Is(err, scope.ErrInvalidScope) {
		t.Errorf("global ref with id: got %v, want ErrInvalidScope", err)
	}
}

func TestRefValidate_MissingID(t *testing.T) {
	for _, typ := range []scope.Type{scope.TypeOrg, scope.TypeProject, scope.TypeSession} {
		err := (scope.Ref{Type: typ, Inherit: true}).Validate()
		if !errors.Is(err, scope.ErrInvalidScope) {
			t.Errorf("%s ref without id: got %v, want ErrInvalidScope", typ, err)
		}
	}
}

func TestRefValidate_MalformedUUID(t *testing.T) {
	err := scope.NewRef(scope.TypeProject, "not-a-uuid").Validate()
	if !errors.Is(err, scope.ErrInvalidScope) {
		t.Errorf("malformed uuid: got %v, want ErrInvalidScope", err)
	}
}

func TestRefValidate_UnknownType(t *testing.T) {
	err := scope.NewRef("universe", uuid.NewString()).Validate()
	if !errors.Is(err, scope.ErrInvalidScope) {
		t.Errorf("unknown type: got %v, want ErrInvalidScope", err)
	}
}

func TestSpecificity_Ordering(t *testing.T) {
	if !(scope.TypeSession.Specificity() > scope.TypeProject.Specificity() &&
		scope.TypeProject.Specificity() > scope.TypeOrg.Specificity() &&
		scope.TypeOrg.Specificity() > scope.TypeGlobal.Specificity()) {
		t.Error("specificity must strictly decrease from session to global")
	}
}

// ─── Chain shape ─────────────────────────────────────────────────────────────

func TestResolve_GlobalChain(t *testing.T) {
	r := newTestResolver(&fakeParents{})

	chain, hit, err := r.Resolve(scope.Ref{Type: scope.TypeGlobal, Inherit: true})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if hit {
		t.Error("global resolution should never be a cache hit")
	}
	if len(chain) != 1 || chain[0].Type != scope.TypeGlobal || chain[0].ID != nil {
		t.Errorf("global chain = %+v, want single nil-id global link", chain)
	}
}

func TestResolve_OrgChain(t *testing.T) {
	r := newTestResolver(&fakeParents{})
	orgID := uuid.NewString()

	chain, _, err := r.Resolve(scope.NewRef(scope.TypeOrg, orgID))
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if len(chain) != 2 {
		t.Fatalf("org chain length = %d, want 2", len(chain))
	}
	if chain[0].Type != scope.TypeOrg || *chain[0].ID != orgID {
		t.Errorf("chain[0] = %+v, want the org itself", chain[0])
	}
	if chain[1].Type != scope.TypeGlobal {
		t.Errorf("chain must terminate at global, got %+v", chain[1])
	}
}

func TestResolve_SessionFullChain(t *testing.T) {
	sessionID := uuid.NewString()
	projectID := uuid.NewString()
	orgID := uuid.NewString()
	r := newTestResolver(&fakeParents{
		projectOrg:     map[string]*string{projectID: ptr(orgID)},
		sessionProject: map[string]*string{sessionID: ptr(projectID)},
	})

	chain, _, err := r.Resolve(scope.NewRef(scope.TypeSession, sessionID))
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	want := []scope.Type{scope.TypeSession, scope.TypeProject, scope.TypeOrg, scope.TypeGlobal}
	if len(chain) != len(want) {
		t.Fatalf("session chain length = %d, want %d", len(chain), len(want))
	}
	for i, typ := range want {
		if chain[i].Type != typ {
			t.Errorf("chain[%d].Type = %s, want %s", i, chain[i].Type, typ)
		}
	}
	if *chain[1].ID != projectID || *chain[2].ID != orgID {
		t.Errorf("ancestor ids wrong: project=%v org=%v", chain[1].ID, chain[2].ID)
	}
}

func TestResolve_DanglingProjectDegradesToNilOrg(t *testing.T) {
	r := newTestResolver(&fakeParents{})
	projectID := uuid.NewString()

	chain, _, err := r.Resolve(scope.NewRef(scope.TypeProject, projectID))
	if err != nil {
		t.Fatalf("dangling project must not error, got %v", err)
	}
	if len(chain) != 3 {
		t.Fatalf("chain length = %d, want 3", len(chain))
	}
	if chain[1].Type != scope.TypeOrg || chain[1].ID != nil {
		t.Errorf("dangling project should yield a nil-id org link, got %+v", chain[1])
	}
}

func TestResolve_SessionWithOrphanProject(t *testing.T) {
	sessionID := uuid.NewString()
	projectID := uuid.NewString()
	r := newTestResolver(&fakeParents{
		projectOrg:     map[string]*string{projectID: nil},
		sessionProject: map[string]*string{sessionID: ptr(projectID)},
	})

	chain, _, err := r.Resolve(scope.NewRef(scope.TypeSession, sessionID))
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if *chain[1].ID != projectID {
		t.Errorf("project link = %+v, want %s", chain[1], projectID)
	}
	if chain[2].ID != nil {
		t.Errorf("org link should be nil for an org-less project, got %+v", chain[2])
	}
}

func TestResolve_InheritFalseSingleLink(t *testing.T) {
	sessionID := uuid.NewString()
	parents := &fakeParents{sessionProject: map[string]*string{sessionID: nil}}
	r := newTestResolver(parents)

	ref := scope.NewRef(scope.TypeSession, sessionID)
	ref.Inherit = false
	chain, _, err := r.Resolve(ref)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if len(chain) != 1 || chain[0].Type != scope.TypeSession {
		t.Errorf("inherit=false chain = %+v, want just the session link", chain)
	}
	if parents.lookups != 0 {
		t.Errorf("inherit=false should touch no parent rows, got %d lookups", parents.lookups)
	}
}

func TestResolve_InvalidRefRejected(t *testing.T) {
	r := newTestResolver(&fakeParents{})
	_, _, err := r.Resolve(scope.NewRef(scope.TypeSession, "bogus"))
	if !errors.Is(err, scope.ErrInvalidScope) {
		t.Errorf("got %v, want ErrInvalidScope", err)
	}
}

// ─── Caching through the resolver ────────────────────────────────────────────

func TestResolve_SecondCallHitsCache(t *testing.T) {
	projectID := uuid.NewString()
	parents := &fakeParents{projectOrg: map[string]*string{projectID: nil}}
	r := scope.NewResolver(parents, scope.NewChainCache(time.Minute), zap.NewNop())

	ref := scope.NewRef(scope.TypeProject, projectID)
	if _, hit, err := r.Resolve(ref); err != nil || hit {
		t.Fatalf("first resolve: hit=%v err=%v, want miss and no error", hit, err)
	}
	lookupsAfterFirst := parents.lookups

	_, hit, err := r.Resolve(ref)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if !hit {
		t.Error("second resolve should be a cache hit")
	}
	if parents.lookups != lookupsAfterFirst {
		t.Errorf("cache hit must not touch the store: lookups %d → %d",
			lookupsAfterFirst, parents.lookups)
	}
}

func TestResolve_InheritVariantsCachedSeparately(t *testing.T) {
	projectID := uuid.NewString()
	parents := &fakeParents{projectOrg: map[string]*string{projectID: nil}}
	r := scope.NewResolver(parents, scope.NewChainCache(time.Minute), zap.NewNop())

	inheriting := scope.NewRef(scope.TypeProject, projectID)
	exact := inheriting
	exact.Inherit = false

	if _, _, err := r.Resolve(inheriting); err != nil {
		t.Fatal(err)
	}
	chain, hit, err := r.Resolve(exact)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("inherit=false must not reuse the inheriting chain")
	}
	if len(chain) != 1 {
		t.Errorf("exact chain length = %d, want 1", len(chain))
	}
}

// ─── Chain.Contains ──────────────────────────────────────────────────────────

func TestChainContains(t *testing.T) {
	projectID := uuid.NewString()
	chain := scope.Chain{
		{Type: scope.TypeProject, ID: &projectID},
		{Type: scope.TypeOrg, ID: nil},
		{Type: scope.TypeGlobal, ID: nil},
	}

	if !chain.Contains(scope.TypeProject, &projectID) {
		t.Error("should contain the project link")
	}
	if !chain.Contains(scope.TypeOrg, nil) {
		t.Error("nil id should match the nil-id org link")
	}
	other := uuid.NewString()
	if chain.Contains(scope.TypeProject, &other) {
		t.Error("different project id must not match")
	}
	if chain.Contains(scope.TypeSession, nil) {
		t.Error("absent level must not match")
	}
}
