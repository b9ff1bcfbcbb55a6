package scope

import (
	"fmt"

	"go.uber.org/zap"
)

// ParentLookup supplies the parent links the resolver walks. *Store
// satisfies it; tests substitute fakes.
type ParentLookup interface {
	// ProjectOrg returns a project's organization id (nullable) and
	// whether the project row exists.
	ProjectOrg(id string) (orgID *string, found bool, err error)
	// SessionProject returns a session's project id (nullable) and
	// whether the session row exists.
	SessionProject(id string) (projectID *string, found bool, err error)
}

// Resolver resolves a scope reference into its inheritance chain,
// memoizing results in the chain cache.
//
// Resolution is deterministic and side-effect-free from the caller's
// perspective; the cache is an internal optimization observable only
// through latency and the explain trace.
type Resolver struct {
	parents ParentLookup
	cache   *ChainCache
	log     *zap.Logger
}

// NewResolver creates a Resolver over the given parent lookup and cache.
func NewResolver(parents ParentLookup, cache *ChainCache, log *zap.Logger) *Resolver {
	return &Resolver{parents: parents, cache: cache, log: log}
}

// Cache exposes the chain cache for invalidation hooks.
func (r *Resolver) Cache() *ChainCache {
	return r.cache
}

// Resolve returns the inheritance chain for ref. cacheHit reports
// whether the chain came from the cache without touching the backing
// store.
//
// Missing parent rows are not errors: a dangling reference resolves to
// a nil-id link at that level, degrading gracefully toward global.
func (r *Resolver) Resolve(ref Ref) (chain Chain, cacheHit bool, err error) {
	if err := ref.Validate(); err != nil {
		return nil, false, err
	}

	// Global has no ancestors and nothing to cache.
	if ref.Type == TypeGlobal {
		return Chain{globalLink()}, false, nil
	}

	id := *ref.ID
	if cached, ok := r.cache.Get(ref.Type, id, ref.Inherit); ok {
		return cached, true, nil
	}

	chain, err = r.build(ref.Type, id, ref.Inherit)
	if err != nil {
		return nil, false, err
	}
	r.cache.Put(ref.Type, id, ref.Inherit, chain)
	return chain, false, nil
}

func (r *Resolver) build(t Type, id string, inherit bool) (Chain, error) {
	self := Link{Type: t, ID: &id}
	if !inherit {
		return Chain{self}, nil
	}

	switch t {
	case TypeOrg:
		return Chain{self, globalLink()}, nil

	case TypeProject:
		orgID, found, err := r.parents.ProjectOrg(id)
		if err != nil {
			return nil, err
		}
		if !found {
			r.log.Warn("scope chain: dangling project reference",
				zap.String("project_id", id))
		}
		return Chain{self, {Type: TypeOrg, ID: orgID}, globalLink()}, nil

	case TypeSession:
		projectID, found, err := r.parents.SessionProject(id)
		if err != nil {
			return nil, err
		}
		if !found {
			r.log.Warn("scope chain: dangling session reference",
				zap.String("session_id", id))
		}
		var orgID *string
		if projectID != nil {
			var projectFound bool
			orgID, projectFound, err = r.parents.ProjectOrg(*projectID)
			if err != nil {
				return nil, err
			}
			if !projectFound {
				r.log.Warn("scope chain: session parent project missing",
					zap.String("session_id", id),
					zap.String("project_id", *projectID))
			}
		}
		return Chain{
			self,
			{Type: TypeProject, ID: projectID},
			{Type: TypeOrg, ID: orgID},
			globalLink(),
		}, nil
	}

	return nil, fmt.Errorf("%w: unreachable type %q", ErrInvalidScope, t)
}
