// Package scope models the hierarchical scope system and resolves
// inheritance chains.
//
// Every memory entry belongs to a scope: a session, a project, an
// organization, or the global scope. Reads resolve the full ancestor
// chain of the requested scope (session → project → org → global) so
// that inherited entries surface alongside local ones. Chain
// resolutions are memoized in a TTL cache that scope mutations must
// invalidate synchronously.
package scope

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Type classifies a scope level in the hierarchy.
type Type string

const (
	TypeGlobal  Type = "global"
	TypeOrg     Type = "org"
	TypeProject Type = "project"
	TypeSession Type = "session"
)

// ErrInvalidScope is returned when a scope reference fails validation.
var ErrInvalidScope = errors.New("scope: invalid scope reference")

// ValidType reports whether t is a known scope type.
func ValidType(t Type) bool {
	switch t {
	case TypeGlobal, TypeOrg, TypeProject, TypeSession:
		return true
	}
	return false
}

// Specificity returns the precedence rank of a scope type. More
// specific scopes rank higher: session 3, project 2, org 1, global 0.
func (t Type) Specificity() int {
	switch t {
	case TypeSession:
		return 3
	case TypeProject:
		return 2
	case TypeOrg:
		return 1
	default:
		return 0
	}
}

// Ref identifies a scope as supplied by a caller.
//
// Inherit controls whether ancestor scopes participate in reads.
// NewRef defaults it to true; a false value restricts reads to the
// exact scope.
type Ref struct {
	Type    Type    `json:"type"`
	ID      *string `json:"id,omitempty"`
	Inherit bool    `json:"inherit"`
}

// NewRef builds a Ref with inheritance enabled.
func NewRef(t Type, id string) Ref {
	r := Ref{Type: t, Inherit: true}
	if id != "" {
		r.ID = &id
	}
	return r
}

// Validate checks the reference shape: the type must be known, global
// must not carry an id, and every other type must carry a valid UUID.
// This runs before any lookup or cache access — a malformed id is the
// one condition that rejects a query outright.
func (r Ref) Validate() error {
	if !ValidType(r.Type) {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidScope, r.Type)
	}
	if r.Type == TypeGlobal {
		if r.ID != nil {
			return fmt.Errorf("%w: global scope must not carry an id", ErrInvalidScope)
		}
		return nil
	}
	if r.ID == nil || *r.ID == "" {
		return fmt.Errorf("%w: %s scope requires an id", ErrInvalidScope, r.Type)
	}
	if _, err := uuid.Parse(*r.ID); err != nil {
		return fmt.Errorf("%w: %s id %q is not a valid UUID", ErrInvalidScope, r.Type, *r.ID)
	}
	return nil
}

// Link is one element of a resolved chain. A nil ID is valid for the
// global link and for ancestor levels whose parent row is missing.
type Link struct {
	Type Type    `json:"scopeType"`
	ID   *string `json:"scopeId"`
}

// Chain is an ordered list of scope links, most specific first, ending
// at global whenever inheritance is in effect.
type Chain []Link

// Contains reports whether the chain includes a link at the given
// location. A nil id matches only nil-id links.
func (c Chain) Contains(t Type, id *string) bool {
	for _, l := range c {
		if l.Type != t {
			continue
		}
		if l.ID == nil && id == nil {
			return true
		}
		if l.ID != nil && id != nil && *l.ID == *id {
			return true
		}
	}
	return false
}

// globalLink is the chain terminator shared by every inheriting chain.
func globalLink() Link {
	return Link{Type: TypeGlobal, ID: nil}
}
