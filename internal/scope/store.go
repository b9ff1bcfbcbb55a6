package scope

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// Store persists the scope hierarchy: organizations, projects with a
// nullable organization parent, and sessions with a nullable project
// parent.
//
// Every mutation that changes parent linkage invalidates the affected
// chain-cache keys before returning, so the next query is guaranteed a
// fresh chain.
type Store struct {
	db    *sql.DB
	cache *ChainCache
	log   *zap.Logger
}

// NewStore runs the scope migrations and returns a Store bound to the
// given cache. The cache must be the same instance the resolver uses.
func NewStore(db *sql.DB, cache *ChainCache, log *zap.Logger) (*Store, error) {
	s := &Store{db: db, cache: cache, log: log}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("scope: migration: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS organizations (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS projects (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			org_id     TEXT REFERENCES organizations(id) ON DELETE SET NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			name       TEXT,
			project_id TEXT REFERENCES projects(id) ON DELETE SET NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			ended_at   TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_projects_org    ON projects(org_id);
		CREATE INDEX IF NOT EXISTS idx_sessions_project ON sessions(project_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── Creation ────────────────────────────────────────────────────────────────

// CreateOrg registers an organization.
func (s *Store) CreateOrg(id, name string) error {
	if err := (Ref{Type: TypeOrg, ID: &id, Inherit: true}).Validate(); err != nil {
		return err
	}
	_, err := s.db.Exec(`INSERT INTO organizations (id, name) VALUES (?, ?)`, id, name)
	if err != nil {
		return fmt.Errorf("scope: create org: %w", err)
	}
	return nil
}

// CreateProject registers a project, optionally under an organization.
func (s *Store) CreateProject(id, name string, orgID *string) error {
	if err := (Ref{Type: TypeProject, ID: &id, Inherit: true}).Validate(); err != nil {
		return err
	}
	_, err := s.db.Exec(`INSERT INTO projects (id, name, org_id) VALUES (?, ?, ?)`, id, name, orgID)
	if err != nil {
		return fmt.Errorf("scope: create project: %w", err)
	}
	s.cache.Invalidate(TypeProject, id)
	return nil
}

// CreateSession registers a session, optionally under a project.
func (s *Store) CreateSession(id string, projectID *string) error {
	if err := (Ref{Type: TypeSession, ID: &id, Inherit: true}).Validate(); err != nil {
		return err
	}
	_, err := s.db.Exec(`INSERT INTO sessions (id, project_id) VALUES (?, ?)`, id, projectID)
	if err != nil {
		return fmt.Errorf("scope: create session: %w", err)
	}
	s.cache.Invalidate(TypeSession, id)
	return nil
}

// EndSession marks a session as closed. Parent linkage is untouched, so
// no cache invalidation is needed.
func (s *Store) EndSession(id string) error {
	_, err := s.db.Exec(`UPDATE sessions SET ended_at = datetime('now') WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("scope: end session: %w", err)
	}
	return nil
}

// ─── Reparenting ─────────────────────────────────────────────────────────────

// ReparentProject moves a project to a different organization (or to
// none). The project's cached chains and every cached session chain
// running through it are invalidated before this returns.
func (s *Store) ReparentProject(id string, orgID *string) error {
	res, err := s.db.Exec(`UPDATE projects SET org_id = ? WHERE id = ?`, orgID, id)
	if err != nil {
		return fmt.Errorf("scope: reparent project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("scope: reparent project: project %s not found", id)
	}
	s.cache.InvalidateContaining(TypeProject, id)
	s.cache.Invalidate(TypeProject, id)
	s.log.Debug("project reparented, chain cache invalidated",
		zap.String("project_id", id))
	return nil
}

// ReparentSession moves a session to a different project (or to none).
func (s *Store) ReparentSession(id string, projectID *string) error {
	res, err := s.db.Exec(`UPDATE sessions SET project_id = ? WHERE id = ?`, projectID, id)
	if err != nil {
		return fmt.Errorf("scope: reparent session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("scope: reparent session: session %s not found", id)
	}
	s.cache.Invalidate(TypeSession, id)
	s.log.Debug("session reparented, chain cache invalidated",
		zap.String("session_id", id))
	return nil
}

// ─── Deletion ────────────────────────────────────────────────────────────────

// DeleteOrg removes an organization. Child projects are detached (org
// link set to NULL by the schema), so every cached chain that ran
// through the org is invalidated.
func (s *Store) DeleteOrg(id string) error {
	res, err := s.db.Exec(`DELETE FROM organizations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("scope: delete org: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("scope: delete org: org %s not found", id)
	}
	s.cache.InvalidateContaining(TypeOrg, id)
	s.cache.Invalidate(TypeOrg, id)
	s.log.Debug("org deleted, chain cache invalidated", zap.String("org_id", id))
	return nil
}

// DeleteProject removes a project, detaching its sessions.
func (s *Store) DeleteProject(id string) error {
	res, err := s.db.Exec(`DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("scope: delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("scope: delete project: project %s not found", id)
	}
	s.cache.InvalidateContaining(TypeProject, id)
	s.cache.Invalidate(TypeProject, id)
	s.log.Debug("project deleted, chain cache invalidated", zap.String("project_id", id))
	return nil
}

// DeleteSession removes a session row entirely; EndSession is the
// normal lifecycle, this is cleanup.
func (s *Store) DeleteSession(id string) error {
	res, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("scope: delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("scope: delete session: session %s not found", id)
	}
	s.cache.Invalidate(TypeSession, id)
	return nil
}

// ─── Parent lookups ──────────────────────────────────────────────────────────

// ProjectOrg returns the organization id of a project, which may be
// nil. found is false when the project row itself is missing — callers
// treat that as a dangling reference, not an error.
func (s *Store) ProjectOrg(id string) (orgID *string, found bool, err error) {
	row := s.db.QueryRow(`SELECT org_id FROM projects WHERE id = ?`, id)
	if err := row.Scan(&orgID); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("scope: project lookup: %w", err)
	}
	return orgID, true, nil
}

// SessionProject returns the project id of a session, which may be nil.
func (s *Store) SessionProject(id string) (projectID *string, found bool, err error) {
	row := s.db.QueryRow(`SELECT project_id FROM sessions WHERE id = ?`, id)
	if err := row.Scan(&projectID); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("scope: session lookup: %w", err)
	}
	return projectID, true, nil
}

// Counts returns the number of rows per scope level, for stats.
func (s *Store) Counts() (orgs, projects, sessions int, err error) {
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM organizations`).Scan(&orgs); err != nil {
		return 0, 0, 0, fmt.Errorf("scope: counts: %w", err)
	}
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM projects`).Scan(&projects); err != nil {
		return 0, 0, 0, fmt.Errorf("scope: counts: %w", err)
	}
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&sessions); err != nil {
		return 0, 0, 0, fmt.Errorf("scope: counts: %w", err)
	}
	return orgs, projects, sessions, nil
}
