package entry

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/coccobas/agent-memory/internal/scope"
)

// Store is the SQLite-backed entry store. All four kinds share one
// table plus one FTS5 external-content index; per-kind access goes
// through explicit kind arguments so dispatch never relies on table
// identity.
type Store struct {
	db *sql.DB
}

// NewStore runs the entry migrations and returns a Store.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("entry: migration: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS entries (
			id             TEXT PRIMARY KEY,
			kind           TEXT NOT NULL,
			scope_type     TEXT NOT NULL,
			scope_id       TEXT,
			name           TEXT NOT NULL,
			content        TEXT NOT NULL,
			tags           TEXT NOT NULL DEFAULT '[]',
			priority       REAL NOT NULL DEFAULT 0.5,
			confidence     REAL NOT NULL DEFAULT 0.5,
			created_at     TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at     TEXT NOT NULL DEFAULT (datetime('now')),
			deactivated_at TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_entries_location ON entries(kind, scope_type, scope_id);
		CREATE INDEX IF NOT EXISTS idx_entries_active   ON entries(deactivated_at);
		CREATE INDEX IF NOT EXISTS idx_entries_created  ON entries(created_at DESC);

		CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
			name,
			content,
			tags,
			kind,
			content='entries',
			content_rowid='rowid'
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// FTS triggers (idempotent).
	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='trigger' AND name='entries_fts_insert'",
	).Scan(&name)
	if err == sql.ErrNoRows {
		triggers := `
			CREATE TRIGGER entries_fts_insert AFTER INSERT ON entries BEGIN
				INSERT INTO entries_fts(rowid, name, content, tags, kind)
				VALUES (new.rowid, new.name, new.content, new.tags, new.kind);
			END;

			CREATE TRIGGER entries_fts_delete AFTER DELETE ON entries BEGIN
				INSERT INTO entries_fts(entries_fts, rowid, name, content, tags, kind)
				VALUES ('delete', old.rowid, old.name, old.content, old.tags, old.kind);
			END;

			CREATE TRIGGER entries_fts_update AFTER UPDATE ON entries BEGIN
				INSERT INTO entries_fts(entries_fts, rowid, name, content, tags, kind)
				VALUES ('delete', old.rowid, old.name, old.content, old.tags, old.kind);
				INSERT INTO entries_fts(rowid, name, content, tags, kind)
				VALUES (new.rowid, new.name, new.content, new.tags, new.kind);
			END;
		`
		if _, err := s.db.Exec(triggers); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	return nil
}

// ─── Lifecycle ───────────────────────────────────────────────────────────────

// Add creates an entry at an exact scope location and returns it.
func (s *Store) Add(p AddParams) (*Entry, error) {
	if !ValidKind(p.Kind) {
		return nil, fmt.Errorf("entry: add: unknown kind %q", p.Kind)
	}
	ref := scope.Ref{Type: p.ScopeType, ID: p.ScopeID, Inherit: true}
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("entry: add: %w", err)
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("entry: add: name is required")
	}

	id := uuid.NewString()
	tags, err := json.Marshal(normalizeTags(p.Tags))
	if err != nil {
		return nil, fmt.Errorf("entry: add: encode tags: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO entries (id, kind, scope_type, scope_id, name, content, tags, priority, confidence)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(p.Kind), string(p.ScopeType), p.ScopeID,
		strings.TrimSpace(p.Name), p.Content, string(tags),
		clamp01(p.Priority), clamp01(p.Confidence),
	)
	if err != nil {
		return nil, fmt.Errorf("entry: add: %w", err)
	}
	return s.Get(id)
}

// Get retrieves an active entry by id.
func (s *Store) Get(id string) (*Entry, error) {
	row := s.db.QueryRow(
		`SELECT id, kind, scope_type, scope_id, name, content, tags, priority, confidence, created_at, updated_at
		 FROM entries WHERE id = ? AND deactivated_at IS NULL`, id,
	)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("entry: get: %w", err)
	}
	return e, nil
}

// Deactivate soft-deactivates an entry. Deactivated entries never
// appear in reads.
func (s *Store) Deactivate(id string) error {
	res, err := s.db.Exec(
		`UPDATE entries SET deactivated_at = datetime('now'), updated_at = datetime('now')
		 WHERE id = ? AND deactivated_at IS NULL`, id,
	)
	if err != nil {
		return fmt.Errorf("entry: deactivate: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// ─── Reads ───────────────────────────────────────────────────────────────────

// ListByScope returns the active entries of one kind at an exact scope
// location. A nil scopeID matches only entries stored with no id
// (global, or a nil-id chain level).
func (s *Store) ListByScope(kind Kind, scopeType scope.Type, scopeID *string) ([]Entry, error) {
	q := `
		SELECT id, kind, scope_type, scope_id, name, content, tags, priority, confidence, created_at, updated_at
		FROM entries
		WHERE kind = ? AND scope_type = ? AND deactivated_at IS NULL
	`
	args := []any{string(kind), string(scopeType)}
	if scopeID == nil {
		q += " AND scope_id IS NULL"
	} else {
		q += " AND scope_id = ?"
		args = append(args, *scopeID)
	}
	q += " ORDER BY created_at DESC, id"

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("entry: list by scope: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("entry: list by scope: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Stats returns active entry counts per kind.
func (s *Store) Stats() (*Stats, error) {
	st := &Stats{ByKind: make(map[Kind]int)}
	rows, err := s.db.Query(
		`SELECT kind, COUNT(*) FROM entries WHERE deactivated_at IS NULL GROUP BY kind`,
	)
	if err != nil {
		return nil, fmt.Errorf("entry: stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("entry: stats: %w", err)
		}
		st.ByKind[Kind(kind)] = n
		st.Total += n
	}
	return st, rows.Err()
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var e Entry
	var kind, scopeType, tags string
	if err := row.Scan(
		&e.ID, &kind, &scopeType, &e.ScopeID, &e.Name, &e.Content,
		&tags, &e.Priority, &e.Confidence, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.Kind = Kind(kind)
	e.ScopeType = scope.Type(scopeType)
	if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
		return nil, fmt.Errorf("decode tags for %s: %w", e.ID, err)
	}
	return &e, nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
