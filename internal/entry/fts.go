package entry

import (
	"fmt"
	"strings"
)

// SearchText runs an FTS5 match over the requested kinds and returns
// relevance info keyed by entry id.
//
// FTS5 ranks are negative bm25 scores (more negative is better); each
// MatchInfo also carries a Relevance normalized into [0, 1] against the
// best rank in this result set, which is what the scoring engine
// consumes.
func (s *Store) SearchText(term string, kinds []Kind) (map[string]MatchInfo, error) {
	ftsQuery := sanitizeFTS(term)
	if ftsQuery == "" {
		return map[string]MatchInfo{}, nil
	}
	if len(kinds) == 0 {
		kinds = AllKinds()
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(kinds)), ",")
	q := fmt.Sprintf(`
		SELECT e.id, e.kind, fts.rank
		FROM entries_fts fts
		JOIN entries e ON e.rowid = fts.rowid
		WHERE entries_fts MATCH ?
		  AND e.deactivated_at IS NULL
		  AND e.kind IN (%s)
		ORDER BY fts.rank
	`, placeholders)

	args := make([]any, 0, len(kinds)+1)
	args = append(args, ftsQuery)
	for _, k := range kinds {
		args = append(args, string(k))
	}

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("entry: fts search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	matches := make(map[string]MatchInfo)
	best := 0.0
	for rows.Next() {
		var m MatchInfo
		var kind string
		if err := rows.Scan(&m.EntryID, &kind, &m.Rank); err != nil {
			return nil, fmt.Errorf("entry: fts search: %w", err)
		}
		m.Kind = Kind(kind)
		if -m.Rank > best {
			best = -m.Rank
		}
		matches[m.EntryID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if best > 0 {
		for id, m := range matches {
			m.Relevance = -m.Rank / best
			matches[id] = m
		}
	}
	return matches, nil
}

// sanitizeFTS wraps each word in quotes for safe FTS5 queries.
// "rate limit rules" → `"rate" "limit" "rules"`
// Embedded quotes are stripped so user input can never escape the
// quoting.
func sanitizeFTS(query string) string {
	words := strings.Fields(query)
	out := words[:0]
	for _, w := range words {
		w = strings.ReplaceAll(w, `"`, "")
		if w == "" {
			continue
		}
		out = append(out, `"`+w+`"`)
	}
	return strings.Join(out, " ")
}
