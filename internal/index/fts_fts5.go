//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS projects_fts USING fts5(
			path UNINDEXED,
			name,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, path, name, body string) error {
	_, _ = tx.Exec(`DELETE FROM projects_fts WHERE path = ?`, path)
	_, err := tx.Exec(`INSERT INTO projects_fts (path, name, body) VALUES (?, ?, ?)`, path, name, body)
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) {
	_, _ = tx.Exec(`DELETE FROM projects_fts WHERE path = ?`, path)
}

func (db *DB) refreshFTSName(path, name string) error {
	if _, err := db.conn.Exec(`UPDATE projects_fts SET name = ? WHERE path = ?`, name, path); err != nil {
		return fmt.Errorf("index: refresh fts name: %w", err)
	}
	return nil
}

// Search performs an FTS5 full-text search and returns matching projects with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT path,
		       name,
		       snippet(projects_fts, 2, '<b>', '</b>', '...', 32)
		FROM projects_fts
		WHERE projects_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.Name, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
