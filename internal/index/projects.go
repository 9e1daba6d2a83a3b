package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/taskmark/internal/apperr"
	"github.com/starford/taskmark/internal/models"
)

// DocumentRow is the part of a project row derived from its document.
type DocumentRow struct {
	Path      string
	Title     string // used as the project name when the row is first created
	Checksum  string
	Body      string
	Total     int
	Completed int
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Snippet string `json:"snippet"`
}

const projectColumns = `
	p.path, p.name, p.description, p.color, p.checksum,
	p.task_total, p.task_completed, p.created_at, p.updated_at,
	EXISTS (SELECT 1 FROM shared_links s WHERE s.project_path = p.path)`

// UpsertDocument records the derived state of a document. A new row takes
// its name from row.Title; an existing row keeps its name, description and
// color.
func (db *DB) UpsertDocument(row DocumentRow) error {
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now()
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO projects (path, name, checksum, body, task_total, task_completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum       = excluded.checksum,
			body           = excluded.body,
			task_total     = excluded.task_total,
			task_completed = excluded.task_completed,
			updated_at     = excluded.updated_at
	`, row.Path, row.Title, row.Checksum, row.Body, row.Total, row.Completed, row.UpdatedAt, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert project: %w", err)
	}

	var name string
	if err := tx.QueryRow(`SELECT name FROM projects WHERE path = ?`, row.Path).Scan(&name); err != nil {
		return fmt.Errorf("index: read project name: %w", err)
	}
	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, row.Path, name, row.Body); err != nil {
		return err
	}
	return tx.Commit()
}

// SetMeta updates the user-owned metadata of a project.
func (db *DB) SetMeta(path, name, description, color string) error {
	res, err := db.conn.Exec(`
		UPDATE projects SET name = ?, description = ?, color = ?, updated_at = ?
		WHERE path = ?
	`, name, description, color, time.Now(), path)
	if err != nil {
		return fmt.Errorf("index: set meta: %w", err)
	}
	if err := checkRowsAffected(res, "set meta"); err != nil {
		return err
	}
	return db.refreshFTSName(path, name)
}

// RenameProject moves a project row (and, via cascade, its shared links)
// to a new path.
func (db *DB) RenameProject(oldPath, newPath string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// The watcher may already have indexed the new path as a fresh project.
	ftsDelete(tx, newPath)
	if _, err := tx.Exec(`DELETE FROM projects WHERE path = ?`, newPath); err != nil {
		return fmt.Errorf("index: clear rename target: %w", err)
	}
	res, err := tx.Exec(`UPDATE projects SET path = ?, updated_at = ? WHERE path = ?`, newPath, time.Now(), oldPath)
	if err != nil {
		return fmt.Errorf("index: rename project: %w", err)
	}
	if err := checkRowsAffected(res, "rename project"); err != nil {
		return err
	}

	var name, body string
	if err := tx.QueryRow(`SELECT name, body FROM projects WHERE path = ?`, newPath).Scan(&name, &body); err != nil {
		return fmt.Errorf("index: read renamed project: %w", err)
	}
	ftsDelete(tx, oldPath)
	if err := ftsUpsert(tx, newPath, name, body); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteProject removes a project row, its FTS entry and its shared links.
func (db *DB) DeleteProject(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	if _, err := tx.Exec(`DELETE FROM projects WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete project: %w", err)
	}
	return tx.Commit()
}

// GetProject returns the project at path without its content.
func (db *DB) GetProject(path string) (*models.Project, error) {
	row := db.conn.QueryRow(`SELECT `+projectColumns+` FROM projects p WHERE p.path = ?`, path)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: project %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get project: %w", err)
	}
	return p, nil
}

// ListProjects returns every project ordered by most recently updated.
func (db *DB) ListProjects() ([]models.Project, error) {
	rows, err := db.conn.Query(`SELECT ` + projectColumns + ` FROM projects p ORDER BY p.updated_at DESC, p.path`)
	if err != nil {
		return nil, fmt.Errorf("index: list projects: %w", err)
	}
	defer rows.Close()

	var out []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("index: scan project: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(s rowScanner) (*models.Project, error) {
	var p models.Project
	err := s.Scan(&p.Path, &p.Name, &p.Description, &p.Color, &p.Checksum,
		&p.TaskCount, &p.CompletedCount, &p.CreatedAt, &p.UpdatedAt, &p.Shared)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetChecksum returns the stored checksum for a document, or "" if the
// document is not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM projects WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns the stored checksum of every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM projects`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Stats returns the number of rows in each table.
func (db *DB) Stats() (map[string]int, error) {
	out := make(map[string]int, 4)
	for _, table := range []string{"projects", "events", "timer_sessions", "shared_links"} {
		var n int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&n); err != nil {
			return nil, fmt.Errorf("index: count %s: %w", table, err)
		}
		out[table] = n
	}
	return out, nil
}
