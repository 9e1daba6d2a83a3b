package index

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/taskmark/internal/apperr"
	"github.com/starford/taskmark/internal/models"
)

// CreateShare stores a shared link for an indexed project.
func (db *DB) CreateShare(l models.SharedLink) error {
	var expires any
	if l.ExpiresAt != nil {
		expires = l.ExpiresAt.UTC()
	}
	_, err := db.conn.Exec(`
		INSERT INTO shared_links (id, project_path, token, view_count, expires_at, created_at)
		VALUES (?, ?, ?, 0, ?, ?)
	`, l.ID, l.ProjectPath, l.Token, expires, l.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("index: create share: %w", err)
	}
	return nil
}

// ShareByToken looks up a shared link by its token.
func (db *DB) ShareByToken(token string) (*models.SharedLink, error) {
	var (
		l       models.SharedLink
		expires sql.NullTime
	)
	err := db.conn.QueryRow(`
		SELECT id, project_path, token, view_count, expires_at, created_at
		FROM shared_links WHERE token = ?
	`, token).Scan(&l.ID, &l.ProjectPath, &l.Token, &l.ViewCount, &expires, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: share: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: share by token: %w", err)
	}
	if expires.Valid {
		t := expires.Time
		l.ExpiresAt = &t
	}
	return &l, nil
}

// RecordView increments the view counter of a shared link.
func (db *DB) RecordView(token string) error {
	res, err := db.conn.Exec(`UPDATE shared_links SET view_count = view_count + 1 WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("index: record view: %w", err)
	}
	return checkRowsAffected(res, "record view")
}

// DeleteShares removes every shared link of a project.
func (db *DB) DeleteShares(projectPath string) (int, error) {
	res, err := db.conn.Exec(`DELETE FROM shared_links WHERE project_path = ?`, projectPath)
	if err != nil {
		return 0, fmt.Errorf("index: delete shares: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("index: delete shares rows affected: %w", err)
	}
	return int(n), nil
}
