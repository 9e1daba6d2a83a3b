package projectservice

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/taskmark/internal/apperr"
	"github.com/starford/taskmark/internal/models"
)

const tokenBytes = 32

// Share creates a read-only link to a project. A zero ttl creates a link
// that never expires.
func (s *Service) Share(_ context.Context, p string, ttl time.Duration) (*models.SharedLink, error) {
	if _, err := s.db.GetProject(p); err != nil {
		return nil, err
	}
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	link := models.SharedLink{
		ID:          uuid.NewString(),
		ProjectPath: p,
		Token:       token,
		CreatedAt:   now,
	}
	if ttl > 0 {
		exp := now.Add(ttl)
		link.ExpiresAt = &exp
	}
	if err := s.db.CreateShare(link); err != nil {
		return nil, err
	}
	return &link, nil
}

// OpenShared returns the project behind a link and counts the view.
// Unknown and expired tokens are both ErrNotFound.
func (s *Service) OpenShared(ctx context.Context, token string) (*Detail, error) {
	link, err := s.db.ShareByToken(token)
	if err != nil {
		return nil, err
	}
	if link.Expired(s.now()) {
		return nil, fmt.Errorf("shared link: %w", apperr.ErrNotFound)
	}
	d, err := s.Get(ctx, link.ProjectPath)
	if err != nil {
		return nil, err
	}
	if err := s.db.RecordView(token); err != nil {
		return nil, err
	}
	return d, nil
}

// Unshare removes every link to a project and reports how many there were.
func (s *Service) Unshare(_ context.Context, p string) (int, error) {
	if _, err := s.db.GetProject(p); err != nil {
		return 0, err
	}
	return s.db.DeleteShares(p)
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("share token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
