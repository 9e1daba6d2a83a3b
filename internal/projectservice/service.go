// Package projectservice coordinates project documents on disk with their
// records in the index.
package projectservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/taskmark/internal/apperr"
	"github.com/starford/taskmark/internal/checksum"
	"github.com/starford/taskmark/internal/index"
	"github.com/starford/taskmark/internal/markup"
	"github.com/starford/taskmark/internal/models"
	"github.com/starford/taskmark/internal/storage"
)

// Detail is a project with its document content and parsed lines.
type Detail struct {
	models.Project
	Nodes  []markup.Node `json:"nodes"`
	Counts markup.Counts `json:"counts"`
}

// Document pairs a project with its raw content.
type Document struct {
	Project models.Project
	Content string
}

// Service coordinates storage and index operations.
type Service struct {
	store storage.Provider
	db    *index.DB
	now   func() time.Time

	// mu serializes every read-check-write of a document so two writers
	// holding the same checksum cannot both succeed.
	mu sync.Mutex
}

// NewService creates a new project service.
func NewService(store storage.Provider, db *index.DB) *Service {
	return &Service{store: store, db: db, now: time.Now}
}

// Create writes a new project document from the default template and
// records its metadata. The document path is derived from name.
func (s *Service) Create(_ context.Context, name, description, color string) (*Detail, error) {
	name = strings.TrimSpace(name)
	if color == "" {
		color = models.DefaultColor
	}
	if err := validateMeta(name, color); err != nil {
		return nil, err
	}

	p := Slug(name) + ".md"
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exists(p) {
		return nil, fmt.Errorf("project %s: %w", p, apperr.ErrAlreadyExists)
	}
	content := []byte(Template(name, strings.TrimSpace(description)))
	if err := s.store.Write(p, content); err != nil {
		return nil, err
	}
	if err := index.IndexDocument(s.db, p, content); err != nil {
		return nil, err
	}
	if err := s.db.SetMeta(p, name, strings.TrimSpace(description), color); err != nil {
		return nil, err
	}
	return s.detail(p, content)
}

// Get reads a project document and parses it.
func (s *Service) Get(_ context.Context, p string) (*Detail, error) {
	data, err := s.read(p)
	if err != nil {
		return nil, err
	}
	return s.detail(p, data)
}

// List returns every project with its task counters, most recently
// updated first.
func (s *Service) List(_ context.Context) ([]models.Project, error) {
	projects, err := s.db.ListProjects()
	if err != nil {
		return nil, err
	}
	return nonNilSlice(projects), nil
}

// Documents returns every project together with its current content.
// Projects whose document disappeared since the last index pass are
// skipped.
func (s *Service) Documents(_ context.Context) ([]Document, error) {
	projects, err := s.db.ListProjects()
	if err != nil {
		return nil, err
	}
	out := make([]Document, 0, len(projects))
	for _, p := range projects {
		data, err := s.store.Read(p.Path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, Document{Project: p, Content: string(data)})
	}
	return out, nil
}

// UpdateContent replaces a project document. A non-empty ifMatch must
// equal the checksum of the stored document.
func (s *Service) UpdateContent(_ context.Context, p string, content []byte, ifMatch string) (*Detail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.read(p)
	if err != nil {
		return nil, err
	}
	if err := checkMatch(existing, ifMatch); err != nil {
		return nil, err
	}
	return s.write(p, content)
}

// Mutate applies one line mutation to the current document. Line indices
// refer to the document identified by ifMatch, so a stale checksum is
// rejected with ErrConflict instead of editing a shifted line.
func (s *Service) Mutate(_ context.Context, p, ifMatch string, m Mutation) (*Detail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.read(p)
	if err != nil {
		return nil, err
	}
	if err := checkMatch(existing, ifMatch); err != nil {
		return nil, err
	}
	doc, err := m.Apply(string(existing))
	if err != nil {
		return nil, err
	}
	return s.write(p, []byte(doc))
}

// AppendGenerated appends generated text to the end of a project document
// as is.
func (s *Service) AppendGenerated(ctx context.Context, p, text string) (*Detail, error) {
	return s.Mutate(ctx, p, "", Mutation{Op: OpAppend, Text: text})
}

// UpdateMeta changes the name, description and color of a project. A name
// whose slug differs from the current file name moves the document, and
// the returned project carries the new path.
func (s *Service) UpdateMeta(_ context.Context, p, name, description, color string) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if color == "" {
		color = models.DefaultColor
	}
	if err := validateMeta(name, color); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.db.GetProject(p)
	if err != nil {
		return nil, err
	}

	target := p
	if name != current.Name {
		target = path.Join(path.Dir(p), Slug(name)+".md")
	}
	if target != p {
		if err := s.rename(p, target); err != nil {
			return nil, err
		}
	}
	if err := s.db.SetMeta(target, name, strings.TrimSpace(description), color); err != nil {
		return nil, err
	}
	return s.db.GetProject(target)
}

// Rename moves a project document, keeping its metadata and shared links.
func (s *Service) Rename(_ context.Context, oldPath, newPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rename(oldPath, newPath)
}

func (s *Service) rename(oldPath, newPath string) error {
	if !strings.HasSuffix(newPath, ".md") {
		return fmt.Errorf("rename to %s: %w", newPath, apperr.ErrInvalid)
	}
	if s.exists(newPath) {
		return fmt.Errorf("project %s: %w", newPath, apperr.ErrAlreadyExists)
	}
	// The row moves first so a watcher event for the old file finds
	// nothing to delete.
	if err := s.db.RenameProject(oldPath, newPath); err != nil {
		return err
	}
	if err := s.store.Move(oldPath, newPath); err != nil {
		_ = s.db.RenameProject(newPath, oldPath)
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("project %s: %w", oldPath, apperr.ErrNotFound)
		}
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("project %s: %w", newPath, apperr.ErrAlreadyExists)
		}
		return err
	}
	return nil
}

// Delete removes a project document and its index records.
func (s *Service) Delete(_ context.Context, p string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Delete(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("project %s: %w", p, apperr.ErrNotFound)
		}
		return err
	}
	return s.db.DeleteProject(p)
}

// Export returns a download file name and the raw markdown of a project.
func (s *Service) Export(_ context.Context, p string) (string, []byte, error) {
	project, err := s.db.GetProject(p)
	if err != nil {
		return "", nil, err
	}
	data, err := s.read(p)
	if err != nil {
		return "", nil, err
	}
	return ExportName(project.Name), data, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return []index.SearchResult{}, nil
	}
	results, err := s.db.Search(query, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(results), nil
}

func (s *Service) write(p string, content []byte) (*Detail, error) {
	if err := s.store.Write(p, content); err != nil {
		return nil, err
	}
	if err := index.IndexDocument(s.db, p, content); err != nil {
		return nil, err
	}
	return s.detail(p, content)
}

func (s *Service) read(p string) ([]byte, error) {
	data, err := s.store.Read(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("project %s: %w", p, apperr.ErrNotFound)
	}
	return data, err
}

func (s *Service) exists(p string) bool {
	if _, err := s.store.Read(p); err == nil {
		return true
	}
	cs, err := s.db.GetChecksum(p)
	return err == nil && cs != ""
}

// detail constructs a Detail from raw data without re-reading the file.
func (s *Service) detail(p string, data []byte) (*Detail, error) {
	project, err := s.db.GetProject(p)
	if err != nil {
		return nil, err
	}
	doc := string(data)
	nodes := markup.Parse(doc)
	project.Content = doc
	project.Checksum = checksum.Sum(data)
	return &Detail{
		Project: *project,
		Nodes:   nodes,
		Counts:  markup.Summarize(nodes),
	}, nil
}

func checkMatch(existing []byte, ifMatch string) error {
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return apperr.ErrConflict
	}
	return nil
}

func validateMeta(name, color string) error {
	err := validation.Errors{
		"name":  validation.Validate(name, validation.Required, validation.Length(1, 120)),
		"color": validation.Validate(color, validation.By(hexColor)),
	}.Filter()
	if err != nil {
		return fmt.Errorf("%w: %s", apperr.ErrInvalid, err.Error())
	}
	return nil
}

func hexColor(v any) error {
	if c, _ := v.(string); !markup.ValidColor(c) {
		return errors.New("must be a #rrggbb color")
	}
	return nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
