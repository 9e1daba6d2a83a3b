// Package storage persists task documents as Markdown files under a data
// directory. Paths are always relative to that directory.
package storage

import "github.com/starford/taskmark/internal/models"

// Provider is the interface for document file operations.
type Provider interface {
	// List returns metadata for every .md document under dir.
	List(dir string) ([]models.DocumentMetadata, error)
	// Read returns the raw bytes of the document at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the document at path.
	Write(path string, content []byte) error
	// Delete removes the document at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
}
