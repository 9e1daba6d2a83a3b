package index

import (
	"time"

	"github.com/starford/taskmark/internal/models"
)

// ProjectIndex is the project-facing subset of *DB. The watcher and sync
// code depend on it so tests can substitute a fake.
type ProjectIndex interface {
	UpsertDocument(row DocumentRow) error
	DeleteProject(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	GetProject(path string) (*models.Project, error)
	ListProjects() ([]models.Project, error)
	Search(query string, limit int) ([]SearchResult, error)
}

// RecordStore covers the standalone records kept next to the documents.
type RecordStore interface {
	CreateEvent(e models.Event) error
	UpdateEvent(e models.Event) error
	DeleteEvent(id string) error
	GetEvent(id string) (*models.Event, error)
	ListEvents(from, to time.Time) ([]models.Event, error)

	CreateSession(s models.TimerSession) error
	FinishSession(id string, completed bool, endedAt time.Time) error
	GetSession(id string) (*models.TimerSession, error)
	ListSessions(since time.Time, limit int) ([]models.TimerSession, error)
}

// Verify *DB satisfies both interfaces at compile time.
var (
	_ ProjectIndex = (*DB)(nil)
	_ RecordStore  = (*DB)(nil)
)
