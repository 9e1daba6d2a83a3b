package index

import (
	"log/slog"
	"path"
	"strings"

	"github.com/starford/taskmark/internal/checksum"
	"github.com/starford/taskmark/internal/markup"
	"github.com/starford/taskmark/internal/storage"
)

// Sync walks the data directory and brings the index up to date:
//   - new/changed documents are parsed and upserted
//   - documents removed from disk are deleted from the index
func Sync(db ProjectIndex, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexDocument(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.DeleteProject(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: removed stale", slog.String("path", p))
		}
	}

	return nil
}

// IndexDocument parses a document and records its derived state: checksum,
// body, task counters and (for new projects) a name taken from the first
// level-1 header or the file name.
func IndexDocument(db ProjectIndex, p string, data []byte) error {
	doc := string(data)
	nodes := markup.Parse(doc)
	counts := markup.Summarize(nodes)

	return db.UpsertDocument(DocumentRow{
		Path:      p,
		Title:     DocumentTitle(p, nodes),
		Checksum:  checksum.Sum(data),
		Body:      doc,
		Total:     counts.Tasks,
		Completed: counts.Completed,
	})
}

// DocumentTitle returns the first level-1 header of a document, falling
// back to the file name without extension.
func DocumentTitle(p string, nodes []markup.Node) string {
	if t := markup.Title(nodes); t != "" {
		return t
	}
	return strings.TrimSuffix(path.Base(p), ".md")
}
