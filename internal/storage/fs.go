package storage

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cleancity/cleancity-be/internal/errs"
	"github.com/cleancity/cleancity-be/internal/models"
)

// FSStore keeps blob bytes on the local filesystem, one file per digest.
type FSStore struct {
	db       *sql.DB
	dir      string
	maxBytes int64
}

// NewFSStore creates a filesystem-backed blob store rooted at dir.
func NewFSStore(db *sql.DB, dir string, maxBytes int64) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create upload directory: %w", err)
	}
	return &FSStore{db: db, dir: dir, maxBytes: maxBytes}, nil
}

// Put streams the upload to a temp file, then renames it to its digest.
// The rename is the commit point: a failed upload leaves nothing
// referencable behind.
func (s *FSStore) Put(ctx context.Context, r io.Reader, contentType string) (models.Blob, error) {
	if !TypeAllowed(contentType) {
		return models.Blob{}, errs.ErrUnsupportedMedia
	}

	tmp, id, size, err := spool(s.dir, r, s.maxBytes)
	if err != nil {
		return models.Blob{}, err
	}
	tmp.Close()

	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, id)); err != nil {
		os.Remove(tmp.Name())
		return models.Blob{}, fmt.Errorf("could not commit blob: %w", err)
	}

	return insertMeta(ctx, s.db, id, contentType, size)
}

// Get opens the blob file for streaming.
func (s *FSStore) Get(ctx context.Context, id string) (io.ReadCloser, models.Blob, error) {
	blob, err := getMeta(ctx, s.db, id)
	if err != nil {
		return nil, models.Blob{}, err
	}

	f, err := os.Open(filepath.Join(s.dir, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.Blob{}, errs.ErrNotFound
		}
		return nil, models.Blob{}, err
	}
	return f, blob, nil
}
