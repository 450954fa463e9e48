// Package storage provides content-addressed blob storage for uploaded
// images. The id of a blob is the hex SHA-256 of its content, assigned at
// upload time; blobs are immutable once stored. Metadata (content type,
// size) lives in the database, the bytes live in the configured backend.
package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/cleancity/cleancity-be/internal/errs"
	"github.com/cleancity/cleancity-be/internal/models"
)

// Store is the capability interface for blob backends. Any key/blob
// backend (filesystem, object storage) can implement it without touching
// the report or auth core.
type Store interface {
	// Put streams the content into storage and returns its metadata.
	// It fails with errs.ErrUnsupportedMedia for non-image content types
	// and errs.ErrPayloadTooLarge when the stream exceeds the size
	// ceiling. No partial blob is ever left referencable.
	Put(ctx context.Context, r io.Reader, contentType string) (models.Blob, error)

	// Get streams the content back together with its metadata, or fails
	// with errs.ErrNotFound.
	Get(ctx context.Context, id string) (io.ReadCloser, models.Blob, error)
}

// allowedTypes is the image content-type allow-list for uploads.
var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// TypeAllowed reports whether contentType may be uploaded.
func TypeAllowed(contentType string) bool {
	return allowedTypes[contentType]
}

// spool streams r into a temp file inside dir while hashing it, enforcing
// the size ceiling. It returns the open temp file (rewound to the start),
// the content digest and the byte count. The caller owns the file and must
// remove it when done.
func spool(dir string, r io.Reader, maxBytes int64) (*os.File, string, int64, error) {
	tmp, err := os.CreateTemp(dir, "upload-*")
	if err != nil {
		return nil, "", 0, fmt.Errorf("could not create temp file: %w", err)
	}

	hasher := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, hasher), io.LimitReader(r, maxBytes+1))
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, "", 0, fmt.Errorf("failed to spool upload: %w", err)
	}
	if n > maxBytes {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, "", 0, errs.ErrPayloadTooLarge
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, "", 0, err
	}

	return tmp, hex.EncodeToString(hasher.Sum(nil)), n, nil
}

// insertMeta records blob metadata, tolerating re-uploads of identical
// content. It returns the stored row.
func insertMeta(ctx context.Context, db *sql.DB, id, contentType string, size int64) (models.Blob, error) {
	_, err := db.ExecContext(ctx,
		"INSERT OR IGNORE INTO blobs (id, content_type, size) VALUES (?, ?, ?)",
		id, contentType, size)
	if err != nil {
		return models.Blob{}, err
	}
	return getMeta(ctx, db, id)
}

// getMeta fetches a blob metadata row.
func getMeta(ctx context.Context, db *sql.DB, id string) (models.Blob, error) {
	var blob models.Blob
	row := db.QueryRowContext(ctx,
		"SELECT id, content_type, size, uploaded_at FROM blobs WHERE id = ?", id)
	err := row.Scan(&blob.ID, &blob.ContentType, &blob.Size, &blob.UploadedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Blob{}, errs.ErrNotFound
		}
		return models.Blob{}, err
	}
	return blob, nil
}
