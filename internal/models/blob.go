package models

import "time"

// Blob describes a stored image. The bytes themselves live in the blob
// backend; this is the metadata row.
type Blob struct {
	ID          string    `json:"id"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploadedAt"`
}
