package objectstore

import (
	"context"
	"io"
)

// Progress is a snapshot of a running upload.
type Progress struct {
	BytesTransferred int64
	TotalBytes       int64
}

type ProgressFunc func(Progress)

// Store writes objects and hands back a publicly fetchable URL. Writing to an
// existing key follows the provider's default policy.
type Store interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string, onProgress ProgressFunc) (string, error)
}

// NoteKey is the object key a note file is stored under.
func NoteKey(filename string) string {
	return "notes/" + filename
}
