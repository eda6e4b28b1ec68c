package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrObjectNotFound = errors.New("export object not found")

// Object describes one stored export. Key is relative to the store; Location
// is what gets shown to the user (an s3:// URI or an absolute file path).
type Object struct {
	Key       string
	Location  string
	Size      int64
	ETag      string
	WrittenAt time.Time
}

type PutOptions struct {
	ContentType string
	// Metadata is attached as object user metadata where the backend supports it.
	Metadata map[string]string
}

// ExportStore receives exported query results.
type ExportStore interface {
	Put(ctx context.Context, key string, payload []byte, opts PutOptions) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Stat(ctx context.Context, key string) (Object, error)
	// Location names the destination, e.g. "s3://bucket" or a directory.
	Location() string
}
