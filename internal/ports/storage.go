package ports

import (
	"context"
	"io"
)

type PutObjectInput struct {
	ObjectKey   string
	ContentType string
	Reader      io.Reader
	Size        int64
}

type PutObjectOutput struct {
	// ObjectKey is the key to pass to Get/Delete/PublicURL. localfs and
	// minio echo the input key; gdrive returns the Drive fileId.
	ObjectKey string
	Size      int64
}

// StorageProvider stores rendered artifacts (videos, thumbnails, voice
// tracks). Implementations: localfs, gdrive, minio.
type StorageProvider interface {
	Provider() string

	PutObject(ctx context.Context, in PutObjectInput) (PutObjectOutput, error)
	GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error)
	DeleteObject(ctx context.Context, objectKey string) error

	// PublicURL is the URL clients use to fetch the object. ObjectKey is
	// its inverse and reports false for URLs the provider did not build.
	PublicURL(objectKey string) string
	ObjectKey(publicURL string) (string, bool)
}
