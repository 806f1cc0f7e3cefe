package object

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrSignedURLUnsupported marks stores that cannot produce signed URLs.
// Callers fall back to streaming the object themselves.
var ErrSignedURLUnsupported = errors.New("signed URLs not supported by this store")

// ObjectStore defines the contract for saving, retrieving and removing
// binary objects.
type ObjectStore interface {
	Save(ctx context.Context, ownerID string, fileName string, contentType string, r io.Reader) (storageKey string, sizeBytes int64, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
	SignedURL(ctx context.Context, storageKey string, ttl time.Duration) (string, error)
}
