package documents

import (
	"context"
	"time"
)

// Repo defines persistence operations for documents.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, ownerID, documentID string) (Document, error)
	FindByOwnerAndHash(ctx context.Context, ownerID, contentHash string) (Document, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Document, error)
	UpdateStatus(ctx context.Context, ownerID, documentID string, status Status) error
	SoftDelete(ctx context.Context, ownerID, documentID string) error

	// ListExpiringBetween returns live documents whose expiration date falls
	// in [from, to] inclusive. ListExpiredBefore returns those strictly
	// before the given date.
	ListExpiringBetween(ctx context.Context, from, to time.Time) ([]Document, error)
	ListExpiredBefore(ctx context.Context, before time.Time) ([]Document, error)

	GetType(ctx context.Context, typeID string) (DocumentType, error)

	// IncrementOwnerCounter is a best-effort side effect; callers only log
	// its failure.
	IncrementOwnerCounter(ctx context.Context, ownerID string, delta int) error
}
