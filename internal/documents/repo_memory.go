package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo for tests and local development.
type MemoryRepo struct {
	mu       sync.RWMutex
	docs     map[string]Document
	types    map[string]DocumentType
	counters map[string]int
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		docs:     make(map[string]Document),
		types:    make(map[string]DocumentType),
		counters: make(map[string]int),
	}
}

// SeedType registers a document type.
func (r *MemoryRepo) SeedType(dt DocumentType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[dt.ID] = dt
}

func (r *MemoryRepo) Create(_ context.Context, doc Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc.ID == "" {
		return ErrInvalidInput
	}
	r.docs[doc.ID] = doc
	return nil
}

func (r *MemoryRepo) GetByID(_ context.Context, ownerID, documentID string) (Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[documentID]
	if !ok || doc.OwnerID != ownerID {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (r *MemoryRepo) FindByOwnerAndHash(_ context.Context, ownerID, contentHash string) (Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, doc := range r.docs {
		if doc.OwnerID == ownerID && doc.ContentHash == contentHash && doc.Class == ClassStandard {
			return doc, nil
		}
	}
	return Document{}, ErrNotFound
}

func (r *MemoryRepo) ListByOwner(_ context.Context, ownerID string, limit, offset int) ([]Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Document
	for _, doc := range r.docs {
		if doc.OwnerID == ownerID {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) UpdateStatus(_ context.Context, ownerID, documentID string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok || doc.OwnerID != ownerID {
		return ErrNotFound
	}
	if !CanTransition(doc.Status, status) {
		return ErrInvalidTransition
	}
	doc.Status = status
	doc.UpdatedAt = time.Now().UTC()
	r.docs[documentID] = doc
	return nil
}

func (r *MemoryRepo) SoftDelete(_ context.Context, ownerID, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok || doc.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(r.docs, documentID)
	return nil
}

func (r *MemoryRepo) ListExpiringBetween(_ context.Context, from, to time.Time) ([]Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Document
	for _, doc := range r.docs {
		if doc.ExpirationDate == nil {
			continue
		}
		exp := *doc.ExpirationDate
		if !exp.Before(from) && !exp.After(to) {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpirationDate.Before(*out[j].ExpirationDate) })
	return out, nil
}

func (r *MemoryRepo) ListExpiredBefore(_ context.Context, before time.Time) ([]Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Document
	for _, doc := range r.docs {
		if doc.ExpirationDate != nil && doc.ExpirationDate.Before(before) {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpirationDate.Before(*out[j].ExpirationDate) })
	return out, nil
}

func (r *MemoryRepo) GetType(_ context.Context, typeID string) (DocumentType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dt, ok := r.types[typeID]
	if !ok {
		return DocumentType{}, ErrNotFound
	}
	return dt, nil
}

func (r *MemoryRepo) IncrementOwnerCounter(_ context.Context, ownerID string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := r.counters[ownerID] + delta
	if next < 0 {
		next = 0
	}
	r.counters[ownerID] = next
	return nil
}

// OwnerCount reports the current counter value. Test helper.
func (r *MemoryRepo) OwnerCount(ownerID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counters[ownerID]
}

var _ Repo = (*MemoryRepo)(nil)
