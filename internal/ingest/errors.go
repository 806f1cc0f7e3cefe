package ingest

import "fmt"

// ValidationError rejects an upload before any side effects happen.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// DuplicateContentError reports identical content already ingested by the
// same owner, with a reference to the existing record.
type DuplicateContentError struct {
	ExistingID string
}

func (e *DuplicateContentError) Error() string {
	return fmt.Sprintf("duplicate content: already stored as document %s", e.ExistingID)
}

// QuotaExceededError rejects an upload that does not fit the owner's quota.
// Raised strictly before any bytes reach the object store.
type QuotaExceededError struct {
	RequestedBytes int64
	AvailableBytes int64
	LimitBytes     int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: requested %d bytes, %d available of %d",
		e.RequestedBytes, e.AvailableBytes, e.LimitBytes)
}

// StorageError is a fatal object store failure. Nothing was persisted.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("object store write failed: %v", e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PersistenceError is a relational store failure after the object was
// uploaded. The compensating object delete has already been attempted.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("document persistence failed: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
