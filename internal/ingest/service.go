// Package ingest orchestrates the document ingestion pipeline: validation,
// fingerprinting, dedup, text extraction, classification, image
// optimization, quota enforcement and the two-store write with a
// compensating delete. Persistence is saga-style: at most one compensating
// action exists (deleting the just-uploaded object) and it runs exactly
// once, only after a confirmed store write followed by a confirmed insert
// failure.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"records-backend/internal/classify"
	"records-backend/internal/documents"
	"records-backend/internal/extract"
	"records-backend/internal/optimize"
	"records-backend/internal/queue"
	"records-backend/internal/quota"
	"records-backend/internal/renewal"
	"records-backend/internal/shared/metrics"
	"records-backend/internal/shared/storage/object"
	"records-backend/internal/shared/telemetry"
	"records-backend/internal/shared/util"
)

const compensateTimeout = 30 * time.Second

var defaultAllowedMimeTypes = map[string]struct{}{
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
	"text/plain": {},
}

// Input is an upload request.
type Input struct {
	OwnerID   string
	Title     string
	FileName  string
	MimeType  string
	Data      []byte
	RequestID string

	TypeID string
	Class  documents.Class

	EffectiveDate       time.Time
	HasCustomRenewal    bool
	CustomRenewalPeriod int
	CustomRenewalUnit   documents.RenewalUnit
}

// Service runs ingestions. All handles are injected once at construction
// and shared across requests.
type Service struct {
	Repo       documents.Repo
	Store      object.ObjectStore
	Quota      *quota.Ledger
	Extractor  *extract.Extractor
	Classifier *classify.Classifier
	Queue      queue.Client

	MaxUploadBytes   int64
	AllowedMimeTypes map[string]struct{}

	// Now is overridable for tests. Defaults to time.Now.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) allowed(mimeType string) bool {
	allowed := s.AllowedMimeTypes
	if allowed == nil {
		allowed = defaultAllowedMimeTypes
	}
	_, ok := allowed[mimeType]
	return ok
}

// Ingest runs the full pipeline and returns the persisted document.
func (s *Service) Ingest(ctx context.Context, in Input) (documents.Document, error) {
	metrics.IncIngestStarted()
	start := time.Now()

	doc, err := s.ingest(ctx, in)
	if err != nil {
		metrics.IncIngestFailed()
		return documents.Document{}, err
	}

	metrics.IncIngestCompleted()
	metrics.ObserveIngestDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
	return doc, nil
}

func (s *Service) ingest(ctx context.Context, in Input) (documents.Document, error) {
	if err := s.validate(&in); err != nil {
		return documents.Document{}, err
	}

	contentHash := util.HashContent(in.Data)

	// Entity-scoped documents are intentionally reusable, so they skip dedup.
	if in.Class != documents.ClassEntityScoped {
		existing, err := s.Repo.FindByOwnerAndHash(ctx, in.OwnerID, contentHash)
		if err == nil {
			return documents.Document{}, &DuplicateContentError{ExistingID: existing.ID}
		}
		if !errors.Is(err, documents.ErrNotFound) {
			return documents.Document{}, &PersistenceError{Err: err}
		}
	}

	var typePolicy documents.DocumentType
	if in.TypeID != "" {
		dt, err := s.Repo.GetType(ctx, in.TypeID)
		if err != nil {
			if errors.Is(err, documents.ErrNotFound) {
				return documents.Document{}, &ValidationError{Field: "typeId", Reason: "unknown document type"}
			}
			return documents.Document{}, &PersistenceError{Err: err}
		}
		typePolicy = dt
	}

	// Extraction and optimization are independent of each other. Both
	// soft-fail, so the group never returns an error.
	var extracted extract.Result
	var optimized []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		extracted = s.Extractor.Extract(gctx, in.Data, in.MimeType, in.FileName)
		return nil
	})
	g.Go(func() error {
		optimized = optimize.Optimize(in.Data, in.MimeType)
		return nil
	})
	_ = g.Wait()

	classification := s.Classifier.Classify(ctx, extracted.Text, in.FileName)
	if extracted.Degraded || classification.IsFallback() {
		metrics.IncIngestDegraded()
	}

	// A cancelled request stops here, before any bytes reach the store.
	// Not a StorageError: no store call happened.
	if err := ctx.Err(); err != nil {
		return documents.Document{}, err
	}

	now := s.now().UTC()
	doc := documents.Document{
		ID:          uuid.NewString(),
		OwnerID:     in.OwnerID,
		Title:       in.Title,
		FileName:    in.FileName,
		MimeType:    in.MimeType,
		ContentHash: contentHash,
		SizeBytes:   int64(len(in.Data)),
		Status:      documents.StatusPending,
		Class:       in.Class,
		TypeID:      in.TypeID,

		ExtractedText:      extracted.Text,
		ExtractionDegraded: extracted.Degraded,

		Category:            classification.Category,
		Confidence:          classification.Confidence,
		Tags:                classification.Tags,
		Summary:             classification.Summary,
		Language:            classification.Language,
		Priority:            classification.Priority,
		ClassificationLevel: classification.ClassificationLevel,

		EffectiveDate:       in.EffectiveDate,
		HasCustomRenewal:    in.HasCustomRenewal,
		CustomRenewalPeriod: in.CustomRenewalPeriod,
		CustomRenewalUnit:   in.CustomRenewalUnit,

		CreatedAt: now,
		UpdatedAt: now,
	}
	doc.ExpirationDate = renewal.CalculateExpiration(in.EffectiveDate, renewal.ResolvePolicy(doc, typePolicy))

	// Quota decisions for one owner are serialized so concurrent uploads
	// cannot both observe free space that only exists once. The check must
	// pass before any bytes reach the object store.
	incoming := int64(len(optimized))
	unlock := s.Quota.LockOwner(in.OwnerID)
	defer unlock()

	check, err := s.Quota.Check(ctx, in.OwnerID, incoming)
	if err != nil {
		return documents.Document{}, &PersistenceError{Err: err}
	}
	if !check.HasSpace {
		metrics.IncQuotaRejected()
		return documents.Document{}, &QuotaExceededError{
			RequestedBytes: incoming,
			AvailableBytes: check.AvailableBytes,
			LimitBytes:     check.LimitBytes,
		}
	}

	storageKey, storedBytes, err := s.Store.Save(ctx, in.OwnerID, in.FileName, in.MimeType, bytes.NewReader(optimized))
	if err != nil {
		return documents.Document{}, &StorageError{Err: err}
	}
	doc.StorageKey = storageKey
	doc.StoredSizeBytes = storedBytes

	if err := s.Repo.Create(ctx, doc); err != nil {
		s.compensateDelete(ctx, doc, in.RequestID)
		return documents.Document{}, &PersistenceError{Err: err}
	}

	if _, err := s.Quota.Commit(ctx, in.OwnerID, storedBytes); err != nil {
		// The record and object both exist at this point; accounting drift
		// is preferable to tearing them down.
		telemetry.Error("ingest.quota_commit_failed", map[string]any{
			"owner_id":    in.OwnerID,
			"document_id": doc.ID,
			"delta":       storedBytes,
			"error":       err.Error(),
			"request_id":  in.RequestID,
		})
	}

	s.sideEffects(ctx, doc, queue.ActionIngested, in.RequestID, 1)

	telemetry.Info("ingest.completed", map[string]any{
		"owner_id":     in.OwnerID,
		"document_id":  doc.ID,
		"size_bytes":   doc.SizeBytes,
		"stored_bytes": doc.StoredSizeBytes,
		"category":     doc.Category,
		"degraded":     doc.ExtractionDegraded,
		"request_id":   in.RequestID,
	})
	return doc, nil
}

// Delete soft-deletes a document and releases its quota.
func (s *Service) Delete(ctx context.Context, ownerID, documentID, requestID string) error {
	doc, err := s.Repo.GetByID(ctx, ownerID, documentID)
	if err != nil {
		return err
	}

	if err := s.Repo.SoftDelete(ctx, ownerID, documentID); err != nil {
		return err
	}

	if err := s.Store.Delete(ctx, doc.StorageKey); err != nil {
		telemetry.Warn("delete.object_delete_failed", map[string]any{
			"owner_id":    ownerID,
			"document_id": documentID,
			"storage_key": doc.StorageKey,
			"error":       err.Error(),
			"request_id":  requestID,
		})
	}

	unlock := s.Quota.LockOwner(ownerID)
	if _, err := s.Quota.Commit(ctx, ownerID, -doc.StoredSizeBytes); err != nil {
		telemetry.Warn("delete.quota_release_failed", map[string]any{
			"owner_id":    ownerID,
			"document_id": documentID,
			"delta":       -doc.StoredSizeBytes,
			"error":       err.Error(),
			"request_id":  requestID,
		})
	}
	unlock()

	s.sideEffects(ctx, doc, queue.ActionDeleted, requestID, -1)
	return nil
}

func (s *Service) validate(in *Input) error {
	in.OwnerID = strings.TrimSpace(in.OwnerID)
	if in.OwnerID == "" {
		return &ValidationError{Field: "ownerId", Reason: "is required"}
	}

	sanitized, err := util.SanitizeFileName(in.FileName)
	if err != nil {
		return &ValidationError{Field: "fileName", Reason: "is invalid"}
	}
	in.FileName = sanitized

	if in.Title = strings.TrimSpace(in.Title); in.Title == "" {
		in.Title = in.FileName
	}

	if len(in.Data) == 0 {
		return &ValidationError{Field: "file", Reason: "is empty"}
	}
	if s.MaxUploadBytes > 0 && int64(len(in.Data)) > s.MaxUploadBytes {
		return &ValidationError{Field: "file", Reason: "exceeds the maximum upload size"}
	}

	in.MimeType = strings.ToLower(strings.TrimSpace(strings.Split(in.MimeType, ";")[0]))
	if !s.allowed(in.MimeType) {
		return &ValidationError{Field: "mimeType", Reason: "is not allowed"}
	}

	if in.Class == "" {
		in.Class = documents.ClassStandard
	}
	if in.Class != documents.ClassStandard && in.Class != documents.ClassEntityScoped {
		return &ValidationError{Field: "class", Reason: "is not a known document class"}
	}

	if in.HasCustomRenewal {
		if in.CustomRenewalPeriod <= 0 {
			return &ValidationError{Field: "customRenewalPeriod", Reason: "must be positive"}
		}
		switch in.CustomRenewalUnit {
		case documents.UnitDays, documents.UnitMonths, documents.UnitYears:
		default:
			return &ValidationError{Field: "customRenewalUnit", Reason: "is not a known unit"}
		}
	}

	if in.EffectiveDate.IsZero() {
		in.EffectiveDate = s.now().UTC().Truncate(24 * time.Hour)
	}
	return nil
}

// compensateDelete removes the just-uploaded object after an insert
// failure. Best effort: one retry, then the orphan is only logged. The
// delete runs detached from the request context: a cancelled request is a
// common cause of the insert failure, and the cleanup must still reach the
// store.
func (s *Service) compensateDelete(ctx context.Context, doc documents.Document, requestID string) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensateTimeout)
	defer cancel()

	err := s.Store.Delete(cleanupCtx, doc.StorageKey)
	if err != nil {
		err = s.Store.Delete(cleanupCtx, doc.StorageKey)
	}
	if err != nil {
		telemetry.Error("ingest.compensation_failed", map[string]any{
			"owner_id":    doc.OwnerID,
			"document_id": doc.ID,
			"storage_key": doc.StorageKey,
			"error":       err.Error(),
			"request_id":  requestID,
		})
		return
	}
	telemetry.Info("ingest.compensated", map[string]any{
		"owner_id":    doc.OwnerID,
		"document_id": doc.ID,
		"storage_key": doc.StorageKey,
		"request_id":  requestID,
	})
}

// sideEffects runs the best-effort tail of the pipeline. Failures are only
// logged and never surfaced to the caller.
func (s *Service) sideEffects(ctx context.Context, doc documents.Document, action, requestID string, counterDelta int) {
	if err := s.Repo.IncrementOwnerCounter(ctx, doc.OwnerID, counterDelta); err != nil {
		telemetry.Warn("ingest.counter_update_failed", map[string]any{
			"owner_id":    doc.OwnerID,
			"document_id": doc.ID,
			"delta":       counterDelta,
			"error":       err.Error(),
			"request_id":  requestID,
		})
	}

	if s.Queue == nil {
		return
	}
	msg := queue.Message{
		DocumentID: doc.ID,
		OwnerID:    doc.OwnerID,
		Action:     action,
		RequestID:  requestID,
		OccurredAt: s.now().UTC().Format(time.RFC3339),
		Version:    1,
	}
	if err := s.Queue.Send(ctx, msg); err != nil {
		telemetry.Warn("ingest.audit_publish_failed", map[string]any{
			"owner_id":    doc.OwnerID,
			"document_id": doc.ID,
			"action":      action,
			"error":       err.Error(),
			"request_id":  requestID,
		})
	}
}
