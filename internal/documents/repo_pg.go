package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

const documentColumns = `
id, owner_id, title, file_name, mime_type, content_hash, size_bytes,
stored_size_bytes, storage_key, status, document_class, type_id, tags,
extracted_text, extraction_degraded, category, confidence, summary,
language, priority, classification_level, effective_date, expiration_date,
has_custom_renewal, custom_renewal_period, custom_renewal_unit,
created_at, updated_at`

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id, owner_id, title, file_name, mime_type, content_hash, size_bytes,
    stored_size_bytes, storage_key, status, document_class, type_id, tags,
    extracted_text, extraction_degraded, category, confidence, summary,
    language, priority, classification_level, effective_date, expiration_date,
    has_custom_renewal, custom_renewal_period, custom_renewal_unit,
    created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
          $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)`

	tags, err := json.Marshal(ensureTags(doc.Tags))
	if err != nil {
		return err
	}

	var typeID sql.NullString
	if doc.TypeID != "" {
		typeID = sql.NullString{String: doc.TypeID, Valid: true}
	}
	var expiration sql.NullTime
	if doc.ExpirationDate != nil {
		expiration = sql.NullTime{Time: *doc.ExpirationDate, Valid: true}
	}
	var renewalPeriod sql.NullInt64
	var renewalUnit sql.NullString
	if doc.HasCustomRenewal {
		renewalPeriod = sql.NullInt64{Int64: int64(doc.CustomRenewalPeriod), Valid: true}
		renewalUnit = sql.NullString{String: string(doc.CustomRenewalUnit), Valid: true}
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.OwnerID,
		doc.Title,
		doc.FileName,
		doc.MimeType,
		doc.ContentHash,
		doc.SizeBytes,
		doc.StoredSizeBytes,
		doc.StorageKey,
		string(doc.Status),
		string(doc.Class),
		typeID,
		tags,
		doc.ExtractedText,
		doc.ExtractionDegraded,
		doc.Category,
		doc.Confidence,
		doc.Summary,
		doc.Language,
		doc.Priority,
		doc.ClassificationLevel,
		doc.EffectiveDate,
		expiration,
		doc.HasCustomRenewal,
		renewalPeriod,
		renewalUnit,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return err
}

// GetByID fetches a document by ID for an owner.
func (r *PGRepo) GetByID(ctx context.Context, ownerID, documentID string) (Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE owner_id = $1 AND id = $2 AND deleted_at IS NULL
LIMIT 1`
	return r.queryOne(ctx, query, ownerID, documentID)
}

// FindByOwnerAndHash looks up a live standard-class document with the same
// content. Entity-scoped documents never participate in dedup.
func (r *PGRepo) FindByOwnerAndHash(ctx context.Context, ownerID, contentHash string) (Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE owner_id = $1 AND content_hash = $2
  AND document_class = 'standard' AND deleted_at IS NULL
LIMIT 1`
	return r.queryOne(ctx, query, ownerID, contentHash)
}

// ListByOwner lists documents ordered newest-first.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE owner_id = $1 AND deleted_at IS NULL
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	return r.queryMany(ctx, query, ownerID, limit, offset)
}

// UpdateStatus moves a document to a new lifecycle status. The transition
// must be strictly forward.
func (r *PGRepo) UpdateStatus(ctx context.Context, ownerID, documentID string, status Status) error {
	current, err := r.GetByID(ctx, ownerID, documentID)
	if err != nil {
		return err
	}
	if !CanTransition(current.Status, status) {
		return ErrInvalidTransition
	}

	const query = `
UPDATE documents
SET status = $1, updated_at = now()
WHERE owner_id = $2 AND id = $3 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, string(status), ownerID, documentID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete marks a document deleted.
func (r *PGRepo) SoftDelete(ctx context.Context, ownerID, documentID string) error {
	const query = `
UPDATE documents
SET deleted_at = now(), updated_at = now()
WHERE owner_id = $1 AND id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, ownerID, documentID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListExpiringBetween returns live documents expiring in [from, to].
func (r *PGRepo) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE deleted_at IS NULL
  AND expiration_date IS NOT NULL
  AND expiration_date >= $1 AND expiration_date <= $2
ORDER BY expiration_date ASC`
	return r.queryMany(ctx, query, from, to)
}

// ListExpiredBefore returns live documents whose expiration date is
// strictly before the given date.
func (r *PGRepo) ListExpiredBefore(ctx context.Context, before time.Time) ([]Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE deleted_at IS NULL
  AND expiration_date IS NOT NULL
  AND expiration_date < $1
ORDER BY expiration_date ASC`
	return r.queryMany(ctx, query, before)
}

// GetType fetches a document type and its renewal policy defaults.
func (r *PGRepo) GetType(ctx context.Context, typeID string) (DocumentType, error) {
	const query = `
SELECT id, name, has_expiration, renewal_period, renewal_unit
FROM document_types
WHERE id = $1`
	var dt DocumentType
	var period sql.NullInt64
	var unit sql.NullString
	err := r.DB.QueryRowContext(ctx, query, typeID).Scan(&dt.ID, &dt.Name, &dt.HasExpiration, &period, &unit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DocumentType{}, ErrNotFound
		}
		return DocumentType{}, err
	}
	if period.Valid {
		dt.RenewalPeriod = int(period.Int64)
	}
	if unit.Valid {
		dt.RenewalUnit = RenewalUnit(unit.String)
	}
	return dt, nil
}

// IncrementOwnerCounter bumps the owner's document counter.
func (r *PGRepo) IncrementOwnerCounter(ctx context.Context, ownerID string, delta int) error {
	const query = `
INSERT INTO owner_counters (owner_id, document_count)
VALUES ($1, GREATEST($2, 0))
ON CONFLICT (owner_id) DO UPDATE
SET document_count = GREATEST(owner_counters.document_count + $2, 0), updated_at = now()`
	_, err := r.DB.ExecContext(ctx, query, ownerID, delta)
	return err
}

func (r *PGRepo) queryOne(ctx context.Context, query string, args ...any) (Document, error) {
	row := r.DB.QueryRowContext(ctx, query, args...)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

func (r *PGRepo) queryMany(ctx context.Context, query string, args ...any) ([]Document, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var status, class string
	var typeID sql.NullString
	var tagsRaw []byte
	var extractedText sql.NullString
	var summary sql.NullString
	var expiration sql.NullTime
	var renewalPeriod sql.NullInt64
	var renewalUnit sql.NullString

	err := row.Scan(
		&doc.ID,
		&doc.OwnerID,
		&doc.Title,
		&doc.FileName,
		&doc.MimeType,
		&doc.ContentHash,
		&doc.SizeBytes,
		&doc.StoredSizeBytes,
		&doc.StorageKey,
		&status,
		&class,
		&typeID,
		&tagsRaw,
		&extractedText,
		&doc.ExtractionDegraded,
		&doc.Category,
		&doc.Confidence,
		&summary,
		&doc.Language,
		&doc.Priority,
		&doc.ClassificationLevel,
		&doc.EffectiveDate,
		&expiration,
		&doc.HasCustomRenewal,
		&renewalPeriod,
		&renewalUnit,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return Document{}, err
	}

	doc.Status = Status(status)
	doc.Class = Class(class)
	if typeID.Valid {
		doc.TypeID = typeID.String
	}
	if len(tagsRaw) > 0 {
		if err := json.Unmarshal(tagsRaw, &doc.Tags); err != nil {
			return Document{}, err
		}
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if extractedText.Valid {
		doc.ExtractedText = extractedText.String
	}
	if summary.Valid {
		doc.Summary = summary.String
	}
	if expiration.Valid {
		t := expiration.Time
		doc.ExpirationDate = &t
	}
	if renewalPeriod.Valid {
		doc.CustomRenewalPeriod = int(renewalPeriod.Int64)
	}
	if renewalUnit.Valid {
		doc.CustomRenewalUnit = RenewalUnit(renewalUnit.String)
	}
	return doc, nil
}

func ensureTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

var _ Repo = (*PGRepo)(nil)
