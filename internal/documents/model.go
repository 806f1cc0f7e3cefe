package documents

import "time"

// Status is the lifecycle state of a document. Transitions only move
// forward: draft/pending -> approved|rejected -> archived.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusArchived Status = "archived"
)

var statusRank = map[Status]int{
	StatusDraft:    0,
	StatusPending:  0,
	StatusApproved: 1,
	StatusRejected: 1,
	StatusArchived: 2,
}

// CanTransition reports whether a status change moves strictly forward.
func CanTransition(from, to Status) bool {
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

// Class discriminates how a document participates in deduplication.
// Entity-scoped documents are intentionally reusable across many entities,
// so identical content is allowed per owner.
type Class string

const (
	ClassStandard     Class = "standard"
	ClassEntityScoped Class = "entity_scoped"
)

// RenewalUnit is the calendar unit of a renewal period.
type RenewalUnit string

const (
	UnitDays   RenewalUnit = "days"
	UnitMonths RenewalUnit = "months"
	UnitYears  RenewalUnit = "years"
)

// DocumentType carries the type-level renewal policy defaults.
type DocumentType struct {
	ID            string
	Name          string
	HasExpiration bool
	RenewalPeriod int
	RenewalUnit   RenewalUnit
}

// Document represents a stored institutional record owned by a user.
type Document struct {
	ID              string
	OwnerID         string
	Title           string
	FileName        string
	MimeType        string
	ContentHash     string
	SizeBytes       int64
	StoredSizeBytes int64
	StorageKey      string
	Status          Status
	Class           Class
	TypeID          string
	Tags            []string

	ExtractedText      string
	ExtractionDegraded bool

	Category            string
	Confidence          float64
	Summary             string
	Language            string
	Priority            string
	ClassificationLevel string

	EffectiveDate       time.Time
	ExpirationDate      *time.Time
	HasCustomRenewal    bool
	CustomRenewalPeriod int
	CustomRenewalUnit   RenewalUnit

	CreatedAt time.Time
	UpdatedAt time.Time
}
