package renewal

import (
	"time"

	"records-backend/internal/documents"
)

// Policy is the renewal rule that applies to a document. A custom policy on
// the document overrides the type-level default.
type Policy struct {
	HasExpiration bool
	Period        int
	Unit          documents.RenewalUnit
}

// ResolvePolicy picks the effective renewal policy for a document. Custom
// renewal settings on the document win over the type defaults.
func ResolvePolicy(doc documents.Document, dt documents.DocumentType) Policy {
	if doc.HasCustomRenewal && doc.CustomRenewalPeriod > 0 {
		return Policy{
			HasExpiration: true,
			Period:        doc.CustomRenewalPeriod,
			Unit:          doc.CustomRenewalUnit,
		}
	}
	return Policy{
		HasExpiration: dt.HasExpiration,
		Period:        dt.RenewalPeriod,
		Unit:          dt.RenewalUnit,
	}
}

// CalculateExpiration adds the renewal period to the effective date using
// calendar arithmetic, so month and year additions land on the same day of
// month where the calendar allows it. Returns nil when the policy has no
// expiration.
func CalculateExpiration(effectiveDate time.Time, policy Policy) *time.Time {
	if !policy.HasExpiration || policy.Period <= 0 {
		return nil
	}

	var exp time.Time
	switch policy.Unit {
	case documents.UnitDays:
		exp = effectiveDate.AddDate(0, 0, policy.Period)
	case documents.UnitMonths:
		exp = effectiveDate.AddDate(0, policy.Period, 0)
	case documents.UnitYears:
		exp = effectiveDate.AddDate(policy.Period, 0, 0)
	default:
		return nil
	}
	return &exp
}
