package renewal

import (
	"context"
	"sort"
	"time"

	"records-backend/internal/documents"
)

// Urgency buckets for expiring documents.
const (
	UrgencyUrgent = "urgent"
	UrgencyHigh   = "high"
	UrgencyMedium = "medium"
)

const (
	urgentWithinDays = 7
	highWithinDays   = 15
)

// ExpiringDocument is a document approaching its expiration date.
type ExpiringDocument struct {
	Document            documents.Document
	DaysUntilExpiration int
	Urgency             string
}

// ExpiredDocument is a document whose expiration date has passed.
type ExpiredDocument struct {
	Document    documents.Document
	DaysExpired int
}

// Service answers renewal queries over the document repository.
type Service struct {
	Repo documents.Repo

	// Now is overridable for tests. Defaults to time.Now.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ExpiringWithin returns documents expiring between today and today+days,
// inclusive, soonest first.
func (s *Service) ExpiringWithin(ctx context.Context, days int) ([]ExpiringDocument, error) {
	if days <= 0 {
		days = 30
	}
	today := truncateToDay(s.now())
	until := today.AddDate(0, 0, days)

	docs, err := s.Repo.ListExpiringBetween(ctx, today, until)
	if err != nil {
		return nil, err
	}

	out := make([]ExpiringDocument, 0, len(docs))
	for _, doc := range docs {
		if doc.ExpirationDate == nil {
			continue
		}
		remaining := daysBetween(today, truncateToDay(*doc.ExpirationDate))
		out = append(out, ExpiringDocument{
			Document:            doc,
			DaysUntilExpiration: remaining,
			Urgency:             urgencyFor(remaining),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysUntilExpiration < out[j].DaysUntilExpiration
	})
	return out, nil
}

// Expired returns documents whose expiration date is strictly before today,
// most overdue first.
func (s *Service) Expired(ctx context.Context) ([]ExpiredDocument, error) {
	today := truncateToDay(s.now())

	docs, err := s.Repo.ListExpiredBefore(ctx, today)
	if err != nil {
		return nil, err
	}

	out := make([]ExpiredDocument, 0, len(docs))
	for _, doc := range docs {
		if doc.ExpirationDate == nil {
			continue
		}
		out = append(out, ExpiredDocument{
			Document:    doc,
			DaysExpired: daysBetween(truncateToDay(*doc.ExpirationDate), today),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysExpired > out[j].DaysExpired
	})
	return out, nil
}

func urgencyFor(daysRemaining int) string {
	switch {
	case daysRemaining <= urgentWithinDays:
		return UrgencyUrgent
	case daysRemaining <= highWithinDays:
		return UrgencyHigh
	default:
		return UrgencyMedium
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
