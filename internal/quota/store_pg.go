package quota

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGStore is a Postgres-backed AtomicStore.
type PGStore struct {
	DB           *sql.DB
	DefaultLimit int64
}

// NewPGStore constructs a Postgres-backed quota store.
func NewPGStore(db *sql.DB, defaultLimitBytes int64) *PGStore {
	return &PGStore{DB: db, DefaultLimit: defaultLimitBytes}
}

// Get returns the account for an owner, creating it at the default limit.
func (s *PGStore) Get(ctx context.Context, ownerID string) (Account, error) {
	account, err := s.scan(ctx, ownerID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Account{}, err
	}

	if _, err := s.DB.ExecContext(ctx, `
INSERT INTO quota_accounts (owner_id, used_bytes, limit_bytes)
VALUES ($1, 0, $2)
ON CONFLICT (owner_id) DO NOTHING`, ownerID, s.DefaultLimit); err != nil {
		return Account{}, err
	}
	return s.scan(ctx, ownerID)
}

// AtomicAdd applies the delta in a single conditional UPDATE. The statement
// either moves used_bytes to a value within [0, limit_bytes] or touches
// nothing, so concurrent commits cannot jointly overshoot the limit.
func (s *PGStore) AtomicAdd(ctx context.Context, ownerID string, delta int64) (Account, error) {
	if _, err := s.Get(ctx, ownerID); err != nil {
		return Account{}, err
	}

	var account Account
	account.OwnerID = ownerID
	err := s.DB.QueryRowContext(ctx, `
UPDATE quota_accounts
SET used_bytes = used_bytes + $1, updated_at = now()
WHERE owner_id = $2
  AND used_bytes + $1 >= 0
  AND used_bytes + $1 <= limit_bytes
RETURNING used_bytes, limit_bytes, updated_at`, delta, ownerID).
		Scan(&account.UsedBytes, &account.LimitBytes, &account.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if delta < 0 {
				return Account{}, ErrNegativeUsage
			}
			return Account{}, ErrInsufficientSpace
		}
		return Account{}, err
	}
	return account, nil
}

func (s *PGStore) scan(ctx context.Context, ownerID string) (Account, error) {
	var account Account
	account.OwnerID = ownerID
	var updatedAt time.Time
	err := s.DB.QueryRowContext(ctx, `
SELECT used_bytes, limit_bytes, updated_at FROM quota_accounts WHERE owner_id = $1`, ownerID).
		Scan(&account.UsedBytes, &account.LimitBytes, &updatedAt)
	if err != nil {
		return Account{}, err
	}
	account.UpdatedAt = updatedAt
	return account, nil
}

var _ AtomicStore = (*PGStore)(nil)
