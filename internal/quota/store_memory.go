package quota

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory AtomicStore used in development and tests.
type MemoryStore struct {
	mu           sync.Mutex
	accounts     map[string]Account
	defaultLimit int64
}

// NewMemoryStore constructs a MemoryStore with the given default limit for
// new accounts.
func NewMemoryStore(defaultLimitBytes int64) *MemoryStore {
	return &MemoryStore{
		accounts:     make(map[string]Account),
		defaultLimit: defaultLimitBytes,
	}
}

// Get returns the account for an owner, creating it at the default limit.
func (s *MemoryStore) Get(ctx context.Context, ownerID string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked(ownerID), nil
}

// AtomicAdd applies a delta if it keeps usage within [0, limit].
func (s *MemoryStore) AtomicAdd(ctx context.Context, ownerID string, delta int64) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	account := s.ensureLocked(ownerID)
	next := account.UsedBytes + delta
	if next < 0 {
		return Account{}, ErrNegativeUsage
	}
	if next > account.LimitBytes {
		return Account{}, ErrInsufficientSpace
	}

	account.UsedBytes = next
	account.UpdatedAt = time.Now().UTC()
	s.accounts[ownerID] = account
	return account, nil
}

// SetLimit overrides the limit for an owner.
func (s *MemoryStore) SetLimit(ownerID string, limitBytes int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account := s.ensureLocked(ownerID)
	account.LimitBytes = limitBytes
	s.accounts[ownerID] = account
}

// SetUsed overrides the usage for an owner.
func (s *MemoryStore) SetUsed(ownerID string, usedBytes int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account := s.ensureLocked(ownerID)
	account.UsedBytes = usedBytes
	s.accounts[ownerID] = account
}

func (s *MemoryStore) ensureLocked(ownerID string) Account {
	account, ok := s.accounts[ownerID]
	if !ok {
		account = Account{
			OwnerID:    ownerID,
			LimitBytes: s.defaultLimit,
			UpdatedAt:  time.Now().UTC(),
		}
		s.accounts[ownerID] = account
	}
	return account
}

var _ AtomicStore = (*MemoryStore)(nil)
