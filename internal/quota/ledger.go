// Package quota accounts per-owner storage consumption. Commits prefer a
// single atomic conditional update at the store; stores without that
// capability fall back to read-modify-write, which is race-prone and is
// logged as a degraded path on every commit.
package quota

import (
	"context"
	"sync"

	"records-backend/internal/shared/telemetry"
)

// Store persists quota accounts. Get must create the account with the
// configured default limit when it does not exist yet.
type Store interface {
	Get(ctx context.Context, ownerID string) (Account, error)
}

// AtomicStore is the preferred store capability: a single conditional
// increment that either applies the whole delta within [0, limit] or
// returns ErrInsufficientSpace / ErrNegativeUsage without changing anything.
type AtomicStore interface {
	Store
	AtomicAdd(ctx context.Context, ownerID string, delta int64) (Account, error)
}

// writableStore is the minimum needed for the degraded fallback.
type writableStore interface {
	Store
	Put(ctx context.Context, account Account) error
}

// Ledger is the per-owner storage accounting service.
type Ledger struct {
	store Store

	mu     sync.Mutex
	owners map[string]*sync.Mutex
}

// NewLedger constructs a Ledger over a store.
func NewLedger(store Store) *Ledger {
	return &Ledger{
		store:  store,
		owners: make(map[string]*sync.Mutex),
	}
}

// LockOwner serializes quota decisions for one owner. Callers hold the lock
// across check and commit so concurrent uploads by the same owner cannot
// both observe free space that only exists once.
func (l *Ledger) LockOwner(ownerID string) func() {
	l.mu.Lock()
	m, ok := l.owners[ownerID]
	if !ok {
		m = &sync.Mutex{}
		l.owners[ownerID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Check reports whether an owner has room for an incoming payload. It is a
// pure read; it changes nothing.
func (l *Ledger) Check(ctx context.Context, ownerID string, incomingBytes int64) (Check, error) {
	account, err := l.store.Get(ctx, ownerID)
	if err != nil {
		return Check{}, err
	}

	available := account.LimitBytes - account.UsedBytes
	return Check{
		HasSpace:       available >= incomingBytes,
		UsedBytes:      account.UsedBytes,
		LimitBytes:     account.LimitBytes,
		AvailableBytes: available,
	}, nil
}

// Commit applies a usage delta. Negative deltas release space (document
// deletion). Returns ErrInsufficientSpace when the delta would exceed the
// limit.
func (l *Ledger) Commit(ctx context.Context, ownerID string, delta int64) (Account, error) {
	if atomic, ok := l.store.(AtomicStore); ok {
		return atomic.AtomicAdd(ctx, ownerID, delta)
	}
	return l.commitDegraded(ctx, ownerID, delta)
}

// commitDegraded is the read-modify-write fallback for stores without an
// atomic increment. It is race-prone under concurrent uploads by the same
// owner unless the caller holds LockOwner; it is logged as a correctness
// risk on every use.
func (l *Ledger) commitDegraded(ctx context.Context, ownerID string, delta int64) (Account, error) {
	telemetry.Warn("quota.degraded_commit", map[string]any{
		"owner_id": ownerID,
		"delta":    delta,
	})

	writable, ok := l.store.(writableStore)
	if !ok {
		return Account{}, errStoreReadOnly
	}

	account, err := l.store.Get(ctx, ownerID)
	if err != nil {
		return Account{}, err
	}

	next := account.UsedBytes + delta
	if next < 0 {
		return Account{}, ErrNegativeUsage
	}
	if next > account.LimitBytes {
		return Account{}, ErrInsufficientSpace
	}

	account.UsedBytes = next
	if err := writable.Put(ctx, account); err != nil {
		return Account{}, err
	}
	return account, nil
}
