package ledger

import (
	"context"

	"github.com/kailas-cloud/talktoearn/internal/domain"
)

// AccountStore is the durable account record store. Debit and Credit are
// atomic read-modify-write operations at per-account granularity.
type AccountStore interface {
	// Get returns the account or domain.ErrAccountNotFound.
	Get(ctx context.Context, ownerID string) (domain.Account, error)
	// Create inserts a new account. Creating an existing owner is an error.
	Create(ctx context.Context, account domain.Account) error
	// Debit clamps the balance at 0 while adding the full nominal amount to
	// totalSpent.
	Debit(ctx context.Context, ownerID string, amount float64) error
	// Credit adds amount to both balance and totalEarned.
	Credit(ctx context.Context, ownerID string, amount float64) error
	// Put overwrites the stored balance, totalEarned and totalSpent.
	Put(ctx context.Context, account domain.Account) error
}

// TransactionLog is the append-only transaction store.
type TransactionLog interface {
	Append(ctx context.Context, tx domain.Transaction) error
	// ListByOwner returns every transaction the owner participates in,
	// oldest first.
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Transaction, error)
}
