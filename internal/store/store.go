// Package store defines the storage driver contract shared by the sqlite
// and redis implementations.
package store

import (
	"context"

	"github.com/kailas-cloud/talktoearn/internal/domain"
)

// Store is the full durable storage surface: accounts, the append-only
// transaction log and the document registry.
type Store interface {
	// Accounts.
	Get(ctx context.Context, ownerID string) (domain.Account, error)
	Create(ctx context.Context, account domain.Account) error
	Debit(ctx context.Context, ownerID string, amount float64) error
	Credit(ctx context.Context, ownerID string, amount float64) error
	Put(ctx context.Context, account domain.Account) error

	// Transaction log.
	Append(ctx context.Context, tx domain.Transaction) error
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Transaction, error)

	// Document registry.
	Register(ctx context.Context, stat domain.DocumentStat) error
	GetDocument(ctx context.Context, documentID string) (domain.DocumentStat, error)
	ListDocuments(ctx context.Context) ([]domain.DocumentStat, error)
	AddReference(ctx context.Context, documentID string, rewardAmount float64) error

	Close() error
}
