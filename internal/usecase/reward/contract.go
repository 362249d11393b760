package reward

import (
	"context"

	"github.com/kailas-cloud/talktoearn/internal/domain"
)

// Ledger applies the payout side effects of a distribution.
type Ledger interface {
	Reward(ctx context.Context, toOwner string, amount float64, documentID, questionText string) error
	Reference(ctx context.Context, toOwner, documentID, questionText string) error
}

// Registry resolves document ids to their registry records and accumulates
// per-document reference stats.
type Registry interface {
	// GetDocument returns the record or domain.ErrDocumentNotFound.
	GetDocument(ctx context.Context, documentID string) (domain.DocumentStat, error)
	ListDocuments(ctx context.Context) ([]domain.DocumentStat, error)
	// AddReference atomically bumps referenceCount by 1 and totalReward by
	// rewardAmount.
	AddReference(ctx context.Context, documentID string, rewardAmount float64) error
}
