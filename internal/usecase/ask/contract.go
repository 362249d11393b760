package ask

import (
	"context"

	"github.com/kailas-cloud/talktoearn/internal/domain"
	"github.com/kailas-cloud/talktoearn/internal/domain/question"
	"github.com/kailas-cloud/talktoearn/internal/usecase/strategy"
)

// Ledger covers the account operations the ask flow needs.
type Ledger interface {
	EnsureAccount(ctx context.Context, ownerID string) (domain.Account, error)
	Charge(ctx context.Context, fromOwner string, amount float64, questionText string) error
}

// TypeDetector classifies the question as conceptual or factual.
type TypeDetector interface {
	Detect(text string) question.Type
}

// Filter classifies and trims the candidate passages.
type Filter interface {
	Filter(ctx context.Context, q domain.Question, candidates []domain.Passage) []domain.ScoredPassage
}

// Decider makes the retrieval use/no-use call.
type Decider interface {
	Decide(q domain.Question, kept []domain.ScoredPassage) domain.RelevanceDecision
}

// Selector picks the answering strategy and builds its prompt.
type Selector interface {
	Select(confidence float64) strategy.Strategy
	BuildPrompt(strat strategy.Strategy, questionText string, kept []domain.ScoredPassage) string
}

// Distributor pays the owners of the passages that grounded the answer.
type Distributor interface {
	Distribute(ctx context.Context, questionText string, kept []domain.ScoredPassage, totalCost float64) ([]domain.RewardEntry, error)
}
