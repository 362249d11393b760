// Package ledger implements account bookkeeping: the question fee charge,
// reward credits, the append-only transaction log and replay-based
// reconciliation.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talktoearn/internal/domain"
	"github.com/kailas-cloud/talktoearn/internal/metrics"
)

// SystemOwner is the counterparty recorded on question fee charges.
const SystemOwner = "system"

type Service struct {
	accounts AccountStore
	txs      TransactionLog
	logger   *zap.Logger
}

func NewService(accounts AccountStore, txs TransactionLog, logger *zap.Logger) *Service {
	return &Service{accounts: accounts, txs: txs, logger: logger}
}

// EnsureAccount returns the owner's account, registering it with the
// starting grant on first sight.
func (s *Service) EnsureAccount(ctx context.Context, ownerID string) (domain.Account, error) {
	account, err := s.accounts.Get(ctx, ownerID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return domain.Account{}, fmt.Errorf("get account %s: %w", ownerID, err)
	}

	account = domain.Account{
		OwnerID:      ownerID,
		Balance:      domain.StartingGrant,
		RegisteredAt: time.Now().UTC(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return domain.Account{}, fmt.Errorf("create account %s: %w", ownerID, err)
	}
	s.logger.Info("registered account with starting grant",
		zap.String("owner_id", ownerID),
		zap.Float64("balance", account.Balance))
	return account, nil
}

// Charge debits the question fee. The balance is clamped at 0 while
// totalSpent records the full nominal amount.
func (s *Service) Charge(ctx context.Context, fromOwner string, amount float64, questionText string) error {
	if amount < 0 || math.IsNaN(amount) {
		return domain.NewConsistencyViolation(fmt.Sprintf("charge amount %v is not a non-negative number", amount))
	}

	if err := s.accounts.Debit(ctx, fromOwner, amount); err != nil {
		return fmt.Errorf("debit %s: %w", fromOwner, err)
	}

	if err := s.append(ctx, domain.Transaction{
		Kind:      domain.TxSpend,
		FromOwner: fromOwner,
		ToOwner:   SystemOwner,
		Amount:    amount,
		Question:  questionText,
	}); err != nil {
		return err
	}
	return nil
}

// Reward credits a payout to a document owner. No ceiling applies.
func (s *Service) Reward(ctx context.Context, toOwner string, amount float64, documentID, questionText string) error {
	if amount < 0 || math.IsNaN(amount) {
		return domain.NewConsistencyViolation(fmt.Sprintf("reward amount %v is not a non-negative number", amount))
	}

	if err := s.accounts.Credit(ctx, toOwner, amount); err != nil {
		return fmt.Errorf("credit %s: %w", toOwner, err)
	}

	return s.append(ctx, domain.Transaction{
		Kind:       domain.TxReward,
		FromOwner:  SystemOwner,
		ToOwner:    toOwner,
		Amount:     amount,
		DocumentID: documentID,
		Question:   questionText,
	})
}

// Reference appends the zero-amount attribution record accompanying a reward.
func (s *Service) Reference(ctx context.Context, toOwner, documentID, questionText string) error {
	return s.append(ctx, domain.Transaction{
		Kind:       domain.TxReference,
		FromOwner:  SystemOwner,
		ToOwner:    toOwner,
		Amount:     0,
		DocumentID: documentID,
		Question:   questionText,
	})
}

func (s *Service) append(ctx context.Context, tx domain.Transaction) error {
	tx.ID = uuid.NewString()
	tx.Timestamp = time.Now().UTC()

	if err := s.txs.Append(ctx, tx); err != nil {
		return fmt.Errorf("append %s transaction for %s: %w", tx.Kind, tx.ToOwner, err)
	}
	metrics.LedgerTransactionsTotal.WithLabelValues(string(tx.Kind)).Inc()
	return nil
}

// RecomputeEarnings replays the owner's transaction log and overwrites the
// account's derived fields. Idempotent; safe to run at any time.
func (s *Service) RecomputeEarnings(ctx context.Context, ownerID string) (domain.Account, error) {
	account, err := s.accounts.Get(ctx, ownerID)
	if err != nil {
		return domain.Account{}, fmt.Errorf("get account %s: %w", ownerID, err)
	}

	txs, err := s.txs.ListByOwner(ctx, ownerID)
	if err != nil {
		return domain.Account{}, fmt.Errorf("list transactions for %s: %w", ownerID, err)
	}

	var earned, spent float64
	for _, tx := range txs {
		switch {
		case tx.Kind == domain.TxReward && tx.ToOwner == ownerID:
			earned += tx.Amount
		case tx.Kind == domain.TxSpend && tx.FromOwner == ownerID:
			spent += tx.Amount
		}
	}

	account.TotalEarned = earned
	account.TotalSpent = spent
	account.Balance = math.Max(0, domain.StartingGrant+earned-spent)

	if err := s.accounts.Put(ctx, account); err != nil {
		return domain.Account{}, fmt.Errorf("put account %s: %w", ownerID, err)
	}

	s.logger.Info("recomputed earnings",
		zap.String("owner_id", ownerID),
		zap.Float64("total_earned", earned),
		zap.Float64("total_spent", spent),
		zap.Float64("balance", account.Balance))
	return account, nil
}
