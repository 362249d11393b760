package domain

import "time"

// StartingGrant is the coin balance granted to every account on registration.
const StartingGrant = 1.0

// Account is durable per-owner balance state. Mutated only through the ledger.
type Account struct {
	OwnerID      string
	Balance      float64
	TotalEarned  float64
	TotalSpent   float64
	RegisteredAt time.Time
}

// TransactionKind enumerates ledger transaction kinds.
type TransactionKind string

const (
	// TxSpend records a question fee charged to the asker.
	TxSpend TransactionKind = "spend"
	// TxReward records a payout credited to a document owner.
	TxReward TransactionKind = "reward"
	// TxReference is a zero-amount attribution record for a document reference.
	TxReference TransactionKind = "reference"
)

// Transaction is one append-only ledger log entry. Immutable once written.
type Transaction struct {
	ID         string
	Kind       TransactionKind
	FromOwner  string
	ToOwner    string
	Amount     float64
	DocumentID string
	Question   string
	Timestamp  time.Time
}

// DocumentStat is the registry record for one uploaded document.
// ReferenceCount and TotalReward are monotonically non-decreasing.
type DocumentStat struct {
	DocumentID     string
	OwnerID        string
	Filename       string
	ReferenceCount int
	TotalReward    float64
	UploadedAt     time.Time
}
