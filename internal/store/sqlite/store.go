// Package sqlite is the embedded storage driver for accounts, the
// transaction log and the document registry.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kailas-cloud/talktoearn/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	owner_id      TEXT PRIMARY KEY,
	balance       REAL NOT NULL DEFAULT 0,
	total_earned  REAL NOT NULL DEFAULT 0,
	total_spent   REAL NOT NULL DEFAULT 0,
	registered_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	from_owner  TEXT NOT NULL,
	to_owner    TEXT NOT NULL,
	amount      REAL NOT NULL,
	document_id TEXT NOT NULL DEFAULT '',
	question    TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_from ON transactions (from_owner, created_at);
CREATE INDEX IF NOT EXISTS idx_transactions_to   ON transactions (to_owner, created_at);

CREATE TABLE IF NOT EXISTS documents (
	document_id     TEXT PRIMARY KEY,
	owner_id        TEXT NOT NULL,
	filename        TEXT NOT NULL DEFAULT '',
	reference_count INTEGER NOT NULL DEFAULT 0,
	total_reward    REAL NOT NULL DEFAULT 0,
	uploaded_at     TIMESTAMP NOT NULL
);
`

// Store backs the account, transaction log and registry contracts with one
// sqlite database. Per-account atomicity comes from single-statement
// read-modify-write updates.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and applies the schema.
// ":memory:" is accepted for tests.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// sqlite serializes writers; a single connection avoids SQLITE_BUSY
	// churn under concurrent questions.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, ownerID string) (domain.Account, error) {
	var a domain.Account
	err := s.db.QueryRowContext(ctx,
		`SELECT owner_id, balance, total_earned, total_spent, registered_at
		 FROM accounts WHERE owner_id = ?`, ownerID).
		Scan(&a.OwnerID, &a.Balance, &a.TotalEarned, &a.TotalSpent, &a.RegisteredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("select account: %w", err)
	}
	return a, nil
}

func (s *Store) Create(ctx context.Context, account domain.Account) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (owner_id, balance, total_earned, total_spent, registered_at)
		 VALUES (?, ?, ?, ?, ?)`,
		account.OwnerID, account.Balance, account.TotalEarned, account.TotalSpent, account.RegisteredAt)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// Debit clamps the balance at 0 in a single statement while totalSpent
// records the full nominal amount.
func (s *Store) Debit(ctx context.Context, ownerID string, amount float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts
		 SET balance = MAX(0, balance - ?), total_spent = total_spent + ?
		 WHERE owner_id = ?`, amount, amount, ownerID)
	if err != nil {
		return fmt.Errorf("debit account: %w", err)
	}
	return affectedOne(res, domain.ErrAccountNotFound)
}

func (s *Store) Credit(ctx context.Context, ownerID string, amount float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts
		 SET balance = balance + ?, total_earned = total_earned + ?
		 WHERE owner_id = ?`, amount, amount, ownerID)
	if err != nil {
		return fmt.Errorf("credit account: %w", err)
	}
	return affectedOne(res, domain.ErrAccountNotFound)
}

func (s *Store) Put(ctx context.Context, account domain.Account) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts
		 SET balance = ?, total_earned = ?, total_spent = ?
		 WHERE owner_id = ?`,
		account.Balance, account.TotalEarned, account.TotalSpent, account.OwnerID)
	if err != nil {
		return fmt.Errorf("put account: %w", err)
	}
	return affectedOne(res, domain.ErrAccountNotFound)
}

func (s *Store) Append(ctx context.Context, tx domain.Transaction) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, kind, from_owner, to_owner, amount, document_id, question, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, string(tx.Kind), tx.FromOwner, tx.ToOwner, tx.Amount, tx.DocumentID, tx.Question, tx.Timestamp)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, from_owner, to_owner, amount, document_id, question, created_at
		 FROM transactions
		 WHERE from_owner = ? OR to_owner = ?
		 ORDER BY created_at, id`, ownerID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var kind string
		if err := rows.Scan(&tx.ID, &kind, &tx.FromOwner, &tx.ToOwner, &tx.Amount,
			&tx.DocumentID, &tx.Question, &tx.Timestamp); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Kind = domain.TransactionKind(kind)
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *Store) Register(ctx context.Context, stat domain.DocumentStat) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (document_id, owner_id, filename, reference_count, total_reward, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (document_id) DO UPDATE SET owner_id = excluded.owner_id, filename = excluded.filename`,
		stat.DocumentID, stat.OwnerID, stat.Filename, stat.ReferenceCount, stat.TotalReward, stat.UploadedAt)
	if err != nil {
		return fmt.Errorf("register document: %w", err)
	}
	return nil
}

func (s *Store) GetDocument(ctx context.Context, documentID string) (domain.DocumentStat, error) {
	var stat domain.DocumentStat
	err := s.db.QueryRowContext(ctx,
		`SELECT document_id, owner_id, filename, reference_count, total_reward, uploaded_at
		 FROM documents WHERE document_id = ?`, documentID).
		Scan(&stat.DocumentID, &stat.OwnerID, &stat.Filename,
			&stat.ReferenceCount, &stat.TotalReward, &stat.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DocumentStat{}, domain.ErrDocumentNotFound
	}
	if err != nil {
		return domain.DocumentStat{}, fmt.Errorf("select document: %w", err)
	}
	return stat, nil
}

func (s *Store) ListDocuments(ctx context.Context) ([]domain.DocumentStat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document_id, owner_id, filename, reference_count, total_reward, uploaded_at
		 FROM documents ORDER BY uploaded_at, document_id`)
	if err != nil {
		return nil, fmt.Errorf("select documents: %w", err)
	}
	defer rows.Close()

	var out []domain.DocumentStat
	for rows.Next() {
		var stat domain.DocumentStat
		if err := rows.Scan(&stat.DocumentID, &stat.OwnerID, &stat.Filename,
			&stat.ReferenceCount, &stat.TotalReward, &stat.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, stat)
	}
	return out, rows.Err()
}

func (s *Store) AddReference(ctx context.Context, documentID string, rewardAmount float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents
		 SET reference_count = reference_count + 1, total_reward = total_reward + ?
		 WHERE document_id = ?`, rewardAmount, documentID)
	if err != nil {
		return fmt.Errorf("add reference: %w", err)
	}
	return affectedOne(res, domain.ErrDocumentNotFound)
}

func affectedOne(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return missing
	}
	return nil
}
