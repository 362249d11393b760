package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/talktoearn/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createAccount(t *testing.T, s *Store, ownerID string, balance float64) {
	t.Helper()
	err := s.Create(context.Background(), domain.Account{
		OwnerID:      ownerID,
		Balance:      balance,
		RegisteredAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Create(%s) error = %v", ownerID, err)
	}
}

func TestAccountRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createAccount(t, s, "u1", domain.StartingGrant)

	a, err := s.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if a.OwnerID != "u1" || a.Balance != domain.StartingGrant {
		t.Errorf("Get() = %+v", a)
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("Get(missing) error = %v, want not found", err)
	}
}

func TestDebitClampsAtZero(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createAccount(t, s, "u1", 0.005)

	if err := s.Debit(ctx, "u1", 0.01); err != nil {
		t.Fatalf("Debit() error = %v", err)
	}

	a, err := s.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if a.Balance != 0 {
		t.Errorf("balance = %v, want 0 (clamped)", a.Balance)
	}
	if a.TotalSpent != 0.01 {
		t.Errorf("totalSpent = %v, want nominal 0.01", a.TotalSpent)
	}

	if err := s.Debit(ctx, "missing", 0.01); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("Debit(missing) error = %v, want not found", err)
	}
}

func TestCredit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createAccount(t, s, "u1", 1.0)

	if err := s.Credit(ctx, "u1", 0.25); err != nil {
		t.Fatalf("Credit() error = %v", err)
	}

	a, _ := s.Get(ctx, "u1")
	if a.Balance != 1.25 || a.TotalEarned != 0.25 {
		t.Errorf("account after credit = %+v", a)
	}
}

func TestPut(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createAccount(t, s, "u1", 1.0)

	if err := s.Put(ctx, domain.Account{OwnerID: "u1", Balance: 0.7, TotalEarned: 0.2, TotalSpent: 0.5}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	a, _ := s.Get(ctx, "u1")
	if a.Balance != 0.7 || a.TotalEarned != 0.2 || a.TotalSpent != 0.5 {
		t.Errorf("account after put = %+v", a)
	}
}

func TestTransactionLog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	txs := []domain.Transaction{
		{ID: "t1", Kind: domain.TxSpend, FromOwner: "u1", ToOwner: "system", Amount: 0.000001, Question: "q1", Timestamp: base},
		{ID: "t2", Kind: domain.TxReward, FromOwner: "system", ToOwner: "u1", Amount: 0.0000007, DocumentID: "doc-a", Timestamp: base.Add(time.Second)},
		{ID: "t3", Kind: domain.TxReward, FromOwner: "system", ToOwner: "u2", Amount: 0.0000003, DocumentID: "doc-b", Timestamp: base.Add(2 * time.Second)},
	}
	for _, tx := range txs {
		if err := s.Append(ctx, tx); err != nil {
			t.Fatalf("Append(%s) error = %v", tx.ID, err)
		}
	}

	got, err := s.ListByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListByOwner(u1) = %d transactions, want 2", len(got))
	}
	if got[0].ID != "t1" || got[1].ID != "t2" {
		t.Errorf("ListByOwner(u1) order = %s, %s; want oldest first", got[0].ID, got[1].ID)
	}
	if got[1].Kind != domain.TxReward || got[1].DocumentID != "doc-a" {
		t.Errorf("reward transaction = %+v", got[1])
	}
}

func TestDocumentRegistry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Register(ctx, domain.DocumentStat{
		DocumentID: "doc-a",
		OwnerID:    "u1",
		Filename:   "notes.txt",
		UploadedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	stat, err := s.GetDocument(ctx, "doc-a")
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if stat.OwnerID != "u1" || stat.Filename != "notes.txt" || stat.ReferenceCount != 0 {
		t.Errorf("GetDocument() = %+v", stat)
	}

	if _, err := s.GetDocument(ctx, "missing"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("GetDocument(missing) error = %v, want not found", err)
	}

	if err := s.AddReference(ctx, "doc-a", 0.0000007); err != nil {
		t.Fatalf("AddReference() error = %v", err)
	}
	if err := s.AddReference(ctx, "doc-a", 0.0000003); err != nil {
		t.Fatalf("AddReference() error = %v", err)
	}

	stat, _ = s.GetDocument(ctx, "doc-a")
	if stat.ReferenceCount != 2 {
		t.Errorf("referenceCount = %d, want 2", stat.ReferenceCount)
	}
	if diff := stat.TotalReward - 0.000001; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("totalReward = %v, want 0.000001", stat.TotalReward)
	}

	if err := s.AddReference(ctx, "missing", 1); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("AddReference(missing) error = %v, want not found", err)
	}

	docs, err := s.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if len(docs) != 1 || docs[0].DocumentID != "doc-a" {
		t.Errorf("ListDocuments() = %+v", docs)
	}
}

func TestRegisterIsIdempotentForReupload(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stat := domain.DocumentStat{DocumentID: "doc-a", OwnerID: "u1", Filename: "v1.txt", UploadedAt: time.Now().UTC()}
	if err := s.Register(ctx, stat); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := s.AddReference(ctx, "doc-a", 0.5); err != nil {
		t.Fatalf("AddReference() error = %v", err)
	}

	stat.Filename = "v2.txt"
	if err := s.Register(ctx, stat); err != nil {
		t.Fatalf("Register() re-upload error = %v", err)
	}

	got, _ := s.GetDocument(ctx, "doc-a")
	if got.Filename != "v2.txt" {
		t.Errorf("filename = %q, want updated to v2.txt", got.Filename)
	}
	if got.ReferenceCount != 1 || got.TotalReward != 0.5 {
		t.Errorf("re-upload must keep accumulated stats, got %+v", got)
	}
}
