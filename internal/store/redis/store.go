// Package redis is the Redis storage driver for accounts, the transaction
// log and the document registry. Account and registry mutations run as Lua
// scripts so each read-modify-write is atomic server-side.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/talktoearn/internal/domain"
)

const (
	accountKeyspace  = "account:"
	txKeyspace       = "txs:"
	documentKeyspace = "doc:"
)

var createScript = rueidis.NewLuaScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then return 0 end
redis.call('HSET', KEYS[1],
	'owner_id', ARGV[1],
	'balance', ARGV[2],
	'total_earned', ARGV[3],
	'total_spent', ARGV[4],
	'registered_at', ARGV[5])
return 1
`)

// debitScript clamps the balance at 0 while total_spent takes the nominal
// amount.
var debitScript = rueidis.NewLuaScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
local balance = tonumber(redis.call('HGET', KEYS[1], 'balance')) - tonumber(ARGV[1])
if balance < 0 then balance = 0 end
redis.call('HSET', KEYS[1], 'balance', tostring(balance))
redis.call('HINCRBYFLOAT', KEYS[1], 'total_spent', ARGV[1])
return 1
`)

var creditScript = rueidis.NewLuaScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
redis.call('HINCRBYFLOAT', KEYS[1], 'balance', ARGV[1])
redis.call('HINCRBYFLOAT', KEYS[1], 'total_earned', ARGV[1])
return 1
`)

var addReferenceScript = rueidis.NewLuaScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return 0 end
redis.call('HINCRBY', KEYS[1], 'reference_count', 1)
redis.call('HINCRBYFLOAT', KEYS[1], 'total_reward', ARGV[1])
return 1
`)

type Store struct {
	client rueidis.Client
	prefix string
}

// New connects to Redis. keyPrefix namespaces every key (e.g. "tte:").
func New(addrs []string, password, keyPrefix string) (*Store, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: addrs,
		Password:    password,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &Store{client: client, prefix: keyPrefix}, nil
}

func (s *Store) Close() error {
	s.client.Close()
	return nil
}

func (s *Store) accountKey(ownerID string) string {
	return s.prefix + accountKeyspace + ownerID
}

func (s *Store) txKey(ownerID string) string {
	return s.prefix + txKeyspace + ownerID
}

func (s *Store) documentKey(documentID string) string {
	return s.prefix + documentKeyspace + documentID
}

func (s *Store) Get(ctx context.Context, ownerID string) (domain.Account, error) {
	fields, err := s.client.Do(ctx, s.client.B().Hgetall().Key(s.accountKey(ownerID)).Build()).AsStrMap()
	if err != nil {
		return domain.Account{}, fmt.Errorf("hgetall account: %w", err)
	}
	if len(fields) == 0 {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return parseAccount(fields)
}

func (s *Store) Create(ctx context.Context, account domain.Account) error {
	created, err := createScript.Exec(ctx, s.client,
		[]string{s.accountKey(account.OwnerID)},
		[]string{
			account.OwnerID,
			formatFloat(account.Balance),
			formatFloat(account.TotalEarned),
			formatFloat(account.TotalSpent),
			account.RegisteredAt.Format(time.RFC3339Nano),
		}).AsInt64()
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	if created == 0 {
		return fmt.Errorf("account %s already exists", account.OwnerID)
	}
	return nil
}

func (s *Store) Debit(ctx context.Context, ownerID string, amount float64) error {
	return s.execAccountScript(ctx, debitScript, ownerID, amount, "debit")
}

func (s *Store) Credit(ctx context.Context, ownerID string, amount float64) error {
	return s.execAccountScript(ctx, creditScript, ownerID, amount, "credit")
}

func (s *Store) execAccountScript(ctx context.Context, script *rueidis.Lua, ownerID string, amount float64, op string) error {
	found, err := script.Exec(ctx, s.client,
		[]string{s.accountKey(ownerID)},
		[]string{formatFloat(amount)}).AsInt64()
	if err != nil {
		return fmt.Errorf("%s account: %w", op, err)
	}
	if found == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (s *Store) Put(ctx context.Context, account domain.Account) error {
	key := s.accountKey(account.OwnerID)
	exists, err := s.client.Do(ctx, s.client.B().Exists().Key(key).Build()).AsInt64()
	if err != nil {
		return fmt.Errorf("exists account: %w", err)
	}
	if exists == 0 {
		return domain.ErrAccountNotFound
	}
	err = s.client.Do(ctx, s.client.B().Hset().Key(key).FieldValue().
		FieldValue("balance", formatFloat(account.Balance)).
		FieldValue("total_earned", formatFloat(account.TotalEarned)).
		FieldValue("total_spent", formatFloat(account.TotalSpent)).
		Build()).Error()
	if err != nil {
		return fmt.Errorf("put account: %w", err)
	}
	return nil
}

// Append pushes the transaction onto both participants' per-owner lists.
func (s *Store) Append(ctx context.Context, tx domain.Transaction) error {
	payload, err := json.Marshal(transactionRecord{
		ID:         tx.ID,
		Kind:       string(tx.Kind),
		FromOwner:  tx.FromOwner,
		ToOwner:    tx.ToOwner,
		Amount:     tx.Amount,
		DocumentID: tx.DocumentID,
		Question:   tx.Question,
		Timestamp:  tx.Timestamp.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal transaction: %w", err)
	}

	owners := []string{tx.FromOwner}
	if tx.ToOwner != tx.FromOwner {
		owners = append(owners, tx.ToOwner)
	}
	for _, owner := range owners {
		err := s.client.Do(ctx,
			s.client.B().Rpush().Key(s.txKey(owner)).Element(string(payload)).Build()).Error()
		if err != nil {
			return fmt.Errorf("rpush transaction for %s: %w", owner, err)
		}
	}
	return nil
}

func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]domain.Transaction, error) {
	elems, err := s.client.Do(ctx,
		s.client.B().Lrange().Key(s.txKey(ownerID)).Start(0).Stop(-1).Build()).AsStrSlice()
	if err != nil {
		return nil, fmt.Errorf("lrange transactions: %w", err)
	}

	out := make([]domain.Transaction, 0, len(elems))
	for _, raw := range elems {
		var rec transactionRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal transaction: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, rec.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("parse transaction timestamp: %w", err)
		}
		out = append(out, domain.Transaction{
			ID:         rec.ID,
			Kind:       domain.TransactionKind(rec.Kind),
			FromOwner:  rec.FromOwner,
			ToOwner:    rec.ToOwner,
			Amount:     rec.Amount,
			DocumentID: rec.DocumentID,
			Question:   rec.Question,
			Timestamp:  ts,
		})
	}
	return out, nil
}

func (s *Store) Register(ctx context.Context, stat domain.DocumentStat) error {
	err := s.client.Do(ctx, s.client.B().Hset().Key(s.documentKey(stat.DocumentID)).FieldValue().
		FieldValue("document_id", stat.DocumentID).
		FieldValue("owner_id", stat.OwnerID).
		FieldValue("filename", stat.Filename).
		FieldValue("uploaded_at", stat.UploadedAt.Format(time.RFC3339Nano)).
		Build()).Error()
	if err != nil {
		return fmt.Errorf("register document: %w", err)
	}
	// Stat counters start at 0 only on first registration; a re-upload keeps
	// what the document already earned.
	err = s.client.Do(ctx, s.client.B().Hsetnx().Key(s.documentKey(stat.DocumentID)).
		Field("reference_count").Value("0").Build()).Error()
	if err != nil {
		return fmt.Errorf("init reference count: %w", err)
	}
	err = s.client.Do(ctx, s.client.B().Hsetnx().Key(s.documentKey(stat.DocumentID)).
		Field("total_reward").Value("0").Build()).Error()
	if err != nil {
		return fmt.Errorf("init total reward: %w", err)
	}
	return nil
}

func (s *Store) GetDocument(ctx context.Context, documentID string) (domain.DocumentStat, error) {
	fields, err := s.client.Do(ctx,
		s.client.B().Hgetall().Key(s.documentKey(documentID)).Build()).AsStrMap()
	if err != nil {
		return domain.DocumentStat{}, fmt.Errorf("hgetall document: %w", err)
	}
	if len(fields) == 0 {
		return domain.DocumentStat{}, domain.ErrDocumentNotFound
	}
	return parseDocument(fields)
}

func (s *Store) ListDocuments(ctx context.Context) ([]domain.DocumentStat, error) {
	var out []domain.DocumentStat
	var cursor uint64
	for {
		entry, err := s.client.Do(ctx, s.client.B().Scan().Cursor(cursor).
			Match(s.prefix+documentKeyspace+"*").Count(100).Build()).AsScanEntry()
		if err != nil {
			return nil, fmt.Errorf("scan documents: %w", err)
		}
		for _, key := range entry.Elements {
			fields, err := s.client.Do(ctx, s.client.B().Hgetall().Key(key).Build()).AsStrMap()
			if err != nil {
				return nil, fmt.Errorf("hgetall document %s: %w", key, err)
			}
			if len(fields) == 0 {
				continue
			}
			stat, err := parseDocument(fields)
			if err != nil {
				return nil, err
			}
			out = append(out, stat)
		}
		cursor = entry.Cursor
		if cursor == 0 {
			return out, nil
		}
	}
}

func (s *Store) AddReference(ctx context.Context, documentID string, rewardAmount float64) error {
	found, err := addReferenceScript.Exec(ctx, s.client,
		[]string{s.documentKey(documentID)},
		[]string{formatFloat(rewardAmount)}).AsInt64()
	if err != nil {
		return fmt.Errorf("add reference: %w", err)
	}
	if found == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

type transactionRecord struct {
	ID         string  `json:"id"`
	Kind       string  `json:"kind"`
	FromOwner  string  `json:"from_owner"`
	ToOwner    string  `json:"to_owner"`
	Amount     float64 `json:"amount"`
	DocumentID string  `json:"document_id,omitempty"`
	Question   string  `json:"question,omitempty"`
	Timestamp  string  `json:"timestamp"`
}

func parseAccount(fields map[string]string) (domain.Account, error) {
	balance, err := strconv.ParseFloat(fields["balance"], 64)
	if err != nil {
		return domain.Account{}, fmt.Errorf("parse balance: %w", err)
	}
	earned, err := strconv.ParseFloat(fields["total_earned"], 64)
	if err != nil {
		return domain.Account{}, fmt.Errorf("parse total_earned: %w", err)
	}
	spent, err := strconv.ParseFloat(fields["total_spent"], 64)
	if err != nil {
		return domain.Account{}, fmt.Errorf("parse total_spent: %w", err)
	}
	registered, err := time.Parse(time.RFC3339Nano, fields["registered_at"])
	if err != nil {
		return domain.Account{}, fmt.Errorf("parse registered_at: %w", err)
	}
	return domain.Account{
		OwnerID:      fields["owner_id"],
		Balance:      balance,
		TotalEarned:  earned,
		TotalSpent:   spent,
		RegisteredAt: registered,
	}, nil
}

func parseDocument(fields map[string]string) (domain.DocumentStat, error) {
	refs, err := strconv.Atoi(fields["reference_count"])
	if err != nil {
		return domain.DocumentStat{}, fmt.Errorf("parse reference_count: %w", err)
	}
	reward, err := strconv.ParseFloat(fields["total_reward"], 64)
	if err != nil {
		return domain.DocumentStat{}, fmt.Errorf("parse total_reward: %w", err)
	}
	uploaded, err := time.Parse(time.RFC3339Nano, fields["uploaded_at"])
	if err != nil {
		return domain.DocumentStat{}, fmt.Errorf("parse uploaded_at: %w", err)
	}
	return domain.DocumentStat{
		DocumentID:     fields["document_id"],
		OwnerID:        fields["owner_id"],
		Filename:       fields["filename"],
		ReferenceCount: refs,
		TotalReward:    reward,
		UploadedAt:     uploaded,
	}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
