// Package ledger owns wallet balances and the append-only transaction
// history. Every balance mutation in the system goes through one of its
// operations; no other code path writes a wallet balance.
//
// Correctness under concurrency comes from the database, not from
// in-process locks: each operation runs as a single transaction with the
// wallet rows it touches locked FOR UPDATE, so the balance change and the
// transaction record commit together or not at all, across any number of
// API processes.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/cherop/pactpay/internal/cache"
	"github.com/cherop/pactpay/internal/repository"
	"github.com/cherop/pactpay/internal/stream"
)

const (
	// TransactionCompletedTopic carries committed ledger transactions so
	// workers can send receipts and record activity without being on the
	// request path.
	TransactionCompletedTopic = "transaction.completed"

	// maxAttempts bounds automatic retries of a whole atomic unit on
	// serialization/deadlock failures.
	maxAttempts = 3

	// BalanceCacheTTL bounds how stale a cached balance can get if an
	// invalidation is lost.
	BalanceCacheTTL = 5 * time.Minute
)

type Ledger struct {
	DB     repository.Database
	Cache  *cache.Cache
	Stream *stream.KafkaStream
	Logger *slog.Logger
}

func New(l *Ledger) *Ledger {
	return &Ledger{
		DB:     l.DB,
		Cache:  l.Cache,
		Stream: l.Stream,
		Logger: l.Logger,
	}
}

// TransactionEvent is the message published to Kafka after a ledger
// transaction commits.
type TransactionEvent struct {
	TransactionID string          `json:"transaction_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	FromWalletID  string          `json:"from_wallet_id,omitempty"`
	ToWalletID    string          `json:"to_wallet_id,omitempty"`
	Description   string          `json:"description,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// GetOrCreateWallet returns the user's wallet, creating a zero-balance one
// on first touch. Safe under concurrent first-touch calls: the uniqueness
// constraint on user_id makes the loser of the insert race fall back to a
// lookup, so both callers observe the same wallet.
func (l *Ledger) GetOrCreateWallet(ctx context.Context, userID string) (*repository.Wallet, error) {
	return l.resolveOrCreateWallet(userID, nil, false)
}

// Deposit credits the user's wallet by amount and records a deposit
// transaction, as one atomic unit. The wallet is created if absent.
func (l *Ledger) Deposit(ctx context.Context, userID string, amount decimal.Decimal, description string) (*repository.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	amount = amount.Round(2)

	transaction, err := l.withRetry(ctx, func(tx *sqlx.Tx) (*repository.Transaction, error) {
		wallet, err := l.resolveOrCreateWallet(userID, tx, true)
		if err != nil {
			return nil, err
		}

		err = l.DB.Wallet().UpdateBalance(wallet.ID, wallet.Balance.Add(amount), tx)
		if err != nil {
			return nil, err
		}

		return l.DB.Transaction().Insert(&repository.Transaction{
			ToWalletID:  sql.NullString{String: wallet.ID, Valid: true},
			Amount:      amount,
			Type:        repository.TransactionTypeDeposit,
			Description: nullString(description),
		}, tx)
	})
	if err != nil {
		return nil, err
	}

	l.afterCommit(transaction)

	return transaction, nil
}

// Transfer moves amount from one user's wallet to another's and records a
// transfer transaction, as one atomic unit with both wallet rows locked.
// The sender's wallet must already exist; the receiver's is created if
// absent. Rows are locked in ascending wallet-id order so two transfers
// targeting each other's wallets cannot deadlock.
func (l *Ledger) Transfer(ctx context.Context, fromUserID, toUserID string, amount decimal.Decimal, description string) (*repository.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	if fromUserID == toUserID {
		return nil, ErrSameWallet
	}
	amount = amount.Round(2)

	transaction, err := l.withRetry(ctx, func(tx *sqlx.Tx) (*repository.Transaction, error) {
		sender, found, err := l.DB.Wallet().GetByUserID(fromUserID, tx)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, ErrWalletNotFound
		}

		receiver, err := l.resolveOrCreateWallet(toUserID, tx, false)
		if err != nil {
			return nil, err
		}

		// re-read both rows under lock, lower wallet id first
		sender, receiver, err = l.lockWalletPair(sender.ID, receiver.ID, tx)
		if err != nil {
			return nil, err
		}

		if sender.Balance.LessThan(amount) {
			return nil, ErrInsufficientBalance
		}

		err = l.DB.Wallet().UpdateBalance(sender.ID, sender.Balance.Sub(amount), tx)
		if err != nil {
			return nil, err
		}

		err = l.DB.Wallet().UpdateBalance(receiver.ID, receiver.Balance.Add(amount), tx)
		if err != nil {
			return nil, err
		}

		return l.DB.Transaction().Insert(&repository.Transaction{
			FromWalletID: sql.NullString{String: sender.ID, Valid: true},
			ToWalletID:   sql.NullString{String: receiver.ID, Valid: true},
			Amount:       amount,
			Type:         repository.TransactionTypeTransfer,
			Description:  nullString(description),
		}, tx)
	})
	if err != nil {
		return nil, err
	}

	l.afterCommit(transaction)

	return transaction, nil
}

// GetHistory returns every transaction touching the user's wallet, newest
// first. The wallet is created if the user has none yet, in which case the
// history is empty.
func (l *Ledger) GetHistory(ctx context.Context, userID string) ([]repository.Transaction, error) {
	wallet, err := l.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	return l.DB.Transaction().GetAllByWallet(wallet.ID)
}

// withRetry runs fn inside a database transaction, retrying the whole unit
// on serialization/deadlock failures. A failed attempt always rolls back
// before the next one starts, so no partial effect is ever observable.
func (l *Ledger) withRetry(ctx context.Context, fn func(tx *sqlx.Tx) (*repository.Transaction, error)) (*repository.Transaction, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		transaction, err := l.runAtomic(ctx, fn)
		if err == nil {
			return transaction, nil
		}

		if !isSerializationFailure(err) {
			return nil, err
		}

		lastErr = err
		if l.Logger != nil {
			l.Logger.Warn("retrying ledger operation after serialization failure",
				"attempt", attempt, "error", err.Error())
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, lastErr)
}

func (l *Ledger) runAtomic(ctx context.Context, fn func(tx *sqlx.Tx) (*repository.Transaction, error)) (*repository.Transaction, error) {
	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	// no-op once the transaction has been committed
	defer tx.Rollback()

	transaction, err := fn(tx)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return transaction, nil
}

// resolveOrCreateWallet looks the wallet up by user id, inserting a
// zero-balance row on first miss. When lock is set the returned row is
// locked for the duration of tx; a freshly inserted row is ours until
// commit either way.
func (l *Ledger) resolveOrCreateWallet(userID string, tx *sqlx.Tx, lock bool) (*repository.Wallet, error) {
	lookup := l.DB.Wallet().GetByUserID
	if lock {
		lookup = l.DB.Wallet().GetByUserIDForUpdate
	}

	wallet, found, err := lookup(userID, tx)
	if err != nil {
		return nil, err
	}
	if found {
		return wallet, nil
	}

	wallet, created, err := l.DB.Wallet().CreateForUser(userID, tx)
	if err != nil {
		return nil, err
	}
	if created {
		return wallet, nil
	}

	// lost the insert race; the winner's row is committed by now
	wallet, found, err = lookup(userID, tx)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("wallet for user %s vanished after insert conflict", userID)
	}

	return wallet, nil
}

// lockWalletPair re-reads two wallets FOR UPDATE in ascending wallet-id
// order and hands them back as (first, second) matching the ids passed in.
func (l *Ledger) lockWalletPair(firstID, secondID string, tx *sqlx.Tx) (*repository.Wallet, *repository.Wallet, error) {
	lowID, highID := firstID, secondID
	if highID < lowID {
		lowID, highID = highID, lowID
	}

	low, found, err := l.DB.Wallet().GetForUpdate(lowID, tx)
	if err != nil {
		return nil, nil, err
	}
	if !found {
		return nil, nil, fmt.Errorf("wallet %s vanished while locking", lowID)
	}

	high, found, err := l.DB.Wallet().GetForUpdate(highID, tx)
	if err != nil {
		return nil, nil, err
	}
	if !found {
		return nil, nil, fmt.Errorf("wallet %s vanished while locking", highID)
	}

	if low.ID == firstID {
		return low, high, nil
	}
	return high, low, nil
}

// afterCommit publishes the committed transaction and drops stale cached
// balances. Both are best-effort: the transaction is already durable, so
// failures here are logged and never surfaced to the caller.
func (l *Ledger) afterCommit(transaction *repository.Transaction) {
	if l.Cache != nil {
		for _, walletID := range []sql.NullString{transaction.FromWalletID, transaction.ToWalletID} {
			if !walletID.Valid {
				continue
			}
			if err := l.Cache.Delete(BalanceCacheKey(walletID.String)); err != nil && l.Logger != nil {
				l.Logger.Warn("failed to invalidate balance cache", "wallet_id", walletID.String, "error", err.Error())
			}
		}
	}

	if l.Stream != nil {
		event := TransactionEvent{
			TransactionID: transaction.ID,
			Type:          transaction.Type,
			Amount:        transaction.Amount,
			FromWalletID:  transaction.FromWalletID.String,
			ToWalletID:    transaction.ToWalletID.String,
			Description:   transaction.Description.String,
			CreatedAt:     transaction.CreatedAt,
		}

		message, err := json.Marshal(event)
		if err == nil {
			err = l.Stream.ProduceMessage(TransactionCompletedTopic, string(message))
		}
		if err != nil && l.Logger != nil {
			l.Logger.Warn("failed to publish transaction event", "transaction_id", transaction.ID, "error", err.Error())
		}
	}
}

// BalanceCacheKey is the redis key under which a wallet's balance is
// cached. Writes go through afterCommit invalidation; reads are owned by
// the wallet handler.
func BalanceCacheKey(walletID string) string {
	return "wallet:balance:" + walletID
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
