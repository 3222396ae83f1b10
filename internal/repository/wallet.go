package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type Wallet struct {
	ID        string          `db:"id"`
	UserID    string          `db:"user_id"`
	Balance   decimal.Decimal `db:"balance"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt sql.NullTime    `db:"updated_at"`
}

type WalletRepository interface {
	GetOne(id string) (*Wallet, bool, error)
	GetByUserID(userID string, tx *sqlx.Tx) (*Wallet, bool, error)
	GetByUserIDForUpdate(userID string, tx *sqlx.Tx) (*Wallet, bool, error)
	GetForUpdate(id string, tx *sqlx.Tx) (*Wallet, bool, error)
	CreateForUser(userID string, tx *sqlx.Tx) (*Wallet, bool, error)
	UpdateBalance(id string, balance decimal.Decimal, tx *sqlx.Tx) error
}

type WalletRepositoryImpl struct {
	db *sqlx.DB
}

func NewWalletRepository(db *sqlx.DB) WalletRepository {
	return &WalletRepositoryImpl{db: db}
}

func (repo *WalletRepositoryImpl) GetOne(id string) (*Wallet, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var wallet Wallet

	query := `
        SELECT id, user_id, balance, created_at, updated_at FROM wallets WHERE id = $1`

	err := repo.db.GetContext(ctx, &wallet, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &wallet, true, nil
}

func (repo *WalletRepositoryImpl) GetByUserID(userID string, tx *sqlx.Tx) (*Wallet, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var wallet Wallet

	query := `
        SELECT id, user_id, balance, created_at, updated_at FROM wallets WHERE user_id = $1`

	var err error
	if tx != nil {
		err = tx.GetContext(ctx, &wallet, query, userID)
	} else {
		err = repo.db.GetContext(ctx, &wallet, query, userID)
	}

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &wallet, true, nil
}

// GetByUserIDForUpdate locks the wallet row for the duration of the
// surrounding transaction. Must be called with a non-nil tx.
func (repo *WalletRepositoryImpl) GetByUserIDForUpdate(userID string, tx *sqlx.Tx) (*Wallet, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var wallet Wallet

	query := `
        SELECT id, user_id, balance, created_at, updated_at FROM wallets WHERE user_id = $1 FOR UPDATE`

	err := tx.GetContext(ctx, &wallet, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &wallet, true, nil
}

// GetForUpdate locks the wallet row by wallet id. Must be called with a
// non-nil tx.
func (repo *WalletRepositoryImpl) GetForUpdate(id string, tx *sqlx.Tx) (*Wallet, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var wallet Wallet

	query := `
        SELECT id, user_id, balance, created_at, updated_at FROM wallets WHERE id = $1 FOR UPDATE`

	err := tx.GetContext(ctx, &wallet, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &wallet, true, nil
}

// CreateForUser inserts a zero-balance wallet for the user. The user_id
// uniqueness constraint makes this race-safe: when a concurrent insert got
// there first no row comes back and created is false, in which case the
// caller should retry as a lookup.
func (repo *WalletRepositoryImpl) CreateForUser(userID string, tx *sqlx.Tx) (*Wallet, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var wallet Wallet

	query := `
		INSERT INTO wallets (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING id, user_id, balance, created_at, updated_at`

	var err error
	if tx != nil {
		err = tx.GetContext(ctx, &wallet, query, userID)
	} else {
		err = repo.db.GetContext(ctx, &wallet, query, userID)
	}

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &wallet, true, nil
}

func (repo *WalletRepositoryImpl) UpdateBalance(id string, balance decimal.Decimal, tx *sqlx.Tx) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE wallets SET balance = $1, updated_at = now() WHERE id = $2`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, balance, id)
	} else {
		_, err = repo.db.ExecContext(ctx, query, balance, id)
	}

	return err
}
