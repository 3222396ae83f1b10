package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID           string          `db:"id"`
	FromWalletID sql.NullString  `db:"from_wallet_id"`
	ToWalletID   sql.NullString  `db:"to_wallet_id"`
	Amount       decimal.Decimal `db:"amount"`
	Type         string          `db:"type"`
	Description  sql.NullString  `db:"description"`
	CreatedAt    time.Time       `db:"created_at"`
}

// possible transaction types
const (
	TransactionTypeDeposit    = "deposit"
	TransactionTypeWithdrawal = "withdrawal"
	TransactionTypeTransfer   = "transfer"
	TransactionTypePayment    = "payment"
	TransactionTypeRefund     = "refund"
)

type TransactionRepository interface {
	Insert(transaction *Transaction, tx *sqlx.Tx) (*Transaction, error)
	GetOne(id string) (*Transaction, bool, error)
	GetAllByWallet(walletID string) ([]Transaction, error)
}

type TransactionRepositoryImpl struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) TransactionRepository {
	return &TransactionRepositoryImpl{db: db}
}

func (repo *TransactionRepositoryImpl) Insert(transaction *Transaction, tx *sqlx.Tx) (*Transaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var trans Transaction

	query := `
		INSERT INTO transactions (from_wallet_id, to_wallet_id, amount, type, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, from_wallet_id, to_wallet_id, amount, type, description, created_at`

	var err error
	if tx != nil {
		err = tx.GetContext(ctx, &trans, query,
			transaction.FromWalletID,
			transaction.ToWalletID,
			transaction.Amount,
			transaction.Type,
			transaction.Description,
		)
	} else {
		err = repo.db.GetContext(ctx, &trans, query,
			transaction.FromWalletID,
			transaction.ToWalletID,
			transaction.Amount,
			transaction.Type,
			transaction.Description,
		)
	}

	if err != nil {
		return nil, err
	}

	return &trans, nil
}

func (repo *TransactionRepositoryImpl) GetOne(id string) (*Transaction, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var trans Transaction

	query := `
        SELECT id, from_wallet_id, to_wallet_id, amount, type, description, created_at
		FROM transactions WHERE id = $1`

	err := repo.db.GetContext(ctx, &trans, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &trans, true, nil
}

// GetAllByWallet returns every transaction the wallet took part in, on
// either side, newest first.
func (repo *TransactionRepositoryImpl) GetAllByWallet(walletID string) ([]Transaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var transactions []Transaction

	query := `
        SELECT id, from_wallet_id, to_wallet_id, amount, type, description, created_at
		FROM transactions
		WHERE from_wallet_id = $1 OR to_wallet_id = $1
		ORDER BY created_at DESC, id DESC`

	err := repo.db.SelectContext(ctx, &transactions, query, walletID)
	if err != nil {
		return nil, err
	}

	return transactions, nil
}
