package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type Contract struct {
	ID        string          `db:"id"`
	SellerID  string          `db:"seller_id"`
	BuyerID   string          `db:"buyer_id"`
	Title     string          `db:"title"`
	Amount    decimal.Decimal `db:"amount"`
	Status    string          `db:"status"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt sql.NullTime    `db:"updated_at"`
}

// possible contract statuses
const (
	ContractStatusDraft     = "DRAFT"
	ContractStatusActive    = "ACTIVE"
	ContractStatusCompleted = "COMPLETED"
)

type ContractRepository interface {
	Insert(contract *Contract, tx *sqlx.Tx) (*Contract, error)
	GetOne(id string) (*Contract, bool, error)
	GetAllByUserId(userID string) ([]Contract, error)
	Update(contract *Contract) error
	Delete(id string) error
}

type ContractRepositoryImpl struct {
	db *sqlx.DB
}

func NewContractRepository(db *sqlx.DB) ContractRepository {
	return &ContractRepositoryImpl{db: db}
}

func (repo *ContractRepositoryImpl) Insert(contract *Contract, tx *sqlx.Tx) (*Contract, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var created Contract

	query := `
		INSERT INTO contracts (seller_id, buyer_id, title, amount, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, seller_id, buyer_id, title, amount, status, created_at, updated_at`

	if contract.Status == "" {
		contract.Status = ContractStatusDraft
	}

	var err error
	if tx != nil {
		err = tx.GetContext(ctx, &created, query,
			contract.SellerID,
			contract.BuyerID,
			contract.Title,
			contract.Amount,
			contract.Status,
		)
	} else {
		err = repo.db.GetContext(ctx, &created, query,
			contract.SellerID,
			contract.BuyerID,
			contract.Title,
			contract.Amount,
			contract.Status,
		)
	}

	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (repo *ContractRepositoryImpl) GetOne(id string) (*Contract, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var contract Contract

	query := `
        SELECT id, seller_id, buyer_id, title, amount, status, created_at, updated_at
		FROM contracts WHERE id = $1`

	err := repo.db.GetContext(ctx, &contract, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &contract, true, nil
}

// GetAllByUserId returns contracts where the user is seller or buyer,
// newest first.
func (repo *ContractRepositoryImpl) GetAllByUserId(userID string) ([]Contract, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var contracts []Contract

	query := `
        SELECT id, seller_id, buyer_id, title, amount, status, created_at, updated_at
		FROM contracts
		WHERE seller_id = $1 OR buyer_id = $1
		ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &contracts, query, userID)
	if err != nil {
		return nil, err
	}

	return contracts, nil
}

func (repo *ContractRepositoryImpl) Update(contract *Contract) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE contracts SET title = $1, amount = $2, status = $3, updated_at = now()
		WHERE id = $4`

	_, err := repo.db.ExecContext(ctx, query,
		contract.Title,
		contract.Amount,
		contract.Status,
		contract.ID,
	)
	return err
}

func (repo *ContractRepositoryImpl) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `DELETE FROM contracts WHERE id = $1`

	_, err := repo.db.ExecContext(ctx, query, id)
	return err
}
