package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrOpenDisputeExists is returned when a second open dispute is raised
// against the same contract. Enforced by a partial unique index, so it
// holds under concurrent inserts too.
var ErrOpenDisputeExists = errors.New("an open dispute already exists for this contract")

type Dispute struct {
	ID          string         `db:"id"`
	ContractID  string         `db:"contract_id"`
	RaisedBy    string         `db:"raised_by"`
	Description string         `db:"description"`
	Status      string         `db:"status"`
	Resolution  sql.NullString `db:"resolution"`
	ResolvedBy  sql.NullString `db:"resolved_by"`
	ResolvedAt  sql.NullTime   `db:"resolved_at"`
	EvidenceURL sql.NullString `db:"evidence_url"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   sql.NullTime   `db:"updated_at"`
}

// possible dispute statuses
const (
	DisputeStatusOpen     = "OPEN"
	DisputeStatusResolved = "RESOLVED"
)

type DisputeRepository interface {
	Insert(dispute *Dispute, tx *sqlx.Tx) (*Dispute, error)
	GetOne(id string) (*Dispute, bool, error)
	GetAllByContract(contractID string) ([]Dispute, error)
	GetAllByUser(userID string) ([]Dispute, error)
	UpdateDescription(id, description string) error
	Resolve(id, resolution, resolvedBy string) error
	SetEvidenceURL(id, evidenceURL string) error
	Delete(id string) error
}

type DisputeRepositoryImpl struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) DisputeRepository {
	return &DisputeRepositoryImpl{db: db}
}

func (repo *DisputeRepositoryImpl) Insert(dispute *Dispute, tx *sqlx.Tx) (*Dispute, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var created Dispute

	query := `
		INSERT INTO disputes (contract_id, raised_by, description)
		VALUES ($1, $2, $3)
		RETURNING id, contract_id, raised_by, description, status, resolution, resolved_by, resolved_at, evidence_url, created_at, updated_at`

	var err error
	if tx != nil {
		err = tx.GetContext(ctx, &created, query,
			dispute.ContractID,
			dispute.RaisedBy,
			dispute.Description,
		)
	} else {
		err = repo.db.GetContext(ctx, &created, query,
			dispute.ContractID,
			dispute.RaisedBy,
			dispute.Description,
		)
	}

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrOpenDisputeExists
		}
		return nil, err
	}

	return &created, nil
}

func (repo *DisputeRepositoryImpl) GetOne(id string) (*Dispute, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var dispute Dispute

	query := `
        SELECT id, contract_id, raised_by, description, status, resolution, resolved_by, resolved_at, evidence_url, created_at, updated_at
		FROM disputes WHERE id = $1`

	err := repo.db.GetContext(ctx, &dispute, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return &dispute, true, nil
}

func (repo *DisputeRepositoryImpl) GetAllByContract(contractID string) ([]Dispute, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var disputes []Dispute

	query := `
        SELECT id, contract_id, raised_by, description, status, resolution, resolved_by, resolved_at, evidence_url, created_at, updated_at
		FROM disputes WHERE contract_id = $1 ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &disputes, query, contractID)
	if err != nil {
		return nil, err
	}

	return disputes, nil
}

func (repo *DisputeRepositoryImpl) GetAllByUser(userID string) ([]Dispute, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var disputes []Dispute

	query := `
        SELECT id, contract_id, raised_by, description, status, resolution, resolved_by, resolved_at, evidence_url, created_at, updated_at
		FROM disputes WHERE raised_by = $1 ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &disputes, query, userID)
	if err != nil {
		return nil, err
	}

	return disputes, nil
}

func (repo *DisputeRepositoryImpl) UpdateDescription(id, description string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE disputes SET description = $1, updated_at = now() WHERE id = $2`

	_, err := repo.db.ExecContext(ctx, query, description, id)
	return err
}

func (repo *DisputeRepositoryImpl) Resolve(id, resolution, resolvedBy string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `
		UPDATE disputes
		SET status = $1, resolution = $2, resolved_by = $3, resolved_at = now(), updated_at = now()
		WHERE id = $4`

	_, err := repo.db.ExecContext(ctx, query, DisputeStatusResolved, resolution, resolvedBy, id)
	return err
}

func (repo *DisputeRepositoryImpl) SetEvidenceURL(id, evidenceURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `UPDATE disputes SET evidence_url = $1, updated_at = now() WHERE id = $2`

	_, err := repo.db.ExecContext(ctx, query, evidenceURL, id)
	return err
}

func (repo *DisputeRepositoryImpl) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	query := `DELETE FROM disputes WHERE id = $1`

	_, err := repo.db.ExecContext(ctx, query, id)
	return err
}
