package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type ActivityLog struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Entity      string    `db:"entity"`
	EntityId    string    `db:"entity_id"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

// entities an activity log can be recorded against
const (
	ActivityLogUserEntity        = "user"
	ActivityLogWalletEntity      = "wallet"
	ActivityLogTransactionEntity = "transaction"
	ActivityLogContractEntity    = "contract"
	ActivityLogDisputeEntity     = "dispute"
)

type ActivityRepository interface {
	Insert(log *ActivityLog) (*ActivityLog, error)
	GetAllByUser(userID string) ([]ActivityLog, error)
}

type ActivityRepositoryImpl struct {
	db *sqlx.DB
}

func NewActivityRepository(db *sqlx.DB) ActivityRepository {
	return &ActivityRepositoryImpl{db: db}
}

func (repo *ActivityRepositoryImpl) Insert(log *ActivityLog) (*ActivityLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var created ActivityLog

	query := `
		INSERT INTO activity_logs (user_id, entity, entity_id, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, entity, entity_id, description, created_at`

	err := repo.db.GetContext(ctx, &created, query,
		log.UserID,
		log.Entity,
		log.EntityId,
		log.Description,
	)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (repo *ActivityRepositoryImpl) GetAllByUser(userID string) ([]ActivityLog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var logs []ActivityLog

	query := `
		SELECT id, user_id, entity, entity_id, description, created_at
		FROM activity_logs WHERE user_id = $1 ORDER BY created_at DESC`

	err := repo.db.SelectContext(ctx, &logs, query, userID)
	if err != nil {
		return nil, err
	}

	return logs, nil
}
