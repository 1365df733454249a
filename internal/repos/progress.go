package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studygraph-backend/internal/platform/logger"
	"github.com/yungbote/studygraph-backend/internal/types"
)

type ProgressRepo interface {
	GetByUserAndConcept(ctx context.Context, tx *gorm.DB, userID string, conceptID uuid.UUID) (*types.Progress, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID string) ([]*types.Progress, error)
	GetByUserAndTicket(ctx context.Context, tx *gorm.DB, userID string, ticketID int64) (*types.Progress, error)
	Upsert(ctx context.Context, tx *gorm.DB, row *types.Progress) error
}

type progressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRepo {
	return &progressRepo{db: db, log: baseLog.With("repo", "ProgressRepo")}
}

func (r *progressRepo) GetByUserAndConcept(ctx context.Context, tx *gorm.DB, userID string, conceptID uuid.UUID) (*types.Progress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Progress
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND concept_id = ?", userID, conceptID).
		First(&row).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *progressRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID string) ([]*types.Progress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Progress
	if userID == "" {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *progressRepo) GetByUserAndTicket(ctx context.Context, tx *gorm.DB, userID string, ticketID int64) (*types.Progress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Progress
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND ticket_id = ?", userID, ticketID).
		First(&row).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *progressRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.Progress) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil {
		return nil
	}

	// Upsert by unique user_id + concept_id
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND concept_id = ?", row.UserID, row.ConceptID).
		Assign(row).
		FirstOrCreate(row).Error; err != nil {
		return err
	}
	return nil
}
