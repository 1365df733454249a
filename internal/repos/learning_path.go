package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studygraph-backend/internal/platform/logger"
	"github.com/yungbote/studygraph-backend/internal/types"
)

type LearningPathRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.LearningPath) (*types.LearningPath, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.LearningPath, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID string) ([]*types.LearningPath, error)
}

type learningPathRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearningPathRepo(db *gorm.DB, baseLog *logger.Logger) LearningPathRepo {
	return &learningPathRepo{db: db, log: baseLog.With("repo", "LearningPathRepo")}
}

func (r *learningPathRepo) Create(ctx context.Context, tx *gorm.DB, row *types.LearningPath) (*types.LearningPath, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil {
		return nil, nil
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *learningPathRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.LearningPath, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.LearningPath
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *learningPathRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID string) ([]*types.LearningPath, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.LearningPath
	if userID == "" {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
