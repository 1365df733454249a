package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studygraph-backend/internal/platform/logger"
	"github.com/yungbote/studygraph-backend/internal/types"
)

type ConceptRecordRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, rows []*types.ConceptRecord) ([]*types.ConceptRecord, error)
	GetByTicketID(ctx context.Context, tx *gorm.DB, ticketID int64) (*types.ConceptRecord, error)
	GetByPathID(ctx context.Context, tx *gorm.DB, pathID uuid.UUID) ([]*types.ConceptRecord, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.ConceptRecord, error)
}

type conceptRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConceptRecordRepo(db *gorm.DB, baseLog *logger.Logger) ConceptRecordRepo {
	return &conceptRecordRepo{db: db, log: baseLog.With("repo", "ConceptRecordRepo")}
}

func (r *conceptRecordRepo) CreateBatch(ctx context.Context, tx *gorm.DB, rows []*types.ConceptRecord) ([]*types.ConceptRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.ConceptRecord{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *conceptRecordRepo) GetByTicketID(ctx context.Context, tx *gorm.DB, ticketID int64) (*types.ConceptRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.ConceptRecord
	err := transaction.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		First(&row).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *conceptRecordRepo) GetByPathID(ctx context.Context, tx *gorm.DB, pathID uuid.UUID) ([]*types.ConceptRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ConceptRecord
	if pathID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("path_id = ?", pathID).
		Order("sequence_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *conceptRecordRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.ConceptRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ConceptRecord
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("concept_id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
