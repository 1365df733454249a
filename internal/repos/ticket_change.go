package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/studygraph-backend/internal/platform/logger"
	"github.com/yungbote/studygraph-backend/internal/types"
)

type TicketChangeRepo interface {
	Append(ctx context.Context, tx *gorm.DB, rows []*types.TicketChange) error
	GetByTicketID(ctx context.Context, tx *gorm.DB, ticketID int64) ([]*types.TicketChange, error)
}

type ticketChangeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTicketChangeRepo(db *gorm.DB, baseLog *logger.Logger) TicketChangeRepo {
	return &ticketChangeRepo{db: db, log: baseLog.With("repo", "TicketChangeRepo")}
}

func (r *ticketChangeRepo) Append(ctx context.Context, tx *gorm.DB, rows []*types.TicketChange) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&rows).Error
}

func (r *ticketChangeRepo) GetByTicketID(ctx context.Context, tx *gorm.DB, ticketID int64) ([]*types.TicketChange, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.TicketChange
	if err := transaction.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("time ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
