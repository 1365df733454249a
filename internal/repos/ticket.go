package repos

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/studygraph-backend/internal/platform/logger"
	"github.com/yungbote/studygraph-backend/internal/types"
)

type TicketRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Ticket) (*types.Ticket, error)
	GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Ticket, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []int64) ([]*types.Ticket, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, status, resolution string, at time.Time) error
}

type ticketRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTicketRepo(db *gorm.DB, baseLog *logger.Logger) TicketRepo {
	return &ticketRepo{db: db, log: baseLog.With("repo", "TicketRepo")}
}

func (r *ticketRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Ticket) (*types.Ticket, error) {
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

func (r *ticketRepo) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Ticket, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Ticket
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *ticketRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []int64) ([]*types.Ticket, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Ticket
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *ticketRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id int64, status, resolution string, at time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Ticket{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"resolution": resolution,
			"changetime": at,
		}).Error
}
