package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/studygraph-backend/internal/platform/logger"
	"github.com/yungbote/studygraph-backend/internal/types"
)

type TicketCustomRepo interface {
	SetMany(ctx context.Context, tx *gorm.DB, ticketID int64, fields map[string]string) error
	GetByTicketID(ctx context.Context, tx *gorm.DB, ticketID int64) (map[string]string, error)
	GetValue(ctx context.Context, tx *gorm.DB, ticketID int64, name string) (string, bool, error)
	FindTicketsByField(ctx context.Context, tx *gorm.DB, name, value string) ([]int64, error)
}

type ticketCustomRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTicketCustomRepo(db *gorm.DB, baseLog *logger.Logger) TicketCustomRepo {
	return &ticketCustomRepo{db: db, log: baseLog.With("repo", "TicketCustomRepo")}
}

func (r *ticketCustomRepo) SetMany(ctx context.Context, tx *gorm.DB, ticketID int64, fields map[string]string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(fields) == 0 {
		return nil
	}
	rows := make([]*types.TicketCustomField, 0, len(fields))
	for name, value := range fields {
		rows = append(rows, &types.TicketCustomField{TicketID: ticketID, Name: name, Value: value})
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ticket_id"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&rows).Error
}

func (r *ticketCustomRepo) GetByTicketID(ctx context.Context, tx *gorm.DB, ticketID int64) (map[string]string, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.TicketCustomField
	if err := transaction.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Name] = row.Value
	}
	return out, nil
}

func (r *ticketCustomRepo) GetValue(ctx context.Context, tx *gorm.DB, ticketID int64, name string) (string, bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.TicketCustomField
	err := transaction.WithContext(ctx).
		Where("ticket_id = ? AND name = ?", ticketID, name).
		First(&row).Error
	if notFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.Value, true, nil
}

func (r *ticketCustomRepo) FindTicketsByField(ctx context.Context, tx *gorm.DB, name, value string) ([]int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []int64
	if err := transaction.WithContext(ctx).
		Model(&types.TicketCustomField{}).
		Where("name = ? AND value = ?", name, value).
		Pluck("ticket_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
