package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/studygraph-backend/internal/db"
)

// runInTx executes fn inside a SQL transaction when a database handle is
// configured, and directly otherwise so repos fall back to their own
// connections.
func runInTx(ctx context.Context, pg *db.PostgresService, fn func(tx *gorm.DB) error) error {
	if pg == nil {
		return fn(nil)
	}
	return pg.DB().WithContext(ctx).Transaction(fn)
}
