package db

import (
	"fmt"
	"os"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yungbote/studygraph-backend/internal/platform/envutil"
	"github.com/yungbote/studygraph-backend/internal/platform/logger"
	"github.com/yungbote/studygraph-backend/internal/types"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		host := envutil.String("POSTGRES_HOST", "localhost")
		port := envutil.String("POSTGRES_PORT", "5432")
		user := envutil.String("POSTGRES_USER", "postgres")
		password := envutil.String("POSTGRES_PASSWORD", "")
		name := envutil.String("POSTGRES_NAME", "studygraph")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
	}

	log.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		serviceLog.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.LearningPath{},
		&types.Ticket{},
		&types.TicketCustomField{},
		&types.TicketChange{},
		&types.ConceptRecord{},
		&types.Prerequisite{},
		&types.Progress{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}

func (s *PostgresService) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
