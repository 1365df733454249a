package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LearningPath struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID     string         `gorm:"column:user_id;not null;index" json:"user_id"`
	Title      string         `gorm:"column:title;not null" json:"title"`
	Query      string         `gorm:"column:query;not null" json:"query"`
	Difficulty int            `gorm:"column:difficulty;not null;default:3" json:"difficulty"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (LearningPath) TableName() string { return "learning_path" }
