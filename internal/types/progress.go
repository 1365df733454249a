package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ProgressNotStarted = "not_started"
	ProgressInProgress = "in_progress"
	ProgressCompleted  = "completed"
	ProgressMastered   = "mastered"
)

type Progress struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID           string         `gorm:"column:user_id;not null;index:idx_user_concept,unique" json:"user_id"`
	ConceptID        uuid.UUID      `gorm:"type:uuid;column:concept_id;not null;index:idx_user_concept,unique" json:"concept_id"`
	TicketID         int64          `gorm:"column:ticket_id;not null;index" json:"ticket_id"`
	Status           string         `gorm:"column:status;not null;default:'not_started'" json:"status"`
	MasteryScore     *float64       `gorm:"column:mastery_score" json:"mastery_score,omitempty"`
	TimeSpentMinutes int            `gorm:"column:time_spent_minutes;not null;default:0" json:"time_spent_minutes"`
	AttemptCount     int            `gorm:"column:attempt_count;not null;default:0" json:"attempt_count"`
	LastAccessed     time.Time      `gorm:"column:last_accessed;not null;default:now()" json:"last_accessed"`
	CompletedAt      *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	Notes            datatypes.JSON `gorm:"type:jsonb;column:notes" json:"notes"`
	CreatedAt        time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Progress) TableName() string { return "progress" }
