package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ConceptRecord is the relational mirror of one learning ticket: exactly one
// row exists per ticket created through path assembly.
type ConceptRecord struct {
	ConceptID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"concept_id"`
	TicketID         int64          `gorm:"column:ticket_id;not null;uniqueIndex" json:"ticket_id"`
	PathID           uuid.UUID      `gorm:"type:uuid;column:path_id;not null;index" json:"path_id"`
	ConceptName      string         `gorm:"column:concept_name;not null;index" json:"concept_name"`
	SequenceOrder    int            `gorm:"column:sequence_order;not null" json:"sequence_order"`
	DifficultyScore  float64        `gorm:"column:difficulty_score;not null;default:0.5" json:"difficulty_score"`
	MasteryThreshold float64        `gorm:"column:mastery_threshold;not null;default:0.8" json:"mastery_threshold"`
	EstimatedMinutes int            `gorm:"column:estimated_minutes;not null;default:15" json:"estimated_minutes"`
	Tags             datatypes.JSON `gorm:"type:jsonb;column:tags" json:"tags"`
	CreatedAt        time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (ConceptRecord) TableName() string { return "concept_record" }

type Prerequisite struct {
	PrerequisiteID  uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"prerequisite_id"`
	ConceptID       uuid.UUID `gorm:"type:uuid;column:concept_id;not null;index:idx_concept_prereq,unique" json:"concept_id"`
	PrereqConceptID uuid.UUID `gorm:"type:uuid;column:prereq_concept_id;not null;index:idx_concept_prereq,unique" json:"prereq_concept_id"`
	RequirementType string    `gorm:"column:requirement_type;not null;default:'STRONG'" json:"requirement_type"`
	CreatedAt       time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Prerequisite) TableName() string { return "prerequisite" }
