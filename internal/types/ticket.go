package types

import (
	"time"
)

// Ticket mirrors the legacy issue-tracker core row. IDs are sequential
// integers because the tracker's plugin surface expects them.
type Ticket struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Type        string    `gorm:"column:type;not null;default:'learning_concept'" json:"type"`
	Summary     string    `gorm:"column:summary;not null" json:"summary"`
	Description string    `gorm:"column:description" json:"description"`
	Status      string    `gorm:"column:status;not null;default:'new'" json:"status"`
	Resolution  string    `gorm:"column:resolution" json:"resolution"`
	Milestone   string    `gorm:"column:milestone" json:"milestone"`
	Owner       string    `gorm:"column:owner;index" json:"owner"`
	Reporter    string    `gorm:"column:reporter" json:"reporter"`
	Keywords    string    `gorm:"column:keywords" json:"keywords"`
	Time        time.Time `gorm:"column:time;not null;default:now()" json:"time"`
	Changetime  time.Time `gorm:"column:changetime;not null;default:now()" json:"changetime"`
}

func (Ticket) TableName() string { return "ticket" }

type TicketCustomField struct {
	TicketID int64  `gorm:"column:ticket_id;primaryKey" json:"ticket_id"`
	Name     string `gorm:"column:name;primaryKey" json:"name"`
	Value    string `gorm:"column:value" json:"value"`
}

func (TicketCustomField) TableName() string { return "ticket_custom" }

type TicketChange struct {
	TicketID int64     `gorm:"column:ticket_id;primaryKey;index" json:"ticket_id"`
	Time     time.Time `gorm:"column:time;primaryKey;not null" json:"time"`
	Author   string    `gorm:"column:author;not null" json:"author"`
	Field    string    `gorm:"column:field;primaryKey;not null" json:"field"`
	OldValue string    `gorm:"column:oldvalue" json:"oldvalue"`
	NewValue string    `gorm:"column:newvalue" json:"newvalue"`
}

func (TicketChange) TableName() string { return "ticket_change" }
