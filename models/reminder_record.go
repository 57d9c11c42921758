package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DispatchStatus string

const (
	StatusSent    DispatchStatus = "sent"
	StatusFailed  DispatchStatus = "failed"
	StatusSkipped DispatchStatus = "skipped"
)

// ReminderRecord is one dispatch attempt for a (target, rule, channel)
// tuple. Records are written only by the orchestrator and never mutated;
// RenderedMessage snapshots the content at dispatch time so later rule or
// template edits do not rewrite history. At most one sent record may exist
// per tuple; the gorm store backs that with a partial unique index.
type ReminderRecord struct {
	ID       uuid.UUID       `gorm:"type:uuid;primary_key"`
	TargetID string          `gorm:"type:varchar(64);index:idx_dispatch_tuple;not null"`
	Kind     TargetKind      `gorm:"type:varchar(20);index"`
	ClientID uuid.UUID       `gorm:"type:uuid;index"`
	RuleID   string          `gorm:"type:varchar(64);index:idx_dispatch_tuple;not null"`
	Channel  DeliveryChannel `gorm:"type:varchar(20);index:idx_dispatch_tuple;not null"`

	FiredAt         time.Time      `gorm:"index;not null"`
	RenderedMessage string         `gorm:"type:text"`
	Status          DispatchStatus `gorm:"type:varchar(20);not null"`
	Reason          string         `gorm:"type:text"`

	gorm.Model
}

func (r *ReminderRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
