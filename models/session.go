package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionStatus string

const (
	SessionReserved  SessionStatus = "reserved"
	SessionConfirmed SessionStatus = "confirmed"
	SessionCancelled SessionStatus = "cancelled"
	SessionCompleted SessionStatus = "completed"
	SessionNoShow    SessionStatus = "noShow"
)

// RemindersEligible reports whether the session is in a state that should
// still receive reminders. Cancelled, completed and no-show sessions never do.
func (s SessionStatus) RemindersEligible() bool {
	return s == SessionReserved || s == SessionConfirmed
}

type Session struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	TrainerID uuid.UUID `gorm:"type:uuid;index;not null"`
	ClientID  uuid.UUID `gorm:"type:uuid;index;not null"`

	Title    string `gorm:"not null"`
	Location string
	StartAt  time.Time     `gorm:"index;not null"`
	EndAt    time.Time     `gorm:"not null"`
	Status   SessionStatus `gorm:"type:varchar(20);default:'reserved'"`
	Notes    string

	gorm.Model
}

func (s *Session) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
