package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Client struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index;not null"`

	Name  string `gorm:"not null"`
	Phone string
	Email string

	// Reminder preferences: clients can opt out entirely or pin the channel
	// used when the trainer sends a reminder manually.
	RemindersOptOut  bool            `gorm:"default:false"`
	PreferredChannel DeliveryChannel `gorm:"type:varchar(20)"`

	Goals     string
	LastVisit *time.Time
	IsActive  bool `gorm:"default:true"`

	Notes    []ClientNote        `gorm:"foreignKey:ClientID"`
	Sessions []Session           `gorm:"foreignKey:ClientID"`
	Payments []PaymentObligation `gorm:"foreignKey:ClientID"`

	gorm.Model
}

func (c *Client) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

type ClientNote struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	ClientID uuid.UUID `gorm:"type:uuid;index;not null"`
	AuthorID uuid.UUID `gorm:"type:uuid;index"`
	Body     string    `gorm:"type:text;not null"`
	Pinned   bool      `gorm:"default:false"`

	gorm.Model
}

func (n *ClientNote) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return
}
