package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentUnpaid        PaymentStatus = "unpaid"
	PaymentOverdue       PaymentStatus = "overdue"
	PaymentPartiallyPaid PaymentStatus = "partiallyPaid"
	PaymentPaid          PaymentStatus = "paid"
)

// Outstanding reports whether the obligation still owes money and therefore
// remains a reminder target.
func (s PaymentStatus) Outstanding() bool {
	return s == PaymentUnpaid || s == PaymentOverdue || s == PaymentPartiallyPaid
}

// PaymentObligation is one due amount a client owes: a monthly fee, a pack
// of sessions, a one-off charge. Fully paid obligations drop out of the
// reminder sweep.
type PaymentObligation struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	ClientID uuid.UUID `gorm:"type:uuid;index;not null"`

	ServiceLabel string          `gorm:"not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	PaidAmount   decimal.Decimal `gorm:"type:decimal(10,2);default:0.0"`
	DueAt        time.Time       `gorm:"index;not null"`
	Status       PaymentStatus   `gorm:"type:varchar(20);default:'unpaid'"`
	Notes        string

	gorm.Model
}

func (p *PaymentObligation) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// PendingAmount is what remains to be collected.
func (p *PaymentObligation) PendingAmount() decimal.Decimal {
	return p.Amount.Sub(p.PaidAmount)
}
