package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeliveryChannel string

const (
	ChannelWhatsApp DeliveryChannel = "whatsapp"
	ChannelSMS      DeliveryChannel = "sms"
	ChannelEmail    DeliveryChannel = "email"
)

func (c DeliveryChannel) Valid() bool {
	return c == ChannelWhatsApp || c == ChannelSMS || c == ChannelEmail
}

// TargetKind selects which reminder pipeline a configuration drives. Session
// rules count offsets in hours, payment rules in days.
type TargetKind string

const (
	KindSession TargetKind = "session"
	KindPayment TargetKind = "payment"
)

// ReminderRule is one configured anticipation step: fire when exactly
// Offset units remain before the target instant.
type ReminderRule struct {
	ID       string            `json:"id"`
	Offset   int               `json:"offset"`
	Active   bool              `json:"active"`
	Channels []DeliveryChannel `json:"channels"`
	Order    int               `json:"order"`
}

// RuleList is stored as a JSONB column, same trick the rest of the schema
// uses for free-form settings.
type RuleList []ReminderRule

func (r RuleList) Value() (driver.Value, error) {
	return json.Marshal(r)
}

func (r *RuleList) Scan(value interface{}) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, r)
}

// Default templates, in the operators' language. Session templates use
// single-brace placeholders, payment templates double-brace; both styles
// predate this backend and operator-authored templates exist in each.
const (
	DefaultSessionTemplate = "Hola {nombre}, te recordamos que tienes una sesión el {fecha} a las {hora} en {lugar}. ¡Te esperamos!"
	DefaultPaymentTemplate = "Hola {{nombre}}, te recordamos que tienes un pago pendiente de {{monto}} por {{servicio}} con vencimiento el {{fechaVencimiento}} (quedan {{diasRestantes}} días)."
)

// ReminderConfig holds the rule set and template for one target kind. The
// payment config is global (UserID nil); session configs are per trainer.
type ReminderConfig struct {
	ID     uuid.UUID  `gorm:"type:uuid;primary_key"`
	Kind   TargetKind `gorm:"type:varchar(20);index;not null"`
	UserID *uuid.UUID `gorm:"type:uuid;index"`

	Active         bool            `gorm:"default:true"`
	Rules          RuleList        `gorm:"type:jsonb;default:'[]'"`
	Template       string          `gorm:"type:text;not null"`
	DefaultChannel DeliveryChannel `gorm:"type:varchar(20);default:'whatsapp'"`

	gorm.Model
}

func (c *ReminderConfig) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

// ActiveRules returns the active subset, in configured order.
func (c *ReminderConfig) ActiveRules() []ReminderRule {
	out := make([]ReminderRule, 0, len(c.Rules))
	for _, r := range c.Rules {
		if r.Active {
			out = append(out, r)
		}
	}
	return out
}

// MaxOffset is the largest active offset, used to bound the sweep's
// look-ahead window.
func (c *ReminderConfig) MaxOffset() int {
	max := 0
	for _, r := range c.Rules {
		if r.Active && r.Offset > max {
			max = r.Offset
		}
	}
	return max
}
