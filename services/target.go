package services

import (
	"strconv"
	"strings"
	"time"

	"trainerpro-backend/models"

	"github.com/google/uuid"
)

// ContactSet is what the client directory knows about reaching one client.
type ContactSet struct {
	Phone string
	Email string
}

// Address resolves the contact for a delivery channel. WhatsApp and SMS ride
// on the phone number, email on the address; a missing value means the
// channel is skipped for this target.
func (c ContactSet) Address(ch models.DeliveryChannel) (string, bool) {
	switch ch {
	case models.ChannelWhatsApp, models.ChannelSMS:
		return c.Phone, c.Phone != ""
	case models.ChannelEmail:
		return c.Email, c.Email != ""
	}
	return "", false
}

// Target is the shared capability contract of the two reminder target
// variants. Each variant supplies its own time unit and template variables;
// the evaluator and renderer never care which kind they hold.
type Target interface {
	TargetID() string
	Kind() models.TargetKind
	ClientID() uuid.UUID
	ClientName() string
	Instant() time.Time
	Unit() time.Duration
	Contacts() ContactSet
	Vars(now time.Time) map[string]string
}

const (
	dateLayout = "02/01/2006"
	timeLayout = "15:04"
)

// SessionTarget wraps an upcoming training session. Session rules count
// offsets in hours.
type SessionTarget struct {
	Session models.Session
	Client  models.Client
}

func (t SessionTarget) TargetID() string          { return t.Session.ID.String() }
func (t SessionTarget) Kind() models.TargetKind   { return models.KindSession }
func (t SessionTarget) ClientID() uuid.UUID       { return t.Client.ID }
func (t SessionTarget) ClientName() string        { return t.Client.Name }
func (t SessionTarget) Instant() time.Time        { return t.Session.StartAt }
func (t SessionTarget) Unit() time.Duration       { return time.Hour }
func (t SessionTarget) Contacts() ContactSet {
	return ContactSet{Phone: t.Client.Phone, Email: t.Client.Email}
}

func (t SessionTarget) Vars(now time.Time) map[string]string {
	name := t.Client.Name
	if name == "" {
		name = "Cliente"
	}
	location := t.Session.Location
	if location == "" {
		location = "el lugar acordado"
	}
	title := t.Session.Title
	if title == "" {
		title = "Sesión"
	}
	return map[string]string{
		"nombre": name,
		"fecha":  t.Session.StartAt.Format(dateLayout),
		"hora":   t.Session.StartAt.Format(timeLayout),
		"lugar":  location,
		"titulo": title,
	}
}

// PaymentTarget wraps an outstanding payment obligation. Payment rules count
// offsets in days.
type PaymentTarget struct {
	Obligation models.PaymentObligation
	Client     models.Client
}

func (t PaymentTarget) TargetID() string        { return t.Obligation.ID.String() }
func (t PaymentTarget) Kind() models.TargetKind { return models.KindPayment }
func (t PaymentTarget) ClientID() uuid.UUID     { return t.Client.ID }
func (t PaymentTarget) ClientName() string      { return t.Client.Name }
func (t PaymentTarget) Instant() time.Time      { return t.Obligation.DueAt }
func (t PaymentTarget) Unit() time.Duration     { return 24 * time.Hour }
func (t PaymentTarget) Contacts() ContactSet {
	return ContactSet{Phone: t.Client.Phone, Email: t.Client.Email}
}

func (t PaymentTarget) Vars(now time.Time) map[string]string {
	name := t.Client.Name
	if name == "" {
		name = "Cliente"
	}
	remaining := unitsRemaining(now, t.Obligation.DueAt, t.Unit())
	if remaining < 0 {
		remaining = 0
	}
	return map[string]string{
		"nombre":           name,
		"monto":            formatAmount(t.Obligation.PendingAmount().StringFixed(2)),
		"servicio":         t.Obligation.ServiceLabel,
		"fechaVencimiento": t.Obligation.DueAt.Format(dateLayout),
		"diasRestantes":    strconv.Itoa(remaining),
	}
}

// formatAmount swaps the decimal point for the comma operators write in
// their templates and invoices.
func formatAmount(s string) string {
	return strings.Replace(s, ".", ",", 1)
}
