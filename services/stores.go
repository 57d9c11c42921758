package services

import (
	"context"
	"time"

	"trainerpro-backend/models"

	"github.com/google/uuid"
)

// ClientDirectory resolves contact info and reminder preferences per client.
type ClientDirectory interface {
	Client(ctx context.Context, id uuid.UUID) (*models.Client, error)
}

// AppointmentSource lists reminder-eligible sessions whose start falls in a
// date range, optionally scoped to one trainer.
type AppointmentSource interface {
	SessionsBetween(ctx context.Context, from, to time.Time, trainerID *uuid.UUID) ([]models.Session, error)
}

// PaymentObligationSource lists outstanding dues whose due date falls in a
// date range. Fully paid obligations are never returned.
type PaymentObligationSource interface {
	OutstandingBetween(ctx context.Context, from, to time.Time) ([]models.PaymentObligation, error)
}

// ReminderConfigStore persists reminder configurations. The payment kind has
// a single global configuration; the session kind one per trainer.
type ReminderConfigStore interface {
	ConfigsByKind(ctx context.Context, kind models.TargetKind) ([]models.ReminderConfig, error)
	Config(ctx context.Context, id uuid.UUID) (*models.ReminderConfig, error)
	SaveConfig(ctx context.Context, cfg *models.ReminderConfig) error
}
