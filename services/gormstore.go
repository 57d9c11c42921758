package services

import (
	"context"
	"errors"
	"time"

	"trainerpro-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStore implements every repository interface over postgres. The
// at-most-once guarantee for sent records does not rely on the in-process
// check alone: a partial unique index on the dedup tuple makes the insert
// itself the arbiter, which is what multi-instance deployments need.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates the schema and the partial unique index enforcing at most
// one sent record per (target, rule, channel).
func (s *GormStore) Migrate() error {
	if err := s.db.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.ClientNote{},
		&models.Session{},
		&models.PaymentObligation{},
		&models.ReminderConfig{},
		&models.ReminderRecord{},
	); err != nil {
		return err
	}
	return s.db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_reminder_records_sent_tuple
		 ON reminder_records (target_id, rule_id, channel)
		 WHERE status = 'sent' AND deleted_at IS NULL`,
	).Error
}

// EnsureDefaultConfigs creates the global payment configuration on first
// boot. Session configurations are created per trainer on first edit.
func (s *GormStore) EnsureDefaultConfigs(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.ReminderConfig{}).
		Where("kind = ?", models.KindPayment).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	cfg := models.ReminderConfig{
		Kind:   models.KindPayment,
		Active: true,
		Rules: models.RuleList{
			{ID: "p-3d", Offset: 3, Active: true, Channels: []models.DeliveryChannel{models.ChannelEmail, models.ChannelWhatsApp}, Order: 1},
			{ID: "p-0d", Offset: 0, Active: true, Channels: []models.DeliveryChannel{models.ChannelWhatsApp}, Order: 2},
		},
		Template:       models.DefaultPaymentTemplate,
		DefaultChannel: models.ChannelWhatsApp,
	}
	return s.db.WithContext(ctx).Create(&cfg).Error
}

// --- ClientDirectory ---

func (s *GormStore) Client(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var client models.Client
	if err := s.db.WithContext(ctx).First(&client, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

// --- AppointmentSource ---

func (s *GormStore) SessionsBetween(ctx context.Context, from, to time.Time, trainerID *uuid.UUID) ([]models.Session, error) {
	q := s.db.WithContext(ctx).
		Where("start_at BETWEEN ? AND ?", from, to).
		Where("status IN ?", []models.SessionStatus{models.SessionReserved, models.SessionConfirmed})
	if trainerID != nil {
		q = q.Where("trainer_id = ?", *trainerID)
	}
	var sessions []models.Session
	if err := q.Order("start_at").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// --- PaymentObligationSource ---

func (s *GormStore) OutstandingBetween(ctx context.Context, from, to time.Time) ([]models.PaymentObligation, error) {
	var payments []models.PaymentObligation
	err := s.db.WithContext(ctx).
		Where("due_at BETWEEN ? AND ?", from, to).
		Where("status IN ?", []models.PaymentStatus{models.PaymentUnpaid, models.PaymentOverdue, models.PaymentPartiallyPaid}).
		Order("due_at").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// --- ReminderConfigStore ---

func (s *GormStore) ConfigsByKind(ctx context.Context, kind models.TargetKind) ([]models.ReminderConfig, error) {
	var cfgs []models.ReminderConfig
	if err := s.db.WithContext(ctx).Where("kind = ?", kind).Order("created_at").Find(&cfgs).Error; err != nil {
		return nil, err
	}
	return cfgs, nil
}

func (s *GormStore) Config(ctx context.Context, id uuid.UUID) (*models.ReminderConfig, error) {
	var cfg models.ReminderConfig
	if err := s.db.WithContext(ctx).First(&cfg, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *GormStore) SaveConfig(ctx context.Context, cfg *models.ReminderConfig) error {
	return s.db.WithContext(ctx).Save(cfg).Error
}

// --- DispatchHistory ---

func (s *GormStore) HasFired(ctx context.Context, targetID, ruleID string, channel models.DeliveryChannel) (bool, error) {
	return s.Seen(ctx, targetID, ruleID, channel, models.StatusSent)
}

func (s *GormStore) Seen(ctx context.Context, targetID, ruleID string, channel models.DeliveryChannel, status models.DispatchStatus) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ReminderRecord{}).
		Where("target_id = ? AND rule_id = ? AND channel = ? AND status = ?", targetID, ruleID, channel, status).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) Record(ctx context.Context, rec *models.ReminderRecord) error {
	err := s.db.WithContext(ctx).Create(rec).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyFired
	}
	return err
}

func (s *GormStore) Query(ctx context.Context, from, to time.Time) ([]models.ReminderRecord, error) {
	var records []models.ReminderRecord
	err := s.db.WithContext(ctx).
		Where("fired_at BETWEEN ? AND ?", from, to).
		Order("fired_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
