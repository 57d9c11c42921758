package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"trainerpro-backend/models"

	"github.com/google/uuid"
)

// MemoryStore backs every repository interface with maps. It powers tests
// and DB-less runs; the HTTP deployment uses GormStore instead.
type MemoryStore struct {
	mu       sync.RWMutex
	clients  map[uuid.UUID]models.Client
	sessions map[uuid.UUID]models.Session
	payments map[uuid.UUID]models.PaymentObligation
	configs  map[uuid.UUID]models.ReminderConfig
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		clients:  make(map[uuid.UUID]models.Client),
		sessions: make(map[uuid.UUID]models.Session),
		payments: make(map[uuid.UUID]models.PaymentObligation),
		configs:  make(map[uuid.UUID]models.ReminderConfig),
	}
}

func (s *MemoryStore) PutClient(c models.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = c
}

func (s *MemoryStore) PutSession(sess models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

func (s *MemoryStore) PutPayment(p models.PaymentObligation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[p.ID] = p
}

func (s *MemoryStore) Client(_ context.Context, id uuid.UUID) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	if !ok {
		return nil, fmt.Errorf("client %s not found", id)
	}
	return &c, nil
}

func (s *MemoryStore) SessionsBetween(_ context.Context, from, to time.Time, trainerID *uuid.UUID) ([]models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Session
	for _, sess := range s.sessions {
		if !sess.Status.RemindersEligible() {
			continue
		}
		if sess.StartAt.Before(from) || sess.StartAt.After(to) {
			continue
		}
		if trainerID != nil && sess.TrainerID != *trainerID {
			continue
		}
		out = append(out, sess)
	}
	return out, nil
}

func (s *MemoryStore) OutstandingBetween(_ context.Context, from, to time.Time) ([]models.PaymentObligation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.PaymentObligation
	for _, p := range s.payments {
		if !p.Status.Outstanding() {
			continue
		}
		if p.DueAt.Before(from) || p.DueAt.After(to) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *MemoryStore) ConfigsByKind(_ context.Context, kind models.TargetKind) ([]models.ReminderConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ReminderConfig
	for _, cfg := range s.configs {
		if cfg.Kind == kind {
			out = append(out, cfg)
		}
	}
	return out, nil
}

func (s *MemoryStore) Config(_ context.Context, id uuid.UUID) (*models.ReminderConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[id]
	if !ok {
		return nil, fmt.Errorf("reminder config %s not found", id)
	}
	return &cfg, nil
}

func (s *MemoryStore) SaveConfig(_ context.Context, cfg *models.ReminderConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	s.configs[cfg.ID] = *cfg
	return nil
}
