package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"trainerpro-backend/models"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ErrSweepRunning is returned by RunNow when a sweep is already in flight.
var ErrSweepRunning = errors.New("a reminder sweep is already running")

// ReminderService drives the scheduler from cron. Sweeps run hourly: the
// hour is the smallest rule unit, so hourly coverage guarantees every
// exact-match window of both kinds gets at least one evaluation.
type ReminderService struct {
	sched *Scheduler
	cron  *cron.Cron
	log   zerolog.Logger

	// Overlap guard: two sweeps must never run concurrently. A cron tick
	// that would overlap is skipped and logged, not queued.
	mu sync.Mutex
}

func NewReminderService(sched *Scheduler, log zerolog.Logger) *ReminderService {
	return &ReminderService{
		sched: sched,
		cron:  cron.New(),
		log:   log,
	}
}

// Start registers the hourly sweep and starts the cron loop. One sweep runs
// immediately so a restart never waits an hour to catch the current window.
func (s *ReminderService) Start() error {
	if _, err := s.cron.AddFunc("0 * * * *", s.sweep); err != nil {
		return err
	}
	go s.sweep()
	s.cron.Start()
	s.log.Info().Msg("reminder scheduler started")
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (s *ReminderService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.mu.Lock()
	s.mu.Unlock()
	s.log.Info().Msg("reminder scheduler stopped")
}

func (s *ReminderService) sweep() {
	if _, err := s.RunNow(context.Background(), time.Now()); err != nil {
		if errors.Is(err, ErrSweepRunning) {
			s.log.Warn().Msg("previous sweep still running, skipping tick")
			return
		}
		s.log.Error().Err(err).Msg("reminder sweep reported errors")
	}
}

// RunNow executes one guarded sweep at now. It backs both the cron tick and
// the operator's manual run endpoint (the recovery path for missed windows).
func (s *ReminderService) RunNow(ctx context.Context, now time.Time) ([]models.ReminderRecord, error) {
	if !s.mu.TryLock() {
		return nil, ErrSweepRunning
	}
	defer s.mu.Unlock()
	return s.sched.RunOnce(ctx, now)
}

// Preview exposes the scheduler's simulation without touching the guard:
// previews are read-only and may run alongside a sweep.
func (s *ReminderService) Preview(ctx context.Context, now, windowEnd time.Time) ([]PreviewItem, error) {
	return s.sched.Preview(ctx, now, windowEnd)
}
