package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"trainerpro-backend/models"

	"github.com/rs/zerolog"
)

func TestRunNowRejectsOverlap(t *testing.T) {
	env := newTestEnv(t, SchedulerOptions{})
	svc := NewReminderService(env.sched, zerolog.Nop())

	svc.mu.Lock()
	defer svc.mu.Unlock()

	_, err := svc.RunNow(context.Background(), time.Now())
	if !errors.Is(err, ErrSweepRunning) {
		t.Fatalf("RunNow() during a running sweep = %v, want ErrSweepRunning", err)
	}
}

func TestRunNowSweeps(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	env := newTestEnv(t, SchedulerOptions{})
	env.seedSessionConfig(t, models.ReminderRule{
		ID: "s-2h", Offset: 2, Active: true,
		Channels: []models.DeliveryChannel{models.ChannelWhatsApp},
	})
	client := env.seedClient("Ana", "+34600111222", "")
	env.seedSession(client, now.Add(2*time.Hour))

	svc := NewReminderService(env.sched, zerolog.Nop())
	records, err := svc.RunNow(context.Background(), now)
	if err != nil {
		t.Fatalf("RunNow() = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("RunNow() wrote %d records, want 1", len(records))
	}
}

func TestPreviewRunsAlongsideSweep(t *testing.T) {
	// Previews are read-only and must not care about the sweep guard.
	env := newTestEnv(t, SchedulerOptions{})
	svc := NewReminderService(env.sched, zerolog.Nop())

	svc.mu.Lock()
	defer svc.mu.Unlock()

	if _, err := svc.Preview(context.Background(), time.Now(), time.Now()); err != nil {
		t.Fatalf("Preview() during a running sweep = %v, want nil", err)
	}
}
