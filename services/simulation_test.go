package services

import (
	"context"
	"testing"
	"time"

	"trainerpro-backend/models"
)

func TestPreviewMatchesRunOnce(t *testing.T) {
	// Preview(now, now) and RunOnce(now) must agree on what fires: the
	// preview is a dry run of the same evaluator over the same targets.
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	env := newTestEnv(t, SchedulerOptions{})
	env.seedSessionConfig(t,
		models.ReminderRule{ID: "s-24h", Offset: 24, Active: true, Channels: []models.DeliveryChannel{models.ChannelWhatsApp}},
		models.ReminderRule{ID: "s-2h", Offset: 2, Active: true, Channels: []models.DeliveryChannel{models.ChannelWhatsApp}},
	)
	client := env.seedClient("Ana", "+34600111222", "")
	env.seedSession(client, now.Add(2*time.Hour))
	env.seedSession(client, now.Add(24*time.Hour))
	env.seedSession(client, now.Add(5*time.Hour)) // matches nothing now

	items, err := env.sched.Preview(ctx, now, now)
	if err != nil {
		t.Fatalf("Preview() = %v", err)
	}

	records, err := env.sched.RunOnce(ctx, now)
	if err != nil {
		t.Fatalf("RunOnce() = %v", err)
	}

	if len(items) != len(records) {
		t.Fatalf("preview has %d items, sweep wrote %d records", len(items), len(records))
	}
	previewed := make(map[string]bool)
	for _, item := range items {
		previewed[item.TargetID+"/"+item.RuleID] = true
	}
	for _, rec := range records {
		if !previewed[rec.TargetID+"/"+rec.RuleID] {
			t.Errorf("sweep fired %s/%s but preview did not list it", rec.TargetID, rec.RuleID)
		}
	}
}

func TestPreviewWritesNothing(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	env := newTestEnv(t, SchedulerOptions{})
	env.seedSessionConfig(t, models.ReminderRule{
		ID: "s-2h", Offset: 2, Active: true,
		Channels: []models.DeliveryChannel{models.ChannelWhatsApp},
	})
	client := env.seedClient("Ana", "+34600111222", "")
	env.seedSession(client, now.Add(2*time.Hour))

	items, err := env.sched.Preview(ctx, now, now.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("Preview() = %v", err)
	}
	if len(items) == 0 {
		t.Fatal("Preview() returned no items")
	}
	if env.history.Len() != 0 {
		t.Errorf("preview wrote %d history records, want 0", env.history.Len())
	}
	if env.wa.count() != 0 {
		t.Errorf("preview sent %d messages, want 0", env.wa.count())
	}
}

func TestPreviewWindowCoversFutureSweeps(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	env := newTestEnv(t, SchedulerOptions{})
	env.seedPaymentConfig(t,
		models.ReminderRule{ID: "p-3d", Offset: 3, Active: true, Channels: []models.DeliveryChannel{models.ChannelEmail}},
		models.ReminderRule{ID: "p-0d", Offset: 0, Active: true, Channels: []models.DeliveryChannel{models.ChannelWhatsApp}},
	)
	client := env.seedClient("Ana", "+34600111222", "ana@example.com")
	env.seedPayment(client, now.Add(3*24*time.Hour))

	items, err := env.sched.Preview(ctx, now, now.Add(5*24*time.Hour))
	if err != nil {
		t.Fatalf("Preview() = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Preview() returned %d items, want 2 (offset-3 now, offset-0 on the due day)", len(items))
	}
	if items[0].RuleID != "p-3d" || !items[0].FireAt.Equal(now) {
		t.Errorf("first item = %s at %v, want p-3d at %v", items[0].RuleID, items[0].FireAt, now)
	}
	if items[1].RuleID != "p-0d" || !items[1].FireAt.Equal(now.Add(3*24*time.Hour)) {
		t.Errorf("second item = %s at %v, want p-0d on the due day", items[1].RuleID, items[1].FireAt)
	}
}

func TestPreviewDedupsAcrossSweepInstants(t *testing.T) {
	// A rule matching at one instant inside the window must appear once,
	// even though adjacent sweep instants re-evaluate the same target.
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	env := newTestEnv(t, SchedulerOptions{})
	env.seedSessionConfig(t, models.ReminderRule{
		ID: "s-2h", Offset: 2, Active: true,
		Channels: []models.DeliveryChannel{models.ChannelWhatsApp},
	})
	client := env.seedClient("Ana", "+34600111222", "")
	env.seedSession(client, now.Add(6*time.Hour))

	items, err := env.sched.Preview(ctx, now, now.Add(12*time.Hour))
	if err != nil {
		t.Fatalf("Preview() = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Preview() returned %d items, want 1", len(items))
	}
	if !items[0].FireAt.Equal(now.Add(4 * time.Hour)) {
		t.Errorf("FireAt = %v, want %v", items[0].FireAt, now.Add(4*time.Hour))
	}
}

func TestPreviewClampsInvertedWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	env := newTestEnv(t, SchedulerOptions{})
	env.seedSessionConfig(t, models.ReminderRule{
		ID: "s-0h", Offset: 0, Active: true,
		Channels: []models.DeliveryChannel{models.ChannelWhatsApp},
	})
	client := env.seedClient("Ana", "+34600111222", "")
	env.seedSession(client, now)

	items, err := env.sched.Preview(ctx, now, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("Preview() = %v", err)
	}
	if len(items) != 1 {
		t.Errorf("Preview() with inverted window returned %d items, want 1 (clamped to now)", len(items))
	}
}
