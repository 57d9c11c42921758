package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"trainerpro-backend/models"
)

func sentRecord(targetID, ruleID string, channel models.DeliveryChannel, firedAt time.Time) *models.ReminderRecord {
	return &models.ReminderRecord{
		TargetID: targetID,
		Kind:     models.KindSession,
		RuleID:   ruleID,
		Channel:  channel,
		FiredAt:  firedAt,
		Status:   models.StatusSent,
	}
}

func TestMemoryHistoryDuplicateSent(t *testing.T) {
	ctx := context.Background()
	h := NewMemoryHistory()
	now := time.Now()

	if err := h.Record(ctx, sentRecord("t1", "r1", models.ChannelWhatsApp, now)); err != nil {
		t.Fatalf("first Record() = %v", err)
	}
	err := h.Record(ctx, sentRecord("t1", "r1", models.ChannelWhatsApp, now))
	if !errors.Is(err, ErrAlreadyFired) {
		t.Fatalf("second Record() = %v, want ErrAlreadyFired", err)
	}
	if h.Len() != 1 {
		t.Errorf("Len() = %d after rejected duplicate, want 1", h.Len())
	}
}

func TestMemoryHistoryTupleDimensions(t *testing.T) {
	// Any change to one tuple component makes it a different tuple.
	ctx := context.Background()
	h := NewMemoryHistory()
	now := time.Now()

	records := []*models.ReminderRecord{
		sentRecord("t1", "r1", models.ChannelWhatsApp, now),
		sentRecord("t1", "r1", models.ChannelEmail, now),
		sentRecord("t1", "r2", models.ChannelWhatsApp, now),
		sentRecord("t2", "r1", models.ChannelWhatsApp, now),
	}
	for i, rec := range records {
		if err := h.Record(ctx, rec); err != nil {
			t.Fatalf("Record(%d) = %v", i, err)
		}
	}
	if h.Len() != 4 {
		t.Errorf("Len() = %d, want 4", h.Len())
	}
}

func TestMemoryHistoryNonSentStatusesDoNotBlock(t *testing.T) {
	ctx := context.Background()
	h := NewMemoryHistory()
	now := time.Now()

	failed := sentRecord("t1", "r1", models.ChannelSMS, now)
	failed.Status = models.StatusFailed
	if err := h.Record(ctx, failed); err != nil {
		t.Fatalf("Record(failed) = %v", err)
	}
	if err := h.Record(ctx, sentRecord("t1", "r1", models.ChannelSMS, now)); err != nil {
		t.Fatalf("Record(sent after failed) = %v, want nil", err)
	}

	fired, err := h.HasFired(ctx, "t1", "r1", models.ChannelSMS)
	if err != nil || !fired {
		t.Errorf("HasFired() = %v, %v, want true, nil", fired, err)
	}
	seenFailed, err := h.Seen(ctx, "t1", "r1", models.ChannelSMS, models.StatusFailed)
	if err != nil || !seenFailed {
		t.Errorf("Seen(failed) = %v, %v, want true, nil", seenFailed, err)
	}
}

func TestMemoryHistoryQuery(t *testing.T) {
	ctx := context.Background()
	h := NewMemoryHistory()
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		rec := sentRecord("t1", "r1", models.ChannelWhatsApp, base.Add(time.Duration(i)*time.Hour))
		rec.RuleID = rec.RuleID + string(rune('a'+i))
		if err := h.Record(ctx, rec); err != nil {
			t.Fatalf("Record(%d) = %v", i, err)
		}
	}

	got, err := h.Query(ctx, base.Add(time.Hour), base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("Query() = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Query() returned %d records, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].FiredAt.After(got[i-1].FiredAt) {
			t.Errorf("Query() not sorted newest first at index %d", i)
		}
	}
}
