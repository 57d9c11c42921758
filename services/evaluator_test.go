package services

import (
	"testing"
	"time"

	"trainerpro-backend/models"

	"github.com/google/uuid"
)

func sessionTargetAt(start time.Time) SessionTarget {
	return SessionTarget{
		Session: models.Session{ID: uuid.New(), StartAt: start, Title: "Fuerza"},
		Client:  models.Client{ID: uuid.New(), Name: "Ana", Phone: "+34600111222"},
	}
}

func paymentTargetAt(due time.Time) PaymentTarget {
	return PaymentTarget{
		Obligation: models.PaymentObligation{ID: uuid.New(), DueAt: due, ServiceLabel: "Mensualidad"},
		Client:     models.Client{ID: uuid.New(), Name: "Ana", Phone: "+34600111222"},
	}
}

func TestRemaining(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		target Target
		want   int
	}{
		{"session exactly 3h ahead", sessionTargetAt(now.Add(3 * time.Hour)), 3},
		{"session 3h1m ahead rounds up", sessionTargetAt(now.Add(3*time.Hour + time.Minute)), 4},
		{"session 2h59m ahead rounds up", sessionTargetAt(now.Add(2*time.Hour + 59*time.Minute)), 3},
		{"session at now", sessionTargetAt(now), 0},
		{"session 30m in the past", sessionTargetAt(now.Add(-30 * time.Minute)), 0},
		{"session 61m in the past", sessionTargetAt(now.Add(-61 * time.Minute)), -1},
		{"payment exactly 3d ahead", paymentTargetAt(now.Add(72 * time.Hour)), 3},
		{"payment 3d1m ahead rounds up", paymentTargetAt(now.Add(72*time.Hour + time.Minute)), 4},
		{"payment due now", paymentTargetAt(now), 0},
		{"payment 2d overdue", paymentTargetAt(now.Add(-48 * time.Hour)), -2},
	}

	var eval Evaluator
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eval.Remaining(now, tt.target); got != tt.want {
				t.Errorf("Remaining() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDueRules(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	rules := []models.ReminderRule{
		{ID: "r-24", Offset: 24, Active: true, Channels: []models.DeliveryChannel{models.ChannelWhatsApp}},
		{ID: "r-3", Offset: 3, Active: true, Channels: []models.DeliveryChannel{models.ChannelWhatsApp}},
		{ID: "r-3-off", Offset: 3, Active: false, Channels: []models.DeliveryChannel{models.ChannelSMS}},
		{ID: "r-0", Offset: 0, Active: true, Channels: []models.DeliveryChannel{models.ChannelWhatsApp}},
	}

	tests := []struct {
		name    string
		target  Target
		wantIDs []string
	}{
		{"exact 3h match, inactive twin excluded", sessionTargetAt(now.Add(3 * time.Hour)), []string{"r-3"}},
		{"exact 24h match", sessionTargetAt(now.Add(24 * time.Hour)), []string{"r-24"}},
		{"between offsets matches nothing", sessionTargetAt(now.Add(5 * time.Hour)), nil},
		{"offset zero matches within trailing unit", sessionTargetAt(now.Add(-10 * time.Minute)), []string{"r-0"}},
		{"more than a unit past matches nothing", sessionTargetAt(now.Add(-2 * time.Hour)), nil},
	}

	var eval Evaluator
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			due := eval.DueRules(now, tt.target, rules)
			var got []string
			for _, r := range due {
				got = append(got, r.ID)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("DueRules() = %v, want %v", got, tt.wantIDs)
			}
			for i := range got {
				if got[i] != tt.wantIDs[i] {
					t.Errorf("DueRules()[%d] = %s, want %s", i, got[i], tt.wantIDs[i])
				}
			}
		})
	}
}

func TestDueRulesNeverFiresTwiceAcrossHourlySweeps(t *testing.T) {
	// A rule matches in exactly one unit-sized window: stepping a sweep
	// hour by hour past a fixed session must yield exactly one match per
	// active offset.
	start := time.Date(2026, 3, 12, 18, 0, 0, 0, time.UTC)
	target := sessionTargetAt(start)
	rules := []models.ReminderRule{
		{ID: "r-24", Offset: 24, Active: true},
		{ID: "r-2", Offset: 2, Active: true},
	}

	var eval Evaluator
	matches := make(map[string]int)
	for at := start.Add(-48 * time.Hour); at.Before(start.Add(6 * time.Hour)); at = at.Add(time.Hour) {
		for _, r := range eval.DueRules(at, target, rules) {
			matches[r.ID]++
		}
	}
	for _, r := range rules {
		if matches[r.ID] != 1 {
			t.Errorf("rule %s matched %d times across hourly sweeps, want exactly 1", r.ID, matches[r.ID])
		}
	}
}
