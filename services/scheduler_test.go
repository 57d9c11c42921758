package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"trainerpro-backend/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type capturedMessage struct {
	Contact string
	Message string
}

// captureSender records what it is asked to deliver; fail makes every send
// error out.
type captureSender struct {
	mu   sync.Mutex
	sent []capturedMessage
	fail bool
}

func (s *captureSender) Send(_ context.Context, contact, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("provider unreachable")
	}
	s.sent = append(s.sent, capturedMessage{Contact: contact, Message: message})
	return nil
}

func (s *captureSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type testEnv struct {
	store   *MemoryStore
	history *MemoryHistory
	wa      *captureSender
	email   *captureSender
	sched   *Scheduler
}

func newTestEnv(t *testing.T, opts SchedulerOptions) *testEnv {
	t.Helper()
	store := NewMemoryStore()
	history := NewMemoryHistory()
	wa := &captureSender{}
	email := &captureSender{}
	senders := SenderRegistry{
		models.ChannelWhatsApp: wa,
		models.ChannelEmail:    email,
	}
	sched := NewScheduler(store, store, store, store, history, senders, opts, zerolog.Nop())
	return &testEnv{store: store, history: history, wa: wa, email: email, sched: sched}
}

func (e *testEnv) seedSessionConfig(t *testing.T, rules ...models.ReminderRule) {
	t.Helper()
	cfg := models.ReminderConfig{
		Kind:     models.KindSession,
		Active:   true,
		Rules:    rules,
		Template: models.DefaultSessionTemplate,
	}
	if err := e.store.SaveConfig(context.Background(), &cfg); err != nil {
		t.Fatalf("SaveConfig() = %v", err)
	}
}

func (e *testEnv) seedPaymentConfig(t *testing.T, rules ...models.ReminderRule) {
	t.Helper()
	cfg := models.ReminderConfig{
		Kind:     models.KindPayment,
		Active:   true,
		Rules:    rules,
		Template: models.DefaultPaymentTemplate,
	}
	if err := e.store.SaveConfig(context.Background(), &cfg); err != nil {
		t.Fatalf("SaveConfig() = %v", err)
	}
}

func (e *testEnv) seedClient(name, phone, email string) models.Client {
	client := models.Client{ID: uuid.New(), Name: name, Phone: phone, Email: email, IsActive: true}
	e.store.PutClient(client)
	return client
}

func (e *testEnv) seedSession(client models.Client, startAt time.Time) models.Session {
	sess := models.Session{
		ID:       uuid.New(),
		ClientID: client.ID,
		Title:    "Entrenamiento",
		StartAt:  startAt,
		EndAt:    startAt.Add(time.Hour),
		Status:   models.SessionReserved,
	}
	e.store.PutSession(sess)
	return sess
}

func (e *testEnv) seedPayment(client models.Client, dueAt time.Time) models.PaymentObligation {
	p := models.PaymentObligation{
		ID:           uuid.New(),
		ClientID:     client.ID,
		ServiceLabel: "Mensualidad",
		Amount:       decimal.NewFromInt(60),
		DueAt:        dueAt,
		Status:       models.PaymentUnpaid,
	}
	e.store.PutPayment(p)
	return p
}

func TestRunOnceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	env := newTestEnv(t, SchedulerOptions{})
	env.seedSessionConfig(t, models.ReminderRule{
		ID: "s-2h", Offset: 2, Active: true,
		Channels: []models.DeliveryChannel{models.ChannelWhatsApp},
	})
	client := env.seedClient("Ana", "+34600111222", "")
	env.seedSession(client, now.Add(2*time.Hour))

	records, err := env.sched.RunOnce(ctx, now)
	if err != nil {
		t.Fatalf("first RunOnce() = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("first RunOnce() wrote %d records, want 1", len(records))
	}
	if records[0].Status != models.StatusSent {
		t.Errorf("record status = %s, want sent", records[0].Status)
	}
	if env.wa.count() != 1 {
		t.Errorf("whatsapp sends = %d, want 1", env.wa.count())
	}

	// The same sweep again, and one a few minutes later inside the same
	// window, must both write nothing.
	for _, at := range []time.Time{now, now.Add(10 * time.Minute)} {
		records, err = env.sched.RunOnce(ctx, at)
		if err != nil {
			t.Fatalf("RunOnce(%v) = %v", at, err)
		}
		if len(records) != 0 {
			t.Errorf("RunOnce(%v) wrote %d records, want 0", at, len(records))
		}
	}
	if env.wa.count() != 1 {
		t.Errorf("whatsapp sends after re-runs = %d, want 1", env.wa.count())
	}
	if env.history.Len() != 1 {
		t.Errorf("history has %d records after re-runs, want 1", env.history.Len())
	}
}

func TestRunOncePaymentDueTomorrow(t *testing.T) {
	// A monthly fee due in one day with an offset-1 email rule: one sweep
	// sends one email and writes one sent record, a later sweep the same
	// day adds nothing.
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	env := newTestEnv(t, SchedulerOptions{})
	env.seedPaymentConfig(t, models.ReminderRule{
		ID: "p-1d", Offset: 1, Active: true,
		Channels: []models.DeliveryChannel{models.ChannelEmail},
	})
	client := env.seedClient("Ana", "", "ana@example.com")
	env.seedPayment(client, now.Add(24*time.Hour))

	records, err := env.sched.RunOnce(ctx, now)
	if err != nil {
		t.Fatalf("RunOnce() = %v", err)
	}
	if len(records) != 1 || records[0].Status != models.StatusSent {
		t.Fatalf("records = %+v, want one sent record", records)
	}
	if records[0].Channel != models.ChannelEmail {
		t.Errorf("channel = %s, want email", records[0].Channel)
	}
	if env.email.count() != 1 {
		t.Fatalf("email sends = %d, want 1", env.email.count())
	}
	if !strings.Contains(env.email.sent[0].Message, "quedan 1 días") {
		t.Errorf("message missing remaining days:\n%s", env.email.sent[0].Message)
	}

	records, err = env.sched.RunOnce(ctx, now.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("second RunOnce() = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("second sweep wrote %d records, want 0", len(records))
	}
}

func TestRunOnceRecordsFailureAndBlocksTuple(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	env := newTestEnv(t, SchedulerOptions{})
	env.wa.fail = true
	env.seedSessionConfig(t, models.ReminderRule{
		ID: "s-2h", Offset: 2, Active: true,
		Channels: []models.DeliveryChannel{models.ChannelWhatsApp, models.ChannelEmail},
	})
	client := env.seedClient("Ana", "+34600111222", "ana@example.com")
	env.seedSession(client, now.Add(2*time.Hour))

	records, err := env.sched.RunOnce(ctx, now)
	if err != nil {
		t.Fatalf("RunOnce() = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("RunOnce() wrote %d records, want 2", len(records))
	}

	// One channel failing must not stop the other.
	byChannel := make(map[models.DeliveryChannel]models.DispatchStatus)
	for _, rec := range records {
		byChannel[rec.Channel] = rec.Status
	}
	if byChannel[models.ChannelWhatsApp] != models.StatusFailed {
		t.Errorf("whatsapp status = %s, want failed", byChannel[models.ChannelWhatsApp])
	}
	if byChannel[models.ChannelEmail] != models.StatusSent {
		t.Errorf("email status = %s, want sent", byChannel[models.ChannelEmail])
	}

	// With RetryFailed off a failed tuple blocks like a sent one.
	records, err = env.sched.RunOnce(ctx, now.Add(10*time.Minute))
	if err != nil {
		t.Fatalf("second RunOnce() = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("second sweep wrote %d records, want 0", len(records))
	}
}

func TestRunOnceRetryFailed(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	env := newTestEnv(t, SchedulerOptions{RetryFailed: true})
	env.wa.fail = true
	env.seedSessionConfig(t, models.ReminderRule{
		ID: "s-2h", Offset: 2, Active: true,
		Channels: []models.DeliveryChannel{models.ChannelWhatsApp},
	})
	client := env.seedClient("Ana", "+34600111222", "")
	env.seedSession(client, now.Add(2*time.Hour))

	if records, _ := env.sched.RunOnce(ctx, now); len(records) != 1 || records[0].Status != models.StatusFailed {
		t.Fatalf("first sweep records = %+v, want one failed", records)
	}

	env.wa.fail = false
	records, err := env.sched.RunOnce(ctx, now.Add(10*time.Minute))
	if err != nil {
		t.Fatalf("retry RunOnce() = %v", err)
	}
	if len(records) != 1 || records[0].Status != models.StatusSent {
		t.Fatalf("retry records = %+v, want one sent", records)
	}

	// Now the tuple has a sent record and stays closed.
	if records, _ := env.sched.RunOnce(ctx, now.Add(20*time.Minute)); len(records) != 0 {
		t.Errorf("post-retry sweep wrote %d records, want 0", len(records))
	}
}

func TestRunOnceSkipsMissingContactOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	env := newTestEnv(t, SchedulerOptions{})
	env.seedSessionConfig(t, models.ReminderRule{
		ID: "s-2h", Offset: 2, Active: true,
		Channels: []models.DeliveryChannel{models.ChannelEmail, models.ChannelWhatsApp},
	})
	// Phone but no email: the email leg skips, the whatsapp leg sends.
	client := env.seedClient("Ana", "+34600111222", "")
	env.seedSession(client, now.Add(2*time.Hour))

	records, err := env.sched.RunOnce(ctx, now)
	if err != nil {
		t.Fatalf("RunOnce() = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("RunOnce() wrote %d records, want 2", len(records))
	}
	byChannel := make(map[models.DeliveryChannel]models.ReminderRecord)
	for _, rec := range records {
		byChannel[rec.Channel] = rec
	}
	if rec := byChannel[models.ChannelEmail]; rec.Status != models.StatusSkipped || rec.Reason == "" {
		t.Errorf("email record = %+v, want skipped with a reason", rec)
	}
	if byChannel[models.ChannelWhatsApp].Status != models.StatusSent {
		t.Errorf("whatsapp status = %s, want sent", byChannel[models.ChannelWhatsApp].Status)
	}

	// The skip is recorded once, not once per sweep.
	if records, _ := env.sched.RunOnce(ctx, now.Add(10*time.Minute)); len(records) != 0 {
		t.Errorf("second sweep wrote %d records, want 0", len(records))
	}
	if env.history.Len() != 2 {
		t.Errorf("history has %d records, want 2", env.history.Len())
	}
}

func TestRunOnceSkipsOptedOutClients(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	env := newTestEnv(t, SchedulerOptions{})
	env.seedSessionConfig(t, models.ReminderRule{
		ID: "s-2h", Offset: 2, Active: true,
		Channels: []models.DeliveryChannel{models.ChannelWhatsApp},
	})
	client := models.Client{ID: uuid.New(), Name: "Ana", Phone: "+34600111222", RemindersOptOut: true}
	env.store.PutClient(client)
	env.seedSession(client, now.Add(2*time.Hour))

	records, err := env.sched.RunOnce(ctx, now)
	if err != nil {
		t.Fatalf("RunOnce() = %v", err)
	}
	if len(records) != 0 || env.history.Len() != 0 {
		t.Errorf("opted-out client produced %d records, want 0", env.history.Len())
	}
}

func TestRunOnceEmptyChannelsDispatchNothing(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	env := newTestEnv(t, SchedulerOptions{})
	env.seedSessionConfig(t, models.ReminderRule{ID: "s-2h", Offset: 2, Active: true})
	client := env.seedClient("Ana", "+34600111222", "ana@example.com")
	env.seedSession(client, now.Add(2*time.Hour))

	records, err := env.sched.RunOnce(ctx, now)
	if err != nil {
		t.Fatalf("RunOnce() = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("empty-channel rule produced %d records, want 0", len(records))
	}
}

func TestRunOnceIgnoresIneligibleTargets(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	env := newTestEnv(t, SchedulerOptions{})
	env.seedSessionConfig(t, models.ReminderRule{
		ID: "s-2h", Offset: 2, Active: true,
		Channels: []models.DeliveryChannel{models.ChannelWhatsApp},
	})
	env.seedPaymentConfig(t, models.ReminderRule{
		ID: "p-0d", Offset: 0, Active: true,
		Channels: []models.DeliveryChannel{models.ChannelWhatsApp},
	})
	client := env.seedClient("Ana", "+34600111222", "")

	cancelled := env.seedSession(client, now.Add(2*time.Hour))
	cancelled.Status = models.SessionCancelled
	env.store.PutSession(cancelled)

	paid := env.seedPayment(client, now)
	paid.Status = models.PaymentPaid
	paid.PaidAmount = paid.Amount
	env.store.PutPayment(paid)

	records, err := env.sched.RunOnce(ctx, now)
	if err != nil {
		t.Fatalf("RunOnce() = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("ineligible targets produced %d records, want 0", len(records))
	}
}

func TestRunOnceAppendsActionLinks(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	env := newTestEnv(t, SchedulerOptions{BaseURL: "https://app.example.com"})
	env.seedSessionConfig(t, models.ReminderRule{
		ID: "s-2h", Offset: 2, Active: true,
		Channels: []models.DeliveryChannel{models.ChannelWhatsApp},
	})
	client := env.seedClient("Ana", "+34600111222", "")
	sess := env.seedSession(client, now.Add(2*time.Hour))

	records, err := env.sched.RunOnce(ctx, now)
	if err != nil || len(records) != 1 {
		t.Fatalf("RunOnce() = %v, %d records", err, len(records))
	}
	want := "citaId=" + sess.ID.String() + "&accion=confirmar"
	if !strings.Contains(records[0].RenderedMessage, want) {
		t.Errorf("rendered message missing action link %q:\n%s", want, records[0].RenderedMessage)
	}
}
