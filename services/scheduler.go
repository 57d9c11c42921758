package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trainerpro-backend/models"

	"github.com/rs/zerolog"
)

// SchedulerOptions tune one Scheduler instance.
type SchedulerOptions struct {
	// BaseURL for session confirm/decline action links; empty disables them.
	BaseURL string
	// SendTimeout bounds each channel-send call.
	SendTimeout time.Duration
	// RetryFailed makes later sweeps retry tuples whose only records are
	// failed. Off by default: a failed record then blocks its tuple exactly
	// like a sent one.
	RetryFailed bool
}

// Scheduler is the reminder orchestrator: it composes the evaluator,
// renderer, channel senders and dispatch history into the periodic sweep.
type Scheduler struct {
	eval     Evaluator
	configs  ReminderConfigStore
	clients  ClientDirectory
	sessions AppointmentSource
	payments PaymentObligationSource
	history  DispatchHistory
	senders  SenderRegistry
	opts     SchedulerOptions
	log      zerolog.Logger
}

func NewScheduler(
	configs ReminderConfigStore,
	clients ClientDirectory,
	sessions AppointmentSource,
	payments PaymentObligationSource,
	history DispatchHistory,
	senders SenderRegistry,
	opts SchedulerOptions,
	log zerolog.Logger,
) *Scheduler {
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 15 * time.Second
	}
	return &Scheduler{
		configs:  configs,
		clients:  clients,
		sessions: sessions,
		payments: payments,
		history:  history,
		senders:  senders,
		opts:     opts,
		log:      log,
	}
}

// RunOnce executes one sweep at now and returns every record written.
// Per-item failures are recorded and logged, never propagated; only store
// errors that prevent a whole kind from being processed surface in the
// returned error, and even then the other kind still runs.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) ([]models.ReminderRecord, error) {
	var records []models.ReminderRecord
	var errs []error

	for _, kind := range []models.TargetKind{models.KindSession, models.KindPayment} {
		cfgs, err := s.configs.ConfigsByKind(ctx, kind)
		if err != nil {
			errs = append(errs, fmt.Errorf("load %s configs: %w", kind, err))
			continue
		}
		for i := range cfgs {
			cfg := cfgs[i]
			if !cfg.Active {
				continue
			}
			targets, err := s.loadTargets(ctx, now, &cfg, now)
			if err != nil {
				errs = append(errs, fmt.Errorf("load %s targets: %w", kind, err))
				continue
			}
			for _, target := range targets {
				records = append(records, s.dispatchTarget(ctx, now, target, &cfg)...)
			}
		}
	}

	s.log.Info().
		Time("now", now).
		Int("records", len(records)).
		Msg("reminder sweep completed")
	return records, errors.Join(errs...)
}

// loadTargets builds the targets whose instant falls inside the bounded
// window for one configuration: one unit behind now (offset-0 rules still
// match up to a unit past the instant) through the largest active offset
// ahead of horizon. Opted-out clients are dropped here, before evaluation.
func (s *Scheduler) loadTargets(ctx context.Context, now time.Time, cfg *models.ReminderConfig, horizon time.Time) ([]Target, error) {
	var unit time.Duration
	if cfg.Kind == models.KindPayment {
		unit = 24 * time.Hour
	} else {
		unit = time.Hour
	}
	from := now.Add(-unit)
	to := horizon.Add(time.Duration(cfg.MaxOffset()+1) * unit)

	var targets []Target
	switch cfg.Kind {
	case models.KindSession:
		sessions, err := s.sessions.SessionsBetween(ctx, from, to, cfg.UserID)
		if err != nil {
			return nil, err
		}
		for _, sess := range sessions {
			client, err := s.clients.Client(ctx, sess.ClientID)
			if err != nil {
				s.log.Warn().Err(err).Str("session", sess.ID.String()).Msg("client lookup failed, skipping target")
				continue
			}
			if client.RemindersOptOut {
				continue
			}
			targets = append(targets, SessionTarget{Session: sess, Client: *client})
		}
	case models.KindPayment:
		payments, err := s.payments.OutstandingBetween(ctx, from, to)
		if err != nil {
			return nil, err
		}
		for _, p := range payments {
			client, err := s.clients.Client(ctx, p.ClientID)
			if err != nil {
				s.log.Warn().Err(err).Str("obligation", p.ID.String()).Msg("client lookup failed, skipping target")
				continue
			}
			if client.RemindersOptOut {
				continue
			}
			targets = append(targets, PaymentTarget{Obligation: p, Client: *client})
		}
	}
	return targets, nil
}

// dispatchTarget evaluates one target and fans out every due rule across
// its channels. Each (target, rule, channel) attempt is isolated.
func (s *Scheduler) dispatchTarget(ctx context.Context, now time.Time, target Target, cfg *models.ReminderConfig) []models.ReminderRecord {
	due := s.eval.DueRules(now, target, cfg.ActiveRules())
	if len(due) == 0 {
		return nil
	}

	var records []models.ReminderRecord
	for _, rule := range due {
		// A rule with no channels dispatches nothing for itself; the
		// operator was warned at edit time.
		for _, channel := range rule.Channels {
			if rec := s.dispatchTuple(ctx, now, target, cfg, rule, channel); rec != nil {
				records = append(records, *rec)
			}
		}
	}
	return records
}

// dispatchTuple runs check-render-send-record for one dedup tuple. A tuple
// that already fired is skipped silently so repeated sweeps within the same
// window stay idempotent; a missing contact or sender is recorded as
// skipped, once, so the operator can diagnose non-delivery.
func (s *Scheduler) dispatchTuple(ctx context.Context, now time.Time, target Target, cfg *models.ReminderConfig, rule models.ReminderRule, channel models.DeliveryChannel) *models.ReminderRecord {
	fired, err := s.history.HasFired(ctx, target.TargetID(), rule.ID, channel)
	if err != nil {
		s.log.Error().Err(err).Str("target", target.TargetID()).Str("rule", rule.ID).Msg("history lookup failed")
		return nil
	}
	if fired {
		return nil
	}
	if !s.opts.RetryFailed {
		failed, err := s.history.Seen(ctx, target.TargetID(), rule.ID, channel, models.StatusFailed)
		if err != nil {
			s.log.Error().Err(err).Str("target", target.TargetID()).Str("rule", rule.ID).Msg("history lookup failed")
			return nil
		}
		if failed {
			return nil
		}
	}

	contact, ok := target.Contacts().Address(channel)
	if !ok {
		return s.recordSkip(ctx, now, target, rule, channel, "no contact for channel")
	}
	sender, ok := s.senders[channel]
	if !ok {
		return s.recordSkip(ctx, now, target, rule, channel, "no sender configured for channel")
	}

	grammar := GrammarFor(target.Kind())
	message := grammar.Render(cfg.Template, target.Vars(now))
	if target.Kind() == models.KindSession && s.opts.BaseURL != "" {
		message = ActionLinks{BaseURL: s.opts.BaseURL}.Append(message, target.TargetID())
	}

	rec := &models.ReminderRecord{
		TargetID:        target.TargetID(),
		Kind:            target.Kind(),
		ClientID:        target.ClientID(),
		RuleID:          rule.ID,
		Channel:         channel,
		FiredAt:         now,
		RenderedMessage: message,
		Status:          models.StatusSent,
	}
	if err := sendWithTimeout(ctx, sender, contact, message, s.opts.SendTimeout); err != nil {
		rec.Status = models.StatusFailed
		rec.Reason = err.Error()
		s.log.Warn().Err(err).
			Str("target", target.TargetID()).
			Str("rule", rule.ID).
			Str("channel", string(channel)).
			Msg("channel send failed")
	}

	if err := s.history.Record(ctx, rec); err != nil {
		if errors.Is(err, ErrAlreadyFired) {
			s.log.Warn().
				Str("target", target.TargetID()).
				Str("rule", rule.ID).
				Str("channel", string(channel)).
				Msg("concurrent sweep won the tuple, dropping duplicate")
			return nil
		}
		s.log.Error().Err(err).Str("target", target.TargetID()).Msg("failed to record dispatch")
		return nil
	}

	s.log.Info().
		Str("target", target.TargetID()).
		Str("rule", rule.ID).
		Str("channel", string(channel)).
		Str("status", string(rec.Status)).
		Msg("reminder dispatched")
	return rec
}

// recordSkip writes a skipped record for the tuple at most once.
func (s *Scheduler) recordSkip(ctx context.Context, now time.Time, target Target, rule models.ReminderRule, channel models.DeliveryChannel, reason string) *models.ReminderRecord {
	seen, err := s.history.Seen(ctx, target.TargetID(), rule.ID, channel, models.StatusSkipped)
	if err != nil || seen {
		return nil
	}
	rec := &models.ReminderRecord{
		TargetID: target.TargetID(),
		Kind:     target.Kind(),
		ClientID: target.ClientID(),
		RuleID:   rule.ID,
		Channel:  channel,
		FiredAt:  now,
		Status:   models.StatusSkipped,
		Reason:   reason,
	}
	if err := s.history.Record(ctx, rec); err != nil {
		s.log.Error().Err(err).Str("target", target.TargetID()).Msg("failed to record skip")
		return nil
	}
	return rec
}
