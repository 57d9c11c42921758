package services

import (
	"context"
	"fmt"
	"time"

	"trainerpro-backend/models"

	"github.com/google/uuid"
)

// SendManual dispatches one reminder outside the sweep, on the operator's
// explicit request. Manual sends bypass rule evaluation and dedup on purpose:
// each gets a unique rule id so the audit trail keeps every attempt and the
// sent-tuple index never blocks a resend.
func (s *Scheduler) SendManual(ctx context.Context, now time.Time, target Target, cfg *models.ReminderConfig, channel models.DeliveryChannel) (*models.ReminderRecord, error) {
	contact, ok := target.Contacts().Address(channel)
	if !ok {
		return nil, fmt.Errorf("client has no contact for channel %s", channel)
	}
	sender, ok := s.senders[channel]
	if !ok {
		return nil, fmt.Errorf("no sender configured for channel %s", channel)
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
		RuleID:          "manual-" + uuid.NewString()[:8],
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
			Str("channel", string(channel)).
			Msg("manual send failed")
	}
	if err := s.history.Record(ctx, rec); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("target", target.TargetID()).
		Str("channel", string(channel)).
		Str("status", string(rec.Status)).
		Msg("manual reminder dispatched")
	return rec, nil
}
