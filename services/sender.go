package services

import (
	"context"
	"time"

	"trainerpro-backend/models"

	"github.com/rs/zerolog"
)

// ChannelSender delivers one rendered message to one contact. Senders are
// fallible and side-effecting; a nil error means the provider accepted the
// message (fire-and-forget, no rollback). The orchestrator maps nil to a
// sent record and an error to failed.
type ChannelSender interface {
	Send(ctx context.Context, contact, message string) error
}

// SenderRegistry maps channels to their senders. Channels with no sender
// are recorded as skipped so the operator can see the gap.
type SenderRegistry map[models.DeliveryChannel]ChannelSender

// sendWithTimeout bounds a sender call so one unreachable provider cannot
// stall the whole sweep. The sender goroutine may outlive the deadline; its
// late result is discarded.
func sendWithTimeout(ctx context.Context, sender ChannelSender, contact, message string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- sender.Send(ctx, contact, message)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogSender is the development fallback: it logs the message instead of
// delivering it. Useful when Twilio or AMQP credentials are absent.
type LogSender struct {
	Channel models.DeliveryChannel
	Log     zerolog.Logger
}

func (s LogSender) Send(_ context.Context, contact, message string) error {
	s.Log.Info().
		Str("channel", string(s.Channel)).
		Str("to", contact).
		Str("message", message).
		Msg("reminder delivery (log only)")
	return nil
}
