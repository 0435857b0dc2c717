// Package notify delivers one-time codes to users.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yukikurage/daily-tracker/internal/models"
)

// Sender delivers a code to a single address.
type Sender interface {
	SendCode(ctx context.Context, to, code string) error
}

// Dispatcher picks the Sender for an OTP channel.
type Dispatcher struct {
	senders map[models.OTPChannel]Sender
}

func NewDispatcher(email, phone Sender) *Dispatcher {
	return &Dispatcher{senders: map[models.OTPChannel]Sender{
		models.OTPChannelEmail: email,
		models.OTPChannelPhone: phone,
	}}
}

func (d *Dispatcher) Deliver(ctx context.Context, channel models.OTPChannel, to, code string) error {
	sender, ok := d.senders[channel]
	if !ok || sender == nil {
		return fmt.Errorf("no sender for channel %q", channel)
	}
	return sender.SendCode(ctx, to, code)
}

// LogSender writes codes to the log. Used for phone numbers and for email
// when no mail provider is configured.
type LogSender struct {
	logger  *slog.Logger
	channel string
}

func NewLogSender(logger *slog.Logger, channel string) *LogSender {
	return &LogSender{logger: logger, channel: channel}
}

func (s *LogSender) SendCode(_ context.Context, to, code string) error {
	s.logger.Info("verification code issued", "channel", s.channel, "to", to, "code", code)
	return nil
}
