package notify

import (
	"context"
	"log/slog"
)

// LogTransport logs deliveries instead of sending them. Used in ENV=local,
// grounded on the email.LogSender.
type LogTransport struct {
	Logger *slog.Logger
}

func (t *LogTransport) Send(ctx context.Context, d Delivery) error {
	if !IsRouterActive(ctx) {
		t.Logger.Warn("send attempted outside router-active context", "channel", d.Channel, "owner", d.Owner)
	}
	t.Logger.Info("notification (local dev)", "channel", d.Channel, "owner", d.Owner, "subject", d.Subject, "body", d.Body)
	return nil
}
