// Package resend implements notify.Transport over the Resend API,
// grounded directly on the internal/email.ResendSender. Kept as
// a concrete, genuinely-exercised transport for the digest and web
// channels in staging/production rather than dropped as an unwired
// dependency (DESIGN.md).
package resend

import (
	"context"

	"github.com/attentive-assistant/core/internal/apperr"
	"github.com/attentive-assistant/core/internal/notify"
	"github.com/resend/resend-go/v2"
)

// Transport sends digest/web notifications as email via Resend.
type Transport struct {
	client *resend.Client
	from   string
	toFunc func(owner string) string
}

// New builds a Resend-backed transport. toFunc resolves an owner identifier
// to the email address notifications for that owner are sent to.
func New(apiKey, from string, toFunc func(owner string) string) *Transport {
	return &Transport{
		client: resend.NewClient(apiKey),
		from:   from,
		toFunc: toFunc,
	}
}

func (t *Transport) Send(ctx context.Context, d notify.Delivery) error {
	if !notify.IsRouterActive(ctx) {
		return apperr.New(apperr.KindRouterViolation, "send attempted outside router-active context")
	}
	params := &resend.SendEmailRequest{
		From:    t.from,
		To:      []string{t.toFunc(d.Owner)},
		Subject: d.Subject,
		Html:    d.Body,
	}
	if _, err := t.client.Emails.SendWithContext(ctx, params); err != nil {
		return apperr.Wrap(apperr.KindProviderError, "send via resend", err)
	}
	return nil
}
