// Package notify sends account emails.
package notify

import (
	"context"
	"fmt"

	"github.com/mailgun/mailgun-go/v4"
	"go.uber.org/zap"
)

// Mailer delivers one plain-text message.
type Mailer interface {
	Send(ctx context.Context, to, subject, text string) error
}

// MailgunMailer sends through the Mailgun HTTP API.
type MailgunMailer struct {
	mg   mailgun.Mailgun
	from string
}

func NewMailgunMailer(domain, apiKey, from string) *MailgunMailer {
	return &MailgunMailer{mg: mailgun.NewMailgun(domain, apiKey), from: from}
}

func (m *MailgunMailer) Send(ctx context.Context, to, subject, text string) error {
	msg := m.mg.NewMessage(m.from, subject, text, to)
	if _, _, err := m.mg.Send(ctx, msg); err != nil {
		return fmt.Errorf("mailgun send: %w", err)
	}
	return nil
}

// LogMailer only logs. Used when no Mailgun key is configured.
type LogMailer struct {
	Logger *zap.SugaredLogger
}

func (m LogMailer) Send(_ context.Context, to, subject, _ string) error {
	m.Logger.Infow("email not sent, mailer disabled", "to", to, "subject", subject)
	return nil
}
